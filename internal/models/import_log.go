package models

import (
	"time"

	"github.com/google/uuid"
)

type ImportLog struct {
	ID           uuid.UUID `json:"id"`
	Inserted     int       `json:"inserted"`
	Updated      int       `json:"updated"`
	Deleted      int       `json:"deleted"`
	Skipped      int       `json:"skipped"`
	Errors       int       `json:"errors"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	FeedObject   string    `json:"feed_object,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
