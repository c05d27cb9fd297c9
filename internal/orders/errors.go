package orders

import (
	"errors"
	"fmt"

	"voltshop_back_end/internal/models"
)

var ErrGatewayUnavailable = errors.New("passerelle de paiement non configurée")

// ValidationError désigne le champ fautif, Line vaut -1 hors lignes panier
type ValidationError struct {
	Field   string
	Line    int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Line: -1, Message: message}
}

func invalidLine(line int, field, message string) *ValidationError {
	return &ValidationError{Field: fmt.Sprintf("items[%d].%s", line, field), Line: line, Message: message}
}

// ProductNotFoundError : la référence de la ligne ne correspond à aucun produit
type ProductNotFoundError struct {
	Line      int
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("produit introuvable à la ligne %d: %q", e.Line, e.ProductID)
}

type TransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s → %s interdite", e.From, e.To)
}
