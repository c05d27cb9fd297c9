package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"voltshop_back_end/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// FeedArchive conserve les flux fournisseurs bruts dans MinIO
type FeedArchive struct {
	client *minio.Client
	bucket string
}

// NewFeedArchive retourne nil sans erreur quand MINIO_ENDPOINT est vide
func NewFeedArchive(ctx context.Context, cfg config.MinIOConfig) (*FeedArchive, error) {
	if cfg.Endpoint == "" {
		log.Println("⚠️ MINIO_ENDPOINT non configuré : les flux ne seront pas archivés")
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connexion MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("vérification bucket MinIO: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("création bucket MinIO: %w", err)
		}
		log.Println("🪣 Bucket créé :", cfg.Bucket)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", cfg.Bucket)
	}

	log.Println("✅ Connecté à MinIO :", cfg.Endpoint)
	return &FeedArchive{client: client, bucket: cfg.Bucket}, nil
}

// FeedObjectKey : feeds/<horodatage UTC>.xml
func FeedObjectKey(at time.Time) string {
	return "feeds/" + at.UTC().Format("20060102T150405Z") + ".xml"
}

func (a *FeedArchive) ArchiveFeed(ctx context.Context, data []byte, at time.Time) (string, error) {
	if a == nil {
		return "", nil
	}
	key := FeedObjectKey(at)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/xml"})
	if err != nil {
		return "", fmt.Errorf("archivage %s: %w", key, err)
	}
	log.Printf("🗄️ Flux archivé: %s/%s (%d octets)", a.bucket, key, len(data))
	return key, nil
}

// PresignedURL génère un lien de téléchargement temporaire
func (a *FeedArchive) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if a == nil || key == "" {
		return "", nil
	}
	u, err := a.client.PresignedGetObject(ctx, a.bucket, key, ttl, make(url.Values))
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
