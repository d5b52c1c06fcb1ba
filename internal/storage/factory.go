package storage

import (
	"fmt"

	"studyloop-generation/internal/config"
	"studyloop-generation/internal/storage/filesystem"
	"studyloop-generation/internal/storage/garage"
	"studyloop-generation/pkg/storage"
)

// NewStorage crée une nouvelle instance de storage basée sur la configuration
func NewStorage(cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "filesystem":
		return filesystem.NewFilesystemStorage(cfg.BasePath)
	case "garage":
		return garage.NewGarageStorage(&storage.StorageConfig{
			Type:      cfg.Type,
			BasePath:  cfg.BasePath,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
