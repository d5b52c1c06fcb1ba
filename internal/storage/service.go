package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"sort"
	"strings"

	"studyloop-generation/pkg/models"
	"studyloop-generation/pkg/storage"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Material est un support de cours lu pour la génération
type Material struct {
	Name    string
	Content []byte
}

// StorageService range les supports téléversés et les contenus générés d'une semaine
//
//	materials/<course>/<week>/<file>
//	generated/<course>/<week>/<type>.json
type StorageService struct {
	storage storage.Storage
	tracer  trace.Tracer
}

func NewStorageService(backend storage.Storage) *StorageService {
	return &StorageService{
		storage: backend,
		tracer:  otel.Tracer("studyloop/storage"),
	}
}

func materialsPrefix(courseID, weekID string) string {
	return fmt.Sprintf("materials/%s/%s/", courseID, weekID)
}

// ArtifactKey retourne la clé du contenu généré d'un type
func ArtifactKey(courseID, weekID string, ct models.ContentType) string {
	return fmt.Sprintf("generated/%s/%s/%s.json", courseID, weekID, ct)
}

// UploadMaterials enregistre les fichiers sous le préfixe de la semaine
func (s *StorageService) UploadMaterials(ctx context.Context, courseID, weekID string, files []*multipart.FileHeader) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "StorageService.UploadMaterials")
	defer span.End()

	stored := make([]string, 0, len(files))
	for _, fileHeader := range files {
		if err := s.uploadOne(ctx, courseID, weekID, fileHeader); err != nil {
			span.RecordError(err)
			return stored, err
		}
		stored = append(stored, fileHeader.Filename)
	}
	return stored, nil
}

func (s *StorageService) uploadOne(ctx context.Context, courseID, weekID string, fileHeader *multipart.FileHeader) error {
	file, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", fileHeader.Filename, err)
	}
	defer file.Close()

	key := materialsPrefix(courseID, weekID) + path.Base(fileHeader.Filename)
	if err := s.storage.Upload(ctx, key, file); err != nil {
		return fmt.Errorf("failed to upload file %s: %w", fileHeader.Filename, err)
	}
	return nil
}

// UploadMaterial enregistre un support depuis un flux
func (s *StorageService) UploadMaterial(ctx context.Context, courseID, weekID, filename string, content io.Reader) error {
	return s.storage.Upload(ctx, materialsPrefix(courseID, weekID)+path.Base(filename), content)
}

// ListMaterials retourne les noms des supports d'une semaine, triés
func (s *StorageService) ListMaterials(ctx context.Context, courseID, weekID string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "StorageService.ListMaterials")
	defer span.End()

	prefix := materialsPrefix(courseID, weekID)
	keys, err := s.storage.List(ctx, prefix)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list materials for %s/%s: %w", courseID, weekID, err)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := strings.CutPrefix(key, prefix); ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// CountMaterials retourne le nombre de supports téléversés pour une semaine
func (s *StorageService) CountMaterials(ctx context.Context, courseID, weekID string) (int, error) {
	names, err := s.ListMaterials(ctx, courseID, weekID)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// ReadMaterials lit les supports textuels de la semaine dans la limite de maxBytes.
// Les formats binaires sont ignorés. maxBytes <= 0 désactive la limite.
func (s *StorageService) ReadMaterials(ctx context.Context, courseID, weekID string, maxBytes int) ([]Material, error) {
	ctx, span := s.tracer.Start(ctx, "StorageService.ReadMaterials")
	defer span.End()

	names, err := s.ListMaterials(ctx, courseID, weekID)
	if err != nil {
		return nil, err
	}

	var materials []Material
	remaining := maxBytes
	for _, name := range names {
		if !isTextMaterial(name) {
			continue
		}
		if maxBytes > 0 && remaining <= 0 {
			break
		}

		content, err := s.readKey(ctx, materialsPrefix(courseID, weekID)+name, remaining)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if maxBytes > 0 {
			remaining -= len(content)
		}
		materials = append(materials, Material{Name: name, Content: content})
	}
	return materials, nil
}

func (s *StorageService) readKey(ctx context.Context, key string, limit int) ([]byte, error) {
	reader, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer reader.Close()

	var src io.Reader = reader
	if limit > 0 {
		src = io.LimitReader(reader, int64(limit))
	}
	content, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return content, nil
}

func isTextMaterial(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".txt", ".md", ".html", ".json":
		return true
	}
	return false
}

// SaveArtifact sérialise le contenu généré d'un type et retourne sa clé
func (s *StorageService) SaveArtifact(ctx context.Context, courseID, weekID string, ct models.ContentType, artifact any) (string, error) {
	ctx, span := s.tracer.Start(ctx, "StorageService.SaveArtifact")
	defer span.End()

	data, err := json.Marshal(artifact)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s artifact: %w", ct, err)
	}

	key := ArtifactKey(courseID, weekID, ct)
	if err := s.storage.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to upload %s artifact: %w", ct, err)
	}
	return key, nil
}

// LoadArtifact lit le contenu généré d'un type, storage.ErrNotFound s'il n'existe pas
func (s *StorageService) LoadArtifact(ctx context.Context, courseID, weekID string, ct models.ContentType) (json.RawMessage, error) {
	content, err := s.readKey(ctx, ArtifactKey(courseID, weekID, ct), 0)
	if err != nil {
		return nil, err
	}
	if !json.Valid(content) {
		return nil, errors.New("stored artifact is not valid JSON")
	}
	return json.RawMessage(content), nil
}

// ArtifactURL retourne l'URL d'accès au contenu généré d'un type
func (s *StorageService) ArtifactURL(ctx context.Context, courseID, weekID string, ct models.ContentType) (string, error) {
	return s.storage.GetURL(ctx, ArtifactKey(courseID, weekID, ct))
}

// CleanupWeek supprime les supports et les contenus générés d'une semaine
func (s *StorageService) CleanupWeek(ctx context.Context, courseID, weekID string) error {
	names, err := s.ListMaterials(ctx, courseID, weekID)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := s.storage.Delete(ctx, materialsPrefix(courseID, weekID)+name); err != nil {
			return fmt.Errorf("failed to delete material %s: %w", name, err)
		}
	}
	for _, ct := range models.AllContentTypes() {
		if err := s.storage.Delete(ctx, ArtifactKey(courseID, weekID, ct)); err != nil {
			return fmt.Errorf("failed to delete %s artifact: %w", ct, err)
		}
	}
	return nil
}
