// internal/validation/validation.go - Service de validation des entrées

package validation

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"studyloop-generation/pkg/models"
)

// MaxIdentifierLength est la longueur max d'un identifiant de cours ou de semaine
const MaxIdentifierLength = 128

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	runIDPattern      = regexp.MustCompile(`^run_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// ValidationConfig contient la configuration de validation
type ValidationConfig struct {
	MaxFileSize       int64           // Taille max par fichier (bytes)
	MaxTotalSize      int64           // Taille max totale (bytes)
	MaxFiles          int             // Nombre max de fichiers
	AllowedExtensions map[string]bool // Extensions autorisées
	MaxFilenameLength int             // Longueur max du nom de fichier
	AllowedMimeTypes  map[string]bool // Types MIME autorisés
}

// DefaultValidationConfig retourne une configuration adaptée aux supports de cours
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxFileSize:       25 * 1024 * 1024,  // 25MB par fichier
		MaxTotalSize:      100 * 1024 * 1024, // 100MB total
		MaxFiles:          20,                // 20 fichiers max
		MaxFilenameLength: 255,               // 255 caractères max
		AllowedExtensions: map[string]bool{
			".pdf":  true, // Cours
			".txt":  true, // Texte
			".md":   true, // Markdown
			".html": true, // Pages exportées
			".docx": true, // Word
			".pptx": true, // Présentations
			".json": true, // Données structurées
		},
		AllowedMimeTypes: map[string]bool{
			"application/pdf":  true,
			"text/plain":       true,
			"text/markdown":    true,
			"text/html":        true,
			"application/json": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
			"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
			"application/octet-stream": true,
		},
	}
}

// ValidationService gère la validation des entrées
type ValidationService struct {
	config *ValidationConfig
}

// NewValidationService crée un nouveau service de validation
func NewValidationService(config *ValidationConfig) *ValidationService {
	if config == nil {
		config = DefaultValidationConfig()
	}

	return &ValidationService{
		config: config,
	}
}

// ValidationError représente une erreur de validation avec détails
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ValidationResult contient le résultat de validation
type ValidationResult struct {
	Valid  bool               `json:"valid"`
	Errors []*ValidationError `json:"errors,omitempty"`
}

// AddError ajoute une erreur de validation
func (vr *ValidationResult) AddError(field, value, message, code string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Code:    code,
	})
}

// Merge ajoute les erreurs d'un autre résultat
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil || other.Valid {
		return
	}
	vr.Valid = false
	vr.Errors = append(vr.Errors, other.Errors...)
}

// FirstMessage retourne le message de la première erreur
func (vr *ValidationResult) FirstMessage() string {
	if len(vr.Errors) == 0 {
		return ""
	}
	return vr.Errors[0].Message
}

// ValidateIdentifier valide un identifiant opaque (cours, semaine)
func (vs *ValidationService) ValidateIdentifier(field, value string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if value == "" {
		result.AddError(field, "", field+" is required", "REQUIRED")
		return result
	}

	if len(value) > MaxIdentifierLength {
		result.AddError(field, value,
			fmt.Sprintf("%s too long (max %d characters)", field, MaxIdentifierLength),
			"TOO_LONG")
	}

	if !identifierPattern.MatchString(value) {
		result.AddError(field, value, field+" contains invalid characters", "INVALID_FORMAT")
	}

	return result
}

// ValidateRunID valide un identifiant d'exécution (run_<uuid>)
func (vs *ValidationService) ValidateRunID(runID string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if runID == "" {
		result.AddError("runId", "", "run ID is required", "REQUIRED")
		return result
	}

	if !runIDPattern.MatchString(runID) {
		result.AddError("runId", runID, "run ID must look like run_<uuid>", "INVALID_RUN_ID")
	}

	return result
}

// ValidateContentTypes valide et normalise la liste des types demandés
func (vs *ValidationService) ValidateContentTypes(raw []string) ([]models.ContentType, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if len(raw) == 0 {
		result.AddError("contentTypes", "", "at least one content type is required", "REQUIRED")
		return nil, result
	}

	for i, r := range raw {
		if _, err := models.ParseContentType(r); err != nil {
			result.AddError(fmt.Sprintf("contentTypes[%d]", i), r,
				"unknown content type (must be one of: "+strings.Join(models.ContentTypeStrings(models.AllContentTypes()), ", ")+")",
				"INVALID_CONTENT_TYPE")
		}
	}
	if !result.Valid {
		return nil, result
	}

	types, _ := models.NormalizeContentTypes(raw)
	return types, result
}

// ValidateGenerationConfig valide une configuration fournie par le client
func (vs *ValidationService) ValidateGenerationConfig(cfg *models.SelectiveGenerationConfig) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if cfg == nil {
		return result
	}

	for ct, fc := range cfg.FeatureConfigs {
		if !ct.IsValid() {
			result.AddError("config.featureConfigs", string(ct), "unknown content type", "INVALID_CONTENT_TYPE")
			continue
		}
		if err := fc.Validate(); err != nil {
			result.AddError("config.featureConfigs."+string(ct), "", err.Error(), "INVALID_FEATURE_CONFIG")
		}
	}

	return result
}

// ValidateFilename valide un nom de fichier de manière robuste
func (vs *ValidationService) ValidateFilename(filename string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if filename == "" {
		result.AddError("filename", "", "filename is required", "REQUIRED")
		return result
	}

	// Vérifier la longueur
	if len(filename) > vs.config.MaxFilenameLength {
		result.AddError("filename", filename,
			fmt.Sprintf("filename too long (max %d characters)", vs.config.MaxFilenameLength),
			"TOO_LONG")
	}

	// Vérifier que c'est un UTF-8 valide
	if !utf8.ValidString(filename) {
		result.AddError("filename", filename, "filename must be valid UTF-8", "INVALID_ENCODING")
	}

	// Vérifier les caractères interdits
	forbiddenChars := []string{
		"..", "/", "\\", ":", "*", "?", "\"", "<", ">", "|",
		"\x00", "\x01", "\x02", "\x03", "\x04", "\x05", "\x06", "\x07",
		"\x08", "\x09", "\x0a", "\x0b", "\x0c", "\x0d", "\x0e", "\x0f",
	}

	for _, char := range forbiddenChars {
		if strings.Contains(filename, char) {
			result.AddError("filename", filename,
				fmt.Sprintf("filename contains forbidden character: %q", char),
				"FORBIDDEN_CHAR")
		}
	}

	// Noms réservés (Windows)
	reservedNames := []string{
		"CON", "PRN", "AUX", "NUL",
		"COM1", "COM2", "COM3", "COM4", "COM5", "COM6", "COM7", "COM8", "COM9",
		"LPT1", "LPT2", "LPT3", "LPT4", "LPT5", "LPT6", "LPT7", "LPT8", "LPT9",
	}

	baseName := strings.ToUpper(strings.TrimSuffix(filename, filepath.Ext(filename)))
	for _, reserved := range reservedNames {
		if baseName == reserved {
			result.AddError("filename", filename,
				fmt.Sprintf("filename uses reserved name: %s", reserved),
				"RESERVED_NAME")
		}
	}

	// Vérifier que le nom ne commence/finit pas par un espace ou un point
	if strings.HasPrefix(filename, " ") || strings.HasSuffix(filename, " ") ||
		strings.HasPrefix(filename, ".") || strings.HasSuffix(filename, ".") {
		result.AddError("filename", filename,
			"filename cannot start or end with space or dot",
			"INVALID_FORMAT")
	}

	// Vérifier l'extension
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		result.AddError("filename", filename, "filename must have an extension", "NO_EXTENSION")
	} else if !vs.config.AllowedExtensions[ext] {
		result.AddError("filename", filename,
			fmt.Sprintf("file extension %s not allowed", ext),
			"FORBIDDEN_EXTENSION")
	}

	return result
}

// ValidateFileHeader valide un header de fichier multipart
func (vs *ValidationService) ValidateFileHeader(header *multipart.FileHeader) *ValidationResult {
	result := &ValidationResult{Valid: true}

	// Valider le nom de fichier
	result.Merge(vs.ValidateFilename(header.Filename))

	// Vérifier la taille
	if header.Size > vs.config.MaxFileSize {
		result.AddError("file_size", fmt.Sprintf("%d", header.Size),
			fmt.Sprintf("file too large (max %d bytes)", vs.config.MaxFileSize),
			"FILE_TOO_LARGE")
	}

	if header.Size == 0 {
		result.AddError("file_size", "0", "file is empty", "EMPTY_FILE")
	}

	// Vérifier le type MIME si disponible
	if len(header.Header["Content-Type"]) > 0 {
		contentType := header.Header["Content-Type"][0]
		// Extraire le type principal (avant les paramètres)
		mainType := strings.TrimSpace(strings.Split(contentType, ";")[0])
		if !vs.config.AllowedMimeTypes[mainType] {
			result.AddError("content_type", contentType,
				fmt.Sprintf("content type %s not allowed", mainType),
				"FORBIDDEN_MIME_TYPE")
		}
	}

	return result
}

// ValidateFiles valide un ensemble de fichiers
func (vs *ValidationService) ValidateFiles(files []*multipart.FileHeader) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if len(files) == 0 {
		result.AddError("files", "", "no files provided", "NO_FILES")
		return result
	}

	// Vérifier le nombre de fichiers
	if len(files) > vs.config.MaxFiles {
		result.AddError("files", fmt.Sprintf("%d files", len(files)),
			fmt.Sprintf("too many files (max %d)", vs.config.MaxFiles),
			"TOO_MANY_FILES")
	}

	// Vérifier la taille totale et valider chaque fichier
	var totalSize int64
	filenames := make(map[string]bool) // Détecter les doublons

	for i, file := range files {
		fileResult := vs.ValidateFileHeader(file)
		if !fileResult.Valid {
			// Préfixer les erreurs avec l'index du fichier
			for _, err := range fileResult.Errors {
				err.Field = fmt.Sprintf("files[%d].%s", i, err.Field)
			}
			result.Merge(fileResult)
		}

		// Vérifier les doublons
		if filenames[file.Filename] {
			result.AddError(fmt.Sprintf("files[%d].filename", i), file.Filename,
				"duplicate filename", "DUPLICATE_FILENAME")
		}
		filenames[file.Filename] = true

		totalSize += file.Size
	}

	// Vérifier la taille totale
	if totalSize > vs.config.MaxTotalSize {
		result.AddError("total_size", fmt.Sprintf("%d", totalSize),
			fmt.Sprintf("total size too large (max %d bytes)", vs.config.MaxTotalSize),
			"TOTAL_SIZE_TOO_LARGE")
	}

	return result
}
