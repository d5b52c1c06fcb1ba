// internal/validation/validation_security_test.go - Tests de sécurité pour la validation

package validation

import (
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// hasCode retourne true si le résultat contient le code d'erreur attendu
func hasCode(result *ValidationResult, code string) bool {
	for _, err := range result.Errors {
		if err.Code == code {
			return true
		}
	}
	return false
}

func TestFilenameValidationSecurity(t *testing.T) {
	validator := NewValidationService(DefaultValidationConfig())

	testCases := []struct {
		name     string
		filename string
		valid    bool
		code     string
	}{
		// Path traversal
		{"path traversal double dot", "../../../etc/passwd", false, "FORBIDDEN_CHAR"},
		{"path traversal with slashes", "../../windows/system32/config", false, "FORBIDDEN_CHAR"},
		{"hidden path traversal", "normal.txt/../../../etc/shadow", false, "FORBIDDEN_CHAR"},

		// Noms réservés (Windows)
		{"reserved name CON", "CON.txt", false, "RESERVED_NAME"},
		{"reserved name PRN", "PRN.md", false, "RESERVED_NAME"},
		{"reserved name COM1", "COM1.pdf", false, "RESERVED_NAME"},

		// Caractères interdits
		{"colon character", "file:name.txt", false, "FORBIDDEN_CHAR"},
		{"asterisk character", "file*name.txt", false, "FORBIDDEN_CHAR"},
		{"pipe character", "file|name.txt", false, "FORBIDDEN_CHAR"},
		{"null byte", "file\x00name.txt", false, "FORBIDDEN_CHAR"},

		// Format
		{"starts with space", " lecture.pdf", false, "INVALID_FORMAT"},
		{"starts with dot", ".hidden.txt", false, "INVALID_FORMAT"},
		{"ends with dot", "lecture.", false, "INVALID_FORMAT"},

		{"too long", strings.Repeat("a", 300) + ".txt", false, "TOO_LONG"},
		{"no extension", "lecture", false, "NO_EXTENSION"},

		// Extensions interdites
		{"exe extension", "malware.exe", false, "FORBIDDEN_EXTENSION"},
		{"js extension", "script.js", false, "FORBIDDEN_EXTENSION"},
		{"sh extension", "script.sh", false, "FORBIDDEN_EXTENSION"},

		// Supports de cours valides
		{"valid pdf", "week-3-thermodynamics.pdf", true, ""},
		{"valid markdown", "notes.md", true, ""},
		{"valid slides", "Lecture 3.pptx", true, ""},
		{"valid document", "reading_list.docx", true, ""},
		{"valid text", "transcript.txt", true, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.ValidateFilename(tc.filename)

			if tc.valid {
				assert.True(t, result.Valid, "Expected filename to be valid: %s", tc.filename)
				assert.Empty(t, result.Errors)
				return
			}
			assert.False(t, result.Valid, "Expected filename to be invalid: %s", tc.filename)
			assert.True(t, hasCode(result, tc.code), "Expected error code %s for filename %s", tc.code, tc.filename)
		})
	}
}

func TestIdentifierValidation(t *testing.T) {
	validator := NewValidationService(nil)

	testCases := []struct {
		name  string
		value string
		valid bool
		code  string
	}{
		{"simple", "w1", true, ""},
		{"uuid-like", "7f1c2b7e-59d4-4a8e-9c56-0d5a0a9c1f10", true, ""},
		{"underscores", "course_2025_fall", true, ""},
		{"empty", "", false, "REQUIRED"},
		{"slash", "c1/w1", false, "INVALID_FORMAT"},
		{"traversal", "../w1", false, "INVALID_FORMAT"},
		{"space", "week 1", false, "INVALID_FORMAT"},
		{"too long", strings.Repeat("a", MaxIdentifierLength+1), false, "TOO_LONG"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.ValidateIdentifier("weekId", tc.value)
			assert.Equal(t, tc.valid, result.Valid)
			if !tc.valid {
				assert.True(t, hasCode(result, tc.code), "Expected error code %s", tc.code)
				assert.Equal(t, "weekId", result.Errors[0].Field)
			}
		})
	}
}

func TestRunIDValidation(t *testing.T) {
	validator := NewValidationService(nil)

	assert.True(t, validator.ValidateRunID("run_0b8f5c1e-2d3a-4f7b-9c1d-5e6f7a8b9c0d").Valid)
	assert.False(t, validator.ValidateRunID("").Valid)
	assert.False(t, validator.ValidateRunID("0b8f5c1e-2d3a-4f7b-9c1d-5e6f7a8b9c0d").Valid)
	assert.True(t, hasCode(validator.ValidateRunID("run_../../x"), "INVALID_RUN_ID"))
}

func TestContentTypesValidation(t *testing.T) {
	validator := NewValidationService(nil)

	t.Run("normalizes and dedupes", func(t *testing.T) {
		types, result := validator.ValidateContentTypes([]string{"summaries", "cuecards", "summaries", "multiple_choice"})
		assert.True(t, result.Valid)
		assert.Equal(t, "cuecards,multipleChoice,summaries", joinTypes(types))
	})

	t.Run("empty list", func(t *testing.T) {
		_, result := validator.ValidateContentTypes(nil)
		assert.False(t, result.Valid)
		assert.True(t, hasCode(result, "REQUIRED"))
	})

	t.Run("unknown type", func(t *testing.T) {
		_, result := validator.ValidateContentTypes([]string{"cuecards", "flashcards"})
		assert.False(t, result.Valid)
		assert.Equal(t, "contentTypes[1]", result.Errors[0].Field)
		assert.True(t, hasCode(result, "INVALID_CONTENT_TYPE"))
	})
}

func TestContentSafetyValidation(t *testing.T) {
	validator := NewAPIValidator(DefaultValidationConfig())

	testCases := []struct {
		name     string
		content  string
		filename string
		valid    bool
		code     string
	}{
		{"script tags", "<html><script>alert('xss')</script></html>", "page.html", false, "SCRIPT_TAGS_NOT_ALLOWED"},
		{"safe html", "<html><body><h1>Title</h1></body></html>", "page.html", true, ""},
		{"javascript links", "[Click here](javascript:alert('xss'))", "doc.md", false, "JAVASCRIPT_LINKS_NOT_ALLOWED"},
		{"safe markdown", "# Title\n\nThis is safe content.", "doc.md", true, ""},
		{"control chars", "Normal text\x01with control", "file.txt", false, "CONTROL_CHARACTERS"},
		{"safe text", "Normal text with tabs\tand newlines\n", "file.txt", true, ""},
		{"binary pdf is not inspected", "%PDF-1.7\x00\x01\x02", "slides.pdf", true, ""},
		{"too large", strings.Repeat("x", 26*1024*1024), "large.txt", false, "CONTENT_TOO_LARGE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := validator.ValidateContentSafety([]byte(tc.content), tc.filename)

			if tc.valid {
				assert.True(t, result.Valid, "Expected content to be valid")
				return
			}
			assert.False(t, result.Valid, "Expected content to be invalid")
			assert.True(t, hasCode(result, tc.code), "Expected error code %s", tc.code)
		})
	}
}

func TestFileUploadValidation(t *testing.T) {
	validator := NewValidationService(DefaultValidationConfig())

	t.Run("Multiple file validation", func(t *testing.T) {
		files := []*multipart.FileHeader{
			createTestFileHeader("notes.md", "text/markdown", 1000),
			createTestFileHeader("slides.pdf", "application/pdf", 2000),
			createTestFileHeader("transcript.txt", "text/plain; charset=utf-8", 3000),
		}

		result := validator.ValidateFiles(files)
		assert.True(t, result.Valid, "Valid files should pass validation")
	})

	t.Run("Too many files", func(t *testing.T) {
		config := DefaultValidationConfig()
		config.MaxFiles = 2
		validator := NewValidationService(config)

		files := []*multipart.FileHeader{
			createTestFileHeader("file1.md", "text/markdown", 1000),
			createTestFileHeader("file2.md", "text/markdown", 1000),
			createTestFileHeader("file3.md", "text/markdown", 1000),
		}

		result := validator.ValidateFiles(files)
		assert.False(t, result.Valid)
		assert.True(t, hasCode(result, "TOO_MANY_FILES"))
	})

	t.Run("Total size too large", func(t *testing.T) {
		config := DefaultValidationConfig()
		config.MaxTotalSize = 5000
		validator := NewValidationService(config)

		files := []*multipart.FileHeader{
			createTestFileHeader("large1.md", "text/markdown", 3000),
			createTestFileHeader("large2.md", "text/markdown", 3000),
		}

		result := validator.ValidateFiles(files)
		assert.False(t, result.Valid)
		assert.True(t, hasCode(result, "TOTAL_SIZE_TOO_LARGE"))
	})

	t.Run("Duplicate filenames", func(t *testing.T) {
		files := []*multipart.FileHeader{
			createTestFileHeader("duplicate.md", "text/markdown", 1000),
			createTestFileHeader("duplicate.md", "text/markdown", 1000),
		}

		result := validator.ValidateFiles(files)
		assert.False(t, result.Valid)
		assert.True(t, hasCode(result, "DUPLICATE_FILENAME"))
	})

	t.Run("Forbidden mime type", func(t *testing.T) {
		files := []*multipart.FileHeader{
			createTestFileHeader("notes.md", "application/x-msdownload", 10),
		}

		result := validator.ValidateFiles(files)
		assert.False(t, result.Valid)
		assert.Equal(t, "files[0].content_type", result.Errors[0].Field)
	})

	t.Run("Empty files", func(t *testing.T) {
		files := []*multipart.FileHeader{
			createTestFileHeader("empty.md", "text/markdown", 0),
		}

		result := validator.ValidateFiles(files)
		assert.False(t, result.Valid)
		assert.True(t, hasCode(result, "EMPTY_FILE"))
	})
}

// createTestFileHeader construit un header multipart de test
func createTestFileHeader(filename, contentType string, size int64) *multipart.FileHeader {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="files"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	return &multipart.FileHeader{
		Filename: filename,
		Header:   header,
		Size:     size,
	}
}

func BenchmarkFilenameValidation(b *testing.B) {
	validator := NewValidationService(DefaultValidationConfig())
	testFiles := []string{
		"normal.txt",
		"../../../etc/passwd",
		"file:with:colons.txt",
		"week-3-slides.pdf",
		strings.Repeat("a", 200) + ".md",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		validator.ValidateFilename(testFiles[i%len(testFiles)])
	}
}
