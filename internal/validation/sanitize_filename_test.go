package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	validator := NewAPIValidator(nil)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"normal filename", "lecture-notes.pdf", "lecture-notes.pdf"},
		{"path traversal", "../../../etc/passwd", "etc_passwd"},
		{"colons", "week:3:slides.pptx", "week_3_slides.pptx"},
		{"pipes", "notes|draft|v2.md", "notes_draft_v2.md"},
		{"question marks", "chapter?2?quiz.txt", "chapter_2_quiz.txt"},
		{"angle brackets", "intro<to>optics.html", "intro_to_optics.html"},
		{"quotes", "\"final\"review.md", "final_review.md"},
		{"backslashes", "unit\\4\\reading.txt", "unit_4_reading.txt"},
		{"forward slashes", "lab/2/protocol.docx", "lab_2_protocol.docx"},
		{"wildcards", "exam*prep*.json", "exam_prep.json"},
		{"dangerous run", "///..\\\\..//syllabus.txt", "syllabus.txt"},
		{"only dots before the extension", "....txt", "unnamed_file.txt"},
		{"leading underscores", "______handout.txt", "handout.txt"},
		{"trailing underscores", "handout.txt______", "handout.txt"},
		{"nothing left", "../../../", "unnamed_file"},
		{"empty", "", "unnamed_file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validator.SanitizeFilename(tt.input), "input: %s", tt.input)
		})
	}
}

func TestSanitizeFilenameTruncatesKeepingExtension(t *testing.T) {
	validator := NewAPIValidator(nil)

	result := validator.SanitizeFilename(strings.Repeat("a", 250) + ".pdf")

	assert.Len(t, result, 200)
	assert.Equal(t, strings.Repeat("a", 196)+".pdf", result)
}

func TestSanitizeFilenameKeepsSafeCharacters(t *testing.T) {
	validator := NewAPIValidator(nil)

	for _, name := range []string{
		"abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_()[].txt",
		"Week 3 Reading List.docx",
		"problem-set_04.md",
		"con.txt", // les noms réservés sont refusés par la validation, pas ici
		".hidden",
	} {
		assert.Equal(t, name, validator.SanitizeFilename(name))
	}

	assert.Equal(t, "draft", validator.SanitizeFilename("draft."))
}
