// Package render turns a study sheet into a downloadable PDF.
//
// Two strategies exist: draw rasterizes pages directly, chrome prints an
// HTML template through a headless browser. Both produce the same document
// structure; draw has no external runtime dependency and is the default.
package render

import (
	"context"
	"strings"
	"unicode"

	"github.com/fichemax/fichemax/internal/studysheet"
)

// Renderer produces a PDF document from a study sheet.
type Renderer interface {
	RenderStudySheet(ctx context.Context, sheet *studysheet.StudySheet) ([]byte, error)
	Name() string
}

const maxSlugLen = 40

// PDFFileName derives the download file name for a question,
// e.g. "Transistors bipolaires" -> "fiche_transistors_bipolaires.pdf".
func PDFFileName(question string) string {
	slug := Slugify(question)
	if slug == "" {
		slug = "fiche"
		return slug + ".pdf"
	}
	return "fiche_" + slug + ".pdf"
}

// Slugify lowercases the text and replaces runs of non-alphanumeric runes
// with single underscores. Accented letters are kept as-is; they are valid
// in file names and dropping them would mangle French titles.
func Slugify(text string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	slug := strings.Trim(b.String(), "_")
	if runes := []rune(slug); len(runes) > maxSlugLen {
		slug = strings.Trim(string(runes[:maxSlugLen]), "_")
	}
	return slug
}
