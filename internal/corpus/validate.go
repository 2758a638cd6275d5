package corpus

import (
	"strings"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/errors"
)

const maxCategoryLength = 128

// validateRow trims the row, applies the default category and checks length
// limits. The returned row is what gets stored.
func validateRow(row Row, defaultCategory string, maxTextLength int) (Row, error) {
	text := strings.TrimSpace(row.Text)
	if text == "" {
		return Row{}, apperrors.Validation("text is required and must not be empty")
	}
	if maxTextLength > 0 && len(text) > maxTextLength {
		return Row{}, apperrors.Validation("text must be at most %d bytes", maxTextLength)
	}
	if !utf8.ValidString(text) {
		return Row{}, apperrors.Validation("text must be valid UTF-8")
	}
	category := strings.TrimSpace(row.Category)
	if category == "" {
		category = defaultCategory
	}
	if len(category) > maxCategoryLength {
		return Row{}, apperrors.Validation("category must be at most %d characters", maxCategoryLength)
	}
	return Row{Text: text, Category: category}, nil
}
