// Package form validates the payloads submitted to the API.
//
// Each form collects its errors per field and renders them as a single
// invalid-form error so the client can display all of them at once.
package form

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mdouchement/skystore/internal/skerror"
	"golang.org/x/text/cases"
)

// Messages shared by the forms.
const (
	MessageRequired = "This field is required."
)

// ForbiddenWords cannot appear in a product name or description.
var ForbiddenWords = []string{
	"казино", "криптовалюта", "радар", "rolex", "viagra", "bitcoin",
	"gambling", "casino", "porn", "sex", "наркотики", "drugs",
	"взлом", "hack", "крипта", "crypto", "ставки", "betting",
}

// Errors holds the first error of each field.
type Errors map[string]string

// Add records the message for the field unless the field already failed.
func (e Errors) Add(field, format string, args ...any) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = fmt.Sprintf(format, args...)
}

// Err returns the invalid-form error or nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return skerror.InvalidForm(e)
}

func (e Errors) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e.Add(field, MessageRequired)
		return false
	}
	return true
}

func (e Errors) maxLength(field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		e.Add(field, "Ensure this value has at most %d characters.", max)
	}
}

// ForbiddenWord returns the first forbidden word contained in text, case-insensitively.
func ForbiddenWord(text string) (string, bool) {
	folder := cases.Fold()
	text = folder.String(text)

	for _, word := range ForbiddenWords {
		if strings.Contains(text, folder.String(word)) {
			return word, true
		}
	}
	return "", false
}

func (e Errors) clean(field, value string) {
	if word, ok := ForbiddenWord(value); ok {
		e.Add(field, "The text contains a forbidden word: %s.", word)
	}
}
