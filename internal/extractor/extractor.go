// Package extractor guesses candidate identity fields from plain resume text.
package extractor

import (
	"regexp"
	"strings"
)

var (
	nameRe  = regexp.MustCompile(`(?i)\bname[:\s]+([A-Za-z][A-Za-z \t]*)`)
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@gmail\.com`)
	phoneRe = regexp.MustCompile(`\b\d{10}\b`)
)

// Fields holds the identity fields found in a document. Missing fields are empty.
type Fields struct {
	Name  string
	Email string
	Phone string
}

// Empty reports whether nothing was found.
func (f Fields) Empty() bool {
	return f.Name == "" && f.Email == "" && f.Phone == ""
}

// Extract applies the field patterns to text. The first match of every pattern wins.
func Extract(text string) Fields {
	var fields Fields

	if m := nameRe.FindStringSubmatch(text); m != nil {
		fields.Name = strings.Join(strings.Fields(m[1]), " ")
	}

	fields.Email = emailRe.FindString(text)
	fields.Phone = phoneRe.FindString(text)

	return fields
}
