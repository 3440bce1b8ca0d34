package transform

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._-]+@[a-zA-Z0-9._-]+\.[a-zA-Z]{2,}`)
	// an address and the separator in front of it
	inlineEmailPattern = regexp.MustCompile(`(?i)\s*,?\s*\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
)

// ExtractEmails returns the addresses embedded in free text
func ExtractEmails(text string) []string {
	return emailPattern.FindAllString(text, -1)
}

// StripEmails removes addresses (and their separators) from a display string
func StripEmails(text string) string {
	out := inlineEmailPattern.ReplaceAllString(text, "")
	return strings.Trim(out, " ,;\t\n")
}

// recipientSet ordered, case-insensitive set of addresses
type recipientSet struct {
	seen  map[string]struct{}
	order []string
}

func newRecipientSet() *recipientSet {
	return &recipientSet{seen: make(map[string]struct{})}
}

func (r *recipientSet) add(emails ...string) {
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := r.seen[e]; ok {
			continue
		}
		r.seen[e] = struct{}{}
		r.order = append(r.order, e)
	}
}

func (r *recipientSet) list() []string {
	return append([]string(nil), r.order...)
}
