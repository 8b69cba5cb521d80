// Package email derives human-readable names from addresses. Sponsorship
// notifications greet recipients by name even when the user record only
// carries an e-mail.
package email

import (
	"strings"
	"unicode"
)

// DeriveNameFromEmail splits an address's local part on common separators
// and returns a (first, last) pair. "ana.lima@acme.test" becomes
// ("Ana", "Lima"); anything unusable falls back to "User".
func DeriveNameFromEmail(addr string) (string, string) {
	local, _, found := strings.Cut(addr, "@")
	if !found || local == "" {
		local = addr
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "User", "User"
	}

	first := capitalize(parts[0])
	last := "User"
	if len(parts) > 1 {
		last = capitalize(parts[len(parts)-1])
	}
	return first, last
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
