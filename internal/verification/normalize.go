// Package verification decides the initial verification state of a new
// account from the evidence submitted at registration.
package verification

import "strings"

// Normalize lowercases text, collapses whitespace runs into single spaces and
// trims the ends. It is applied identically to extracted and asserted text.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
