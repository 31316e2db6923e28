package verification

import "strings"

// MatchIdentity reports whether normalizedText, usually OCR output, carries
// both the asserted roll number and at least one token of the asserted name.
//
// The roll number must appear as a contiguous substring. No word boundary is
// enforced, so "2021cs0451" also satisfies "2021cs045". The name check accepts
// any single token, which lets a first name alone pass when OCR mangles the rest.
func MatchIdentity(normalizedText, assertedName, assertedRollNumber string) bool {
	return matchRollNumber(normalizedText, assertedRollNumber) &&
		matchName(normalizedText, assertedName)
}

func matchRollNumber(text, rollNumber string) bool {
	roll := Normalize(rollNumber)
	if roll == "" {
		return false
	}
	return strings.Contains(text, roll)
}

func matchName(text, name string) bool {
	for _, part := range strings.Fields(Normalize(name)) {
		if strings.Contains(text, part) {
			return true
		}
	}
	return false
}
