// Package textnorm canonicalises message text before synthesis.
package textnorm

import "golang.org/x/text/unicode/norm"

// Normalize returns the NFC form of text. It is applied to every message
// regardless of script.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// IsNormalized reports whether text is already in NFC form.
func IsNormalized(text string) bool {
	return norm.NFC.IsNormalString(text)
}
