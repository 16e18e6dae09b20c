package utils

import "strings"

// NormalizePlate uppercases the plate, keeps alphanumerics, and collapses
// every other run of characters into a single space.
func NormalizePlate(raw string) string {
	upper := strings.ToUpper(raw)
	var b strings.Builder
	b.Grow(len(upper))
	for _, ch := range upper {
		switch {
		case ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9':
			b.WriteRune(ch)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
