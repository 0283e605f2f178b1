package utils

import "strings"

// NormalizePlate cleans a plate number before it is stored.
// Uppercases, strips the "INDIA"/"IND" country tokens (longer token first so
// "INDIA" is not left as "IA"), then drops every non-alphanumeric rune.
// The result may be empty; the save path treats that as invalid input.
func NormalizePlate(raw string) string {
	plate := strings.ToUpper(raw)
	plate = strings.ReplaceAll(plate, "INDIA", "")
	plate = strings.ReplaceAll(plate, "IND", "")
	return stripNonAlphanumeric(plate)
}

// CleanDetectedText cleans raw OCR output. Unlike NormalizePlate it does not
// strip country tokens; the two behaviors are intentionally kept separate so
// detected text round-trips exactly as the scanner produced it.
func CleanDetectedText(raw string) string {
	return stripNonAlphanumeric(strings.ToUpper(raw))
}

func stripNonAlphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
