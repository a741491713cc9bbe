package dailyreport

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallbackSlug = "area"

// Slug lowercases s, strips diacritics, collapses every run of characters
// outside [a-z0-9] into one hyphen and trims hyphens at both ends.
func Slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// ExportFilename builds the attachment name for a weekly export of an area,
// e.g. reporte-semanal-desarrollo-web-2026-01-19_a_2026-01-23.pdf.
func ExportFilename(areaName string, week Week, ext string) string {
	slug := Slug(areaName)
	if slug == "" {
		slug = fallbackSlug
	}
	return fmt.Sprintf("reporte-semanal-%s-%s_a_%s.%s",
		slug,
		week.Start.Format("2006-01-02"),
		week.End.Format("2006-01-02"),
		strings.TrimPrefix(ext, "."),
	)
}
