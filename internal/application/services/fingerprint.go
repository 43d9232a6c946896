package services

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// fingerprintOverrides canonicalizes filenames that are historically
// known to refer to the same source document under different names.
// Keys and values are post-slug fingerprints.
var fingerprintOverrides = map[string]string{
	"2019_immunology_mcas_tryptase_lab_report_final": "2019_immunology_mcas_tryptase_lab_report",
	"2021_cardiology_echo_results_copy":              "2021_cardiology_echo_results",
	"2020_gastroenterology_endoscopy_report_v2":      "2020_gastroenterology_endoscopy_report",
}

var duplicateSuffixPattern = regexp.MustCompile(`\s*\(\d+\)\s*$`)

// Fingerprint derives the canonical dedup key for a source path:
// lower-cased, extension-stripped, duplicate-marker suffixes removed,
// non-alphanumeric runs collapsed to single underscores, then passed
// through the historical-duplicate override table. Fingerprint equality
// is the sole dedup key.
//
// When the path parses against the year/specialty layout the slug is
// built from the parsed form (canonical specialty included), so the
// same logical file yields the same fingerprint regardless of which
// root or alias spelling it was scanned under.
func Fingerprint(path string) string {
	if parsed := ParsePath(path); parsed != nil {
		path = strings.Join([]string{
			strconv.Itoa(parsed.Year), parsed.Specialty, parsed.Provider, parsed.FileName,
		}, "/")
	}
	normalized := strings.ToLower(strings.ReplaceAll(path, "\\", "/"))

	ext := filepath.Ext(normalized)
	if ext != "" {
		normalized = strings.TrimSuffix(normalized, ext)
	}

	for {
		stripped := duplicateSuffixPattern.ReplaceAllString(normalized, "")
		if stripped == normalized {
			break
		}
		normalized = stripped
	}

	slug := slugify(normalized)
	if canonical, ok := fingerprintOverrides[slug]; ok {
		return canonical
	}
	return slug
}

// slugify collapses non-alphanumeric runs to single underscores
func slugify(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if lowered == "" {
		return ""
	}
	var builder strings.Builder
	builder.Grow(len(lowered))
	lastUnderscore := false
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			builder.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(builder.String(), "_")
}
