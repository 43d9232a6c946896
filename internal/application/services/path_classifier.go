package services

import (
	"path/filepath"
	"strconv"
	"strings"
)

// RejectionReason is the machine-readable reason a file was not ingested
type RejectionReason string

const (
	ReasonIgnoredSystemFile    RejectionReason = "ignored_system_file"
	ReasonUnsupportedFileType  RejectionReason = "unsupported_file_type"
	ReasonInvalidPathStructure RejectionReason = "invalid_path_structure"
)

// ParsedPath is the structured reading of a source file path following
// the <root>/<year>/<specialty>/[subfolders...]/<file> layout.
type ParsedPath struct {
	Year      int
	Specialty string
	Provider  string
	FileName  string
}

var ingestibleExtensions = map[string]struct{}{
	".pdf":  {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".tiff": {},
	".heic": {},
}

var systemFileNames = map[string]struct{}{
	"thumbs.db":   {},
	"desktop.ini": {},
	".ds_store":   {},
}

// specialtyAliases maps folder shorthand to canonical specialty names.
// Entries here are load-bearing: historical folder trees use the short
// forms.
var specialtyAliases = map[string]string{
	"gp":      "primary_care",
	"pcp":     "primary_care",
	"mcas":    "immunology_mcas",
	"gi":      "gastroenterology",
	"ent":     "otolaryngology",
	"derm":    "dermatology",
	"cards":   "cardiology",
	"endo":    "endocrinology",
	"obgyn":   "obstetrics_gynecology",
	"pt":      "physical_therapy",
	"psych":   "psychiatry",
	"rheum":   "rheumatology",
	"neuro":   "neurology",
	"allergy": "allergy_immunology",
}

// ShouldIngest reports whether the file is eligible for ingestion, and
// the rejection reason when it is not.
func ShouldIngest(path string) (bool, RejectionReason) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false, ReasonIgnoredSystemFile
	}
	if _, ok := systemFileNames[name]; ok {
		return false, ReasonIgnoredSystemFile
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := ingestibleExtensions[ext]; !ok {
		return false, ReasonUnsupportedFileType
	}
	return true, ""
}

// ParsePath locates the <year>/<specialty> anchor inside the path and
// returns the structured reading. It returns nil when no 4-digit year
// segment (2000-2099) directly followed by a specialty segment and a
// filename exists.
func ParsePath(path string) *ParsedPath {
	normalized := strings.ReplaceAll(path, "\\", "/")
	segments := strings.Split(normalized, "/")

	for i := 0; i < len(segments)-2; i++ {
		year, ok := parseYearSegment(segments[i])
		if !ok {
			continue
		}
		specialty := normalizeSpecialty(segments[i+1])
		if specialty == "" {
			continue
		}
		fileName := segments[len(segments)-1]
		if fileName == "" {
			return nil
		}
		provider := strings.Join(segments[i+2:len(segments)-1], " / ")
		return &ParsedPath{
			Year:      year,
			Specialty: specialty,
			Provider:  provider,
			FileName:  fileName,
		}
	}
	return nil
}

func parseYearSegment(segment string) (int, bool) {
	if len(segment) != 4 {
		return 0, false
	}
	year, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	if year < 2000 || year > 2099 {
		return 0, false
	}
	return year, true
}

func normalizeSpecialty(segment string) string {
	trimmed := strings.ToLower(strings.TrimSpace(segment))
	if trimmed == "" {
		return ""
	}
	if canonical, ok := specialtyAliases[trimmed]; ok {
		return canonical
	}
	return slugify(trimmed)
}
