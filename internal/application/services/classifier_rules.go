package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// documentTypeRule pairs a filename predicate with the type it assigns
type documentTypeRule struct {
	pattern *regexp.Regexp
	docType entities.DocumentType
}

// documentTypeRules is evaluated top to bottom; the first match wins.
// Panels must precede single labs, labs precede imaging, imaging
// precedes notes, notes precede letters. Reordering silently
// reclassifies historical data, so append only.
var documentTypeRules = []documentTypeRule{
	{regexp.MustCompile(`(?i)(cbc|metabolic|lipid|thyroid|hormone|allergy)[ _-]*panel`), entities.DocumentTypeLabPanel},
	{regexp.MustCompile(`(?i)panel`), entities.DocumentTypeLabPanel},
	{regexp.MustCompile(`(?i)(lab|blood[ _-]*work|tryptase|histamine|ferritin|vitamin|tsh|cortisol)`), entities.DocumentTypeLabResult},
	{regexp.MustCompile(`(?i)(mri|ct[ _-]*scan|x[ _-]*ray|xray|ultrasound|echo(cardiogram)?|imaging|radiolog)`), entities.DocumentTypeImaging},
	{regexp.MustCompile(`(?i)(endoscopy|colonoscopy|biopsy|procedure|surgery|operative)`), entities.DocumentTypeProcedure},
	{regexp.MustCompile(`(?i)(hospital|admission|discharge|er[ _-]*visit|emergency)`), entities.DocumentTypeHospital},
	{regexp.MustCompile(`(?i)(consult)`), entities.DocumentTypeConsultNote},
	{regexp.MustCompile(`(?i)(visit|note|appointment|follow[ _-]*up)`), entities.DocumentTypeVisitNote},
	{regexp.MustCompile(`(?i)(letter|referral|correspondence)`), entities.DocumentTypeLetter},
	{regexp.MustCompile(`(?i)summary`), entities.DocumentTypeSummary},
}

// ClassifyType assigns a document type from the filename using the
// ordered rule cascade; unknown when nothing matches.
func ClassifyType(fileName string) entities.DocumentType {
	for _, rule := range documentTypeRules {
		if rule.pattern.MatchString(fileName) {
			return rule.docType
		}
	}
	return entities.DocumentTypeUnknown
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	monthDatePattern   = regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[ _.,-]+(\d{1,2})[ _.,-]+(\d{4})`)
	numericDatePattern = regexp.MustCompile(`(\d{1,2})[-_.](\d{1,2})[-_.](\d{4})`)
)

// ExtractEventDate pulls an event date from a filename: a month-name
// form ("March 14 2021") is tried before the numeric MM-DD-YYYY form.
// The result is UTC midnight.
func ExtractEventDate(fileName string) *time.Time {
	if m := monthDatePattern.FindStringSubmatch(fileName); m != nil {
		month := monthNames[strings.ToLower(m[1])]
		day := atoiSafe(m[2])
		year := atoiSafe(m[3])
		if validDate(year, int(month), day) {
			d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	if m := numericDatePattern.FindStringSubmatch(fileName); m != nil {
		month := atoiSafe(m[1])
		day := atoiSafe(m[2])
		year := atoiSafe(m[3])
		if validDate(year, month, day) {
			d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

func atoiSafe(s string) int {
	n := 0
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0
	}
	return n
}

func validDate(year, month, day int) bool {
	return year >= 2000 && year <= 2099 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}
