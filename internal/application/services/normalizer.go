package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// RawFile is a file descriptor as found while walking the source tree
type RawFile struct {
	Path       string
	SizeBytes  int64
	ModifiedAt time.Time
}

// DocumentCandidate is an accepted file: a pending record (not yet
// persisted) plus its dedup fingerprint.
type DocumentCandidate struct {
	Record      *entities.DocumentRecord
	Fingerprint string
}

// Rejection is a file turned away before extraction
type Rejection struct {
	Path   string          `json:"path"`
	Reason RejectionReason `json:"reason"`
}

// NormalizeResult partitions raw files into accepted candidates and
// rejections; the orchestrator needs both.
type NormalizeResult struct {
	Accepted []DocumentCandidate
	Rejected []Rejection
}

// conditionTagRules accumulate tags from filename/specialty/year
// keyword matches. Tags only accumulate, never overwrite.
var conditionTagRules = []struct {
	keyword string
	tag     string
}{
	{"mcas", "mcas"},
	{"mast cell", "mcas"},
	{"tryptase", "mcas"},
	{"histamine", "mcas"},
	{"thyroid", "thyroid"},
	{"tsh", "thyroid"},
	{"hashimoto", "thyroid"},
	{"mri", "imaging"},
	{"ct scan", "imaging"},
	{"ultrasound", "imaging"},
	{"xray", "imaging"},
	{"x-ray", "imaging"},
	{"imaging", "imaging"},
	{"echo", "imaging"},
	{"lab", "lab"},
	{"panel", "lab"},
	{"blood", "lab"},
	{"endoscopy", "procedure"},
	{"colonoscopy", "procedure"},
	{"biopsy", "procedure"},
	{"surgery", "procedure"},
	{"procedure", "procedure"},
	{"letter", "letter"},
	{"referral", "letter"},
	{"cardio", "cardiac"},
	{"allerg", "allergy"},
}

// Normalize runs eligibility and path parsing over raw descriptors and
// synthesizes pending document records for the accepted ones.
func Normalize(files []RawFile) NormalizeResult {
	result := NormalizeResult{
		Accepted: make([]DocumentCandidate, 0, len(files)),
		Rejected: make([]Rejection, 0),
	}

	for _, file := range files {
		if ok, reason := ShouldIngest(file.Path); !ok {
			result.Rejected = append(result.Rejected, Rejection{Path: file.Path, Reason: reason})
			continue
		}

		parsed := ParsePath(file.Path)
		if parsed == nil {
			result.Rejected = append(result.Rejected, Rejection{Path: file.Path, Reason: ReasonInvalidPathStructure})
			continue
		}

		now := time.Now()
		record := &entities.DocumentRecord{
			ID:                 uuid.NewString(),
			SourcePath:         file.Path,
			FileName:           parsed.FileName,
			Fingerprint:        Fingerprint(file.Path),
			Year:               parsed.Year,
			Specialty:          parsed.Specialty,
			Provider:           parsed.Provider,
			DocumentType:       ClassifyType(parsed.FileName),
			EventDate:          ExtractEventDate(parsed.FileName),
			Tags:               deriveTags(parsed),
			VerificationStatus: entities.VerificationPending,
			ParseStatus:        entities.ParseStatusNotStarted,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		result.Accepted = append(result.Accepted, DocumentCandidate{
			Record:      record,
			Fingerprint: record.Fingerprint,
		})
	}

	return result
}

func deriveTags(parsed *ParsedPath) []string {
	haystack := strings.ToLower(parsed.FileName + " " + parsed.Specialty + " " + strconv.Itoa(parsed.Year))

	tags := make([]string, 0, 4)
	seen := map[string]struct{}{}
	for _, rule := range conditionTagRules {
		if !strings.Contains(haystack, rule.keyword) {
			continue
		}
		if _, dup := seen[rule.tag]; dup {
			continue
		}
		seen[rule.tag] = struct{}{}
		tags = append(tags, rule.tag)
	}
	return tags
}
