package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// ExtractionEngineConfig bounds the heuristic scan output
type ExtractionEngineConfig struct {
	MaxCandidates int
	PreviewLength int
}

// DefaultExtractionEngineConfig returns the engine defaults
func DefaultExtractionEngineConfig() ExtractionEngineConfig {
	return ExtractionEngineConfig{
		MaxCandidates: 40,
		PreviewLength: 240,
	}
}

// Fixed vocabularies for keyword-membership rules. One candidate is
// emitted per keyword present in the text or the filename.
var diagnosisKeywords = []string{
	"mast cell activation",
	"mcas",
	"hypothyroidism",
	"hashimoto",
	"anemia",
	"gerd",
	"pots",
	"ehlers-danlos",
	"migraine",
	"asthma",
	"eosinophilic esophagitis",
}

var labMarkerKeywords = []string{
	"tryptase",
	"histamine",
	"tsh",
	"free t4",
	"free t3",
	"ferritin",
	"vitamin d",
	"cortisol",
	"crp",
	"cbc",
	"iga",
}

var procedureKeywords = []string{
	"endoscopy",
	"colonoscopy",
	"biopsy",
	"mri",
	"ct scan",
	"ultrasound",
	"echocardiogram",
	"skin prick test",
}

// Pattern rules are capped to a small match count to bound output size
const (
	labValueMatchCap        = 10
	procedureDetailMatchCap = 5
	providerMatchCap        = 5
)

var (
	labValuePattern = regexp.MustCompile(`(?i)\b(tryptase|histamine|tsh|ferritin|cortisol|crp|vitamin d|free t4|free t3)\s*[:=]?\s*(\d+(?:\.\d+)?)\s*(ng/ml|pg/ml|miu/l|mcg/dl|mg/l|ng/dl|nmol/l|iu/l|%)?`)
	procedureDetailPattern  = regexp.MustCompile(`(?i)\b(endoscopy|colonoscopy|biopsy|mri|ct scan|ultrasound|echocardiogram)\b[^.\n]{0,80}`)
	providerNamePattern     = regexp.MustCompile(`\bDr\.?\s+[A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)?`)
)

// ExtractCandidates scans chunked text for clinical signal candidates.
// Rule order is stable and significant: document summary, diagnosis
// keywords, lab keywords, lab values, procedure keywords, procedure
// details, providers. Candidates are deduplicated by (type, normalized
// value, key) keeping the earliest, then capped to MaxCandidates.
func ExtractCandidates(text, fileName string, chunks []*entities.TextChunk, cfg ExtractionEngineConfig) []entities.ExtractionCandidate {
	if cfg.MaxCandidates <= 0 {
		cfg = DefaultExtractionEngineConfig()
	}

	lowerText := strings.ToLower(text)
	lowerName := strings.ToLower(fileName)
	candidates := make([]entities.ExtractionCandidate, 0, cfg.MaxCandidates)

	// The synthesized summary always fires first
	if preview := buildPreview(text, cfg.PreviewLength); preview != "" {
		candidates = append(candidates, entities.ExtractionCandidate{
			Type:         entities.FieldTypeSummary,
			Key:          "document_summary",
			Value:        preview,
			Confidence:   0.5,
			ChunkIndices: firstChunkIndex(chunks),
		})
	}

	for _, keyword := range diagnosisKeywords {
		if strings.Contains(lowerText, keyword) || strings.Contains(lowerName, keyword) {
			candidates = append(candidates, entities.ExtractionCandidate{
				Type:         entities.FieldTypeDiagnosis,
				Key:          "diagnosis",
				Value:        keyword,
				Confidence:   0.6,
				ChunkIndices: chunkIndicesFor(keyword, chunks),
			})
		}
	}

	for _, keyword := range labMarkerKeywords {
		if strings.Contains(lowerText, keyword) || strings.Contains(lowerName, keyword) {
			candidates = append(candidates, entities.ExtractionCandidate{
				Type:         entities.FieldTypeLab,
				Key:          "lab_marker",
				Value:        keyword,
				Confidence:   0.6,
				ChunkIndices: chunkIndicesFor(keyword, chunks),
			})
		}
	}

	for _, match := range labValuePattern.FindAllStringSubmatch(text, labValueMatchCap) {
		marker := strings.ToLower(match[1])
		candidates = append(candidates, entities.ExtractionCandidate{
			Type:         entities.FieldTypeLab,
			Key:          fmt.Sprintf("lab_value:%s", slugify(marker)),
			Value:        match[2],
			Unit:         strings.ToLower(match[3]),
			Confidence:   0.8,
			ChunkIndices: chunkIndicesFor(match[0], chunks),
		})
	}

	for _, keyword := range procedureKeywords {
		if strings.Contains(lowerText, keyword) || strings.Contains(lowerName, keyword) {
			candidates = append(candidates, entities.ExtractionCandidate{
				Type:         entities.FieldTypeProcedure,
				Key:          "procedure",
				Value:        keyword,
				Confidence:   0.6,
				ChunkIndices: chunkIndicesFor(keyword, chunks),
			})
		}
	}

	for _, match := range procedureDetailPattern.FindAllString(text, procedureDetailMatchCap) {
		detail := strings.TrimSpace(match)
		candidates = append(candidates, entities.ExtractionCandidate{
			Type:         entities.FieldTypeFinding,
			Key:          "procedure_detail",
			Value:        detail,
			Confidence:   0.7,
			ChunkIndices: chunkIndicesFor(detail, chunks),
		})
	}

	for _, match := range providerNamePattern.FindAllString(text, providerMatchCap) {
		name := strings.TrimSpace(match)
		candidates = append(candidates, entities.ExtractionCandidate{
			Type:         entities.FieldTypeProvider,
			Key:          "provider",
			Value:        name,
			Confidence:   0.65,
			ChunkIndices: chunkIndicesFor(name, chunks),
		})
	}

	return capCandidates(dedupeCandidates(candidates), cfg.MaxCandidates)
}

// dedupeCandidates drops later duplicates of (type, normalized value,
// key), keeping order
func dedupeCandidates(candidates []entities.ExtractionCandidate) []entities.ExtractionCandidate {
	seen := map[string]struct{}{}
	out := make([]entities.ExtractionCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := string(c.Type) + "|" + strings.ToLower(strings.TrimSpace(c.Value)) + "|" + c.Key
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func capCandidates(candidates []entities.ExtractionCandidate, max int) []entities.ExtractionCandidate {
	if len(candidates) > max {
		return candidates[:max]
	}
	return candidates
}

func buildPreview(text string, length int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if collapsed == "" {
		return ""
	}
	if len(collapsed) > length {
		cut := length
		for cut > 0 && !utf8.RuneStart(collapsed[cut]) {
			cut--
		}
		return collapsed[:cut]
	}
	return collapsed
}

// chunkIndicesFor returns the indices of chunks containing the value,
// chunk 0 when nothing matches, or nil when the document has no chunks
func chunkIndicesFor(value string, chunks []*entities.TextChunk) []int {
	if len(chunks) == 0 {
		return nil
	}
	needle := strings.ToLower(value)
	indices := make([]int, 0, 2)
	for _, chunk := range chunks {
		if strings.Contains(strings.ToLower(chunk.Text), needle) {
			indices = append(indices, chunk.Index)
		}
	}
	if len(indices) == 0 {
		return []int{0}
	}
	return indices
}

func firstChunkIndex(chunks []*entities.TextChunk) []int {
	if len(chunks) == 0 {
		return nil
	}
	return []int{0}
}
