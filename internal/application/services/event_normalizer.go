package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
)

// eventTypeByDocumentType is the fixed document-type to event-type
// lookup
var eventTypeByDocumentType = map[entities.DocumentType]entities.EventType{
	entities.DocumentTypeLabPanel:    entities.EventTypeLabResult,
	entities.DocumentTypeLabResult:   entities.EventTypeLabResult,
	entities.DocumentTypeImaging:     entities.EventTypeImagingResult,
	entities.DocumentTypeVisitNote:   entities.EventTypeAppointment,
	entities.DocumentTypeConsultNote: entities.EventTypeAppointment,
	entities.DocumentTypeHospital:    entities.EventTypeAppointment,
	entities.DocumentTypeProcedure:   entities.EventTypeProcedure,
}

// conditionVocabulary maps keywords found in tags, specialty or
// filename to condition tags
var conditionVocabulary = []struct {
	keyword   string
	condition string
}{
	{"mcas", "mcas"},
	{"mast cell", "mcas"},
	{"tryptase", "mcas"},
	{"histamine", "mcas"},
	{"immunology", "mcas"},
	{"thyroid", "thyroid"},
	{"tsh", "thyroid"},
	{"hashimoto", "thyroid"},
	{"endocrinology", "thyroid"},
	{"cardio", "cardiac"},
	{"echo", "cardiac"},
	{"gastro", "gi"},
	{"endoscopy", "gi"},
	{"reflux", "gi"},
	{"colonoscopy", "gi"},
	{"allerg", "allergy"},
	{"anemia", "anemia"},
	{"ferritin", "anemia"},
	{"neuro", "neurologic"},
	{"migraine", "neurologic"},
}

// NormalizeDocument maps a finalized document record to one clinical
// event.
func NormalizeDocument(doc *entities.DocumentRecord) *entities.ClinicalEvent {
	return &entities.ClinicalEvent{
		ID:            uuid.NewString(),
		Date:          eventDateFor(doc),
		Type:          eventTypeFor(doc.DocumentType),
		Specialty:     doc.Specialty,
		Title:         eventTitle(doc),
		Summary:       eventSummary(doc),
		DocumentIDs:   []string{doc.ID},
		ConditionTags: deriveConditionTags(doc),
		Verified:      doc.VerificationStatus == entities.VerificationVerified,
		CreatedAt:     time.Now(),
	}
}

// NormalizeDocuments maps a document set to clinical events, merging
// records that share the same (event-date day, specialty) into one
// grouped event. The merged event's document list is the union and its
// verified flag is true only if every member document is verified.
func NormalizeDocuments(docs []*entities.DocumentRecord) []*entities.ClinicalEvent {
	type groupKey struct {
		day       string
		specialty string
	}

	order := make([]groupKey, 0, len(docs))
	groups := map[groupKey][]*entities.DocumentRecord{}

	for _, doc := range docs {
		key := groupKey{
			day:       eventDateFor(doc).Format("2006-01-02"),
			specialty: doc.Specialty,
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], doc)
	}

	events := make([]*entities.ClinicalEvent, 0, len(order))
	for _, key := range order {
		members := groups[key]
		event := NormalizeDocument(members[0])
		for _, doc := range members[1:] {
			event.DocumentIDs = append(event.DocumentIDs, doc.ID)
			event.ConditionTags = unionTags(event.ConditionTags, deriveConditionTags(doc))
			if doc.VerificationStatus != entities.VerificationVerified {
				event.Verified = false
			}
		}
		events = append(events, event)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}

func eventTypeFor(docType entities.DocumentType) entities.EventType {
	if eventType, ok := eventTypeByDocumentType[docType]; ok {
		return eventType
	}
	return entities.EventTypeNote
}

// eventDateFor prefers the filename-derived event date and falls back
// to midnight UTC on January 1st of the folder year
func eventDateFor(doc *entities.DocumentRecord) time.Time {
	if doc.EventDate != nil {
		return *doc.EventDate
	}
	return time.Date(doc.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func eventTitle(doc *entities.DocumentRecord) string {
	specialty := strings.ReplaceAll(doc.Specialty, "_", " ")
	switch eventTypeFor(doc.DocumentType) {
	case entities.EventTypeLabResult:
		return fmt.Sprintf("Lab results - %s", specialty)
	case entities.EventTypeImagingResult:
		return fmt.Sprintf("Imaging - %s", specialty)
	case entities.EventTypeAppointment:
		return fmt.Sprintf("Appointment - %s", specialty)
	case entities.EventTypeProcedure:
		return fmt.Sprintf("Procedure - %s", specialty)
	default:
		return fmt.Sprintf("Record - %s", specialty)
	}
}

func eventSummary(doc *entities.DocumentRecord) string {
	parts := make([]string, 0, 4)
	if doc.Provider != "" {
		parts = append(parts, doc.Provider)
	}
	parts = append(parts, eventDateFor(doc).Format("Jan 2, 2006"))
	if len(doc.Tags) > 0 {
		parts = append(parts, strings.Join(doc.Tags, ", "))
	}
	if doc.TextPreview != "" {
		preview := doc.TextPreview
		if len(preview) > 120 {
			preview = preview[:120]
		}
		parts = append(parts, preview)
	}
	return strings.Join(parts, " | ")
}

func deriveConditionTags(doc *entities.DocumentRecord) []string {
	haystack := strings.ToLower(strings.Join(doc.Tags, " ") + " " + doc.Specialty + " " + doc.FileName)

	tags := make([]string, 0, 3)
	seen := map[string]struct{}{}
	for _, entry := range conditionVocabulary {
		if !strings.Contains(haystack, entry.keyword) {
			continue
		}
		if _, dup := seen[entry.condition]; dup {
			continue
		}
		seen[entry.condition] = struct{}{}
		tags = append(tags, entry.condition)
	}
	return tags
}

func unionTags(a, b []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(a)+len(b))
	for _, tag := range a {
		if _, dup := seen[tag]; !dup {
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	for _, tag := range b {
		if _, dup := seen[tag]; !dup {
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
