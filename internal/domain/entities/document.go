package entities

import (
	"time"
)

// DocumentType classifies a scanned record by its filename
type DocumentType string

const (
	DocumentTypeLabPanel    DocumentType = "lab_panel"
	DocumentTypeLabResult   DocumentType = "lab_result"
	DocumentTypeImaging     DocumentType = "imaging"
	DocumentTypeVisitNote   DocumentType = "visit_note"
	DocumentTypeConsultNote DocumentType = "consult_note"
	DocumentTypeHospital    DocumentType = "hospital"
	DocumentTypeProcedure   DocumentType = "procedure"
	DocumentTypeLetter      DocumentType = "letter"
	DocumentTypeSummary     DocumentType = "summary"
	DocumentTypeUnknown     DocumentType = "unknown"
)

// VerificationStatus tracks manual review of a document or field
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// ParseStatus tracks the text extraction outcome for a document
type ParseStatus string

const (
	ParseStatusNotStarted ParseStatus = "not_started"
	ParseStatusParsed     ParseStatus = "parsed"
	ParseStatusFailed     ParseStatus = "failed"
)

// DocumentRecord represents one ingested source file
type DocumentRecord struct {
	ID                 string             `json:"id" db:"id"`
	SourcePath         string             `json:"source_path" db:"source_path"`
	FileName           string             `json:"file_name" db:"file_name"`
	Fingerprint        string             `json:"fingerprint" db:"fingerprint"`
	Year               int                `json:"year" db:"year"`
	Specialty          string             `json:"specialty" db:"specialty"`
	Provider           string             `json:"provider,omitempty" db:"provider"`
	DocumentType       DocumentType       `json:"document_type" db:"document_type"`
	EventDate          *time.Time         `json:"event_date,omitempty" db:"event_date"`
	Tags               []string           `json:"tags" db:"tags"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	ParseStatus        ParseStatus        `json:"parse_status" db:"parse_status"`
	ParseError         string             `json:"parse_error,omitempty" db:"parse_error"`
	PageCount          *int               `json:"page_count,omitempty" db:"page_count"`
	TextPreview        string             `json:"text_preview,omitempty" db:"text_preview"`
	ImportJobID        string             `json:"import_job_id" db:"import_job_id"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}
