package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/medtimeline/backend/pkg/errors"
)

var documentColumns = []interface{}{
	"id", "source_path", "file_name", "fingerprint", "year", "specialty",
	"provider", "document_type", "event_date", "tags", "verification_status",
	"parse_status", "parse_error", "page_count", "text_preview",
	"import_job_id", "created_at", "updated_at",
}

// DocumentAdapter implements DocumentRepository against PostgreSQL
type DocumentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDocumentAdapter creates a new document adapter
func NewDocumentAdapter(client *postgres.Client) repositories.DocumentRepository {
	return &DocumentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new document record
func (a *DocumentAdapter) Create(ctx context.Context, doc *entities.DocumentRecord) error {
	record := goqu.Record{
		"id":                  doc.ID,
		"source_path":         doc.SourcePath,
		"file_name":           doc.FileName,
		"fingerprint":         doc.Fingerprint,
		"year":                doc.Year,
		"specialty":           doc.Specialty,
		"provider":            sql.NullString{String: doc.Provider, Valid: doc.Provider != ""},
		"document_type":       string(doc.DocumentType),
		"event_date":          doc.EventDate,
		"tags":                pq.Array(doc.Tags),
		"verification_status": string(doc.VerificationStatus),
		"parse_status":        string(doc.ParseStatus),
		"parse_error":         sql.NullString{String: doc.ParseError, Valid: doc.ParseError != ""},
		"page_count":          doc.PageCount,
		"text_preview":        sql.NullString{String: doc.TextPreview, Valid: doc.TextPreview != ""},
		"import_job_id":       doc.ImportJobID,
		"created_at":          doc.CreatedAt,
		"updated_at":          doc.UpdatedAt,
	}

	query, args, err := a.db.Insert("documents").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create document", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (a *DocumentAdapter) GetByID(ctx context.Context, id string) (*entities.DocumentRecord, error) {
	return a.getByField(ctx, "id", id)
}

// GetByFingerprint retrieves a document by fingerprint
func (a *DocumentAdapter) GetByFingerprint(ctx context.Context, fingerprint string) (*entities.DocumentRecord, error) {
	return a.getByField(ctx, "fingerprint", fingerprint)
}

// Update updates a document record
func (a *DocumentAdapter) Update(ctx context.Context, doc *entities.DocumentRecord) error {
	record := goqu.Record{
		"verification_status": string(doc.VerificationStatus),
		"parse_status":        string(doc.ParseStatus),
		"parse_error":         sql.NullString{String: doc.ParseError, Valid: doc.ParseError != ""},
		"tags":                pq.Array(doc.Tags),
		"event_date":          doc.EventDate,
		"updated_at":          doc.UpdatedAt,
	}

	query, args, err := a.db.Update("documents").Set(record).Where(goqu.Ex{"id": doc.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update document", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("document with id %s not found", doc.ID))
	}

	return nil
}

// List retrieves documents with filters
func (a *DocumentAdapter) List(ctx context.Context, filter repositories.DocumentFilter) ([]*entities.DocumentRecord, error) {
	ds := a.db.Select(documentColumns...).From("documents")

	where := goqu.Ex{}
	if filter.Year != 0 {
		where["year"] = filter.Year
	}
	if filter.Specialty != "" {
		where["specialty"] = filter.Specialty
	}
	if filter.DocumentType != "" {
		where["document_type"] = string(filter.DocumentType)
	}
	if filter.ImportJobID != "" {
		where["import_job_id"] = filter.ImportJobID
	}
	if len(where) > 0 {
		ds = ds.Where(where)
	}

	ds = ds.Order(goqu.I("created_at").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list documents", err)
	}
	defer rows.Close()

	var docs []*entities.DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (a *DocumentAdapter) getByField(ctx context.Context, field, value string) (*entities.DocumentRecord, error) {
	query, args, err := a.db.Select(documentColumns...).From("documents").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get document", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("document with %s %s not found", field, value))
	}
	return scanDocument(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*entities.DocumentRecord, error) {
	doc := &entities.DocumentRecord{}
	var provider, parseError, textPreview sql.NullString
	var documentType, verificationStatus, parseStatus string

	err := row.Scan(
		&doc.ID,
		&doc.SourcePath,
		&doc.FileName,
		&doc.Fingerprint,
		&doc.Year,
		&doc.Specialty,
		&provider,
		&documentType,
		&doc.EventDate,
		pq.Array(&doc.Tags),
		&verificationStatus,
		&parseStatus,
		&parseError,
		&doc.PageCount,
		&textPreview,
		&doc.ImportJobID,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan document", err)
	}

	doc.Provider = provider.String
	doc.DocumentType = entities.DocumentType(documentType)
	doc.VerificationStatus = entities.VerificationStatus(verificationStatus)
	doc.ParseStatus = entities.ParseStatus(parseStatus)
	doc.ParseError = parseError.String
	doc.TextPreview = textPreview.String
	return doc, nil
}

// FingerprintAdapter implements FingerprintRepository against
// PostgreSQL. The unique constraint on the fingerprint column makes
// Add an atomic check-and-insert.
type FingerprintAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFingerprintAdapter creates a new fingerprint adapter
func NewFingerprintAdapter(client *postgres.Client) repositories.FingerprintRepository {
	return &FingerprintAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Add inserts the fingerprint, reporting whether it was newly added
func (a *FingerprintAdapter) Add(ctx context.Context, fingerprint string) (bool, error) {
	query := `INSERT INTO fingerprints (fingerprint) VALUES ($1) ON CONFLICT (fingerprint) DO NOTHING`

	result, err := a.client.DB().ExecContext(ctx, query, fingerprint)
	if err != nil {
		return false, apperrors.NewInternalError("failed to add fingerprint", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to read insert result", err)
	}
	return rows == 1, nil
}

// Contains reports fingerprint membership
func (a *FingerprintAdapter) Contains(ctx context.Context, fingerprint string) (bool, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).From("fingerprints").
		Where(goqu.Ex{"fingerprint": fingerprint}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to check fingerprint", err)
	}
	return count > 0, nil
}
