package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	tsclient "github.com/zatekoja/medtimeline/backend/internal/infrastructure/clients/typesense"
)

const collectionName = "documents"

// TypesenseAdapter implements document text search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements DocumentSearchRepository
var _ repositories.DocumentSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the documents collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "file_name", Type: "string"},
			{Name: "specialty", Type: "string", Facet: pointer.True()},
			{Name: "provider", Type: "string", Optional: pointer.True()},
			{Name: "document_type", Type: "string", Facet: pointer.True()},
			{Name: "year", Type: "int32", Facet: pointer.True()},
			{Name: "tags", Type: "string[]", Optional: pointer.True()},
			{Name: "text_preview", Type: "string", Optional: pointer.True()},
			{Name: "verification_status", Type: "string", Facet: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Index upserts a document into the search collection
func (a *TypesenseAdapter) Index(ctx context.Context, doc *entities.DocumentRecord) error {
	document := map[string]interface{}{
		"id":                  doc.ID,
		"file_name":           doc.FileName,
		"specialty":           doc.Specialty,
		"provider":            doc.Provider,
		"document_type":       string(doc.DocumentType),
		"year":                doc.Year,
		"tags":                doc.Tags,
		"text_preview":        doc.TextPreview,
		"verification_status": string(doc.VerificationStatus),
		"created_at":          doc.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}

	return nil
}

// Search returns ids of documents matching the query
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("file_name,text_preview,tags,provider"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	ids := []string{}
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		doc := *hit.Document
		if id, ok := doc["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Delete removes a document from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete document from index: %w", err)
	}
	return nil
}
