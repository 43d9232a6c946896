package services

import (
	"context"
	"strings"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/observability"
)

// TimelineQueryService handles read-only timeline operations. It routes
// text search through the search index when one is configured and falls
// back to scanning stored previews when it is not, or when the index
// errors.
type TimelineQueryService struct {
	docRepo     repositories.DocumentRepository
	chunkRepo   repositories.ChunkRepository
	fieldRepo   repositories.FieldRepository
	eventRepo   repositories.EventRepository
	episodeRepo repositories.EpisodeRepository
	jobRepo     repositories.ImportJobRepository
	searchRepo  repositories.DocumentSearchRepository
}

// NewTimelineQueryService creates a new timeline query service. The
// search repository is optional.
func NewTimelineQueryService(
	docRepo repositories.DocumentRepository,
	chunkRepo repositories.ChunkRepository,
	fieldRepo repositories.FieldRepository,
	eventRepo repositories.EventRepository,
	episodeRepo repositories.EpisodeRepository,
	jobRepo repositories.ImportJobRepository,
	searchRepo repositories.DocumentSearchRepository,
) *TimelineQueryService {
	return &TimelineQueryService{
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		fieldRepo:   fieldRepo,
		eventRepo:   eventRepo,
		episodeRepo: episodeRepo,
		jobRepo:     jobRepo,
		searchRepo:  searchRepo,
	}
}

// DocumentDetail bundles a document with everything derived from it
type DocumentDetail struct {
	Document *entities.DocumentRecord    `json:"document"`
	Chunks   []*entities.TextChunk       `json:"chunks"`
	Fields   []*entities.ExtractedField  `json:"fields"`
	Entities []*entities.ExtractedEntity `json:"entities"`
}

// EpisodeDetail bundles an episode with its member events
type EpisodeDetail struct {
	Episode *entities.ClinicalEpisode `json:"episode"`
	Events  []*entities.ClinicalEvent `json:"events"`
}

// Timeline returns clinical events matching the filter, date ascending
func (s *TimelineQueryService) Timeline(ctx context.Context, filter repositories.EventFilter) ([]*entities.ClinicalEvent, error) {
	return s.eventRepo.List(ctx, filter)
}

// Episodes returns episodes ordered by start date
func (s *TimelineQueryService) Episodes(ctx context.Context, limit, offset int) ([]*entities.ClinicalEpisode, error) {
	return s.episodeRepo.List(ctx, limit, offset)
}

// Episode returns one episode with its events resolved
func (s *TimelineQueryService) Episode(ctx context.Context, id string) (*EpisodeDetail, error) {
	episode, err := s.episodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	events := make([]*entities.ClinicalEvent, 0, len(episode.EventIDs))
	for _, eventID := range episode.EventIDs {
		event, err := s.eventRepo.GetByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return &EpisodeDetail{Episode: episode, Events: events}, nil
}

// Documents returns document records matching the filter
func (s *TimelineQueryService) Documents(ctx context.Context, filter repositories.DocumentFilter) ([]*entities.DocumentRecord, error) {
	return s.docRepo.List(ctx, filter)
}

// Document returns one document with its chunks, fields and entities
func (s *TimelineQueryService) Document(ctx context.Context, id string) (*DocumentDetail, error) {
	doc, err := s.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	chunks, err := s.chunkRepo.ListByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	fields, err := s.fieldRepo.ListFieldsByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	ents, err := s.fieldRepo.ListEntitiesByDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	return &DocumentDetail{
		Document: doc,
		Chunks:   chunks,
		Fields:   fields,
		Entities: ents,
	}, nil
}

// SearchDocuments finds documents matching a free-text query
func (s *TimelineQueryService) SearchDocuments(ctx context.Context, query string, limit int) ([]*entities.DocumentRecord, error) {
	ctx, span := observability.StartSpan(ctx, "query.search_documents")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	if s.searchRepo != nil {
		ids, err := s.searchRepo.Search(ctx, query, limit)
		if err == nil {
			docs := make([]*entities.DocumentRecord, 0, len(ids))
			for _, id := range ids {
				doc, getErr := s.docRepo.GetByID(ctx, id)
				if getErr != nil {
					continue
				}
				docs = append(docs, doc)
			}
			return docs, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("search index unavailable, falling back to preview scan")
	}

	return s.scanDocuments(ctx, query, limit)
}

// Jobs returns recent import jobs
func (s *TimelineQueryService) Jobs(ctx context.Context, limit, offset int) ([]*entities.ImportJob, error) {
	return s.jobRepo.List(ctx, limit, offset)
}

// Job returns one import job
func (s *TimelineQueryService) Job(ctx context.Context, id string) (*entities.ImportJob, error) {
	return s.jobRepo.GetByID(ctx, id)
}

// scanDocuments is the index-free fallback: substring match over file
// name, preview and tags
func (s *TimelineQueryService) scanDocuments(ctx context.Context, query string, limit int) ([]*entities.DocumentRecord, error) {
	all, err := s.docRepo.List(ctx, repositories.DocumentFilter{})
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matched := make([]*entities.DocumentRecord, 0, limit)
	for _, doc := range all {
		haystack := strings.ToLower(doc.FileName + " " + doc.TextPreview + " " + strings.Join(doc.Tags, " "))
		if !strings.Contains(haystack, needle) {
			continue
		}
		matched = append(matched, doc)
		if len(matched) == limit {
			break
		}
	}
	return matched, nil
}
