package services

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/medtimeline/backend/internal/domain/entities"
	"github.com/zatekoja/medtimeline/backend/internal/domain/providers"
	"github.com/zatekoja/medtimeline/backend/internal/domain/repositories"
	"github.com/zatekoja/medtimeline/backend/internal/infrastructure/observability"
)

// EpisodeService maintains episode groupings over the stored event set
type EpisodeService struct {
	eventRepo   repositories.EventRepository
	episodeRepo repositories.EpisodeRepository
	bus         providers.EventBus
	policy      EpisodePolicy
}

// NewEpisodeService creates a new episode service. The bus is optional.
func NewEpisodeService(eventRepo repositories.EventRepository, episodeRepo repositories.EpisodeRepository, bus providers.EventBus, policy EpisodePolicy) *EpisodeService {
	if policy.MaxGapDays <= 0 {
		policy = DefaultEpisodePolicy()
	}
	return &EpisodeService{
		eventRepo:   eventRepo,
		episodeRepo: episodeRepo,
		bus:         bus,
		policy:      policy,
	}
}

// Regroup rebuilds all episodes from scratch over every stored event.
// Used after a backfill run, where incremental assignment would bias
// episodes toward scan order.
func (s *EpisodeService) Regroup(ctx context.Context) ([]*entities.ClinicalEpisode, error) {
	ctx, span := observability.StartSpan(ctx, "episodes.regroup")
	defer span.End()

	events, err := s.eventRepo.List(ctx, repositories.EventFilter{})
	if err != nil {
		return nil, err
	}

	episodes := GroupEvents(events, s.policy)
	if err := s.episodeRepo.ReplaceAll(ctx, episodes); err != nil {
		return nil, err
	}
	for _, event := range events {
		if err := s.eventRepo.Update(ctx, event); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("episodes.count", len(episodes)))
	s.notify(ctx, "", map[string]interface{}{"episodes": len(episodes), "regrouped": true})
	return episodes, nil
}

// Attach assigns episode membership to events that have none, folding
// them into existing episodes where the gap and condition rules allow
// and forming new episodes from whatever remains unmatched. Used after
// a sync run.
func (s *EpisodeService) Attach(ctx context.Context) (int, error) {
	ctx, span := observability.StartSpan(ctx, "episodes.attach")
	defer span.End()

	all, err := s.eventRepo.List(ctx, repositories.EventFilter{})
	if err != nil {
		return 0, err
	}
	episodes, err := s.episodeRepo.List(ctx, 0, 0)
	if err != nil {
		return 0, err
	}

	unassigned := make([]*entities.ClinicalEvent, 0)
	for _, event := range all {
		if event.EpisodeID == "" {
			unassigned = append(unassigned, event)
		}
	}
	if len(unassigned) == 0 {
		return 0, nil
	}

	attached := AssignEvents(unassigned, episodes, all, s.policy)

	remaining := make([]*entities.ClinicalEvent, 0)
	for _, event := range unassigned {
		if event.EpisodeID == "" {
			remaining = append(remaining, event)
		}
	}
	fresh := GroupEvents(remaining, s.policy)

	for _, episode := range episodes {
		if err := s.episodeRepo.Update(ctx, episode); err != nil {
			return attached, err
		}
	}
	for _, episode := range fresh {
		if err := s.episodeRepo.Create(ctx, episode); err != nil {
			return attached, err
		}
	}
	for _, event := range unassigned {
		if err := s.eventRepo.Update(ctx, event); err != nil {
			return attached, err
		}
	}

	s.notify(ctx, "", map[string]interface{}{"attached": attached, "created": len(fresh)})
	return attached, nil
}

func (s *EpisodeService) notify(ctx context.Context, episodeID string, details map[string]interface{}) {
	if s.bus == nil {
		return
	}
	event := entities.NewPipelineEvent(entities.PipelineEventEpisodeUpdated, "", "", details)
	event.EpisodeID = episodeID
	if err := s.bus.Publish(ctx, providers.EventChannelEpisodes, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("event publish failed")
	}
}
