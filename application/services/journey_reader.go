package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"prepcoach/application/ports"
	"prepcoach/domain/config"
	"prepcoach/domain/core/aggregates"
	"prepcoach/domain/core/valueobjects"
)

const journeyCacheTTL = 10 * time.Minute

// JourneyReader loads journeys for read-heavy paths
type JourneyReader interface {
	Get(ctx context.Context, id valueobjects.JourneyID) (*aggregates.Journey, error)
	List(ctx context.Context) ([]*aggregates.Journey, error)
	Invalidate(ctx context.Context, id valueobjects.JourneyID)
}

// CachedJourneyReader serves journeys from a cache in front of the repository.
// Journeys change only through admin commands, which invalidate the entry.
type CachedJourneyReader struct {
	repo   ports.JourneyRepository
	cache  ports.Cache
	cfg    *config.DomainConfig
	logger *zap.Logger
}

// NewCachedJourneyReader creates a reader. A nil cache reads straight through.
func NewCachedJourneyReader(repo ports.JourneyRepository, cache ports.Cache, cfg *config.DomainConfig, logger *zap.Logger) *CachedJourneyReader {
	return &CachedJourneyReader{repo: repo, cache: cache, cfg: cfg, logger: logger}
}

func journeyCacheKey(id valueobjects.JourneyID) string {
	return "journey:" + id.String()
}

// Get returns a journey, populating the cache on a miss
func (r *CachedJourneyReader) Get(ctx context.Context, id valueobjects.JourneyID) (*aggregates.Journey, error) {
	if r.cache != nil {
		if data, ok, err := r.cache.Get(ctx, journeyCacheKey(id)); err == nil && ok {
			var snap aggregates.JourneySnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				if j, err := aggregates.ReconstructJourney(snap, r.cfg); err == nil {
					return j, nil
				}
			}
		} else if err != nil {
			r.logger.Debug("Journey cache read failed", zap.String("journey_id", id.String()), zap.Error(err))
		}
	}

	journey, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if data, err := json.Marshal(journey.Snapshot()); err == nil {
			if err := r.cache.Set(ctx, journeyCacheKey(id), data, journeyCacheTTL); err != nil {
				r.logger.Debug("Journey cache write failed", zap.String("journey_id", id.String()), zap.Error(err))
			}
		}
	}
	return journey, nil
}

// List always reads the repository
func (r *CachedJourneyReader) List(ctx context.Context) ([]*aggregates.Journey, error) {
	return r.repo.List(ctx)
}

// Invalidate drops a cached journey
func (r *CachedJourneyReader) Invalidate(ctx context.Context, id valueobjects.JourneyID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, journeyCacheKey(id)); err != nil {
		r.logger.Warn("Failed to invalidate journey cache", zap.String("journey_id", id.String()), zap.Error(err))
	}
}
