// Package rating derives reputation from completed exchanges.
//
// Averages are undefined (not zero) for a participant with no completed
// exchange in the role, so an unrated participant never looks poorly rated.
package rating

import (
	"context"
	"fmt"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/cache"
	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/monitoring"
	"github.com/aimerfeng/SkillSwap/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const cacheType = "reputation"

// Cache is the read-through store for reputation summaries
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Summary is a participant's reputation across both roles
type Summary struct {
	ParticipantID      uuid.UUID           `json:"participant_id"`
	AverageAsProvider  decimal.NullDecimal `json:"average_as_provider"`
	RatingsAsProvider  int64               `json:"ratings_as_provider"`
	AverageAsRequester decimal.NullDecimal `json:"average_as_requester"`
	RatingsAsRequester int64               `json:"ratings_as_requester"`
	CompletedCount     int64               `json:"completed_count"`
}

// Aggregator computes reputation from persisted exchange outcomes. It never
// writes exchanges.
type Aggregator struct {
	store store.Exchanges
	cache Cache
	ttl   time.Duration
}

// NewAggregator creates a new rating aggregator. cache may be nil.
func NewAggregator(s store.Exchanges, c Cache, ttl time.Duration) *Aggregator {
	return &Aggregator{store: s, cache: c, ttl: ttl}
}

// AverageAsProvider is the mean rating requesters gave participantID over
// COMPLETED exchanges where participantID was the provider
func (a *Aggregator) AverageAsProvider(ctx context.Context, participantID uuid.UUID) (decimal.NullDecimal, error) {
	avg, _, err := a.average(ctx, participantID, models.RoleProvider)
	return avg, err
}

// AverageAsRequester is the mean rating providers gave participantID over
// COMPLETED exchanges where participantID was the requester
func (a *Aggregator) AverageAsRequester(ctx context.Context, participantID uuid.UUID) (decimal.NullDecimal, error) {
	avg, _, err := a.average(ctx, participantID, models.RoleRequester)
	return avg, err
}

// CompletedCount is the number of COMPLETED exchanges participantID took part in
func (a *Aggregator) CompletedCount(ctx context.Context, participantID uuid.UUID) (int64, error) {
	n, err := a.store.CountCompletedExchanges(ctx, participantID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed exchanges: %w", err)
	}
	return n, nil
}

func (a *Aggregator) average(ctx context.Context, participantID uuid.UUID, role models.Role) (decimal.NullDecimal, int64, error) {
	totals, err := a.store.CompletedRatingTotals(ctx, participantID, role)
	if err != nil {
		return decimal.NullDecimal{}, 0, fmt.Errorf("failed to sum ratings: %w", err)
	}
	return Mean(totals), totals.Count, nil
}

// Mean returns Sum/Count, or an invalid NullDecimal when Count is zero
func Mean(t store.RatingTotals) decimal.NullDecimal {
	if t.Count == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromInt(t.Sum).Div(decimal.NewFromInt(t.Count)))
}

// Summary returns both averages and the completed count, served from the
// cache when present
func (a *Aggregator) Summary(ctx context.Context, participantID uuid.UUID) (*Summary, error) {
	key := cache.ReputationKey(participantID.String())

	if a.cache != nil {
		var cached Summary
		hit, err := a.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Reputation cache read failed")
		}
		if hit {
			monitoring.RecordCacheHit(cacheType)
			return &cached, nil
		}
		monitoring.RecordCacheMiss(cacheType)
	}

	asProvider, providerN, err := a.average(ctx, participantID, models.RoleProvider)
	if err != nil {
		return nil, err
	}
	asRequester, requesterN, err := a.average(ctx, participantID, models.RoleRequester)
	if err != nil {
		return nil, err
	}
	completed, err := a.CompletedCount(ctx, participantID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ParticipantID:      participantID,
		AverageAsProvider:  asProvider,
		RatingsAsProvider:  providerN,
		AverageAsRequester: asRequester,
		RatingsAsRequester: requesterN,
		CompletedCount:     completed,
	}

	if a.cache != nil {
		a.fill(ctx, key, summary)
	}
	return summary, nil
}

// fill caches summary, then re-reads the completed count. A completion that
// committed after the summary was computed may already have run OnCompleted,
// so a moved count means the entry just written is stale and is dropped.
// The count only grows, which makes it a version for the summary.
func (a *Aggregator) fill(ctx context.Context, key string, summary *Summary) {
	if err := a.cache.SetJSON(ctx, key, summary, a.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Reputation cache write failed")
		return
	}
	current, err := a.store.CountCompletedExchanges(ctx, summary.ParticipantID)
	if err == nil && current == summary.CompletedCount {
		return
	}
	if err := a.cache.Delete(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Reputation cache invalidation failed")
	}
}

// OnCompleted drops both parties' cached summaries
func (a *Aggregator) OnCompleted(ctx context.Context, e *models.Exchange) {
	if a.cache == nil {
		return
	}
	keys := []string{
		cache.ReputationKey(e.RequesterID.String()),
		cache.ReputationKey(e.ProviderID.String()),
	}
	if err := a.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Str("exchange_id", e.ID.String()).Msg("Reputation cache invalidation failed")
	}
}
