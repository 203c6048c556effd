package poi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultSearchCacheTTL is how long cached search results stay fresh.
const DefaultSearchCacheTTL = 15 * time.Minute

// DefaultSearchLimit is the result count used when the caller passes 0.
const DefaultSearchLimit = 5

// Service provides semantic POI search over the catalog.
type Service struct {
	repo     Repository
	embedder Embedder
	cache    redis.UniversalClient
	logger   zerolog.Logger
	cacheTTL time.Duration
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithSearchCacheTTL overrides the search result cache TTL.
func WithSearchCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

// NewService creates a POI search service. cache may be nil, in which case
// search results are not cached.
func NewService(repo Repository, embedder Embedder, cache redis.UniversalClient, logger zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		embedder: embedder,
		cache:    cache,
		logger:   logger,
		cacheTTL: DefaultSearchCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search finds the POIs most similar to the query. A failing embedder
// degrades to empty results rather than an error so plan generation can
// proceed without retrieval.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	key := searchCacheKey(query, limit)
	if cached, ok := s.cachedResults(ctx, key); ok {
		return cached, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query).Msg("embedding failed, returning empty poi results")
		return nil, nil
	}

	embeddings, err := s.repo.Embeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, nil
	}

	type scored struct {
		id    string
		score float64
	}
	ranked := make([]scored, 0, len(embeddings))
	for _, e := range embeddings {
		ranked = append(ranked, scored{id: e.POIID, score: cosineSimilarity(queryVec, e.Vector)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	ids := make([]string, len(ranked))
	scores := make(map[string]float64, len(ranked))
	for i, r := range ranked {
		ids[i] = r.id
		scores[r.id] = r.score
	}

	pois, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading pois: %w", err)
	}

	// GetMany does not guarantee row order, so restore the ranking.
	results := make([]SearchResult, 0, len(pois))
	for _, p := range pois {
		results = append(results, SearchResult{POI: p, Score: scores[p.ID]})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	s.storeResults(ctx, key, results)
	return results, nil
}

// Hints returns one-line prompt hints for the POIs most similar to the
// query.
func (s *Service) Hints(ctx context.Context, query string, limit int) []string {
	results, err := s.Search(ctx, query, limit)
	if err != nil {
		s.logger.Warn().Err(err).Msg("poi hint search failed")
		return nil
	}

	hints := make([]string, 0, len(results))
	for _, r := range results {
		hints = append(hints, r.POI.Hint())
	}
	return hints
}

// SuggestReplacement finds an alternative POI for an activity. The activity
// itself is excluded from candidates by name.
func (s *Service) SuggestReplacement(ctx context.Context, activityName, activityType string) (*POI, error) {
	query := activityName
	if activityType != "" {
		query = activityType + " like " + activityName
	}

	results, err := s.Search(ctx, query, DefaultSearchLimit)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		if !strings.EqualFold(r.POI.Name, activityName) {
			return r.POI, nil
		}
	}
	return nil, ErrPOINotFound
}

// Index embeds a POI document and stores the entry with its vector.
func (s *Service) Index(ctx context.Context, p *POI) error {
	vector, err := s.embedder.Embed(ctx, p.Document())
	if err != nil {
		return fmt.Errorf("embedding poi %s: %w", p.ID, err)
	}
	if err := s.repo.Upsert(ctx, p, vector); err != nil {
		return fmt.Errorf("storing poi %s: %w", p.ID, err)
	}
	return nil
}

// Reindex re-embeds every catalog entry. It returns the number of entries
// refreshed and stops on the first embedder failure so a dead provider does
// not burn through the whole catalog.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing catalog: %w", err)
	}

	for i, p := range entries {
		if err := s.Index(ctx, p); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}

// Count returns the catalog size.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) cachedResults(ctx context.Context, key string) ([]SearchResult, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("poi cache read failed")
		}
		return nil, false
	}

	var results []SearchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		s.logger.Warn().Err(err).Msg("poi cache entry corrupt, ignoring")
		return nil, false
	}
	return results, true
}

func (s *Service) storeResults(ctx context.Context, key string, results []SearchResult) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("poi cache write failed")
	}
}

func searchCacheKey(query string, limit int) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("poi:search:%s:%d", hex.EncodeToString(sum[:8]), limit)
}

// cosineSimilarity returns the cosine similarity of two vectors, or 0 when
// lengths differ or either vector is zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
