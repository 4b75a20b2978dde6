package cache

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// Tier identifies which cache key space satisfied a lookup.
type Tier string

const (
	TierExact    Tier = "exact"
	TierPattern  Tier = "pattern"
	TierSemantic Tier = "semantic"
	TierMiss     Tier = "miss"
)

// SimilarityFunc scores two feature vectors in [0,1]. The similarity
// algorithm is a configurable boundary; the default is cosine similarity
// over hashed request features.
type SimilarityFunc func(a, b []float64) float64

// featureDims is the size of the hashed feature space.
const featureDims = 64

// ResponseCache is the three-tier suggestion cache. Lookup tries exact, then
// family+type pattern, then semantic similarity. Store writes all three key
// spaces at once. Entries are JSON blobs in the underlying repository, so the
// same code runs against memory and Redis.
type ResponseCache struct {
	repo       outbound.CacheRepository
	keys       *KeyBuilder
	cfg        config.CacheConfig
	budgetTol  float64
	timeTol    float64
	similarity SimilarityFunc
	logger     *zap.Logger
}

// NewResponseCache creates the response cache. A nil similarity function
// selects cosine similarity.
func NewResponseCache(repo outbound.CacheRepository, cfg config.CacheConfig, orch config.OrchestratorConfig, similarity SimilarityFunc, logger *zap.Logger) *ResponseCache {
	if similarity == nil {
		similarity = CosineSimilarity
	}
	return &ResponseCache{
		repo:       repo,
		keys:       NewKeyBuilder(),
		cfg:        cfg,
		budgetTol:  orch.BudgetTolerance,
		timeTol:    orch.TimeTolerance,
		similarity: similarity,
		logger:     logger.Named("response-cache"),
	}
}

// Lookup searches the three tiers in order. Pattern and semantic hits are
// adapted before return: candidates violating the current request's hard
// constraints are dropped and confidence is discounted. A hit whose adapted
// candidate list is empty counts as a miss.
func (rc *ResponseCache) Lookup(ctx context.Context, req suggestion.SuggestionRequest) (*suggestion.CacheEntry, Tier, error) {
	if entry, ok := rc.load(ctx, rc.keys.ExactKey(req.NormalizedKey())); ok {
		rc.logger.Debug("exact cache hit", zap.String("key", entry.Key))
		return entry, TierExact, nil
	}

	if entry, ok := rc.load(ctx, rc.keys.PatternKey(req.PatternKey())); ok {
		if adapted := rc.adapt(entry, req); adapted != nil {
			rc.logger.Debug("pattern cache hit", zap.String("pattern_key", entry.PatternKey))
			return adapted, TierPattern, nil
		}
	}

	if entry := rc.semanticLookup(ctx, req); entry != nil {
		if adapted := rc.adapt(entry, req); adapted != nil {
			rc.logger.Debug("semantic cache hit", zap.String("key", entry.Key))
			return adapted, TierSemantic, nil
		}
	}

	return nil, TierMiss, ErrNotFound
}

// Store writes the response under all three key spaces. Entries are replaced
// wholesale; the TTL comes from the request type.
func (rc *ResponseCache) Store(ctx context.Context, req suggestion.SuggestionRequest, candidates []suggestion.ParsedCandidate, savedCostCents int, level suggestion.FallbackLevel) error {
	now := time.Now()
	ttl := rc.cfg.TTLFor(req.Type)

	entry := suggestion.CacheEntry{
		Key:            req.NormalizedKey(),
		PatternKey:     req.PatternKey(),
		FeatureVector:  FeatureVector(req),
		Type:           req.Type,
		Candidates:     candidates,
		SourceLevel:    level,
		SavedCostCents: savedCostCents,
		StoredAt:       now,
		ExpiresAt:      now.Add(ttl),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	for _, key := range []string{
		rc.keys.ExactKey(entry.Key),
		rc.keys.PatternKey(entry.PatternKey),
		rc.keys.SemanticKey(string(req.Type), entry.Key),
	} {
		if err := rc.repo.Set(ctx, key, data, ttl); err != nil {
			rc.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			return err
		}
	}

	rc.logger.Debug("response cached",
		zap.String("key", entry.Key),
		zap.Duration("ttl", ttl),
		zap.Int("candidates", len(candidates)))
	return nil
}

// Invalidate removes the exact entry for a request.
func (rc *ResponseCache) Invalidate(ctx context.Context, req suggestion.SuggestionRequest) error {
	return rc.repo.Delete(ctx, rc.keys.ExactKey(req.NormalizedKey()))
}

func (rc *ResponseCache) load(ctx context.Context, key string) (*suggestion.CacheEntry, bool) {
	data, err := rc.repo.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var entry suggestion.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry: drop it rather than serve garbage.
		_ = rc.repo.Delete(ctx, key)
		return nil, false
	}
	if entry.Expired(time.Now()) {
		_ = rc.repo.Delete(ctx, key)
		return nil, false
	}
	return &entry, true
}

func (rc *ResponseCache) semanticLookup(ctx context.Context, req suggestion.SuggestionRequest) *suggestion.CacheEntry {
	keys, err := rc.repo.Keys(ctx, rc.keys.SemanticScanPattern(string(req.Type)))
	if err != nil || len(keys) == 0 {
		return nil
	}

	target := FeatureVector(req)
	var best *suggestion.CacheEntry
	bestScore := rc.cfg.SimilarityThreshold

	for _, key := range keys {
		entry, ok := rc.load(ctx, key)
		if !ok || len(entry.FeatureVector) == 0 {
			continue
		}
		score := rc.similarity(target, entry.FeatureVector)
		if score >= bestScore {
			bestScore = score
			best = entry
		}
	}
	return best
}

// adapt filters a pattern/semantic hit to the current request's hard
// constraints and discounts candidate confidence. Stale-but-structurally-
// valid entries are never returned unfiltered.
func (rc *ResponseCache) adapt(entry *suggestion.CacheEntry, req suggestion.SuggestionRequest) *suggestion.CacheEntry {
	maxCost := int(float64(req.Constraints.BudgetCents) * (1 + rc.budgetTol))
	maxTime := int(float64(req.Constraints.MaxPrepMinutes+req.Constraints.MaxCookMinutes) * (1 + rc.timeTol))

	var kept []suggestion.ParsedCandidate
	for _, cand := range entry.Candidates {
		if req.Constraints.BudgetCents > 0 && cand.CostCents > maxCost {
			continue
		}
		if maxTime > 0 && cand.TotalMinutes() > maxTime {
			continue
		}
		if hasAllergenConflict(cand, req.Family.Allergens) {
			continue
		}
		cand.Confidence *= rc.cfg.PatternDiscount
		kept = append(kept, cand)
	}
	if len(kept) == 0 {
		return nil
	}

	adapted := *entry
	adapted.Candidates = kept
	return &adapted
}

func hasAllergenConflict(cand suggestion.ParsedCandidate, allergens []string) bool {
	for _, allergen := range allergens {
		if cand.HasIngredient(allergen) {
			return true
		}
	}
	return false
}

// FeatureVector hashes the request's salient features into a fixed-size
// vector: prompt tokens, allergens, restrictions and bucketed constraints.
func FeatureVector(req suggestion.SuggestionRequest) []float64 {
	vec := make([]float64, featureDims)

	addFeature := func(token string, weight float64) {
		h := fnv.New32a()
		h.Write([]byte(strings.ToLower(token)))
		vec[h.Sum32()%featureDims] += weight
	}

	for _, token := range strings.Fields(strings.ToLower(req.Prompt)) {
		addFeature("p:"+token, 1.0)
	}
	for _, allergen := range req.Family.Allergens {
		addFeature("a:"+allergen, 2.0)
	}
	for _, restriction := range req.Family.Restrictions {
		addFeature("r:"+restriction, 2.0)
	}
	for _, liked := range req.Family.Liked {
		addFeature("l:"+liked, 0.5)
	}

	// Bucketed constraints so close budgets/times land on the same feature.
	addFeature("budget:"+bucket(req.Constraints.BudgetCents, 500), 1.5)
	addFeature("time:"+bucket(req.Constraints.MaxPrepMinutes+req.Constraints.MaxCookMinutes, 15), 1.5)
	addFeature("servings:"+bucket(req.Constraints.Servings, 2), 1.0)

	return vec
}

func bucket(value, size int) string {
	if size <= 0 {
		size = 1
	}
	return strconv.Itoa(value / size)
}

// CosineSimilarity is the default similarity function.
func CosineSimilarity(a, b []float64) float64 {
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
