package guideline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/promoguard/promoscan/internal/models"
)

// DefaultCacheTTL bounds how long the flattened rule list is reused
// before being rebuilt from the live indices
const DefaultCacheTTL = time.Hour

// Repository owns the guideline corpus and its lookup indices. Indices
// are immutable between reloads; a reload builds a fresh index set and
// swaps it in under the write lock.
type Repository struct {
	source   Source
	logger   *zap.Logger
	cacheTTL time.Duration

	mu        sync.RWMutex
	set       *models.GuidelineSet
	byID      map[string]models.Rule
	byKeyword map[string][]string // lowercase keyword -> rule IDs, insertion order
	order     []string            // rule IDs in stable corpus order

	cacheMu   sync.Mutex
	cachedAll []models.Rule
	cachedAt  time.Time
}

// NewRepository loads the corpus from the source and builds the indices.
// A corpus that cannot be loaded or contains no rules is a fatal
// construction error: the caller must refuse to serve.
func NewRepository(ctx context.Context, source Source, cacheTTL time.Duration, logger *zap.Logger) (*Repository, error) {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	r := &Repository{
		source:   source,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
	if err := r.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load guideline corpus from %s: %w", source.Describe(), err)
	}
	return r, nil
}

// Reload fetches the corpus again and rebuilds all indices. On failure
// the previous corpus stays in service.
func (r *Repository) Reload(ctx context.Context) error {
	set, err := r.source.Load(ctx)
	if err != nil {
		r.logger.Error("Guideline reload failed", zap.String("source", r.source.Describe()), zap.Error(err))
		return err
	}

	byID := make(map[string]models.Rule, set.Metadata.TotalRules)
	byKeyword := make(map[string][]string)
	order := make([]string, 0, set.Metadata.TotalRules)

	categories := make([]string, 0, len(set.Guidelines))
	for category := range set.Guidelines {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for _, rule := range set.Guidelines[category] {
			byID[rule.ID] = rule
			order = append(order, rule.ID)
			for _, kw := range rule.ViolationKeywords {
				key := strings.ToLower(kw)
				byKeyword[key] = append(byKeyword[key], rule.ID)
			}
			for _, claim := range rule.ProhibitedClaims {
				key := strings.ToLower(claim)
				byKeyword[key] = append(byKeyword[key], rule.ID)
			}
		}
	}

	r.mu.Lock()
	r.set = set
	r.byID = byID
	r.byKeyword = byKeyword
	r.order = order
	r.mu.Unlock()

	r.cacheMu.Lock()
	r.cachedAll = nil
	r.cachedAt = time.Time{}
	r.cacheMu.Unlock()

	r.logger.Info("Guideline corpus loaded",
		zap.String("version", set.Metadata.Version),
		zap.Int("rules", set.Metadata.TotalRules),
		zap.Int("categories", len(set.Guidelines)),
		zap.String("source", r.source.Describe()))
	return nil
}

// Set returns the current guideline set (methodology, patterns, metadata)
func (r *Repository) Set() *models.GuidelineSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set
}

// All returns every rule in stable corpus order
func (r *Repository) All() []models.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rules := make([]models.Rule, 0, len(r.order))
	for _, id := range r.order {
		rules = append(rules, r.byID[id])
	}
	return rules
}

// CachedRules returns the flattened rule list from a time-boxed cache,
// rebuilding from the live indices on expiry
func (r *Repository) CachedRules() []models.Rule {
	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()
	if r.cachedAll != nil && time.Since(r.cachedAt) < r.cacheTTL {
		return r.cachedAll
	}
	r.cachedAll = r.All()
	r.cachedAt = time.Now()
	return r.cachedAll
}

// ByCategory returns the rules of one category
func (r *Repository) ByCategory(category string) []models.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.set.Guidelines[category]
	rules := make([]models.Rule, len(src))
	copy(rules, src)
	return rules
}

// ByID looks up a single rule
func (r *Repository) ByID(id string) (models.Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.byID[id]
	return rule, ok
}

// ByKeywords returns the union of keyword-index lookups for the given
// words, deduplicated, in first-discovery order
func (r *Repository) ByKeywords(words []string) []models.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var rules []models.Rule
	for _, word := range words {
		for _, id := range r.byKeyword[strings.ToLower(word)] {
			if seen[id] {
				continue
			}
			seen[id] = true
			rules = append(rules, r.byID[id])
		}
	}
	return rules
}

// ByContext returns rules whose applicable-context field contains any
// whitespace token of the given context string
func (r *Repository) ByContext(contextString string) []models.Rule {
	tokens := strings.Fields(strings.ToLower(contextString))
	if len(tokens) == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var rules []models.Rule
	for _, id := range r.order {
		rule := r.byID[id]
		ruleCtx := strings.ToLower(rule.ApplicableContext)
		for _, token := range tokens {
			if strings.Contains(ruleCtx, token) {
				rules = append(rules, rule)
				break
			}
		}
	}
	return rules
}

// Search performs a full substring search over every rule's identifying
// fields, keywords and claims
func (r *Repository) Search(text string) []models.Rule {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var rules []models.Rule
	for _, id := range r.order {
		rule := r.byID[id]
		if strings.Contains(searchBlob(rule), needle) {
			rules = append(rules, rule)
		}
	}
	return rules
}

func searchBlob(rule models.Rule) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(rule.ID))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(rule.Title))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(rule.Description))
	for _, kw := range rule.ViolationKeywords {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(kw))
	}
	for _, claim := range rule.ProhibitedClaims {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(claim))
	}
	return b.String()
}
