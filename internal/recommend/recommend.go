// Package recommend answers "items similar to this one" queries over a
// catalog by TF-IDF cosine similarity of product tags.
//
// A query is matched as a case-insensitive substring against product names.
// The lowest-position match becomes the reference item, every product is
// ranked by similarity to it, and the reference itself is dropped. Without a
// match, or when ranking fails for any reason, the first topN products are
// returned instead. Failures are never surfaced to the caller.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/scbrown/shelf/internal/analyze"
	"github.com/scbrown/shelf/internal/catalog"
	"github.com/scbrown/shelf/internal/logging"
	"github.com/scbrown/shelf/internal/metrics"
	"github.com/scbrown/shelf/internal/model"
)

// Defaults applied by DefaultConfig and for zero Config fields.
const (
	DefaultTopN     = 10
	DefaultCacheTTL = 5 * time.Minute
)

// Config tunes a Recommender.
type Config struct {
	// DefaultTopN is used when a caller passes topN <= 0.
	DefaultTopN int

	// MaxFeatures caps the TF-IDF vocabulary.
	MaxFeatures int

	// CacheTTL is how long a (query, topN) answer is memoized. Zero or
	// negative disables memoization.
	CacheTTL time.Duration

	// SuggestThreshold is the minimum name similarity for a did-you-mean
	// hint. Zero uses analyze.DefaultThreshold; negative disables hints.
	SuggestThreshold float64
}

// DefaultConfig returns the settings shelf runs with unless configured otherwise.
func DefaultConfig() Config {
	return Config{
		DefaultTopN:      DefaultTopN,
		MaxFeatures:      analyze.DefaultMaxFeatures,
		CacheTTL:         DefaultCacheTTL,
		SuggestThreshold: analyze.DefaultThreshold,
	}
}

// Option configures optional collaborators.
type Option func(*Recommender)

// WithMetrics records every answered request on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recommender) { r.metrics = m }
}

// WithLogger replaces the global logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) { r.logger = l }
}

// Recommender owns a read-only catalog and answers queries against it. It is
// safe for concurrent use.
type Recommender struct {
	catalog *catalog.Catalog
	cfg     Config
	cache   *gocache.Cache
	metrics *metrics.Metrics
	logger  zerolog.Logger

	fit     func(docs []string) (*analyze.Model, []analyze.Vector, error)
	fitOnce sync.Once
	vecs    []analyze.Vector
	fitErr  error
}

// New builds a Recommender over c. A nil catalog is treated as empty.
func New(c *catalog.Catalog, cfg Config, opts ...Option) *Recommender {
	if c == nil {
		c = catalog.Empty()
	}
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = DefaultTopN
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = analyze.DefaultMaxFeatures
	}
	if cfg.SuggestThreshold == 0 {
		cfg.SuggestThreshold = analyze.DefaultThreshold
	}
	r := &Recommender{
		catalog: c,
		cfg:     cfg,
		logger:  logging.Logger(),
	}
	if cfg.CacheTTL > 0 {
		r.cache = gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	vz := analyze.Vectorizer{MaxFeatures: cfg.MaxFeatures}
	r.fit = vz.FitTransform
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With().Str("component", "recommend").Logger()
	r.metrics.SetCatalogSize(c.Len())
	return r
}

// Catalog returns the catalog the recommender ranks.
func (r *Recommender) Catalog() *catalog.Catalog { return r.catalog }

// CacheItems returns the number of memoized answers, including expired
// entries not yet swept.
func (r *Recommender) CacheItems() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.ItemCount()
}

// Recommend returns up to topN products similar to the first product whose
// name contains query. topN <= 0 uses the configured default.
func (r *Recommender) Recommend(ctx context.Context, query string, topN int) []model.Product {
	return r.Explain(ctx, query, topN).Products
}

// Explain is Recommend with diagnostics: the mode used, the reference item,
// similarity scores, and any ranking failure that forced the fallback.
func (r *Recommender) Explain(ctx context.Context, query string, topN int) model.Result {
	start := time.Now()
	if topN <= 0 {
		topN = r.cfg.DefaultTopN
	}
	key := cacheKey(query, topN)

	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			r.metrics.RecordCache(true)
			res := v.(model.Result).Clone()
			res.Cached = true
			r.metrics.RecordRecommendation(string(res.Mode), time.Since(start))
			return res
		}
		r.metrics.RecordCache(false)
	}

	res := r.compute(ctx, query, topN)
	if r.cache != nil {
		r.cache.Set(key, res.Clone(), gocache.DefaultExpiration)
	}
	r.metrics.RecordRecommendation(string(res.Mode), time.Since(start))

	r.log(ctx).Debug().
		Str("query", query).
		Int("top", topN).
		Str("mode", string(res.Mode)).
		Int("returned", len(res.Products)).
		Dur("took", time.Since(start)).
		Msg("recommendation complete")
	return res
}

func (r *Recommender) compute(ctx context.Context, query string, topN int) model.Result {
	res := model.Result{Query: query, TopN: topN}

	if r.catalog.Len() == 0 {
		res.Mode = model.ModeEmpty
		res.Products = []model.Product{}
		return res
	}

	ref, ok := r.catalog.FirstMatch(query)
	if !ok {
		res.Mode = model.ModeDefault
		res.Products = r.catalog.Head(topN)
		res.DidYouMean = r.suggest(query)
		return res
	}

	ranked, err := r.rank(ref, topN)
	if err != nil {
		r.log(ctx).Warn().Err(err).Str("query", query).Msg("similarity ranking failed, returning default list")
		res.Mode = model.ModeDefault
		res.Products = r.catalog.Head(topN)
		res.Error = err.Error()
		return res
	}

	refProduct := r.catalog.At(ref)
	res.Mode = model.ModeSimilar
	res.Reference = &refProduct
	res.Products = make([]model.Product, len(ranked))
	res.Scores = make([]float64, len(ranked))
	for i, s := range ranked {
		res.Products[i] = r.catalog.At(s.pos)
		res.Scores[i] = s.score
	}
	return res
}

type scored struct {
	pos   int
	score float64
}

// rank scores every product against the reference at position ref and
// returns the best topN, excluding ref. Ties keep catalog order.
func (r *Recommender) rank(ref, topN int) (out []scored, err error) {
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = &RecommendationError{Op: "rank", Msg: "panic during ranking", Err: fmt.Errorf("%v", p)}
		}
	}()

	vecs, err := r.vectors()
	if err != nil {
		return nil, &RecommendationError{Op: "vectorize", Msg: "fit tf-idf over tags", Err: err}
	}
	if len(vecs) != r.catalog.Len() || ref < 0 || ref >= len(vecs) {
		return nil, &RecommendationError{Op: "score", Msg: fmt.Sprintf("reference %d outside %d vectors", ref, len(vecs))}
	}

	all := make([]scored, len(vecs))
	for i, v := range vecs {
		all[i] = scored{pos: i, score: analyze.Cosine(vecs[ref], v)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	limit := topN + 1
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out = make([]scored, 0, limit)
	for _, s := range all[:limit] {
		if s.pos == ref {
			continue
		}
		out = append(out, s)
	}
	if len(out) > topN {
		out = out[:topN]
	}
	return out, nil
}

// vectors fits the tag vectors once; the catalog never changes afterwards.
func (r *Recommender) vectors() ([]analyze.Vector, error) {
	r.fitOnce.Do(func() {
		defer func() {
			if p := recover(); p != nil {
				r.vecs, r.fitErr = nil, fmt.Errorf("panic: %v", p)
			}
		}()
		_, r.vecs, r.fitErr = r.fit(r.catalog.Tags())
	})
	return r.vecs, r.fitErr
}

func (r *Recommender) suggest(query string) string {
	if r.cfg.SuggestThreshold < 0 {
		return ""
	}
	hits := analyze.SuggestN(query, r.catalog.Names(), 1, r.cfg.SuggestThreshold)
	if len(hits) == 0 {
		return ""
	}
	return hits[0].Name
}

func (r *Recommender) log(ctx context.Context) *zerolog.Logger {
	l := r.logger
	if id := logging.RequestIDFromContext(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}

func cacheKey(query string, topN int) string {
	return strconv.Itoa(topN) + "\x00" + query
}
