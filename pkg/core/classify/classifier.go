package classify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync/atomic"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
)

// DefaultLookahead is the number of following rows consulted when a row's
// own label is ambiguous.
const DefaultLookahead = 4

// Cache persists classifications keyed by statement kind and row labels.
// Save replaces the whole entry.
type Cache interface {
	Load(ctx context.Context, key string) ([]calc.RowType, bool, error)
	Save(ctx context.Context, key string, categories []calc.RowType) error
}

// Classifier assigns categories to summary rows. It is safe for concurrent
// use when its cache is.
type Classifier struct {
	machine   Machine
	lexicon   Lexicon
	lookahead int
	cache     Cache
	runs      atomic.Int64
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithCache sets the classification cache.
func WithCache(c Cache) Option {
	return func(cl *Classifier) { cl.cache = c }
}

// WithLookahead sets the lookahead window. Values below 0 are ignored.
func WithLookahead(n int) Option {
	return func(cl *Classifier) {
		if n >= 0 {
			cl.lookahead = n
		}
	}
}

// New returns a classifier for machine m scored with lex.
func New(m Machine, lex Lexicon, opts ...Option) *Classifier {
	c := &Classifier{machine: m, lexicon: lex, lookahead: DefaultLookahead}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Machine returns the classifier's state machine.
func (c *Classifier) Machine() Machine { return c.machine }

// Runs reports how many times the classification algorithm actually ran,
// excluding cache hits.
func (c *Classifier) Runs() int64 { return c.runs.Load() }

// Classify sets Type on every row of s.
func (c *Classifier) Classify(ctx context.Context, s *calc.Summary) {
	categories := c.Categories(ctx, s.Labels())
	for i := range s.Rows {
		s.Rows[i].Type = categories[i]
	}
}

// Categories returns one category per label. Cache failures are logged and
// otherwise ignored.
func (c *Classifier) Categories(ctx context.Context, labels []string) []calc.RowType {
	normalized := make([]string, len(labels))
	for i, l := range labels {
		normalized[i] = Normalize(l)
	}
	key := Key(c.machine.Kind, normalized)

	if c.cache != nil {
		cached, ok, err := c.cache.Load(ctx, key)
		switch {
		case err != nil:
			applog.L().Warn().Err(err).Str("key", key).Msg("[classify] cache load failed")
		case ok && len(cached) == len(labels):
			return cached
		case ok:
			applog.L().Warn().Str("key", key).Int("cached", len(cached)).Int("rows", len(labels)).
				Msg("[classify] ignoring cached entry with wrong length")
		}
	}

	categories := c.run(normalized)

	if c.cache != nil {
		if err := c.cache.Save(ctx, key, categories); err != nil {
			applog.L().Warn().Err(err).Str("key", key).Msg("[classify] cache save failed")
		}
	}
	return categories
}

func (c *Classifier) run(labels []string) []calc.RowType {
	c.runs.Add(1)

	out := make([]calc.RowType, len(labels))
	closed := map[calc.RowType]bool{}
	state := start
	for i := range labels {
		state = c.next(state, closed, labels, i)
		out[i] = state
		for _, s := range c.machine.Closes[state] {
			closed[s] = true
		}
	}

	applog.L().Debug().Str("kind", string(c.machine.Kind)).Int("rows", len(labels)).Msg("[classify] classified rows")
	return out
}

// next picks the category for labels[i] given the current state and the
// categories closed by earlier rows.
func (c *Classifier) next(state calc.RowType, closed map[calc.RowType]bool, labels []string, i int) calc.RowType {
	allowed := c.machine.AllowedAfter(state, closed)
	if len(allowed) == 0 {
		return state
	}

	best := 0.0
	var leaders []calc.RowType
	for _, cat := range allowed {
		score := c.lexicon.Score(cat, labels[i])
		switch {
		case score > best:
			best = score
			leaders = []calc.RowType{cat}
		case score == best && score > 0:
			leaders = append(leaders, cat)
		}
	}

	if best == strongScore && len(leaders) == 1 {
		return leaders[0]
	}
	if best > 0 {
		return c.byDensity(state, leaders, labels, i)
	}

	if state != start {
		return state
	}
	if cat, ok := c.densest(allowed, labels, i); ok {
		return cat
	}
	return allowed[0]
}

// window returns the labels from i up to lookahead rows ahead.
func (c *Classifier) window(labels []string, i int) []string {
	l := c.lookahead
	if remaining := len(labels) - 1 - i; remaining < l {
		l = remaining
	}
	return labels[i : i+l+1]
}

func (c *Classifier) density(cat calc.RowType, window []string) float64 {
	total := 0.0
	for _, label := range window {
		total += c.lexicon.Score(cat, label)
	}
	return total
}

// byDensity breaks a tie between candidates by their density over the
// window. A remaining tie keeps the current state, then allowed order.
func (c *Classifier) byDensity(state calc.RowType, candidates []calc.RowType, labels []string, i int) calc.RowType {
	w := c.window(labels, i)
	best := -1.0
	var leaders []calc.RowType
	for _, cat := range candidates {
		d := c.density(cat, w)
		switch {
		case d > best:
			best = d
			leaders = []calc.RowType{cat}
		case d == best:
			leaders = append(leaders, cat)
		}
	}
	for _, cat := range leaders {
		if cat == state {
			return cat
		}
	}
	return leaders[0]
}

func (c *Classifier) densest(candidates []calc.RowType, labels []string, i int) (calc.RowType, bool) {
	cat := c.byDensity(start, candidates, labels, i)
	return cat, c.density(cat, c.window(labels, i)) > 0
}

// Normalize lower-cases a label and collapses whitespace.
func Normalize(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// Key returns the cache key for a statement kind and its normalized labels.
func Key(kind Kind, normalized []string) string {
	return string(kind) + ":" + Fingerprint(normalized)
}

// Fingerprint is the hex sha256 of the ordered labels.
func Fingerprint(labels []string) string {
	h := sha256.New()
	for _, l := range labels {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
