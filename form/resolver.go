package form

import (
	"context"
	"fmt"
	"log/slog"
)

// Lookup is the result of resolving a field: either a found element together
// with the strategy that found it, or NotFound.
type Lookup struct {
	Element  Element
	Strategy Strategy

	// index is the position of Strategy in FieldSpec.Strategies, for ResolveFrom.
	index int
}

// NotFound is the Lookup returned when no strategy matched.
var NotFound = Lookup{index: -1}

// Found reports whether an element was located.
func (l Lookup) Found() bool { return l.Element != nil }

// Next is the strategy index to resume from after this lookup.
func (l Lookup) Next() int { return l.index + 1 }

// Resolver maps logical fields to page elements.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a Resolver. A nil logger uses slog.Default().
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger}
}

// Resolve tries the field strategies in order and returns the first match.
//
// Absence is not an error: when nothing matches the result is NotFound and
// the caller decides whether that is fatal. The returned error is reserved for
// the page itself failing. Resolve never waits; the caller has already waited
// for the page to be ready.
func (r *Resolver) Resolve(ctx context.Context, p Page, spec FieldSpec, value string) (Lookup, error) {
	return r.ResolveFrom(ctx, p, spec, value, 0)
}

// ResolveFrom is Resolve starting at strategy index start. It lets the caller
// move on to later strategies when acting on an earlier match failed.
func (r *Resolver) ResolveFrom(ctx context.Context, p Page, spec FieldSpec, value string, start int) (Lookup, error) {
	for i := start; i < len(spec.Strategies); i++ {
		s := spec.Strategies[i]
		q := s.Query(value)
		el, found, err := p.Query(ctx, q)
		if err != nil {
			return NotFound, fmt.Errorf("resolve %s via %s: %w", spec.Name, s.Name, err)
		}
		if found {
			r.logger.Debug("field resolved",
				"field", spec.Name,
				"strategy", s.Name,
				"query", q.String(),
			)
			return Lookup{Element: el, Strategy: s, index: i}, nil
		}
	}
	return NotFound, nil
}
