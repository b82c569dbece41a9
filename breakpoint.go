package respond

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Breakpoint describes a named viewport condition.
type Breakpoint struct {
	Alias      Suffix `json:"alias" yaml:"alias" validate:"required"`
	MediaQuery string `json:"mediaQuery" yaml:"mediaQuery" validate:"required"`
	// Priority orders breakpoints; larger values cover larger viewport ranges
	// and are offered first in a fallback chain.
	Priority int `json:"priority" yaml:"priority" validate:"gte=0"`
}

// Validate checks that the breakpoint names a known alias and carries a query.
func (b Breakpoint) Validate() error {
	if err := validate.Struct(b); err != nil {
		return fmt.Errorf("invalid breakpoint: %w", err)
	}
	if !b.Alias.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownSuffix, string(b.Alias))
	}
	return nil
}

// Registry reports the breakpoints in use for an attribute family, ordered
// from the largest range to the smallest. Implementations recompute the
// result on every call.
type Registry interface {
	InUse(family string) []Breakpoint
}

// RegistryFunc adapts a function to the Registry interface.
type RegistryFunc func(family string) []Breakpoint

// InUse calls f(family).
func (f RegistryFunc) InUse(family string) []Breakpoint {
	return f(family)
}

// Breakpoints is a set of breakpoint descriptors keyed by alias.
type Breakpoints struct {
	items []Breakpoint
}

// NewBreakpoints builds a set from the given descriptors. A later descriptor
// replaces an earlier one with the same alias.
func NewBreakpoints(items ...Breakpoint) *Breakpoints {
	b := &Breakpoints{}
	for _, bp := range items {
		b.Add(bp)
	}
	return b
}

// DefaultBreakpoints returns the standard alias set.
func DefaultBreakpoints() *Breakpoints {
	return NewBreakpoints(
		Breakpoint{Alias: SuffixXL, MediaQuery: "screen and (min-width: 1920px) and (max-width: 4999.98px)", Priority: 13},
		Breakpoint{Alias: SuffixGtLG, MediaQuery: "screen and (min-width: 1920px)", Priority: 12},
		Breakpoint{Alias: SuffixLG, MediaQuery: "screen and (min-width: 1280px) and (max-width: 1919.98px)", Priority: 11},
		Breakpoint{Alias: SuffixGtMD, MediaQuery: "screen and (min-width: 1280px)", Priority: 10},
		Breakpoint{Alias: SuffixMD, MediaQuery: "screen and (min-width: 960px) and (max-width: 1279.98px)", Priority: 9},
		Breakpoint{Alias: SuffixGtSM, MediaQuery: "screen and (min-width: 960px)", Priority: 8},
		Breakpoint{Alias: SuffixSM, MediaQuery: "screen and (min-width: 600px) and (max-width: 959.98px)", Priority: 7},
		Breakpoint{Alias: SuffixGtXS, MediaQuery: "screen and (min-width: 600px)", Priority: 6},
		Breakpoint{Alias: SuffixXS, MediaQuery: "screen and (min-width: 0px) and (max-width: 599.98px)", Priority: 5},
		Breakpoint{Alias: SuffixLtXL, MediaQuery: "screen and (max-width: 1919.98px)", Priority: 4},
		Breakpoint{Alias: SuffixLtLG, MediaQuery: "screen and (max-width: 1279.98px)", Priority: 3},
		Breakpoint{Alias: SuffixLtMD, MediaQuery: "screen and (max-width: 959.98px)", Priority: 2},
		Breakpoint{Alias: SuffixLtSM, MediaQuery: "screen and (max-width: 599.98px)", Priority: 1},
	)
}

// LoadBreakpoints decodes a list of descriptors with codec and validates each.
func LoadBreakpoints(data []byte, codec Codec) (*Breakpoints, error) {
	var items []Breakpoint
	if err := codec.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode breakpoints: %w", err)
	}
	for i, bp := range items {
		if err := bp.Validate(); err != nil {
			return nil, fmt.Errorf("breakpoint %d: %w", i, err)
		}
	}
	return NewBreakpoints(items...), nil
}

// Add inserts or replaces the descriptor for bp.Alias.
func (b *Breakpoints) Add(bp Breakpoint) {
	for i := range b.items {
		if b.items[i].Alias == bp.Alias {
			b.items[i] = bp
			return
		}
	}
	b.items = append(b.items, bp)
}

// Lookup returns the descriptor for alias.
func (b *Breakpoints) Lookup(alias Suffix) (Breakpoint, bool) {
	for _, bp := range b.items {
		if bp.Alias == alias {
			return bp, true
		}
	}
	return Breakpoint{}, false
}

// Len returns the number of descriptors in the set.
func (b *Breakpoints) Len() int {
	return len(b.items)
}

// FromLargest returns every descriptor ordered by descending priority.
// Ties keep insertion order.
func (b *Breakpoints) FromLargest() []Breakpoint {
	out := make([]Breakpoint, len(b.items))
	copy(out, b.items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// InUseBy returns the descriptors for which cache holds a value under base,
// ordered by descending priority.
func (b *Breakpoints) InUseBy(cache *Cache, base string) []Breakpoint {
	var out []Breakpoint
	for _, bp := range b.FromLargest() {
		if _, ok := cache.Get(Key{Base: base, Suffix: bp.Alias}); ok {
			out = append(out, bp)
		}
	}
	return out
}
