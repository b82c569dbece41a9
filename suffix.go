package respond

import (
	"errors"
	"fmt"
)

// ErrUnknownSuffix is returned when a breakpoint tag is not one of the known aliases.
var ErrUnknownSuffix = errors.New("unknown breakpoint suffix")

// Suffix identifies a breakpoint alias. The zero value, SuffixNone, addresses
// the unconditional default value.
type Suffix string

// Known breakpoint aliases.
const (
	SuffixNone Suffix = ""

	SuffixXS Suffix = "xs"
	SuffixSM Suffix = "sm"
	SuffixMD Suffix = "md"
	SuffixLG Suffix = "lg"
	SuffixXL Suffix = "xl"

	SuffixLtSM Suffix = "lt-sm"
	SuffixLtMD Suffix = "lt-md"
	SuffixLtLG Suffix = "lt-lg"
	SuffixLtXL Suffix = "lt-xl"

	SuffixGtXS Suffix = "gt-xs"
	SuffixGtSM Suffix = "gt-sm"
	SuffixGtMD Suffix = "gt-md"
	SuffixGtLG Suffix = "gt-lg"
)

// Suffixes lists every known breakpoint alias, excluding SuffixNone.
var Suffixes = []Suffix{
	SuffixXS, SuffixSM, SuffixMD, SuffixLG, SuffixXL,
	SuffixLtSM, SuffixLtMD, SuffixLtLG, SuffixLtXL,
	SuffixGtXS, SuffixGtSM, SuffixGtMD, SuffixGtLG,
}

// ParseSuffix converts a tag into a Suffix. The empty string and "default"
// both map to SuffixNone.
func ParseSuffix(tag string) (Suffix, error) {
	if tag == "" || tag == "default" {
		return SuffixNone, nil
	}
	s := Suffix(tag)
	if !s.Known() {
		return SuffixNone, fmt.Errorf("%w: %q", ErrUnknownSuffix, tag)
	}
	return s, nil
}

// Known reports whether s is SuffixNone or one of the enumerated aliases.
func (s Suffix) Known() bool {
	if s == SuffixNone {
		return true
	}
	for _, known := range Suffixes {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the tag, or "default" for SuffixNone.
func (s Suffix) String() string {
	if s == SuffixNone {
		return "default"
	}
	return string(s)
}

// Key addresses a single cached value: an attribute name paired with a
// breakpoint suffix.
type Key struct {
	Base   string
	Suffix Suffix
}

// DefaultKey returns the key holding the unconditional value for base.
func DefaultKey(base string) Key {
	return Key{Base: base}
}

// IsDefault reports whether k addresses the unconditional value.
func (k Key) IsDefault() bool {
	return k.Suffix == SuffixNone
}

// Default returns the default key sharing k's base.
func (k Key) Default() Key {
	return Key{Base: k.Base}
}

// String renders the key as "base" or "base.suffix".
func (k Key) String() string {
	if k.Suffix == SuffixNone {
		return k.Base
	}
	return k.Base + "." + string(k.Suffix)
}
