package respond

import "fmt"

// Values is a document of responsive values for one attribute, keyed by
// breakpoint suffix. SuffixNone holds the default.
type Values map[Suffix]string

// DecodeValues decodes a value document. Keys are breakpoint tags; the
// empty key or "default" addresses the default value.
//
//	{"default": "a.jpg 1x", "md": "a-md.jpg 1x", "lt-sm": "a-xs.jpg 1x"}
func DecodeValues(data []byte, codec Codec) (Values, error) {
	var raw map[string]string
	if err := codec.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(Values, len(raw))
	for tag, v := range raw {
		s, err := ParseSuffix(tag)
		if err != nil {
			return nil, err
		}
		if _, dup := out[s]; dup {
			return nil, fmt.Errorf("duplicate value for %s", s)
		}
		out[s] = v
	}
	return out, nil
}

// Diff compares v against prev and returns the suffixes whose value was set
// or changed and the suffixes that were removed, default first then in
// alias order.
func (v Values) Diff(prev Values) (changed, removed []Suffix) {
	for _, s := range append([]Suffix{SuffixNone}, Suffixes...) {
		curr, inCurr := v[s]
		old, inPrev := prev[s]
		switch {
		case inCurr && (!inPrev || curr != old):
			changed = append(changed, s)
		case !inCurr && inPrev:
			removed = append(removed, s)
		}
	}
	return changed, removed
}
