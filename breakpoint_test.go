package respond

import (
	"errors"
	"testing"
)

func TestDefaultBreakpoints_Complete(t *testing.T) {
	b := DefaultBreakpoints()
	if b.Len() != len(Suffixes) {
		t.Fatalf("expected %d breakpoints, got %d", len(Suffixes), b.Len())
	}
	for _, s := range Suffixes {
		bp, ok := b.Lookup(s)
		if !ok {
			t.Errorf("missing breakpoint %s", s)
			continue
		}
		if err := bp.Validate(); err != nil {
			t.Errorf("breakpoint %s invalid: %v", s, err)
		}
	}
}

func TestBreakpoints_FromLargest(t *testing.T) {
	b := NewBreakpoints(
		Breakpoint{Alias: SuffixSM, MediaQuery: "(min-width: 600px)", Priority: 1},
		Breakpoint{Alias: SuffixXL, MediaQuery: "(min-width: 1920px)", Priority: 3},
		Breakpoint{Alias: SuffixMD, MediaQuery: "(min-width: 960px)", Priority: 2},
	)

	got := b.FromLargest()
	want := []Suffix{SuffixXL, SuffixMD, SuffixSM}
	for i, w := range want {
		if got[i].Alias != w {
			t.Errorf("position %d: expected %s, got %s", i, w, got[i].Alias)
		}
	}
}

func TestBreakpoints_AddReplaces(t *testing.T) {
	b := NewBreakpoints(Breakpoint{Alias: SuffixMD, MediaQuery: "old", Priority: 1})
	b.Add(Breakpoint{Alias: SuffixMD, MediaQuery: "new", Priority: 1})

	if b.Len() != 1 {
		t.Fatalf("expected 1 breakpoint, got %d", b.Len())
	}
	if bp, _ := b.Lookup(SuffixMD); bp.MediaQuery != "new" {
		t.Errorf("expected replaced query, got %q", bp.MediaQuery)
	}
}

func TestBreakpoints_InUseBy(t *testing.T) {
	c := NewCache()
	c.Set("srcset", SuffixNone, "a.jpg")
	c.Set("srcset", SuffixSM, "a-sm.jpg")
	c.Set("srcset", SuffixGtMD, "a-big.jpg")
	c.Set("sizes", SuffixXL, "30vw")

	got := DefaultBreakpoints().InUseBy(c, "srcset")
	if len(got) != 2 {
		t.Fatalf("expected 2 breakpoints in use, got %d", len(got))
	}
	if got[0].Alias != SuffixGtMD || got[1].Alias != SuffixSM {
		t.Errorf("expected [gt-md sm], got [%s %s]", got[0].Alias, got[1].Alias)
	}
}

func TestBreakpoint_Validate(t *testing.T) {
	if err := (Breakpoint{MediaQuery: "x"}).Validate(); err == nil {
		t.Error("expected error for missing alias")
	}
	if err := (Breakpoint{Alias: "huge", MediaQuery: "x"}).Validate(); !errors.Is(err, ErrUnknownSuffix) {
		t.Errorf("expected ErrUnknownSuffix, got %v", err)
	}
	if err := (Breakpoint{Alias: SuffixMD}).Validate(); err == nil {
		t.Error("expected error for missing media query")
	}
	if err := (Breakpoint{Alias: SuffixMD, MediaQuery: "x", Priority: -1}).Validate(); err == nil {
		t.Error("expected error for negative priority")
	}
	if err := (Breakpoint{Alias: SuffixMD, MediaQuery: "x"}).Validate(); err != nil {
		t.Errorf("expected valid breakpoint, got %v", err)
	}
}

func TestLoadBreakpoints_YAML(t *testing.T) {
	data := []byte(`
- alias: sm
  mediaQuery: "(min-width: 600px)"
  priority: 1
- alias: lg
  mediaQuery: "(min-width: 1280px)"
  priority: 2
`)
	b, err := LoadBreakpoints(data, YAMLCodec{})
	if err != nil {
		t.Fatalf("LoadBreakpoints failed: %v", err)
	}
	if b.FromLargest()[0].Alias != SuffixLG {
		t.Error("expected lg first")
	}
}

func TestLoadBreakpoints_JSONInvalid(t *testing.T) {
	data := []byte(`[{"alias": "huge", "mediaQuery": "x", "priority": 1}]`)
	if _, err := LoadBreakpoints(data, JSONCodec{}); !errors.Is(err, ErrUnknownSuffix) {
		t.Errorf("expected ErrUnknownSuffix, got %v", err)
	}
}

func TestRegistryFunc(t *testing.T) {
	var seen string
	r := RegistryFunc(func(family string) []Breakpoint {
		seen = family
		return nil
	})
	r.InUse("sizes")
	if seen != "sizes" {
		t.Errorf("expected family 'sizes', got %q", seen)
	}
}
