package respond

import (
	"errors"
	"testing"
)

func TestParseSuffix(t *testing.T) {
	tests := []struct {
		tag  string
		want Suffix
	}{
		{"", SuffixNone},
		{"default", SuffixNone},
		{"md", SuffixMD},
		{"lt-sm", SuffixLtSM},
		{"gt-lg", SuffixGtLG},
	}
	for _, tt := range tests {
		got, err := ParseSuffix(tt.tag)
		if err != nil {
			t.Errorf("ParseSuffix(%q) error = %v", tt.tag, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSuffix(%q) = %q, want %q", tt.tag, got, tt.want)
		}
	}
}

func TestParseSuffix_Unknown(t *testing.T) {
	for _, tag := range []string{"xxl", "MD", "lt-xs", "gt-xl"} {
		if _, err := ParseSuffix(tag); !errors.Is(err, ErrUnknownSuffix) {
			t.Errorf("ParseSuffix(%q) expected ErrUnknownSuffix, got %v", tag, err)
		}
	}
}

func TestSuffixes_AllKnown(t *testing.T) {
	if len(Suffixes) != 13 {
		t.Errorf("expected 13 aliases, got %d", len(Suffixes))
	}
	for _, s := range Suffixes {
		if !s.Known() {
			t.Errorf("expected %q to be known", s)
		}
	}
	if !SuffixNone.Known() {
		t.Error("expected SuffixNone to be known")
	}
}

func TestSuffix_String(t *testing.T) {
	if SuffixNone.String() != "default" {
		t.Errorf("expected 'default', got %q", SuffixNone.String())
	}
	if SuffixLtMD.String() != "lt-md" {
		t.Errorf("expected 'lt-md', got %q", SuffixLtMD.String())
	}
}

func TestKey(t *testing.T) {
	k := Key{Base: "srcset", Suffix: SuffixMD}
	if k.String() != "srcset.md" {
		t.Errorf("expected 'srcset.md', got %q", k.String())
	}
	if k.IsDefault() {
		t.Error("expected md key not to be default")
	}
	if k.Default() != DefaultKey("srcset") {
		t.Error("expected Default() to drop the suffix")
	}
	if DefaultKey("srcset").String() != "srcset" {
		t.Errorf("expected 'srcset', got %q", DefaultKey("srcset").String())
	}
	if !DefaultKey("srcset").IsDefault() {
		t.Error("expected default key")
	}
}
