package token

import (
	"reflect"
	"regexp"
	"testing"
)

var (
	scalePattern   = regexp.MustCompile(`^([0-9.]+)x$`)
	qualityPattern = regexp.MustCompile(`^(\d+)%$`)
	cropPattern    = regexp.MustCompile(`^((-?\d+):(-?\d+):)?(\d+):(\d+)$`)
)

func TestTakeFirst(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		pattern  *regexp.Regexp
		wantOK   bool
		wantTok  string
		wantRest []string
	}{
		{
			name:     "leftmost wins",
			tokens:   []string{"50%", "80%"},
			pattern:  qualityPattern,
			wantOK:   true,
			wantTok:  "50%",
			wantRest: []string{"80%"},
		},
		{
			name:     "skips non matching",
			tokens:   []string{"2x", "pad", "70%"},
			pattern:  qualityPattern,
			wantOK:   true,
			wantTok:  "70%",
			wantRest: []string{"2x", "pad"},
		},
		{
			name:     "no match",
			tokens:   []string{"2x", "pad"},
			pattern:  qualityPattern,
			wantOK:   false,
			wantRest: []string{"2x", "pad"},
		},
		{
			name:     "empty list",
			tokens:   nil,
			pattern:  qualityPattern,
			wantOK:   false,
			wantRest: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.tokens...)
			m, rest, ok := l.TakeFirst(tt.pattern)
			if ok != tt.wantOK {
				t.Fatalf("TakeFirst() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && m.Group(0) != tt.wantTok {
				t.Errorf("TakeFirst() token = %q, want %q", m.Group(0), tt.wantTok)
			}
			if !reflect.DeepEqual(rest.Tokens(), tt.wantRest) {
				t.Errorf("TakeFirst() rest = %v, want %v", rest.Tokens(), tt.wantRest)
			}
			if !reflect.DeepEqual(l.Tokens(), New(tt.tokens...).Tokens()) {
				t.Errorf("TakeFirst() modified receiver: %v", l.Tokens())
			}
		})
	}
}

func TestTakeLast(t *testing.T) {
	l := New("2x", "pad", "3x")

	m, rest, ok := l.TakeLast(scalePattern)
	if !ok {
		t.Fatal("TakeLast() should match")
	}
	if got := m.Group(1); got != "3" {
		t.Errorf("TakeLast() group 1 = %q, want %q", got, "3")
	}
	if want := []string{"2x", "pad"}; !reflect.DeepEqual(rest.Tokens(), want) {
		t.Errorf("TakeLast() rest = %v, want %v", rest.Tokens(), want)
	}
	if l.Len() != 3 {
		t.Errorf("receiver length = %d, want 3", l.Len())
	}
}

func TestTakeConsumesOnce(t *testing.T) {
	l := New("pad", "50%")

	_, l, ok := l.TakeFirst(qualityPattern)
	if !ok {
		t.Fatal("first call should match")
	}
	_, l, ok = l.TakeFirst(qualityPattern)
	if ok {
		t.Error("second call should not match the consumed token")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestMatchGroup(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  []string // groups 2..5
	}{
		{"with origin", "-10:20:100:50", []string{"-10", "20", "100", "50"}},
		{"without origin", "100:50", []string{"", "", "100", "50"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, ok := New(tt.token).TakeLast(cropPattern)
			if !ok {
				t.Fatalf("TakeLast(%q) should match", tt.token)
			}
			for i, want := range tt.want {
				if got := m.Group(i + 2); got != want {
					t.Errorf("Group(%d) = %q, want %q", i+2, got, want)
				}
			}
			if got := m.Group(42); got != "" {
				t.Errorf("Group(42) = %q, want empty", got)
			}
		})
	}
}

func TestFirstLastCallbacks(t *testing.T) {
	var got string
	fallback := false

	rest, ok := New("1x", "2x").Last(scalePattern, func(m Match) { got = m.Group(1) }, func() { fallback = true })
	if !ok || got != "2" || fallback {
		t.Errorf("Last() ok=%v got=%q fallback=%v", ok, got, fallback)
	}
	if rest.Len() != 1 {
		t.Errorf("Last() rest Len = %d, want 1", rest.Len())
	}

	rest, ok = rest.First(qualityPattern, func(Match) { t.Error("onMatch should not run") }, func() { fallback = true })
	if ok || !fallback {
		t.Errorf("First() ok=%v fallback=%v, want false/true", ok, fallback)
	}
	if rest.Len() != 1 {
		t.Errorf("First() rest Len = %d, want 1", rest.Len())
	}

	// nil fallback is allowed
	if _, ok := rest.First(qualityPattern, nil, nil); ok {
		t.Error("First() with nil callbacks should not match")
	}
}

func TestNewCopiesInput(t *testing.T) {
	src := []string{"2x"}
	l := New(src...)
	src[0] = "3x"
	if l.Tokens()[0] != "2x" {
		t.Error("New() should copy its input")
	}
	out := l.Tokens()
	out[0] = "4x"
	if l.Tokens()[0] != "2x" {
		t.Error("Tokens() should return a copy")
	}
}

func TestConcatAndString(t *testing.T) {
	l := New("a", "b").Concat(New("c"))
	if got := l.String(); got != "a b c" {
		t.Errorf("String() = %q, want %q", got, "a b c")
	}
	if got := (List{}).String(); got != "" {
		t.Errorf("empty String() = %q", got)
	}
}
