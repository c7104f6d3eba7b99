package analyze

import (
	"math"
	"testing"
)

var sampleNames = []string{"Wireless Headphones", "Smartphone", "Wireless Earbuds", "Running Shoes"}

func TestSuggestExactWord(t *testing.T) {
	results := Suggest("smartphone", sampleNames)
	if len(results) == 0 {
		t.Fatal("expected at least one suggestion for exact word")
	}
	if results[0].Name != "Smartphone" {
		t.Errorf("Name = %q, want %q", results[0].Name, "Smartphone")
	}
	if results[0].Score != 1.0 {
		t.Errorf("Score = %f, want 1.0", results[0].Score)
	}
}

func TestSuggestMisspelling(t *testing.T) {
	results := Suggest("wirless", sampleNames)
	if len(results) < 2 {
		t.Fatalf("expected both wireless products, got %v", results)
	}
	if results[0].Name != "Wireless Headphones" {
		t.Errorf("top suggestion = %q, want %q (ties keep catalog order)", results[0].Name, "Wireless Headphones")
	}
	if results[1].Name != "Wireless Earbuds" {
		t.Errorf("second suggestion = %q, want %q", results[1].Name, "Wireless Earbuds")
	}
	want := 0.875 + 0.1*3/8 + 0.05*4/8
	if math.Abs(results[0].Score-want) > 1e-9 {
		t.Errorf("Score = %f, want %f", results[0].Score, want)
	}
}

func TestSuggestCaseInsensitive(t *testing.T) {
	results := Suggest("RUNNING SHOES", sampleNames)
	if len(results) == 0 || results[0].Name != "Running Shoes" {
		t.Fatalf("expected Running Shoes first, got %v", results)
	}
	if results[0].Score != 1.0 {
		t.Errorf("Score = %f, want 1.0", results[0].Score)
	}
}

func TestSuggestBelowThreshold(t *testing.T) {
	results := Suggest("xq", sampleNames)
	if len(results) != 0 {
		t.Errorf("expected no suggestions for dissimilar query, got %v", results)
	}
}

func TestSuggestEmpty(t *testing.T) {
	if results := Suggest("", sampleNames); results != nil {
		t.Errorf("expected nil for empty query, got %v", results)
	}
	if results := Suggest("  --  ", sampleNames); results != nil {
		t.Errorf("expected nil for punctuation-only query, got %v", results)
	}
	if results := Suggest("phone", nil); results != nil {
		t.Errorf("expected nil for nil names, got %v", results)
	}
}

func TestSuggestTopN(t *testing.T) {
	names := []string{"aa", "ab", "ac", "ad", "ae", "af", "ag"}
	results := SuggestN("aa", names, 3, 0.0)
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestSuggestSortedByScore(t *testing.T) {
	results := SuggestN("shoe", sampleNames, 10, 0)
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted: [%d].Score=%f > [%d].Score=%f",
				i, results[i].Score, i-1, results[i-1].Score)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Wireless Headphones", "wireless headphones"},
		{"  USB-C   Cable ", "usb c cable"},
		{"snake_case_name", "snake case name"},
		{"ＵＳＢ", "usb"},
		{"", ""},
	}
	for _, tt := range tests {
		got := normalize(tt.input)
		if got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSimilarityBounds(t *testing.T) {
	pairs := [][2]string{
		{"phone", "phone"},
		{"phone", "shoes"},
		{"a", "z"},
		{"short", "muchlongerstring"},
		{"", "nonempty"},
		{"café", "cafe"},
	}
	for _, p := range pairs {
		score := similarity(p[0], p[1])
		if score < 0 || score > 1 {
			t.Errorf("similarity(%q, %q) = %f, out of [0,1]", p[0], p[1], score)
		}
	}
}

func TestCommonPrefixSuffixLen(t *testing.T) {
	tests := []struct {
		a, b           string
		prefix, suffix int
	}{
		{"abc", "abd", 2, 0},
		{"abc", "xyz", 0, 0},
		{"abc", "abc", 3, 3},
		{"ab", "abcdef", 2, 0},
		{"wirless", "wireless", 3, 4},
	}
	for _, tt := range tests {
		if got := commonPrefixLen([]rune(tt.a), []rune(tt.b)); got != tt.prefix {
			t.Errorf("commonPrefixLen(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.prefix)
		}
		if got := commonSuffixLen([]rune(tt.a), []rune(tt.b)); got != tt.suffix {
			t.Errorf("commonSuffixLen(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.suffix)
		}
	}
}
