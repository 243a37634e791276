package spamcheck

import "testing"

func TestEditDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"both empty", "", "", 0},
		{"empty vs word", "", "abc", 3},
		{"word vs empty", "abc", "", 3},
		{"equal", "kitten", "kitten", 0},
		{"classic", "kitten", "sitting", 3},
		{"substitution", "win", "won", 1},
		{"insertion", "free", "frees", 1},
		{"deletion", "gifts", "gift", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EditDistance(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("EditDistance(%q, %q) = %d, expected %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"", "word"},
		{"kitten", "sitting"},
		{"free gift", "free gift"},
		{"abc", "xyz"},
		{"a", "aaaa"},
	}

	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		if s < 0 || s > 1 {
			t.Errorf("Similarity(%q, %q) = %f, out of [0,1]", p[0], p[1], s)
		}
	}
}

func TestSimilarity_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"", "word"},
		{"free", "fere"},
		{"abcdef", "abc"},
	}

	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %f but reversed = %f", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "free gift", "free gift", 1},
		{"both empty", "", "", 1},
		{"one empty", "", "word", 0},
		{"other empty", "word", "", 0},
		{"one substitution of three", "win", "won", 1 - 1.0/3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if diff := got - tt.expected; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Similarity(%q, %q) = %f, expected %f", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestFuzzyContains(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		pattern   string
		threshold float64
		expected  bool
	}{
		{"exact substring", "claim your free gift today", "free gift", 0.7, true},
		{"single word exact", "your package has shipped", "package", 0.7, true},
		{"single word typo", "your packge has shipped", "package", 0.7, true},
		{"single word unrelated", "hello there", "package", 0.7, false},
		{"multi word in order", "get a frree gift now", "free gift", 0.7, true},
		{"multi word out of order", "gift something free", "free gift", 0.7, false},
		{"multi word gap allowed", "free stuff and a gift", "free gift", 0.7, true},
		{"empty pattern", "some text", "", 0.7, false},
		{"empty text", "", "free", 0.7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FuzzyContains(tt.text, tt.pattern, tt.threshold)
			if got != tt.expected {
				t.Errorf("FuzzyContains(%q, %q, %v) = %v, expected %v",
					tt.text, tt.pattern, tt.threshold, got, tt.expected)
			}
		})
	}
}

func TestFuzzyContains_Reflexive(t *testing.T) {
	texts := []string{"free", "free gift", "claim your free gift today"}
	for _, s := range texts {
		if !FuzzyContains(s, s, 1) {
			t.Errorf("FuzzyContains(%q, %q, 1) should be true", s, s)
		}
	}
}

func TestFindBestFuzzyMatch(t *testing.T) {
	t.Run("single word best score", func(t *testing.T) {
		score, ok := FindBestFuzzyMatch("your packge has shipped", "package", 0.7)
		if !ok {
			t.Fatal("expected a match")
		}
		if score < 0.7 || score >= 1 {
			t.Errorf("score = %f, expected in [0.7, 1)", score)
		}
	})

	t.Run("single word exact scores one", func(t *testing.T) {
		score, ok := FindBestFuzzyMatch("the package arrived", "package", 0.7)
		if !ok || score != 1 {
			t.Errorf("got (%f, %v), expected (1, true)", score, ok)
		}
	})

	t.Run("multi word averages per-word bests", func(t *testing.T) {
		score, ok := FindBestFuzzyMatch("claim the frree gift now", "free gift", 0.7)
		if !ok {
			t.Fatal("expected a match")
		}
		// "free" best is "frree" (0.8), "gift" is exact (1.0)
		expected := (0.8 + 1.0) / 2
		if diff := score - expected; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("score = %f, expected %f", score, expected)
		}
	})

	t.Run("multi word fails when one word misses", func(t *testing.T) {
		if _, ok := FindBestFuzzyMatch("claim the gift now", "free gift", 0.7); ok {
			t.Error("expected no match when a pattern word has no counterpart")
		}
	})

	t.Run("empty inputs", func(t *testing.T) {
		if _, ok := FindBestFuzzyMatch("", "free", 0.7); ok {
			t.Error("empty text should not match")
		}
		if _, ok := FindBestFuzzyMatch("text", "", 0.7); ok {
			t.Error("empty pattern should not match")
		}
	})
}
