package analyzer

import (
	"testing"
)

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer(nil)

	tokens := tok.Tokenize("the quick brown fox i pjesma s gitarom")
	for _, token := range tokens {
		if token == "the" || token == "i" || token == "s" {
			t.Errorf("stopword %q should be removed, got %v", token, tokens)
		}
	}
	if len(tokens) != 5 {
		t.Errorf("expected 5 tokens, got %d: %v", len(tokens), tokens)
	}
}

func TestTokenizer_CustomStopwords(t *testing.T) {
	tok := NewTokenizer([]string{"pjesma"})

	tokens := tok.Tokenize("Tužna pjesma")
	if len(tokens) != 1 || tokens[0] != "tužna" {
		t.Errorf("expected [tužna], got %v", tokens)
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer([]string{})

	tokens := tok.Tokenize("a I go to")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
}

func TestTokenizer_EmptyInput(t *testing.T) {
	tok := NewTokenizer(nil)

	tokens := tok.Tokenize("")
	if len(tokens) != 0 {
		t.Errorf("expected 0 tokens for empty input, got %d", len(tokens))
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"hello world", []string{"hello", "world"}},
		{"Hello-World", []string{"hello", "world"}},
		{"don't stop", []string{"don't", "stop"}},
		{"TUŽNO, ali lijepo!", []string{"tužno", "ali", "lijepo"}},
		{"el.gitara 80s", []string{"el", "gitara", "80s"}},
		{"😊 happy", []string{"happy"}},
	}

	for _, tt := range tests {
		words := Words(tt.input)
		if len(words) != len(tt.expected) {
			t.Errorf("Words(%q) = %v, want %v", tt.input, words, tt.expected)
			continue
		}
		for i := range words {
			if words[i] != tt.expected[i] {
				t.Errorf("Words(%q) = %v, want %v", tt.input, words, tt.expected)
				break
			}
		}
	}
}
