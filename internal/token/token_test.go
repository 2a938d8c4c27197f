package token

import (
	"errors"
	"strings"
	"testing"
)

func neverExists(string) (bool, error) { return false, nil }

func TestGenerateLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		tok, err := Generate(neverExists)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(tok) != Length {
			t.Fatalf("token %q has length %d, want %d", tok, len(tok), Length)
		}
		for _, c := range tok {
			if !strings.ContainsRune(alphabet, c) {
				t.Fatalf("token %q contains %q outside the alphabet", tok, c)
			}
		}
	}
}

func TestGeneratePairwiseDistinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := Generate(neverExists)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q after %d generations", tok, i)
		}
		seen[tok] = true
	}
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(string) (bool, error) {
		calls++
		return calls < 3, nil // first two candidates collide
	}

	tok, err := Generate(exists)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if tok == "" {
		t.Fatal("expected a token after retries")
	}
	if calls != 3 {
		t.Fatalf("exists called %d times, want 3", calls)
	}
}

func TestGenerateExhaustedAfterMaxAttempts(t *testing.T) {
	calls := 0
	alwaysTaken := func(string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := Generate(alwaysTaken)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
	if calls != MaxAttempts {
		t.Fatalf("exists called %d times, want exactly %d", calls, MaxAttempts)
	}
}

func TestGeneratePropagatesCheckError(t *testing.T) {
	boom := errors.New("store down")
	_, err := Generate(func(string) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped store error", err)
	}
}
