package diagram

import "testing"

func TestDigestDeterministic(t *testing.T) {
	body := []string{"box \"a\"", "arrow", "box \"b\""}
	if Digest(body) != Digest(body) {
		t.Error("Digest should be deterministic")
	}
	if len(Digest(body)) != 32 {
		t.Errorf("Digest length = %d, want 32 hex chars", len(Digest(body)))
	}
}

func TestDigestIgnoresOuterWhitespaceOnly(t *testing.T) {
	// Outer whitespace of the joined blob is stripped before hashing.
	a := Digest([]string{"  box", "arrow  "})
	b := Digest([]string{"box", "arrow"})
	if a != b {
		t.Error("digests should agree when only outer whitespace differs")
	}

	// Internal whitespace is significant.
	c := Digest([]string{"box", " arrow"})
	if c == b {
		t.Error("digests should differ when internal whitespace differs")
	}
}

func TestDigestDistinguishesContent(t *testing.T) {
	if Digest([]string{"box"}) == Digest([]string{"circle"}) {
		t.Error("different bodies should produce different digests")
	}
}
