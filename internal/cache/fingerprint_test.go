package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_CaseAndWhitespaceInsensitive(t *testing.T) {
	a := Fingerprint("openai funding", "balanced", []string{"news", "web"})
	b := Fingerprint("  OpenAI Funding  ", "balanced", []string{"news", "web"})

	assert.Equal(t, a, b)
}

func TestFingerprint_SourceOrderInsensitive(t *testing.T) {
	a := Fingerprint("openai funding", "balanced", []string{"news", "web", "answer"})
	b := Fingerprint("openai funding", "balanced", []string{"web", "answer", "news"})
	c := Fingerprint("openai funding", "balanced", []string{"answer", "news", "web"})

	assert.Equal(t, a, b)
	assert.Equal(t, b, c)
}

func TestFingerprint_DuplicateSourcesCollapse(t *testing.T) {
	a := Fingerprint("q", "fast", []string{"web", "web", "news"})
	b := Fingerprint("q", "fast", []string{"news", "web"})

	assert.Equal(t, a, b)
}

func TestFingerprint_ModeChangesKey(t *testing.T) {
	a := Fingerprint("q", "fast", []string{"web"})
	b := Fingerprint("q", "comprehensive", []string{"web"})

	assert.NotEqual(t, a, b)
}

func TestFingerprint_QueryChangesKey(t *testing.T) {
	a := Fingerprint("openai funding", "balanced", []string{"web"})
	b := Fingerprint("anthropic funding", "balanced", []string{"web"})

	assert.NotEqual(t, a, b)
}

func TestFingerprint_NoSeparatorAmbiguity(t *testing.T) {
	// "ab"+"c" vs "a"+"bc" across part boundaries must differ
	a := Fingerprint("ab", "c", []string{"web"})
	b := Fingerprint("a", "bc", []string{"web"})

	assert.NotEqual(t, a, b)
}
