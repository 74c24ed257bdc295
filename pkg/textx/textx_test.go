package textx_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-oral-evaluator/pkg/textx"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Sensor CALIBRATION", "sensor calibration"},
		{"strips punctuation", "What is PCB-level routing?", "what is pcb level routing"},
		{"collapses whitespace", "  a \t b\n\nc  ", "a b c"},
		{"digits kept", "IPC-2221 class 3", "ipc 2221 class 3"},
		{"empty", "", ""},
		{"only punctuation", "?!...", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, textx.Normalize(tc.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"", "Hello, World!", "  a  b  ", "Ünïcödé text 42", "already normal"} {
		once := textx.Normalize(s)
		assert.Equal(t, once, textx.Normalize(once), "input %q", s)
	}
}

func TestTokens(t *testing.T) {
	t.Parallel()
	got := textx.Tokens("verify the sensor; verify the OUTPUT")
	want := map[string]struct{}{"verify": {}, "the": {}, "sensor": {}, "output": {}}
	assert.Equal(t, want, got)
	assert.Empty(t, textx.Tokens("  ?! "))
}

func TestTrim(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "short", textx.Trim("  short  ", 220))
	long := strings.Repeat("x", 300)
	got := textx.Trim(long, 220)
	require.True(t, strings.HasSuffix(got, textx.Ellipsis))
	assert.Equal(t, strings.Repeat("x", 220)+textx.Ellipsis, got)
	// limit <= 0 disables truncation
	assert.Equal(t, long, textx.Trim(long, 0))
	assert.Equal(t, "", textx.Trim("", 220))
}

func TestKeywords(t *testing.T) {
	t.Parallel()
	got := textx.Keywords("The quick brown fox; the quick BROWN fox jumps!", 10)
	// "the" and "fox" are too short; dedup preserves first-seen order
	assert.Equal(t, []string{"quick", "brown", "jumps"}, got)

	capped := textx.Keywords("alpha beta gamma delta epsilon", 2)
	assert.Equal(t, []string{"alpha", "beta"}, capped)

	assert.Empty(t, textx.Keywords("a an of to", 10))
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "keeps\ttabs\nand lines", textx.SanitizeText("keeps\ttabs\nand lines\x00\x07"))
	assert.Equal(t, "trimmed", textx.SanitizeText("  trimmed  "))
}
