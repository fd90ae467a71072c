package ignore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.tmp", "scratch.tmp", true},
		{"*.tmp", "nested/dir/scratch.tmp", true},
		{"*.pt", "model.pth", false},
		{"optimizer.pt", "optimizer.pt", true},
		{"optimizer.pt", "runs/optimizer.pt", false},
		{"checkpoint-?", "checkpoint-1", true},
		{"checkpoint-?", "checkpoint-10", false},
		{"epoch[0-9].bin", "epoch7.bin", true},
		{"epoch[!0-9].bin", "epoch7.bin", false},
		{"epoch[!0-9].bin", "epochx.bin", true},
		{"weird[name", "weird[name", true},
		{"a.b", "axb", false},
		{"logs/*", "logs/a/b.txt", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.pattern, tt.path), "%s vs %s", tt.pattern, tt.path)
	}
}

func TestMatcherDirectoryPattern(t *testing.T) {
	m := New(nil, []string{"logs/", "  ", "# comment"})

	assert.True(t, m.Ignored("logs/events.out"))
	assert.True(t, m.Ignored("logs/run1/events.out"))
	assert.False(t, m.Ignored("logs.txt"))
	assert.False(t, m.Ignored("sub/logs/events.out"))
	assert.Equal(t, []string{"logs/"}, m.Patterns())
}

func TestMatcherAllowAndIgnore(t *testing.T) {
	m := New([]string{"*.safetensors", "*.json"}, []string{"*optimizer*"})

	assert.True(t, m.Allowed("model.safetensors"))
	assert.True(t, m.Allowed("config.json"))
	assert.False(t, m.Allowed("train.log"), "not in allow list")
	assert.False(t, m.Allowed("optimizer.safetensors"), "ignore wins over allow")
}

func TestMatcherNoPatterns(t *testing.T) {
	m := New(nil, nil)
	assert.True(t, m.Allowed("anything/at/all.bin"))
	assert.Empty(t, m.Patterns())
}

func TestWithDefaults(t *testing.T) {
	m := WithDefaults(nil, []string{"*.tmp"})

	assert.False(t, m.Allowed(".git/config"))
	assert.False(t, m.Allowed("sub/.git/HEAD"))
	assert.False(t, m.Allowed(".cache/huggingface/upload/x.lock"))
	assert.False(t, m.Allowed("a.tmp"))
	assert.True(t, m.Allowed(".gitattributes"))
	assert.True(t, m.Allowed("model.bin"))
}

func TestMatchCharacterClassRanges(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		// reversed ranges are empty and never match
		{"[b-a].bin", "a.bin", false},
		{"[b-a].bin", "b.bin", false},
		{"[b-ax].bin", "x.bin", true},
		{"[!b-a].bin", "z.bin", true},
		{"[a-].bin", "-.bin", true},
		{"[]a].bin", "].bin", true},
		{"[^a].bin", "^.bin", true},
		{"[^a].bin", "b.bin", false},
		{`[\].bin`, `\.bin`, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.pattern, tt.path), "%s vs %s", tt.pattern, tt.path)
	}
}

func TestMatcherAcceptsReversedRange(t *testing.T) {
	var m *Matcher
	assert.NotPanics(t, func() {
		m = New(nil, []string{"[b-a].bin", "*.tmp"})
	})

	assert.True(t, m.Allowed("a.bin"))
	assert.False(t, m.Allowed("scratch.tmp"))
	assert.Equal(t, []string{"[b-a].bin", "*.tmp"}, m.Patterns())
}
