package git

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitnotifier/pkg/models"
)

func TestDetectNew(t *testing.T) {
	hashes := []string{"h3", "h2", "h1"}
	subjects := []string{"s3", "s2", "s1"}

	tests := []struct {
		name      string
		mark      string
		hasMark   bool
		expected  models.CommitBatch
		markFound bool
	}{
		{
			name:      "mark is oldest",
			mark:      "h1",
			hasMark:   true,
			expected:  models.CommitBatch{{Hash: "h2", Subject: "s2"}, {Hash: "h3", Subject: "s3"}},
			markFound: true,
		},
		{
			name:      "mark is tip",
			mark:      "h3",
			hasMark:   true,
			expected:  models.CommitBatch{},
			markFound: true,
		},
		{
			name:     "no mark returns whole window",
			expected: models.CommitBatch{{Hash: "h1", Subject: "s1"}, {Hash: "h2", Subject: "s2"}, {Hash: "h3", Subject: "s3"}},
		},
		{
			name:     "mark outside window returns whole window",
			mark:     "h0",
			hasMark:  true,
			expected: models.CommitBatch{{Hash: "h1", Subject: "s1"}, {Hash: "h2", Subject: "s2"}, {Hash: "h3", Subject: "s3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, found := detectNew(hashes, subjects, tt.mark, tt.hasMark)
			assert.Equal(t, tt.expected, batch)
			assert.Equal(t, tt.markFound, found)
		})
	}
}

func TestDetectNewEmptyMarkIsNotAMatch(t *testing.T) {
	batch, found := detectNew([]string{"h1"}, []string{"s1"}, "", false)

	assert.False(t, found)
	assert.Equal(t, models.CommitBatch{{Hash: "h1", Subject: "s1"}}, batch)
}

func TestSubjectOf(t *testing.T) {
	tests := []struct {
		message  string
		expected string
	}{
		{"Fix parser\n", "Fix parser"},
		{"Fix parser\n\nLonger body\nwith lines\n", "Fix parser"},
		{"Wrapped subject\ncontinues here\n\nBody", "Wrapped subject continues here"},
		{"\n\nLeading blank lines\n", "Leading blank lines"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, subjectOf(tt.message))
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a"}, splitLines("a\n"))
	assert.Equal(t, []string{""}, splitLines("\n"), "a single empty subject is still an entry")
	assert.Equal(t, []string{"a", "", "c"}, splitLines("a\n\nc\n"))
	assert.Equal(t, []string{"", ""}, splitLines("\n\n"))
}
