package topic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		topic   Topic
		pattern Topic
		want    bool
	}{
		{"fs/write", "fs/write", true},
		{"fs/write", "fs/*", true},
		{"fs/write", "*", false},
		{"fs/write", "**", true},
		{"fs/a/b/c", "fs/**", true},
		{"fs", "fs/**", true},
		{"fs/a/b", "fs/**/b", true},
		{"fs/a/b", "fs/*/c", false},
		{"script/loaded", "fs/**", false},
		{"a/b", "a/b/c", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.topic.Matches(tt.pattern), "%q vs %q", tt.topic, tt.pattern)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, Topic("fs/write").IsValid())
	assert.True(t, Topic("single").IsValid())
	assert.False(t, Topic("").IsValid())
	assert.False(t, Topic("/fs").IsValid())
	assert.False(t, Topic("fs//write").IsValid())
	assert.False(t, Topic("fs/").IsValid())
}

func TestNavigation(t *testing.T) {
	tp := Topic("fs/write/tmp")
	assert.Equal(t, Topic("fs/write"), tp.Parent())
	assert.Equal(t, Topic(""), Topic("fs").Parent())
	assert.Equal(t, "tmp", tp.Base())
	assert.Equal(t, "fs", Topic("fs").Base())
	assert.Equal(t, Topic("fs/write/tmp/x"), tp.Child("x"))
	assert.Equal(t, Topic("x"), Topic("").Child("x"))

	assert.True(t, tp.HasPrefix("fs/write"))
	assert.True(t, tp.HasPrefix(""))
	assert.False(t, tp.HasPrefix("fs/wr"))
	assert.True(t, Topic("fs/*").IsWildcard())
}

func TestJoinAndFilter(t *testing.T) {
	assert.Equal(t, Topic("fs/write"), Join("fs/", "", "write"))
	assert.Equal(t, []string{"fs/write", "fs/create"}, Filter([]string{"fs/write", "script/x", "fs/create"}, "fs/*"))
}
