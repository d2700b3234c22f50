package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreview(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "disabled", input: "Ana Silva", limit: 0, expect: ""},
		{name: "fits", input: "Ana Silva", limit: 20, expect: "Ana Silva"},
		{name: "multiline completion", input: "{\n  \"score\":\t8.2\n}", limit: 40, expect: "{ \"score\": 8.2 }"},
		{name: "cut on runes", input: "Programação em Go", limit: 11, expect: "Programação..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expect, Preview(tt.input, tt.limit))
		})
	}
}

func TestShortHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "e3b0c44298fc", ShortHash("e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"))
	assert.Equal(t, "abc", ShortHash("abc"))
	assert.Empty(t, ShortHash(""))
}
