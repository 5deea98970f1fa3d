package kafka

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressGroupIDIsStablePerHost(t *testing.T) {
	first := ProgressGroupID("print-packager-group", "API-1 ")
	second := ProgressGroupID("print-packager-group", "api-1")

	assert.Equal(t, "print-packager-group-progress-api-1", first)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, ProgressGroupID("print-packager-group", "api-2"))
}

func TestProgressGroupIDWithoutHost(t *testing.T) {
	id := ProgressGroupID("g", "")

	assert.True(t, strings.HasPrefix(id, "g-progress-"))
	assert.Greater(t, len(id), len("g-progress-"))
}
