package batch

import (
	"testing"

	"print-packager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressHub(t *testing.T) {
	h := NewProgressHub()

	ch, cancel := h.Subscribe("b1")
	other, cancelOther := h.Subscribe("b2")
	defer cancelOther()

	h.Publish(domain.ProgressEvent{BatchID: "b1", Progress: domain.Progress{Current: 1, Total: 3}})

	got := <-ch
	assert.Equal(t, 1, got.Current)
	assert.Empty(t, other)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers("b1"))

	// Publishing to a batch without subscribers is a no-op.
	h.Publish(domain.ProgressEvent{BatchID: "b1"})
}

func TestProgressHubKeepsLatest(t *testing.T) {
	h := NewProgressHub()
	ch, cancel := h.Subscribe("b1")
	defer cancel()

	for i := 1; i <= subscriberBuffer+5; i++ {
		h.Publish(domain.ProgressEvent{BatchID: "b1", Progress: domain.Progress{Current: i}})
	}

	var last domain.Progress
	for len(ch) > 0 {
		last = <-ch
	}
	require.Equal(t, subscriberBuffer+5, last.Current)
}
