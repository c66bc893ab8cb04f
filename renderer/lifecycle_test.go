package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReleaserReverseOrder(t *testing.T) {
	var r releaser
	var order []string
	for _, name := range []string{"window", "buffers", "programs", "targets"} {
		r.push(func() { order = append(order, name) })
	}

	r.release()
	assert.Equal(t, []string{"targets", "programs", "buffers", "window"}, order)

	r.release()
	assert.Len(t, order, 4, "release runs each function once")
}
