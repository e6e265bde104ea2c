package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type buffer struct {
	data []byte
}

func TestPoolResetsOnPut(t *testing.T) {
	p := New(
		func() *buffer { return &buffer{data: make([]byte, 0, 8)} },
		func(b *buffer) { b.data = b.data[:0] },
	)

	b := p.Get()
	b.data = append(b.data, "abc"...)
	p.Put(b)
	assert.Empty(t, b.data)

	allocated, inUse, gets := p.Stats()
	assert.Equal(t, int64(1), allocated)
	assert.Zero(t, inUse)
	assert.Equal(t, int64(1), gets)
}

func TestPoolTracksCheckouts(t *testing.T) {
	p := New(func() *buffer { return &buffer{} }, nil)

	held := []*buffer{p.Get(), p.Get(), p.Get()}
	_, inUse, gets := p.Stats()
	assert.Equal(t, int64(3), inUse)
	assert.Equal(t, int64(3), gets)

	for _, b := range held {
		p.Put(b)
	}
	allocated, inUse, _ := p.Stats()
	assert.Zero(t, inUse)
	assert.GreaterOrEqual(t, allocated, int64(3))
}
