package archive

import (
	"testing"

	tradev1 "github.com/beacon-exchange/beacon/internal/domain/trade/v1"
	"github.com/stretchr/testify/assert"
)

func TestBuffer_AppendAndDrain(t *testing.T) {
	b := NewBuffer()
	b.Append(tradev1.Trade{Token: "ICP", Amount: 1})
	b.Append(tradev1.Trade{Token: "ICP", Amount: 2})

	assert.Equal(t, 2, b.Len())

	drained := b.Drain()
	assert.Len(t, drained, 2)
	assert.Equal(t, uint64(1), drained[0].Amount)
	assert.Equal(t, uint64(2), drained[1].Amount)
	assert.Equal(t, 0, b.Len())
}

func TestBuffer_DrainEmptyReturnsNil(t *testing.T) {
	b := NewBuffer()
	assert.Nil(t, b.Drain())
}

func TestBuffer_DrainThenAppendDoesNotResurrectOldTrades(t *testing.T) {
	b := NewBuffer()
	b.Append(tradev1.Trade{Amount: 1})
	b.Drain()
	b.Append(tradev1.Trade{Amount: 2})

	drained := b.Drain()
	assert.Len(t, drained, 1)
	assert.Equal(t, uint64(2), drained[0].Amount)
}
