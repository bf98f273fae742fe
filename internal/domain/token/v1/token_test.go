package tokenv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenRecord_Base(t *testing.T) {
	cases := []struct {
		decimals uint32
		want     uint64
	}{
		{0, 1},
		{1, 10},
		{8, 100000000},
	}
	for _, c := range cases {
		rec := &TokenRecord{Decimals: c.decimals}
		assert.Equal(t, c.want, rec.Base())
	}
}
