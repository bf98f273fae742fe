package tradev1

import orderv1 "github.com/beacon-exchange/beacon/internal/domain/order/v1"

// Trade is the archived record of one fill (spec §3).
type Trade struct {
	// ID is a ULID minted at fill time (monotonic within a process,
	// sortable by creation order). No sink rejects a repeated ID: a batch
	// requeued after a partial multi-sink failure is written again to a
	// sink that already recorded it.
	ID             string
	Token          string
	Maker          string
	Taker          string
	TakerSide      orderv1.Side
	Amount         uint64
	Price          uint64
	TimestampNanos int64
	TakerFee       uint64
	MakerFee       uint64
}
