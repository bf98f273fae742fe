package balancev1

// Balance is the per-(user,token) ledger row described in spec §3. Both
// fields are unsigned; invariant H requires liquid >= 0 && locked >= 0,
// which the unsigned type makes structural rather than checked.
type Balance struct {
	Liquid uint64
	Locked uint64
}

// Key identifies a Balance row.
type Key struct {
	Owner string
	Token string
}
