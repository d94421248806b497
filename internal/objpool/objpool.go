// Package objpool pools short-lived big.Int allocations used when computing
// balance deltas (State.SubBalance negates its BigInt argument before adding
// it back through Account.AddBalance).
package objpool

import (
	"math/big"
	"sync"
)

// BigIntPool recycles *big.Int scratch values. Callers must Put back a value
// they no longer reference; the pool makes no ownership guarantees beyond
// that.
var BigIntPool = sync.Pool{
	New: func() any {
		return new(big.Int)
	},
}

// Get returns a zeroed *big.Int from the pool.
func Get() *big.Int {
	v := BigIntPool.Get().(*big.Int)
	v.SetInt64(0)
	return v
}

// Put returns v to the pool.
func Put(v *big.Int) {
	BigIntPool.Put(v)
}
