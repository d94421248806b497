package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTxn struct{ from common.Address }

func (t stubTxn) From() common.Address { return t.from }

type stubEnv struct {
	blockNumber uint64
	gasUsed     uint64
}

func (e stubEnv) BlockNumber() uint64 { return e.blockNumber }
func (e stubEnv) GasUsed() uint64     { return e.gasUsed }

type stubEngine struct{ forkBlock uint64 }

func (e stubEngine) EIP158ForkBlock() uint64 { return e.forkBlock }

// stubVM applies a mutation function against the bound State during Execute,
// then reports a fixed gas usage, simulating a minimal VM round trip.
type stubVM struct {
	st      *State
	mutate  func(*State) error
	gasUsed uint64
	failAt  string
}

func newStubVMFactory(mutate func(*State) error, gasUsed uint64, failAt string) VMFactory {
	return func(st *State, env Environment, engine Engine) VM {
		return &stubVM{st: st, mutate: mutate, gasUsed: gasUsed, failAt: failAt}
	}
}

func (v *stubVM) Initialize(txn Transaction) error {
	if v.failAt == "initialize" {
		return assert.AnError
	}
	return nil
}

func (v *stubVM) Execute() (bool, error) {
	if v.failAt == "execute" {
		return false, assert.AnError
	}
	if v.mutate != nil {
		if err := v.mutate(v.st); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (v *stubVM) Run(onOp OpHook) error {
	if v.failAt == "run" {
		return assert.AnError
	}
	return nil
}

func (v *stubVM) Finalize() error {
	if v.failAt == "finalize" {
		return assert.AnError
	}
	return nil
}

func (v *stubVM) GasUsed() uint64 { return v.gasUsed }
func (v *stubVM) Logs() []Log     { return nil }

func TestExecuteCommittedFoldsCache(t *testing.T) {
	s := newTestState(t)
	addr := addrN(1)

	factory := newStubVMFactory(func(st *State) error {
		return st.AddBalance(addr, *u256(10))
	}, 21000, "")

	_, receipt, err := s.Execute(stubEnv{blockNumber: 1}, stubEngine{forkBlock: 1000}, stubTxn{from: addr}, Committed, nil, factory)
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), receipt.CumulativeGas)

	inUse, err := s.AddressInUse(addr)
	require.NoError(t, err)
	assert.True(t, inUse)

	bal, err := s.Balance(addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), bal.Uint64())
}

func TestExecuteRevertedDiscardsCache(t *testing.T) {
	s := newTestState(t)
	addr := addrN(1)

	factory := newStubVMFactory(func(st *State) error {
		return st.AddBalance(addr, *u256(10))
	}, 21000, "")

	_, _, err := s.Execute(stubEnv{blockNumber: 1}, stubEngine{forkBlock: 1000}, stubTxn{from: addr}, Reverted, nil, factory)
	require.NoError(t, err)

	inUse, err := s.AddressInUse(addr)
	require.NoError(t, err)
	assert.False(t, inUse)
}

func TestExecutePastForkBlockPrunesEmptyAccounts(t *testing.T) {
	s := newTestState(t)
	addr := addrN(1)

	factory := newStubVMFactory(func(st *State) error {
		return st.EnsureAccountExists(addr)
	}, 0, "")

	_, _, err := s.Execute(stubEnv{blockNumber: 2000}, stubEngine{forkBlock: 1000}, stubTxn{from: addr}, Committed, nil, factory)
	require.NoError(t, err)

	inUse, err := s.AddressInUse(addr)
	require.NoError(t, err)
	assert.False(t, inUse, "an empty account committed past the fork block must be pruned")
}

func TestExecutePropagatesInitializeError(t *testing.T) {
	s := newTestState(t)
	factory := newStubVMFactory(nil, 0, "initialize")

	_, _, err := s.Execute(stubEnv{}, stubEngine{}, stubTxn{}, Committed, nil, factory)
	assert.Error(t, err)
}

func TestExecutePropagatesExecuteError(t *testing.T) {
	s := newTestState(t)
	factory := newStubVMFactory(nil, 0, "execute")

	_, _, err := s.Execute(stubEnv{}, stubEngine{}, stubTxn{}, Committed, nil, factory)
	assert.Error(t, err)
}
