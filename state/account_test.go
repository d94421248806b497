package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDormantIsUnchanged(t *testing.T) {
	a := NewDormant(*uint256.NewInt(1), *uint256.NewInt(2), common.Hash{}, EmptyCodeHash)
	assert.Equal(t, Unchanged, a.Status())
	assert.False(t, a.IsDirty())
	assert.True(t, a.IsAlive())
}

func TestNewContractIsDirtyWithFreshCodePending(t *testing.T) {
	a := NewContract(*uint256.NewInt(0), *uint256.NewInt(0))
	assert.Equal(t, DirtyAlive, a.Status())
	assert.True(t, a.IsFreshCode())
	assert.True(t, a.CodeBearing())
}

func TestAddBalancePositiveAndNegative(t *testing.T) {
	a := NewNormal(*uint256.NewInt(0), *uint256.NewInt(10))
	a.AddBalance(big.NewInt(5))
	assert.Equal(t, uint64(15), a.Balance.Uint64())

	a.AddBalance(big.NewInt(-3))
	assert.Equal(t, uint64(12), a.Balance.Uint64())
}

func TestAddBalanceFloorsAtZero(t *testing.T) {
	a := NewNormal(*uint256.NewInt(0), *uint256.NewInt(5))
	a.AddBalance(big.NewInt(-100))
	assert.True(t, a.Balance.IsZero())
}

func TestAddBalanceZeroDeltaDoesNotDirtyUnchanged(t *testing.T) {
	a := NewDormant(*uint256.NewInt(0), *uint256.NewInt(5), common.Hash{}, EmptyCodeHash)
	a.AddBalance(big.NewInt(0))
	assert.False(t, a.IsDirty(), "a zero delta must not dirty an otherwise-unchanged account")
}

func TestIncNonceDirties(t *testing.T) {
	a := NewDormant(*uint256.NewInt(0), *uint256.NewInt(0), common.Hash{}, EmptyCodeHash)
	a.IncNonce()
	assert.Equal(t, uint64(1), a.Nonce.Uint64())
	assert.Equal(t, DirtyAlive, a.Status())
}

func TestSetStorageAndOverlayLookup(t *testing.T) {
	a := NewNormal(*uint256.NewInt(0), *uint256.NewInt(0))
	key := *uint256.NewInt(1)
	val := *uint256.NewInt(42)

	a.SetStorage(key, val)
	got, ok := a.StorageOverlayValue(key)
	require.True(t, ok)
	assert.Equal(t, val, got)

	_, ok = a.StorageReadCacheValue(key)
	assert.False(t, ok, "a write to the overlay must not also populate the read cache")
}

func TestSetStorageCacheDoesNotDirty(t *testing.T) {
	a := NewDormant(*uint256.NewInt(0), *uint256.NewInt(0), common.Hash{}, EmptyCodeHash)
	a.SetStorageCache(*uint256.NewInt(1), *uint256.NewInt(2))
	assert.False(t, a.IsDirty())
}

func TestKillMarksDirtyKilled(t *testing.T) {
	a := NewDormant(*uint256.NewInt(0), *uint256.NewInt(0), common.Hash{}, EmptyCodeHash)
	a.Kill()
	assert.Equal(t, DirtyKilled, a.Status())
	assert.False(t, a.IsAlive())
}

func TestIsEmptyPerEIP158(t *testing.T) {
	a := NewDormant(*uint256.NewInt(0), *uint256.NewInt(0), common.Hash{}, EmptyCodeHash)
	assert.True(t, a.IsEmpty())

	a.IncNonce()
	assert.False(t, a.IsEmpty())
}

func TestSetFreshCodeMakesCodeBearingAndDirty(t *testing.T) {
	a := NewNormal(*uint256.NewInt(0), *uint256.NewInt(0))
	a.SetFreshCode([]byte{0x60, 0x00})
	assert.True(t, a.CodeBearing())
	assert.True(t, a.CodeCacheValid())
	assert.Equal(t, []byte{0x60, 0x00}, a.Code())
	assert.True(t, a.IsDirty())
}

func TestSubBalanceDeltaNegatesWithoutMutatingInput(t *testing.T) {
	delta := big.NewInt(7)
	neg := SubBalanceDelta(delta)
	assert.Equal(t, big.NewInt(-7), neg)
	assert.Equal(t, big.NewInt(7), delta, "the caller's delta must be left untouched")
}
