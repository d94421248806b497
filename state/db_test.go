package state

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDatabaseCreatesAndReopens(t *testing.T) {
	cfg := DatabaseConfig{BasePath: t.TempDir(), GenesisHash: common.HexToHash("0x01")}

	db, closer, err := OpenDatabase(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)
	require.NoError(t, closer.Close())

	db2, closer2, err := OpenDatabase(cfg)
	require.NoError(t, err)
	require.NotNil(t, db2)
	require.NoError(t, closer2.Close())
}

func TestOpenDatabaseRejectsConcurrentOpen(t *testing.T) {
	cfg := DatabaseConfig{BasePath: t.TempDir(), GenesisHash: common.HexToHash("0x02")}

	_, closer, err := OpenDatabase(cfg)
	require.NoError(t, err)
	defer closer.Close()

	_, _, err = OpenDatabase(cfg)
	assert.ErrorIs(t, err, ErrDatabaseAlreadyOpen)
}

func TestOpenDatabaseExistingKillWipesPriorContents(t *testing.T) {
	cfg := DatabaseConfig{BasePath: t.TempDir(), GenesisHash: common.HexToHash("0x03")}

	db, closer, err := OpenDatabase(cfg)
	require.NoError(t, err)
	db.Insert(common.HexToHash("0xaa"), []byte("payload"))
	require.NoError(t, db.CommitFlush())
	require.NoError(t, closer.Close())

	killCfg := cfg
	killCfg.Existing = ExistingKill
	db2, closer2, err := OpenDatabase(killCfg)
	require.NoError(t, err)
	defer closer2.Close()

	_, ok, err := db2.Lookup(common.HexToHash("0xaa"))
	require.NoError(t, err)
	assert.False(t, ok, "ExistingKill must wipe the prior database contents")
}

func TestDatabaseConfigPathIncludesGenesisPrefixAndVersion(t *testing.T) {
	cfg := DatabaseConfig{BasePath: "/base", GenesisHash: common.HexToHash("0xdeadbeef000000000000000000000000000000000000000000000000000000")}
	p := cfg.path()
	assert.Contains(t, p, "/base")
	assert.Contains(t, p, "00deadbe") // first 4 bytes of the left-padded hash
	assert.Contains(t, p, databaseVersion)
	assert.Contains(t, p, "state")
}
