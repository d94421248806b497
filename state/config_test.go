package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsToExistingUse(t *testing.T) {
	path := writeConfig(t, `basepath = "/data/chain"`+"\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/chain", cfg.BasePath)
	assert.Equal(t, ExistingUse, cfg.Existing)
}

func TestLoadConfigKillExistingAndGenesisHash(t *testing.T) {
	genesis := common.HexToHash("0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef01234567")
	body := `basepath = "/data/chain"
genesishash = "` + genesis.Hex() + `"
killexisting = true
`
	path := writeConfig(t, body)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ExistingKill, cfg.Existing)
	assert.Equal(t, genesis, cfg.GenesisHash)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
