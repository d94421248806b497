// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package state

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/naoina/toml"
)

// fileConfig is the TOML-facing shape of DatabaseConfig: plain strings so it
// can be hand-edited, translated to DatabaseConfig by LoadConfig.
type fileConfig struct {
	BasePath     string `toml:"basepath"`
	GenesisHash  string `toml:"genesishash"`
	KillExisting bool   `toml:"killexisting"`
}

// LoadConfig reads a DatabaseConfig from a TOML file.
func LoadConfig(path string) (DatabaseConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return DatabaseConfig{}, fmt.Errorf("state: opening config %s: %w", path, err)
	}
	defer f.Close()

	var fc fileConfig
	if err := toml.NewDecoder(f).Decode(&fc); err != nil {
		return DatabaseConfig{}, fmt.Errorf("state: parsing config %s: %w", path, err)
	}

	cfg := DatabaseConfig{
		BasePath: fc.BasePath,
		Existing: ExistingUse,
	}
	if fc.KillExisting {
		cfg.Existing = ExistingKill
	}
	if fc.GenesisHash != "" {
		cfg.GenesisHash = common.HexToHash(fc.GenesisHash)
	}
	return cfg, nil
}
