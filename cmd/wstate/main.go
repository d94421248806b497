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

// Command wstate is a small operator CLI over the world-state engine: it
// opens a database, prints the current root, and dumps the account cache in
// the diagnostic format state.Dump produces. The database stores no head
// root, so every command opens the State at the empty-trie root: "open" and
// "root" print that root, and "dump" prints the freshly opened, empty cache.
package main

import (
	"fmt"
	"os"

	"github.com/basechain/worldstate/state"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
)

var (
	basePathFlag = &cli.StringFlag{
		Name:  "basepath",
		Usage: "root directory under which the versioned database lives",
		Value: ".",
	}
	genesisFlag = &cli.StringFlag{
		Name:  "genesis",
		Usage: "hex-encoded genesis hash selecting the database's chain subdirectory",
		Value: "",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML config file (overrides basepath/genesis if set)",
	}
)

func loadDatabaseConfig(c *cli.Context) (state.DatabaseConfig, error) {
	if path := c.String(configFlag.Name); path != "" {
		return state.LoadConfig(path)
	}
	return state.DatabaseConfig{
		BasePath:    c.String(basePathFlag.Name),
		GenesisHash: common.HexToHash(c.String(genesisFlag.Name)),
		Existing:    state.ExistingUse,
	}, nil
}

func openState(c *cli.Context) (*state.State, func(), error) {
	cfg, err := loadDatabaseConfig(c)
	if err != nil {
		return nil, nil, err
	}
	db, closer, err := state.OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := state.New(db, common.Hash{}, uint256.Int{}, state.WithFatDB())
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return st, func() { closer.Close() }, nil
}

func main() {
	app := &cli.App{
		Name:  "wstate",
		Usage: "inspect a world-state engine database",
		Flags: []cli.Flag{basePathFlag, genesisFlag, configFlag},
		Commands: []*cli.Command{
			{
				Name:  "open",
				Usage: "validate that the database opens and report its root",
				Action: func(c *cli.Context) error {
					st, cleanup, err := openState(c)
					if err != nil {
						return err
					}
					defer cleanup()
					fmt.Println(st.RootHash().Hex())
					return nil
				},
			},
			{
				Name:  "root",
				Usage: "print the current state root as hex",
				Action: func(c *cli.Context) error {
					st, cleanup, err := openState(c)
					if err != nil {
						return err
					}
					defer cleanup()
					fmt.Println(st.RootHash().Hex())
					return nil
				},
			},
			{
				Name:  "dump",
				Usage: "print the diagnostic account dump",
				Action: func(c *cli.Context) error {
					st, cleanup, err := openState(c)
					if err != nil {
						return err
					}
					defer cleanup()
					return st.Dump(os.Stdout)
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Error("wstate failed", "err", err)
		os.Exit(1)
	}
}
