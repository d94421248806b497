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
	"errors"

	"github.com/basechain/worldstate/trie"
)

var (
	// ErrInvalidAccountStartNonce is raised by RequireAccountStartNonce when
	// the start nonce was never set.
	ErrInvalidAccountStartNonce = errors.New("state: account start nonce not set")

	// ErrIncorrectAccountStartNonce is raised by NoteAccountStartNonce on an
	// attempt to overwrite an already-fixed start nonce with a different
	// value.
	ErrIncorrectAccountStartNonce = errors.New("state: account start nonce already set to a different value")

	// ErrNotEnoughCash is raised by SubBalance when the withdrawal exceeds
	// the account's balance.
	ErrNotEnoughCash = errors.New("state: not enough cash")

	// ErrInvalidTrie is re-exported from the trie package's own sentinel so
	// callers of this package don't need to import trie just to compare
	// errors.
	ErrInvalidTrie = trie.ErrInvalidTrie

	// ErrNotEnoughAvailableSpace and ErrDatabaseAlreadyOpen are raised by
	// OpenDatabase.
	ErrNotEnoughAvailableSpace = errors.New("state: not enough available disk space")
	ErrDatabaseAlreadyOpen     = errors.New("state: database already open")

	// ErrInterfaceNotSupported is raised by Addresses when the fat-DB option
	// was not compiled in.
	ErrInterfaceNotSupported = errors.New("state: interface not supported (fat DB disabled)")

	// ErrDirtyCacheOnSetRoot is raised by SetRoot when the cache holds dirty
	// entries, surfacing a precondition failure rather than silently
	// discarding pending work (see DESIGN.md).
	ErrDirtyCacheOnSetRoot = errors.New("state: SetRoot called with dirty cache entries")
)
