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

	"github.com/ethereum/go-ethereum/common"
)

// Permanence selects what Execute does with the cache changes produced by a
// transaction: Committed and Uncommitted both fold the cache (the
// distinction is external bookkeeping only); Reverted discards them.
type Permanence int

const (
	Committed Permanence = iota
	Uncommitted
	Reverted
)

// Transaction is the opaque payload handed to a VM; its decoding and
// signature verification are out of scope, handled by external
// collaborators.
type Transaction interface {
	// From returns the sender, once signature verification (an external
	// collaborator's concern) has succeeded.
	From() common.Address
}

// Log is one VM-emitted event record; its internal shape belongs to the VM.
type Log interface{}

// OpHook observes VM execution step by step (a tracing hook); its argument
// shape is VM-defined.
type OpHook func(op any)

// Environment carries the subset of block context the engine needs to
// decide commit behavior.
type Environment interface {
	BlockNumber() uint64
	GasUsed() uint64
}

// Engine carries the subset of consensus/chain parameters the engine needs.
type Engine interface {
	EIP158ForkBlock() uint64
}

// VM is the thin contract between State and an external virtual-machine
// executor: initialize, execute, run, finalize, then report gas and logs.
type VM interface {
	Initialize(txn Transaction) error
	Execute() (done bool, err error)
	Run(onOp OpHook) error
	Finalize() error
	GasUsed() uint64
	Logs() []Log
}

// VMFactory constructs a VM bound to a State for the duration of one
// Execute call.
type VMFactory func(st *State, env Environment, engine Engine) VM

// ExecutionResult carries the VM-reported outcome of running a transaction.
type ExecutionResult struct {
	GasUsed uint64
	Logs    []Log
}

// TransactionReceipt is returned by Execute alongside ExecutionResult.
type TransactionReceipt struct {
	StateRoot     common.Hash
	CumulativeGas uint64
	Logs          []Log
}

// Execute runs txn against s through a VM produced by newVM: initialize,
// the cheap pre-VM path or a full step-by-step run, finalize, and then
// either discard (Reverted) or commit (Committed/Uncommitted) the cache.
func (s *State) Execute(env Environment, engine Engine, txn Transaction, permanence Permanence, onOp OpHook, newVM VMFactory) (ExecutionResult, TransactionReceipt, error) {
	vm := newVM(s, env, engine)

	if err := vm.Initialize(txn); err != nil {
		return ExecutionResult{}, TransactionReceipt{}, fmt.Errorf("state: initializing transaction: %w", err)
	}

	done, err := vm.Execute()
	if err != nil {
		return ExecutionResult{}, TransactionReceipt{}, fmt.Errorf("state: executing transaction: %w", err)
	}
	if !done {
		if err := vm.Run(onOp); err != nil {
			return ExecutionResult{}, TransactionReceipt{}, fmt.Errorf("state: running transaction: %w", err)
		}
	}

	if err := vm.Finalize(); err != nil {
		return ExecutionResult{}, TransactionReceipt{}, fmt.Errorf("state: finalizing transaction: %w", err)
	}

	if permanence == Reverted {
		s.cache.reset()
		result := ExecutionResult{GasUsed: vm.GasUsed(), Logs: vm.Logs()}
		receipt := TransactionReceipt{
			StateRoot:     s.RootHash(),
			CumulativeGas: env.GasUsed() + vm.GasUsed(),
			Logs:          vm.Logs(),
		}
		return result, receipt, nil
	}

	behaviour := KeepEmptyAccounts
	if env.BlockNumber() >= engine.EIP158ForkBlock() {
		behaviour = RemoveEmptyAccounts
	}
	if err := s.Commit(behaviour); err != nil {
		return ExecutionResult{}, TransactionReceipt{}, fmt.Errorf("state: committing transaction: %w", err)
	}

	result := ExecutionResult{GasUsed: vm.GasUsed(), Logs: vm.Logs()}
	receipt := TransactionReceipt{
		StateRoot:     s.RootHash(),
		CumulativeGas: env.GasUsed() + vm.GasUsed(),
		Logs:          vm.Logs(),
	}
	return result, receipt, nil
}
