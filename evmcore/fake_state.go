package evmcore

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/state"
)

// fakeContractCode is deployed at fake contract accounts so EIP-161 empty
// account pruning keeps them.
var fakeContractCode = common.FromHex("0x6080604052")

// FakeState is an in-memory world state used to produce account and storage
// proofs the same way a node answers eth_getProof.
type FakeState struct {
	db   state.Database
	root common.Hash
}

// NewFakeState returns an empty committed state.
func NewFakeState() *FakeState {
	return &FakeState{
		db:   state.NewDatabase(rawdb.NewMemoryDatabase()),
		root: common.Hash{},
	}
}

// Root returns the state root after the last successful ApplyStorage.
func (s *FakeState) Root() common.Hash {
	return s.root
}

// ApplyStorage writes storage slots of a contract account and commits the
// result, returning the new state root. The account is created if missing.
func (s *FakeState) ApplyStorage(contract common.Address, slots map[common.Hash]common.Hash) (common.Hash, error) {
	statedb, err := state.New(s.root, s.db, nil)
	if err != nil {
		return common.Hash{}, err
	}
	if len(statedb.GetCode(contract)) == 0 {
		statedb.SetNonce(contract, 1)
		statedb.SetCode(contract, fakeContractCode)
	}
	for key, value := range slots {
		statedb.SetState(contract, key, value)
	}

	root, err := flush(statedb)
	if err != nil {
		return common.Hash{}, err
	}
	s.root = root
	return root, nil
}

// flush commits pending changes to the trie and the trie to the database.
func flush(statedb *state.StateDB) (root common.Hash, err error) {
	root, err = statedb.Commit(true)
	if err != nil {
		return
	}
	err = statedb.Database().TrieDB().Commit(root, false, nil)
	return
}

// Prove returns the account proof of contract and one storage proof per key,
// both ordered root to leaf.
func (s *FakeState) Prove(contract common.Address, keys ...common.Hash) ([][]byte, map[common.Hash][][]byte, error) {
	statedb, err := state.New(s.root, s.db, nil)
	if err != nil {
		return nil, nil, err
	}
	accountProof, err := statedb.GetProof(contract)
	if err != nil {
		return nil, nil, err
	}
	storage := make(map[common.Hash][][]byte, len(keys))
	for _, key := range keys {
		proof, err := statedb.GetStorageProof(contract, key)
		if err != nil {
			return nil, nil, err
		}
		storage[key] = proof
	}
	return accountProof, storage, nil
}
