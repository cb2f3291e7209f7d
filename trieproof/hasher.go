// Package trieproof verifies Merkle-Patricia trie proofs as returned by
// eth_getProof: an account proof against a state root and storage proofs
// against the account's storage root.
package trieproof

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Hasher is the hash function of the trie. It is used both to address nodes
// and to derive trie paths from keys.
type Hasher interface {
	Hash(data []byte) common.Hash
}

type keccakHasher struct{}

func (keccakHasher) Hash(data []byte) common.Hash {
	return crypto.Keccak256Hash(data)
}

// Keccak256 is the hasher of Ethereum and BSC state tries.
var Keccak256 Hasher = keccakHasher{}
