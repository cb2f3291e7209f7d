package trieproof

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// ErrInvalidProof is returned when a proof does not connect the key to the root.
var ErrInvalidProof = errors.New("invalid trie proof")

const (
	branchChildren = 16
	branchNodeSize = branchChildren + 1
	shortNodeSize  = 2
	hashRefSize    = common.HashLength
)

// Account is the state-trie leaf of an Ethereum account.
type Account struct {
	Nonce    uint64
	Balance  *big.Int
	Root     common.Hash // storage root
	CodeHash []byte
}

// Verifier checks trie proofs with a fixed hasher. It is stateless.
type Verifier struct {
	hasher Hasher
}

// NewVerifier returns a Verifier using hasher, or Keccak256 if hasher is nil.
func NewVerifier(hasher Hasher) *Verifier {
	if hasher == nil {
		hasher = Keccak256
	}
	return &Verifier{hasher: hasher}
}

// Hasher returns the hasher the verifier was built with.
func (v *Verifier) Hasher() Hasher {
	return v.hasher
}

// Account proves the account of address under the state root.
// An account proven absent is an error.
func (v *Verifier) Account(proof [][]byte, address common.Address, root common.Hash) (*Account, error) {
	enc, err := v.GetValue(address.Bytes(), root, proof)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: account %s is not in state %s", ErrInvalidProof, address.Hex(), root.Hex())
	}
	acc := new(Account)
	if err := rlp.DecodeBytes(enc, acc); err != nil {
		return nil, fmt.Errorf("%w: account %s: %v", ErrInvalidProof, address.Hex(), err)
	}
	return acc, nil
}

// AccountStorageRoot proves the account of address under the state root and
// returns its storage root.
func (v *Verifier) AccountStorageRoot(proof [][]byte, address common.Address, root common.Hash) (common.Hash, error) {
	acc, err := v.Account(proof, address, root)
	if err != nil {
		return common.Hash{}, err
	}
	return acc.Root, nil
}

// GetValue looks up hash(key) in the trie with the given root, using proof as
// the set of trie nodes. It returns the leaf value if the key is present and
// nil if the proof shows the key is absent. Any other outcome is
// ErrInvalidProof.
func (v *Verifier) GetValue(key []byte, root common.Hash, proof [][]byte) ([]byte, error) {
	nodes := make(map[common.Hash][]byte, len(proof))
	for _, n := range proof {
		nodes[v.hasher.Hash(n)] = n
	}
	if root == v.hasher.Hash(emptyString) {
		return nil, nil
	}

	path := keybytesToHex(v.hasher.Hash(key).Bytes())
	node, ok := nodes[root]
	if !ok {
		return nil, fmt.Errorf("%w: missing root node %s", ErrInvalidProof, root.Hex())
	}
	for {
		elems, err := splitNode(node)
		if err != nil {
			return nil, err
		}

		var child []byte
		switch len(elems) {
		case branchNodeSize:
			if len(path) == 0 {
				return nodeValue(elems[branchChildren])
			}
			child, path = elems[path[0]], path[1:]

		case shortNodeSize:
			_, compact, _, err := rlp.Split(elems[0])
			if err != nil {
				return nil, fmt.Errorf("%w: node key: %v", ErrInvalidProof, err)
			}
			nibbles, leaf, err := compactToHex(compact)
			if err != nil {
				return nil, err
			}
			if leaf {
				if !bytes.Equal(nibbles, path) {
					return nil, nil
				}
				return nodeValue(elems[1])
			}
			if !bytes.HasPrefix(path, nibbles) {
				return nil, nil
			}
			child, path = elems[1], path[len(nibbles):]

		default:
			return nil, fmt.Errorf("%w: node with %d items", ErrInvalidProof, len(elems))
		}

		// Resolve the child reference: empty, a hash into the proof, or an
		// embedded node shorter than a hash.
		kind, content, _, err := rlp.Split(child)
		if err != nil {
			return nil, fmt.Errorf("%w: child reference: %v", ErrInvalidProof, err)
		}
		switch {
		case kind == rlp.List:
			node = child
		case len(content) == 0:
			return nil, nil
		case len(content) == hashRefSize:
			if node, ok = nodes[common.BytesToHash(content)]; !ok {
				return nil, fmt.Errorf("%w: missing node %x", ErrInvalidProof, content)
			}
		default:
			return nil, fmt.Errorf("%w: child reference of %d bytes", ErrInvalidProof, len(content))
		}
	}
}

var emptyString = []byte{0x80}

// splitNode returns the raw encodings of the items of a node.
func splitNode(node []byte) ([][]byte, error) {
	content, rest, err := rlp.SplitList(node)
	if err != nil || len(rest) != 0 {
		return nil, fmt.Errorf("%w: node is not a list", ErrInvalidProof)
	}
	var elems [][]byte
	for len(content) > 0 {
		_, _, tail, err := rlp.Split(content)
		if err != nil {
			return nil, fmt.Errorf("%w: node item: %v", ErrInvalidProof, err)
		}
		elems = append(elems, content[:len(content)-len(tail)])
		content = tail
	}
	return elems, nil
}

// nodeValue unwraps a value slot; an empty string means no value.
func nodeValue(item []byte) ([]byte, error) {
	kind, content, _, err := rlp.Split(item)
	if err != nil || kind != rlp.String {
		return nil, fmt.Errorf("%w: value is not a string", ErrInvalidProof)
	}
	if len(content) == 0 {
		return nil, nil
	}
	return content, nil
}

func keybytesToHex(key []byte) []byte {
	nibbles := make([]byte, len(key)*2)
	for i, b := range key {
		nibbles[i*2] = b / 16
		nibbles[i*2+1] = b % 16
	}
	return nibbles
}

// compactToHex decodes a hex-prefix encoded path. The high nibble of the first
// byte holds the flags: bit 1 marks a leaf, bit 0 an odd number of nibbles.
func compactToHex(compact []byte) ([]byte, bool, error) {
	if len(compact) == 0 {
		return nil, false, fmt.Errorf("%w: empty node key", ErrInvalidProof)
	}
	flags := compact[0] >> 4
	if flags > 3 {
		return nil, false, fmt.Errorf("%w: node key flags %d", ErrInvalidProof, flags)
	}
	nibbles := keybytesToHex(compact)
	if flags&1 == 1 {
		nibbles = nibbles[1:]
	} else {
		nibbles = nibbles[2:]
	}
	return nibbles, flags&2 == 2, nil
}
