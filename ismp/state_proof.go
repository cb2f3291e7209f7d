package ismp

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

// ErrProofDecode is returned for a proof blob that is not an EvmStateProof.
var ErrProofDecode = errors.New("cannot decode state proof")

// EvmStateProof is an account proof of the host contract plus storage proofs
// of individual slots. StorageProof is keyed by hash(slot key), the path of
// the slot in the storage trie.
type EvmStateProof struct {
	ContractProof [][]byte
	StorageProof  map[common.Hash][][]byte
}

// rlpStateProof is the wire form. Map entries are sorted by key so equal
// proofs encode to equal bytes.
type rlpStateProof struct {
	ContractProof [][]byte
	StorageProof  []rlpStorageProof
}

type rlpStorageProof struct {
	Key   common.Hash
	Proof [][]byte
}

// Encode returns the wire form of the proof.
func (p *EvmStateProof) Encode() ([]byte, error) {
	enc := rlpStateProof{
		ContractProof: p.ContractProof,
		StorageProof:  make([]rlpStorageProof, 0, len(p.StorageProof)),
	}
	for key, proof := range p.StorageProof {
		enc.StorageProof = append(enc.StorageProof, rlpStorageProof{Key: key, Proof: proof})
	}
	sort.Slice(enc.StorageProof, func(i, j int) bool {
		return bytes.Compare(enc.StorageProof[i].Key[:], enc.StorageProof[j].Key[:]) < 0
	})
	return rlp.EncodeToBytes(&enc)
}

// DecodeEvmStateProof parses the wire form of a proof.
func DecodeEvmStateProof(blob []byte) (*EvmStateProof, error) {
	var dec rlpStateProof
	if err := rlp.DecodeBytes(blob, &dec); err != nil {
		return nil, errors.Wrapf(ErrProofDecode, "%v", err)
	}
	p := &EvmStateProof{
		ContractProof: dec.ContractProof,
		StorageProof:  make(map[common.Hash][][]byte, len(dec.StorageProof)),
	}
	for _, sp := range dec.StorageProof {
		if _, dup := p.StorageProof[sp.Key]; dup {
			return nil, errors.Wrapf(ErrProofDecode, "duplicate storage proof for %s", sp.Key.Hex())
		}
		p.StorageProof[sp.Key] = sp.Proof
	}
	return p, nil
}
