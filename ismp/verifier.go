package ismp

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/rony4d/go-ismp-bsc/inter"
	"github.com/rony4d/go-ismp-bsc/trieproof"
)

var (
	// ErrMissingStorageProof means the proof has no entry for a required slot.
	ErrMissingStorageProof = errors.New("missing storage proof")
	// ErrCommitmentNotFound means the host has no sender recorded for a commitment.
	ErrCommitmentNotFound = errors.New("commitment not found in host storage")
)

// MissingStorageProofError names the slot whose proof is missing.
type MissingStorageProofError struct {
	Commitment common.Hash
	Key        common.Hash
}

func (e *MissingStorageProofError) Error() string {
	return fmt.Sprintf("%v: commitment %s, slot %s", ErrMissingStorageProof, e.Commitment.Hex(), e.Key.Hex())
}

func (e *MissingStorageProofError) Is(target error) bool { return target == ErrMissingStorageProof }

// Batch is a homogeneous list of messages proven together.
type Batch interface {
	commitments(h trieproof.Hasher) []common.Hash
	slot(l HostLayout) uint64
}

// Requests is a Batch of requests, looked up in the request commitments.
type Requests []Request

func (rr Requests) commitments(h trieproof.Hasher) []common.Hash {
	res := make([]common.Hash, len(rr))
	for i, r := range rr {
		res[i] = HashRequest(h, r)
	}
	return res
}

func (Requests) slot(l HostLayout) uint64 { return l.RequestCommitmentsSlot }

// Responses is a Batch of responses, looked up in the response commitments.
type Responses []Response

func (rr Responses) commitments(h trieproof.Hasher) []common.Hash {
	res := make([]common.Hash, len(rr))
	for i, r := range rr {
		res[i] = HashResponse(h, r)
	}
	return res
}

func (Responses) slot(l HostLayout) uint64 { return l.ResponseCommitmentsSlot }

// Verifier checks that messages are committed in the storage of a host
// contract. It keeps no state between calls.
type Verifier struct {
	trie   *trieproof.Verifier
	layout HostLayout
}

// NewVerifier returns a Verifier using hasher (Keccak256 if nil) and layout.
func NewVerifier(hasher trieproof.Hasher, layout HostLayout) *Verifier {
	return &Verifier{
		trie:   trieproof.NewVerifier(hasher),
		layout: layout,
	}
}

// Layout returns the host storage layout of the verifier.
func (v *Verifier) Layout() HostLayout {
	return v.layout
}

// QueryKeys returns the storage slots a prover has to request, e.g. from
// eth_getProof, to prove every message of the batch. The order follows the batch.
func (v *Verifier) QueryKeys(items Batch) []common.Hash {
	h := v.trie.Hasher()
	slot := items.slot(v.layout)
	commitments := items.commitments(h)
	keys := make([]common.Hash, len(commitments))
	for i, c := range commitments {
		keys[i] = MetadataKey(h, c, slot, v.layout.SenderOffset)
	}
	return keys
}

// VerifyMembership checks that every message of items has a non-zero sender
// recorded by the host contract in the state committed to by commitment.
// The first failing message aborts verification.
func (v *Verifier) VerifyMembership(items Batch, commitment inter.StateCommitment, proof []byte, host common.Address) error {
	sp, err := DecodeEvmStateProof(proof)
	if err != nil {
		return err
	}
	storageRoot, err := v.trie.AccountStorageRoot(sp.ContractProof, host, commitment.StateRoot)
	if err != nil {
		return errors.Wrapf(err, "host %s", host.Hex())
	}

	h := v.trie.Hasher()
	keys := v.QueryKeys(items)
	for i, c := range items.commitments(h) {
		key := keys[i]
		nodes, ok := sp.StorageProof[h.Hash(key[:])]
		if !ok {
			return &MissingStorageProofError{Commitment: c, Key: key}
		}
		sender, err := v.sender(key, storageRoot, nodes)
		if err != nil {
			return errors.Wrapf(err, "commitment %s", c.Hex())
		}
		if sender == (common.Address{}) {
			return errors.Wrapf(ErrCommitmentNotFound, "commitment %s", c.Hex())
		}
	}
	return nil
}

// sender reads the address stored at key. An absent slot reads as zero.
func (v *Verifier) sender(key, storageRoot common.Hash, proof [][]byte) (common.Address, error) {
	enc, err := v.trie.GetValue(key[:], storageRoot, proof)
	if err != nil || enc == nil {
		return common.Address{}, err
	}
	var raw []byte
	if err := rlp.DecodeBytes(enc, &raw); err != nil {
		return common.Address{}, errors.Wrapf(trieproof.ErrInvalidProof, "storage value: %v", err)
	}
	if len(raw) > common.HashLength {
		return common.Address{}, errors.Wrapf(trieproof.ErrInvalidProof, "storage value of %d bytes", len(raw))
	}
	return common.BytesToAddress(raw), nil
}
