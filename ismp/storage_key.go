package ismp

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/rony4d/go-ismp-bsc/trieproof"
)

// Storage layout of the EVM host contract.
//
//	slot 0: mapping(bytes32 => FeeMetadata) requestCommitments
//	slot 1: mapping(bytes32 => FeeMetadata) responseCommitments
//	struct FeeMetadata { uint256 fee; address sender; }
const (
	RequestCommitmentsSlot  uint64 = 0
	ResponseCommitmentsSlot uint64 = 1
	SenderOffset            uint64 = 1
)

// HostLayout locates commitments in the host contract storage. Deployments
// that reorder state variables override the defaults.
type HostLayout struct {
	RequestCommitmentsSlot  uint64
	ResponseCommitmentsSlot uint64
	SenderOffset            uint64
}

// DefaultHostLayout returns the layout of the reference host contract.
func DefaultHostLayout() HostLayout {
	return HostLayout{
		RequestCommitmentsSlot:  RequestCommitmentsSlot,
		ResponseCommitmentsSlot: ResponseCommitmentsSlot,
		SenderOffset:            SenderOffset,
	}
}

// CommitmentKey is the storage slot of mapping[commitment] for a mapping
// declared at slot: hash(leftpad32(commitment) || leftpad32(slot)).
func CommitmentKey(h trieproof.Hasher, commitment common.Hash, slot uint64) common.Hash {
	var preimage [2 * common.HashLength]byte
	copy(preimage[:common.HashLength], commitment[:])
	slotWord := uint256.NewInt(slot).Bytes32()
	copy(preimage[common.HashLength:], slotWord[:])
	return h.Hash(preimage[:])
}

// MetadataKey is the storage slot of the struct field at offset inside
// mapping[commitment]. The addition wraps modulo 2^256 as in the EVM.
func MetadataKey(h trieproof.Hasher, commitment common.Hash, slot, offset uint64) common.Hash {
	base := CommitmentKey(h, commitment, slot)
	key := new(uint256.Int).SetBytes32(base[:])
	key.Add(key, uint256.NewInt(offset))
	return common.Hash(key.Bytes32())
}

// RequestKeys returns the storage slots of the fee and the sender of a
// request commitment.
func (l HostLayout) RequestKeys(h trieproof.Hasher, commitment common.Hash) (fee, sender common.Hash) {
	return CommitmentKey(h, commitment, l.RequestCommitmentsSlot),
		MetadataKey(h, commitment, l.RequestCommitmentsSlot, l.SenderOffset)
}

// ResponseKeys returns the storage slots of the fee and the sender of a
// response commitment.
func (l HostLayout) ResponseKeys(h trieproof.Hasher, commitment common.Hash) (fee, sender common.Hash) {
	return CommitmentKey(h, commitment, l.ResponseCommitmentsSlot),
		MetadataKey(h, commitment, l.ResponseCommitmentsSlot, l.SenderOffset)
}
