// Package inter defines the data exchanged between the BSC prover, the
// state-proof verifier and the light client that consumes them.
//
// Key concepts:
//   - VoteData: the source/target pair of a fast-finality attestation
//   - VoteAttestation: the RLP payload carried in a header's extra-data
//   - ConsensusUpdate: the bounded bundle a light client needs to accept a
//     newly finalized header
//   - StateCommitment: a counterparty state root accepted by the light client
//
// Headers are go-ethereum headers and are treated as immutable once fetched.

package inter

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rony4d/go-ismp-bsc/inter/validatorpk"
)

var (
	// ErrAncestryStart is returned when a non-empty ancestry does not begin right after the epoch boundary.
	ErrAncestryStart = errors.New("ancestry does not start at epoch boundary + 1")
	// ErrAncestryGap is returned when two neighbouring ancestry headers are not parent and child.
	ErrAncestryGap = errors.New("ancestry is not contiguous")
	// ErrAncestryLength is returned when the ancestry exceeds the configured bound.
	ErrAncestryLength = errors.New("ancestry exceeds bound")
)

// VoteData is the vote range validators sign for fast finality.
// Zero hashes mean the header carries no attestation yet.
type VoteData struct {
	SourceNumber uint64      // latest justified block number
	SourceHash   common.Hash // hash of the justified block
	TargetNumber uint64      // block the validators vote for
	TargetHash   common.Hash // hash of the target block
}

// IsEmpty reports whether the attestation references no block at all.
// A single zero hash is treated the same way: no header can be fetched for it.
func (vd VoteData) IsEmpty() bool {
	return vd.SourceHash == (common.Hash{}) || vd.TargetHash == (common.Hash{})
}

// VoteAttestation is the aggregated vote of a super majority of validators,
// RLP-encoded between the validator section and the seal of the extra-data.
type VoteAttestation struct {
	// VoteAddressSet is a bitset of validator indexes that voted.
	VoteAddressSet uint64
	AggSignature   [validatorpk.BLSSignatureLength]byte
	Data           *VoteData
	// Extra is reserved for future use.
	Extra          []byte
}

// ValidatorSet is the ordered list of BLS vote keys declared on an epoch boundary.
type ValidatorSet []validatorpk.BLSPublicKey

// ConsensusUpdate is the proof a light client needs to move its finalized
// header forward. EpochHeaderAncestry is only populated inside the validator
// rotation window; it runs from the epoch boundary (exclusive) up to the source
// header (exclusive) in ascending order.
type ConsensusUpdate struct {
	AttestedHeader      *types.Header
	SourceHeader        *types.Header
	TargetHeader        *types.Header
	EpochHeaderAncestry []*types.Header
}

// Validate checks the structural invariants of the update against the epoch
// boundary it was built for and the maximum ancestry length.
func (u *ConsensusUpdate) Validate(boundary idx.Block, maxAncestry int) error {
	n := len(u.EpochHeaderAncestry)
	if n > maxAncestry {
		return fmt.Errorf("%w: %d > %d", ErrAncestryLength, n, maxAncestry)
	}
	if n == 0 {
		return nil
	}
	if first := u.EpochHeaderAncestry[0].Number.Uint64(); first != uint64(boundary)+1 {
		return fmt.Errorf("%w: first header %d, boundary %d", ErrAncestryStart, first, boundary)
	}
	for i := 1; i < n; i++ {
		prev, cur := u.EpochHeaderAncestry[i-1], u.EpochHeaderAncestry[i]
		if cur.ParentHash != prev.Hash() || cur.Number.Uint64() != prev.Number.Uint64()+1 {
			return fmt.Errorf("%w: at %d", ErrAncestryGap, cur.Number.Uint64())
		}
	}
	last := u.EpochHeaderAncestry[n-1]
	if u.SourceHeader != nil && u.SourceHeader.ParentHash != last.Hash() {
		return fmt.Errorf("%w: source %d does not follow %d", ErrAncestryGap, u.SourceHeader.Number.Uint64(), last.Number.Uint64())
	}
	return nil
}

// StateCommitment is a snapshot of a counterparty chain accepted by the light client.
type StateCommitment struct {
	Timestamp   uint64
	OverlayRoot *common.Hash
	StateRoot   common.Hash
}
