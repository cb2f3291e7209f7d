// Package ier (Inter-Epoch Records) defines the trust anchor a light client is
// bootstrapped with: an epoch-boundary header together with the validator set
// it declared. Everything the prover emits later is checked against a chain of
// such records.
package ier

import (
	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/Fantom-foundation/lachesis-base/hash"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/rony4d/go-ismp-bsc/inter"
)

// EpochRecord is the boundary header of an epoch and its declared vote keys.
type EpochRecord struct {
	// Epoch is the index of the epoch the header opens.
	Epoch idx.Epoch

	// Header is the epoch-boundary header (number = Epoch * EpochLength).
	Header *types.Header

	// Validators are the BLS vote keys in declaration order.
	Validators inter.ValidatorSet
}

// Hash is a deterministic fingerprint of the record. It binds the header hash
// to the ordered key list so two records disagreeing on either never collide.
func (er EpochRecord) Hash() hash.Hash {
	parts := make([][]byte, 0, len(er.Validators)+2)
	parts = append(parts, bigendian.Uint32ToBytes(uint32(er.Epoch)), er.Header.Hash().Bytes())
	for _, key := range er.Validators {
		parts = append(parts, key.Bytes())
	}
	return hash.Of(parts...)
}
