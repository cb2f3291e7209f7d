package parlia

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
)

// EpochOf returns the index of the epoch containing the block.
// Every block belongs to exactly one epoch [n*E, (n+1)*E).
func (r Rules) EpochOf(number idx.Block) idx.Epoch {
	return idx.Epoch(uint64(number) / r.Epochs.EpochLength)
}

// EpochStart returns the number of the boundary header that opens the epoch.
func (r Rules) EpochStart(epoch idx.Epoch) idx.Block {
	return idx.Block(uint64(epoch) * r.Epochs.EpochLength)
}

// IsEpochBoundary reports whether the header at number declares a validator set.
func (r Rules) IsEpochBoundary(number idx.Block) bool {
	return uint64(number)%r.Epochs.EpochLength == 0
}

// RotationBlock returns the smallest block b >= boundary with
// b % EpochLength == validatorSize/2. Validator-set rotation finalizes there:
// each outgoing validator has had one turn in the back half of the epoch.
// Callers use RotationBlock(...) - 1 as the last block signed by the outgoing set.
//
// The result is computed in closed form; it equals stepping one block at a time
// from boundary until the residue matches. validatorSize/2 must be below the
// epoch length (see ValidateValidatorSize), otherwise the residue is never hit.
func (r Rules) RotationBlock(boundary idx.Block, validatorSize int) idx.Block {
	length := r.Epochs.EpochLength
	want := uint64(validatorSize/2) % length
	cur := uint64(boundary) % length

	if cur <= want {
		return boundary + idx.Block(want-cur)
	}
	return boundary + idx.Block(length-cur+want)
}
