// Package drivertype defines how a Parlia validator is represented once it has
// been read out of an epoch-boundary header. It bridges the raw extra-data
// layout and the light-client view, which only needs the ordered vote keys.

package drivertype

import (
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-ismp-bsc/inter/validatorpk"
)

// Validator is one entry of the validator list declared on an epoch boundary.
type Validator struct {
	// Address is the consensus (coinbase) address of the validator.
	Address common.Address

	// VoteKey is the BLS key used to sign fast-finality votes.
	VoteKey validatorpk.BLSPublicKey
}

// ValidatorAndID pairs a validator with its position in the declared list.
// The position is the bit index used in a vote attestation's address set.
type ValidatorAndID struct {
	ValidatorID idx.ValidatorID
	Validator   Validator
}

// Validators is the ordered list declared by a single epoch-boundary header.
type Validators []Validator

// VoteKeys returns the BLS keys in declaration order.
func (vv Validators) VoteKeys() []validatorpk.BLSPublicKey {
	keys := make([]validatorpk.BLSPublicKey, len(vv))
	for i, v := range vv {
		keys[i] = v.VoteKey
	}
	return keys
}

// Indexed returns the validators paired with their zero-based list position.
func (vv Validators) Indexed() []ValidatorAndID {
	res := make([]ValidatorAndID, len(vv))
	for i, v := range vv {
		res[i] = ValidatorAndID{ValidatorID: idx.ValidatorID(i), Validator: v}
	}
	return res
}
