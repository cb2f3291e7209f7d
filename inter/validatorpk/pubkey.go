// Package validatorpk provides the fixed-size BLS public key used by Parlia
// validators for fast-finality votes. Epoch-boundary headers declare one key per
// validator; the order of the keys fixes each validator's index in the vote
// address bitset, so keys are kept as values and never re-sorted.

package validatorpk

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// BLSPublicKeyLength is the size of a compressed BLS12-381 G1 public key.
	BLSPublicKeyLength = 48
	// BLSSignatureLength is the size of a compressed BLS12-381 G2 signature.
	BLSSignatureLength = 96
)

var (
	// ErrEmptyPubKey is returned when decoding zero bytes.
	ErrEmptyPubKey = errors.New("empty pubkey")
	// ErrPubKeyLength is returned when the input is not exactly BLSPublicKeyLength bytes.
	ErrPubKeyLength = errors.New("invalid bls pubkey length")
)

// BLSPublicKey is a validator's vote key as it appears in header extra-data.
type BLSPublicKey [BLSPublicKeyLength]byte

// Empty reports whether the key is all zeroes.
func (pk BLSPublicKey) Empty() bool {
	return pk == BLSPublicKey{}
}

// String returns the "0x" prefixed hex form of the key.
func (pk BLSPublicKey) String() string {
	return "0x" + common.Bytes2Hex(pk[:])
}

// Bytes returns a copy of the key as a byte slice.
func (pk BLSPublicKey) Bytes() []byte {
	return common.CopyBytes(pk[:])
}

// FromString parses a hex string (with or without "0x" prefix) into a key.
func FromString(str string) (BLSPublicKey, error) {
	return FromBytes(common.FromHex(str))
}

// FromBytes converts raw key material into a BLSPublicKey.
// Anything other than exactly BLSPublicKeyLength bytes is rejected; the caller
// decides whether that is fatal.
func FromBytes(b []byte) (BLSPublicKey, error) {
	var pk BLSPublicKey
	if len(b) == 0 {
		return pk, ErrEmptyPubKey
	}
	if len(b) != BLSPublicKeyLength {
		return pk, fmt.Errorf("%w: got %d bytes, want %d", ErrPubKeyLength, len(b), BLSPublicKeyLength)
	}
	copy(pk[:], b)
	return pk, nil
}

// MarshalText implements encoding.TextMarshaler so keys render as hex in JSON.
func (pk BLSPublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pk *BLSPublicKey) UnmarshalText(input []byte) error {
	res, err := FromString(string(input))
	if err != nil {
		return err
	}
	*pk = res
	return nil
}
