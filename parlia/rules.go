// Package parlia defines the chain rules of the BNB Smart Chain proof-of-staked-
// authority consensus ("Parlia") that the prover depends on.
//
// This package provides:
//   - Network identification constants (MainNet, TestNet, FakeNet)
//   - Epoch rules: epoch length and the bound on epoch-header ancestry
//   - Upgrade flags that change the extra-data layout (Luban, Bohr)
//   - Epoch arithmetic and the validator-rotation block (epoch.go)
//   - The header extra-data codec (extra.go)
//
// Rules are a runtime value rather than compile-time constants, so one binary
// can serve several chain variants side by side.

package parlia

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Network identification constants
const (
	// MainNetworkID is the chain ID of BSC mainnet.
	MainNetworkID uint64 = 56

	// TestNetworkID is the chain ID of the Chapel testnet.
	TestNetworkID uint64 = 97

	// FakeNetworkID is the chain ID used by the in-memory fake chain.
	FakeNetworkID uint64 = 714

	// DefaultEpochLength is the number of blocks between validator-set declarations.
	DefaultEpochLength uint64 = 200

	// DefaultMaxAncestry bounds the epoch-header ancestry carried by one update.
	// A legitimate ancestry never spans more than one epoch.
	DefaultMaxAncestry = int(DefaultEpochLength)
)

var (
	// ErrZeroEpochLength is returned by Validate for rules without an epoch length.
	ErrZeroEpochLength = errors.New("parlia: epoch length must be positive")
	// ErrZeroMaxAncestry is returned by Validate for rules without an ancestry bound.
	ErrZeroMaxAncestry = errors.New("parlia: max ancestry must be positive")
	// ErrValidatorSize is returned when a validator set cannot rotate within one epoch.
	ErrValidatorSize = errors.New("parlia: validator set size out of range")
)

// Rules describes the consensus parameters of one Parlia network.
type Rules struct {
	Name      string // network name identifier (e.g., "main", "chapel", "fake")
	NetworkID uint64 // chain ID

	// Epochs options - epoch length and ancestry bound
	Epochs EpochsRules

	// Upgrades - hard forks that affect header decoding
	Upgrades Upgrades
}

// EpochsRules defines the rules for epoch management.
type EpochsRules struct {
	// EpochLength is the number of blocks per epoch. The first block of an epoch
	// (number % EpochLength == 0) declares the next validator set.
	EpochLength uint64

	// MaxAncestry is the maximum number of headers an update may carry between
	// the epoch boundary and the source header. Exceeding it is a hard failure.
	MaxAncestry int
}

// Upgrades tracks which hard forks are active.
type Upgrades struct {
	// Luban adds BLS vote keys to the validator list of epoch headers.
	Luban bool
	// Bohr appends a one-byte turn length after the validator list.
	Bohr bool
}

// MainNetRules returns the configuration rules for BSC mainnet.
func MainNetRules() Rules {
	return Rules{
		Name:      "main",
		NetworkID: MainNetworkID,
		Epochs:    DefaultEpochsRules(),
		Upgrades:  Upgrades{Luban: true, Bohr: true},
	}
}

// TestNetRules returns the configuration rules for the Chapel testnet.
func TestNetRules() Rules {
	return Rules{
		Name:      "chapel",
		NetworkID: TestNetworkID,
		Epochs:    DefaultEpochsRules(),
		Upgrades:  Upgrades{Luban: true, Bohr: true},
	}
}

// FakeNetRules returns the configuration rules of the in-memory fake chain.
// It keeps the production epoch length so boundary arithmetic matches mainnet,
// but leaves Bohr off to exercise the shorter epoch-header layout.
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		Epochs:    DefaultEpochsRules(),
		Upgrades:  Upgrades{Luban: true},
	}
}

// DefaultEpochsRules returns the mainnet epoch configuration.
func DefaultEpochsRules() EpochsRules {
	return EpochsRules{
		EpochLength: DefaultEpochLength,
		MaxAncestry: DefaultMaxAncestry,
	}
}

// RulesByName resolves a network preset by its name.
func RulesByName(name string) (Rules, error) {
	switch name {
	case "main", "mainnet", "bsc":
		return MainNetRules(), nil
	case "chapel", "test", "testnet":
		return TestNetRules(), nil
	case "fake", "fakenet":
		return FakeNetRules(), nil
	default:
		return Rules{}, fmt.Errorf("unknown network: %q (valid: main, chapel, fake)", name)
	}
}

// Validate rejects rules the epoch arithmetic cannot work with.
func (r Rules) Validate() error {
	if r.Epochs.EpochLength == 0 {
		return ErrZeroEpochLength
	}
	if r.Epochs.MaxAncestry <= 0 {
		return ErrZeroMaxAncestry
	}
	return nil
}

// ValidateValidatorSize checks that a set of the given size rotates inside one
// epoch, i.e. size/2 is a reachable residue modulo the epoch length.
func (r Rules) ValidateValidatorSize(size int) error {
	if size <= 0 || uint64(size/2) >= r.Epochs.EpochLength {
		return fmt.Errorf("%w: %d with epoch length %d", ErrValidatorSize, size, r.Epochs.EpochLength)
	}
	return nil
}

// String returns a JSON representation of Rules for debugging and logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
