// Package integration bundles chain presets and assembles the runtime the CLI
// works with: a header source, a consensus-update prover and a state-proof
// verifier wired to the same chain rules.
//
// Presets bundle the settings that differ between networks (chain rules,
// default endpoint, expected validator count) into named profiles so operators
// pick a network with one flag:
//
//	preset, err := integration.GetPresetByName("chapel")
//	rt, err := integration.NewRuntime(ctx, integration.RuntimeConfig{Preset: preset})
package integration

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-ismp-bsc/ismp"
	"github.com/rony4d/go-ismp-bsc/parlia"
)

// ChainPreset captures what varies between the supported networks.
type ChainPreset struct {
	Name          string         // preset identifier used by --network
	Rules         parlia.Rules   // epoch length, hard forks
	ValidatorSize int            // size of the active validator set
	RPCURL        string         // default JSON-RPC endpoint, empty for the fake chain
	Host          common.Address // ISMP host contract, zero when not deployed
	Layout        ismp.HostLayout
}

// FakeHost is the host contract address used on the fake chain.
var FakeHost = common.HexToAddress("0x7b27ab4C64cdc30d219cEa9aC3Dd442Fd4D00E50")

func MainnetPreset() ChainPreset {
	return ChainPreset{
		Name:          "main",
		Rules:         parlia.MainNetRules(),
		ValidatorSize: 21,
		RPCURL:        "https://bsc-dataseed.bnbchain.org",
		Layout:        ismp.DefaultHostLayout(),
	}
}

func ChapelPreset() ChainPreset {
	return ChainPreset{
		Name:          "chapel",
		Rules:         parlia.TestNetRules(),
		ValidatorSize: 21,
		RPCURL:        "https://data-seed-prebsc-1-s1.bnbchain.org:8545",
		Layout:        ismp.DefaultHostLayout(),
	}
}

// FakenetPreset serves headers from an in-memory chain sealed by
// deterministic keys. Nothing is dialed.
func FakenetPreset() ChainPreset {
	return ChainPreset{
		Name:          "fake",
		Rules:         parlia.FakeNetRules(),
		ValidatorSize: 21,
		Host:          FakeHost,
		Layout:        ismp.DefaultHostLayout(),
	}
}

// GetPresetByName looks up a preset by its identifier or one of its aliases.
func GetPresetByName(name string) (ChainPreset, error) {
	switch name {
	case "main", "mainnet", "bsc":
		return MainnetPreset(), nil
	case "chapel", "testnet":
		return ChapelPreset(), nil
	case "fake", "fakenet":
		return FakenetPreset(), nil
	default:
		return ChainPreset{}, fmt.Errorf("unknown preset: %q (valid: main, chapel, fake)", name)
	}
}

// ApplyPreset merges the non-zero fields of override into target. Hard-fork
// flags are only ever switched on, never off.
func ApplyPreset(target *ChainPreset, override ChainPreset) {
	if override.Name != "" {
		target.Name = override.Name
	}
	if override.Rules.Epochs.EpochLength != 0 {
		target.Rules.Epochs.EpochLength = override.Rules.Epochs.EpochLength
	}
	if override.Rules.Epochs.MaxAncestry != 0 {
		target.Rules.Epochs.MaxAncestry = override.Rules.Epochs.MaxAncestry
	}
	target.Rules.Upgrades.Luban = target.Rules.Upgrades.Luban || override.Rules.Upgrades.Luban
	target.Rules.Upgrades.Bohr = target.Rules.Upgrades.Bohr || override.Rules.Upgrades.Bohr
	if override.ValidatorSize > 0 {
		target.ValidatorSize = override.ValidatorSize
	}
	if override.RPCURL != "" {
		target.RPCURL = override.RPCURL
	}
	if override.Host != (common.Address{}) {
		target.Host = override.Host
	}
	if override.Layout != (ismp.HostLayout{}) {
		target.Layout = override.Layout
	}
}

// Validate checks the preset can drive a prover.
func (p ChainPreset) Validate() error {
	if err := p.Rules.Validate(); err != nil {
		return err
	}
	return p.Rules.ValidateValidatorSize(p.ValidatorSize)
}

// IsFake reports whether the preset runs against the in-memory chain.
func (p ChainPreset) IsFake() bool {
	return p.Rules.NetworkID == parlia.FakeNetworkID
}
