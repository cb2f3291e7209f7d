package integration

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-ismp-bsc/ismp"
	"github.com/rony4d/go-ismp-bsc/parlia"
)

// TestPresets_areValid verifies every preset can drive a prover as is.
func TestPresets_areValid(t *testing.T) {
	for _, preset := range []ChainPreset{MainnetPreset(), ChapelPreset(), FakenetPreset()} {
		if err := preset.Validate(); err != nil {
			t.Fatalf("preset %q: %v", preset.Name, err)
		}
		if preset.Rules.Epochs.EpochLength != parlia.DefaultEpochLength {
			t.Fatalf("preset %q: EpochLength = %d, want %d", preset.Name, preset.Rules.Epochs.EpochLength, parlia.DefaultEpochLength)
		}
		if preset.Layout != ismp.DefaultHostLayout() {
			t.Fatalf("preset %q: unexpected host layout %+v", preset.Name, preset.Layout)
		}
	}
}

// TestPresets_haveDistinctValues verifies presets are not redundant.
func TestPresets_haveDistinctValues(t *testing.T) {
	main, chapel, fake := MainnetPreset(), ChapelPreset(), FakenetPreset()

	ids := map[uint64]bool{
		main.Rules.NetworkID:   true,
		chapel.Rules.NetworkID: true,
		fake.Rules.NetworkID:   true,
	}
	if len(ids) != 3 {
		t.Fatalf("presets should have unique network IDs, got: %v", ids)
	}
	if main.RPCURL == "" || chapel.RPCURL == "" {
		t.Fatal("live presets need a default RPC endpoint")
	}
	if fake.RPCURL != "" {
		t.Fatalf("fake preset should not dial, got %q", fake.RPCURL)
	}
	if !fake.IsFake() || main.IsFake() || chapel.IsFake() {
		t.Fatal("only the fake preset runs in memory")
	}
	if fake.Host == (common.Address{}) {
		t.Fatal("fake preset needs a host address")
	}
}

func TestGetPresetByName_validPresets(t *testing.T) {
	tests := []struct {
		name     string
		wantName string
	}{
		{"main", "main"},
		{"mainnet", "main"},
		{"bsc", "main"},
		{"chapel", "chapel"},
		{"testnet", "chapel"},
		{"fake", "fake"},
		{"fakenet", "fake"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset, err := GetPresetByName(tt.name)
			if err != nil {
				t.Fatalf("GetPresetByName(%q) returned error: %v", tt.name, err)
			}
			if preset.Name != tt.wantName {
				t.Fatalf("Preset name = %q, want %q", preset.Name, tt.wantName)
			}
		})
	}
}

func TestGetPresetByName_invalidPreset(t *testing.T) {
	for _, name := range []string{"unknown", "", "MAIN", "ropsten"} {
		t.Run(name, func(t *testing.T) {
			preset, err := GetPresetByName(name)
			if err == nil {
				t.Fatalf("GetPresetByName(%q) should return error, got preset: %+v", name, preset)
			}
		})
	}
}

func TestApplyPreset_overridesTarget(t *testing.T) {
	target := FakenetPreset()
	override := ChainPreset{
		Name:          "custom",
		Rules:         parlia.Rules{Epochs: parlia.EpochsRules{EpochLength: 100, MaxAncestry: 50}, Upgrades: parlia.Upgrades{Bohr: true}},
		ValidatorSize: 45,
		RPCURL:        "http://127.0.0.1:8545",
		Host:          common.HexToAddress("0x01"),
		Layout:        ismp.HostLayout{RequestCommitmentsSlot: 5, ResponseCommitmentsSlot: 6, SenderOffset: 1},
	}
	ApplyPreset(&target, override)

	if target.Name != "custom" {
		t.Fatalf("Name not overridden: got %q", target.Name)
	}
	if target.Rules.Epochs.EpochLength != 100 || target.Rules.Epochs.MaxAncestry != 50 {
		t.Fatalf("Epochs not overridden: got %+v", target.Rules.Epochs)
	}
	if !target.Rules.Upgrades.Bohr || !target.Rules.Upgrades.Luban {
		t.Fatalf("Upgrades = %+v, want Luban and Bohr", target.Rules.Upgrades)
	}
	if target.Rules.NetworkID != parlia.FakeNetworkID {
		t.Fatalf("NetworkID changed to %d", target.Rules.NetworkID)
	}
	if target.ValidatorSize != 45 || target.RPCURL != override.RPCURL || target.Host != override.Host {
		t.Fatalf("fields not overridden: %+v", target)
	}
	if target.Layout != override.Layout {
		t.Fatalf("Layout not overridden: got %+v", target.Layout)
	}
}

func TestApplyPreset_partialOverride(t *testing.T) {
	target := MainnetPreset()
	ApplyPreset(&target, ChainPreset{ValidatorSize: 45})

	want := MainnetPreset()
	want.ValidatorSize = 45
	if target != want {
		t.Fatalf("partial override changed more than ValidatorSize:\n got  %+v\n want %+v", target, want)
	}
}

func TestPresets_areIdempotent(t *testing.T) {
	if MainnetPreset() != MainnetPreset() {
		t.Fatal("MainnetPreset() should return identical results on multiple calls")
	}
	if FakenetPreset() != FakenetPreset() {
		t.Fatal("FakenetPreset() should return identical results on multiple calls")
	}
}
