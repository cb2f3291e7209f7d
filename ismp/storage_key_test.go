package ismp

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/rony4d/go-ismp-bsc/trieproof"
)

func TestCommitmentKey(t *testing.T) {
	require := require.New(t)
	commitment := common.HexToHash("0x7cd9de2ba4e1a8c55c8d5e0e7bc8cd5e1bc3d3b8d8f9a3e5c04b7ac4fd6ce8a1")

	want := crypto.Keccak256Hash(commitment[:], common.LeftPadBytes([]byte{0}, 32))
	require.Equal(want, CommitmentKey(trieproof.Keccak256, commitment, RequestCommitmentsSlot))

	want = crypto.Keccak256Hash(commitment[:], common.LeftPadBytes([]byte{1}, 32))
	require.Equal(want, CommitmentKey(trieproof.Keccak256, commitment, ResponseCommitmentsSlot))
}

func TestMetadataKeyProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		commitment := common.BytesToHash(rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "commitment").([]byte))
		slot := rapid.Uint64().Draw(t, "slot").(uint64)
		offset := rapid.Uint64Range(0, 16).Draw(t, "offset").(uint64)

		base := CommitmentKey(trieproof.Keccak256, commitment, slot)
		got := MetadataKey(trieproof.Keccak256, commitment, slot, offset)

		want := new(big.Int).Add(base.Big(), new(big.Int).SetUint64(offset))
		want.And(want, math.MaxBig256)
		if got != common.BigToHash(want) {
			t.Fatalf("key %s + %d = %s, want %s", base.Hex(), offset, got.Hex(), common.BigToHash(want).Hex())
		}
	})
}

// maxHasher maps everything to the largest 256-bit value.
type maxHasher struct{}

func (maxHasher) Hash([]byte) common.Hash {
	return common.BigToHash(math.MaxBig256)
}

func TestMetadataKeyWraps(t *testing.T) {
	got := MetadataKey(maxHasher{}, common.Hash{}, 0, 2)
	require.Equal(t, common.BigToHash(big.NewInt(1)), got)
}

func TestHostLayoutKeys(t *testing.T) {
	require := require.New(t)
	layout := DefaultHostLayout()
	c := common.HexToHash("0x01")

	fee, sender := layout.RequestKeys(trieproof.Keccak256, c)
	require.Equal(CommitmentKey(trieproof.Keccak256, c, 0), fee)
	require.Equal(MetadataKey(trieproof.Keccak256, c, 0, 1), sender)

	fee, sender = layout.ResponseKeys(trieproof.Keccak256, c)
	require.Equal(CommitmentKey(trieproof.Keccak256, c, 1), fee)
	require.Equal(MetadataKey(trieproof.Keccak256, c, 1, 1), sender)
}
