package parlia

import (
	"testing"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestEpochArithmetic(t *testing.T) {
	require := require.New(t)
	rules := FakeNetRules()

	require.Equal(idx.Epoch(0), rules.EpochOf(0))
	require.Equal(idx.Epoch(0), rules.EpochOf(199))
	require.Equal(idx.Epoch(1), rules.EpochOf(200))
	require.Equal(idx.Epoch(5), rules.EpochOf(1003))
	require.Equal(idx.Block(1000), rules.EpochStart(5))
	require.True(rules.IsEpochBoundary(1000))
	require.False(rules.IsEpochBoundary(1001))
}

func TestRotationBlock(t *testing.T) {
	rules := FakeNetRules()
	tests := []struct {
		boundary idx.Block
		size     int
		want     idx.Block
	}{
		{1000, 21, 1010},
		{1000, 0, 1000},
		{1000, 1, 1000},
		{0, 45, 22},
		{1005, 21, 1010},
		{1011, 21, 1210},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, rules.RotationBlock(tt.boundary, tt.size), "boundary %d size %d", tt.boundary, tt.size)
	}
}

// rotationBlockNaive steps one block at a time until the residue matches.
func rotationBlockNaive(length uint64, boundary idx.Block, size int) idx.Block {
	cur := boundary
	for uint64(cur)%length != uint64(size/2) {
		cur++
	}
	return cur
}

func TestRotationBlockProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.Uint64Range(1, 500).Draw(t, "length").(uint64)
		size := rapid.IntRange(0, int(2*length-1)).Draw(t, "size").(int)
		boundary := idx.Block(rapid.Uint64Range(0, 1<<40).Draw(t, "boundary").(uint64))

		rules := FakeNetRules()
		rules.Epochs.EpochLength = length
		got := rules.RotationBlock(boundary, size)

		if got < boundary || uint64(got-boundary) >= length {
			t.Fatalf("rotation %d outside [%d, %d)", got, boundary, uint64(boundary)+length)
		}
		if uint64(got)%length != uint64(size/2) {
			t.Fatalf("rotation %d has residue %d, want %d", got, uint64(got)%length, size/2)
		}
		if want := rotationBlockNaive(length, boundary, size); got != want {
			t.Fatalf("rotation %d, stepping gives %d", got, want)
		}
	})
}

func TestEpochOfProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		length := rapid.Uint64Range(1, 10000).Draw(t, "length").(uint64)
		number := idx.Block(rapid.Uint64Range(0, 1<<40).Draw(t, "number").(uint64))

		rules := FakeNetRules()
		rules.Epochs.EpochLength = length
		start := rules.EpochStart(rules.EpochOf(number))
		if start > number || uint64(number-start) >= length {
			t.Fatalf("block %d not inside epoch starting at %d", number, start)
		}
		if !rules.IsEpochBoundary(start) {
			t.Fatalf("epoch start %d is not a boundary", start)
		}
	})
}
