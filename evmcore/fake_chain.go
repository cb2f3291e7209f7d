package evmcore

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"math/rand"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rony4d/go-ismp-bsc/inter"
	"github.com/rony4d/go-ismp-bsc/inter/validatorpk"
	"github.com/rony4d/go-ismp-bsc/parlia"
)

// FakeGenesisTime is the timestamp of block 0 of every fake chain
// (December 22, 2020). Blocks follow every FakeBlockPeriod seconds.
const (
	FakeGenesisTime uint64 = 1608600000
	FakeBlockPeriod uint64 = 3
)

// FakeChain is a deterministic in-memory Parlia chain.
//
// Every epoch boundary declares the same validator set. Every block from 2 on
// carries a vote attestation with source = number-2 and target = number-1, the
// steady state of fast finality. Headers are sealed in turn by the validators.
type FakeChain struct {
	*MemorySource

	rules      parlia.Rules
	keys       []*ecdsa.PrivateKey
	validators []parlia.ValidatorEntry
	headers    []*types.Header
}

// NewFakeChain builds blocks 0..length-1. All headers commit to stateRoot.
func NewFakeChain(rules parlia.Rules, validators int, length uint64, stateRoot common.Hash) (*FakeChain, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if validators <= 0 || validators > 0xff {
		return nil, fmt.Errorf("fake chain: %d validators", validators)
	}
	c := &FakeChain{
		MemorySource: NewMemorySource(),
		rules:        rules,
		keys:         make([]*ecdsa.PrivateKey, validators),
		validators:   make([]parlia.ValidatorEntry, validators),
	}
	for i := range c.keys {
		c.keys[i] = FakeKey(i + 1)
		c.validators[i] = parlia.ValidatorEntry{
			Address: crypto.PubkeyToAddress(c.keys[i].PublicKey),
			VoteKey: FakeVoteKey(i + 1).Bytes(),
		}
	}

	parent := common.Hash{}
	for n := uint64(0); n < length; n++ {
		extra := &parlia.Extra{}
		if rules.IsEpochBoundary(idx.Block(n)) {
			extra.Validators = c.validators
			extra.TurnLength = 1
		}
		if n >= 2 {
			extra.Attestation = c.attestation(c.headers[n-2], c.headers[n-1])
		}
		h, err := c.seal(n, parent, stateRoot, extra)
		if err != nil {
			return nil, err
		}
		c.headers = append(c.headers, h)
		c.Add(h)
		parent = h.Hash()
	}
	return c, nil
}

// Rules returns the rules the chain was built with.
func (c *FakeChain) Rules() parlia.Rules {
	return c.rules
}

// Validators returns the set declared on every epoch boundary.
func (c *FakeChain) Validators() []parlia.ValidatorEntry {
	return c.validators
}

// Header returns the canonical header at number, or nil past the head.
func (c *FakeChain) Header(number uint64) *types.Header {
	if number >= uint64(len(c.headers)) {
		return nil
	}
	return types.CopyHeader(c.headers[number])
}

// Attested returns a header at the given height that is not part of the
// canonical chain and carries a vote for the given source and target. A nil
// source or target yields a header without attestation.
func (c *FakeChain) Attested(number uint64, source, target *types.Header) (*types.Header, error) {
	extra := &parlia.Extra{}
	if c.rules.IsEpochBoundary(idx.Block(number)) {
		extra.Validators = c.validators
		extra.TurnLength = 1
	}
	if source != nil && target != nil {
		extra.Attestation = c.attestation(source, target)
	}
	parent := common.Hash{}
	root := common.Hash{}
	if number > 0 && number-1 < uint64(len(c.headers)) {
		parent = c.headers[number-1].Hash()
		root = c.headers[number-1].Root
	}
	return c.seal(number, parent, root, extra)
}

func (c *FakeChain) attestation(source, target *types.Header) *inter.VoteAttestation {
	att := &inter.VoteAttestation{
		VoteAddressSet: uint64(1)<<uint(len(c.validators)) - 1,
		Data: &inter.VoteData{
			SourceNumber: source.Number.Uint64(),
			SourceHash:   source.Hash(),
			TargetNumber: target.Number.Uint64(),
			TargetHash:   target.Hash(),
		},
		Extra: []byte{},
	}
	copy(att.AggSignature[:], crypto.Keccak256(source.Hash().Bytes(), target.Hash().Bytes()))
	return att
}

// seal assembles the header and signs it with the in-turn validator key.
func (c *FakeChain) seal(number uint64, parent, root common.Hash, extra *parlia.Extra) (*types.Header, error) {
	signer := c.keys[number%uint64(len(c.keys))]
	h := &types.Header{
		ParentHash:  parent,
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    crypto.PubkeyToAddress(signer.PublicKey),
		Root:        root,
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  big.NewInt(2),
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    140_000_000,
		Time:        FakeGenesisTime + number*FakeBlockPeriod,
	}

	raw, err := parlia.EncodeExtra(c.rules, idx.Block(number), extra)
	if err != nil {
		return nil, err
	}
	h.Extra = raw
	sig, err := crypto.Sign(h.Hash().Bytes(), signer)
	if err != nil {
		return nil, err
	}
	copy(h.Extra[len(h.Extra)-parlia.ExtraSealLength:], sig)
	return h, nil
}

// FakeKey generates a deterministic secp256k1 key. The same n always yields
// the same key.
func FakeKey(n int) *ecdsa.PrivateKey {
	reader := rand.New(rand.NewSource(int64(n)))
	key, err := ecdsa.GenerateKey(crypto.S256(), reader)
	if err != nil {
		panic(err)
	}
	return key
}

// FakeVoteKey derives deterministic BLS vote key bytes for validator n.
// The bytes are not a valid curve point; signatures are never checked here.
func FakeVoteKey(n int) validatorpk.BLSPublicKey {
	var key validatorpk.BLSPublicKey
	seed := crypto.Keccak256(big.NewInt(int64(n)).Bytes())
	copy(key[:], append(seed, crypto.Keccak256(seed)...))
	return key
}
