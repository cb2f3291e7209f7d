// Package prover assembles the consensus updates a BSC light client consumes.
//
// An update proves that a header (the target of a vote attestation) has been
// justified by a super majority of the current validator set. Around epoch
// boundaries the validator set rotates, and the light client cannot tell which
// set signed the source header without the headers that link it back to the
// boundary. Inside that window the update carries the epoch-header ancestry.
//
// Window (E = epoch length, B = epoch*E, R = RotationBlock(B, size) - 1):
//
//	B      B+1    B+2 ........ R      R+1
//	|------|------|============|------|------> blocks
//	              attested in here and source > B  =>  ancestry [B+1 .. source-1]
//
// With force set the window check is skipped, which covers the case where the
// attested header itself is past R but the light client has not seen the new
// set yet.
package prover

import (
	"context"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rony4d/go-ismp-bsc/evmcore"
	"github.com/rony4d/go-ismp-bsc/inter"
	"github.com/rony4d/go-ismp-bsc/inter/drivertype"
	"github.com/rony4d/go-ismp-bsc/inter/ier"
	"github.com/rony4d/go-ismp-bsc/inter/validatorpk"
	"github.com/rony4d/go-ismp-bsc/parlia"
)

// Prover builds consensus updates from a header source. It holds no mutable
// state and is safe for concurrent use.
type Prover struct {
	rules   parlia.Rules
	source  evmcore.HeaderSource
	parser  parlia.ExtraParser
	metrics *Metrics
	log     logrus.FieldLogger
}

// Option configures a Prover.
type Option func(*Prover)

// WithParser replaces the extra-data parser derived from the rules.
func WithParser(parser parlia.ExtraParser) Option {
	return func(p *Prover) { p.parser = parser }
}

// WithMetrics sets the metrics sink. Defaults to NopMetrics.
func WithMetrics(m *Metrics) Option {
	return func(p *Prover) { p.metrics = m }
}

// WithLogger sets the logger. Defaults to the standard logrus logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Prover) { p.log = log }
}

// New returns a Prover for the given chain rules and header source.
func New(rules parlia.Rules, source evmcore.HeaderSource, opts ...Option) (*Prover, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	p := &Prover{
		rules:   rules,
		source:  source,
		parser:  parlia.RulesParser{Rules: rules},
		metrics: NopMetrics(),
		log:     logrus.WithField("module", "prover"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Rules returns the chain rules of the prover.
func (p *Prover) Rules() parlia.Rules {
	return p.rules
}

// BuildUpdate constructs the consensus update for attested, a header carrying
// a vote attestation. validatorSize is the size of the set declared at the
// start of epoch.
//
// A nil update with a nil error means the header has no usable attestation
// yet. Callers retry with a later header.
func (p *Prover) BuildUpdate(ctx context.Context, attested *types.Header, validatorSize int, epoch idx.Epoch, force bool) (*inter.ConsensusUpdate, error) {
	update, err := p.buildUpdate(ctx, attested, validatorSize, epoch, force)
	switch {
	case err != nil:
		p.metrics.Updates.With("result", ResultError).Add(1)
	case update == nil:
		p.metrics.Updates.With("result", ResultNone).Add(1)
	default:
		p.metrics.Updates.With("result", ResultUpdate).Add(1)
		p.metrics.AncestryLength.Observe(float64(len(update.EpochHeaderAncestry)))
	}
	return update, err
}

func (p *Prover) buildUpdate(ctx context.Context, attested *types.Header, validatorSize int, epoch idx.Epoch, force bool) (*inter.ConsensusUpdate, error) {
	if err := p.rules.ValidateValidatorSize(validatorSize); err != nil {
		return nil, err
	}
	if attested == nil || attested.Number == nil {
		return nil, errors.Wrap(ErrMalformedHeader, "attested header without number")
	}
	attestedNumber := idx.Block(attested.Number.Uint64())

	extra, err := p.parser.Parse(attested)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedHeader, "block %d: %v", attestedNumber, err)
	}
	vote := extra.VoteData()
	if vote.IsEmpty() {
		p.log.WithField("block", attestedNumber).Debug("No attestation yet")
		return nil, nil
	}

	var source, target *types.Header
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		source, err = p.headerByHash(gctx, vote.SourceHash)
		return err
	})
	g.Go(func() (err error) {
		target, err = p.headerByHash(gctx, vote.TargetHash)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	boundary := p.rules.EpochStart(epoch)
	rotation := p.rules.RotationBlock(boundary, validatorSize)
	sourceNumber := idx.Block(source.Number.Uint64())

	// Window: boundary+2 <= attested <= rotation-1. The rotation block itself
	// is compared exclusively so a rotation at block 0 cannot underflow.
	inWindow := attestedNumber >= boundary+2 && attestedNumber < rotation
	update := &inter.ConsensusUpdate{
		AttestedHeader: attested,
		SourceHeader:   source,
		TargetHeader:   target,
	}
	if sourceNumber > boundary && (inWindow || force) {
		ancestry, err := p.ancestry(ctx, source, boundary, attestedNumber)
		if err != nil {
			return nil, err
		}
		update.EpochHeaderAncestry = ancestry
	}

	p.log.WithFields(logrus.Fields{
		"attested": attestedNumber,
		"source":   sourceNumber,
		"target":   target.Number.Uint64(),
		"epoch":    epoch,
		"ancestry": len(update.EpochHeaderAncestry),
		"forced":   force && !inWindow,
	}).Debug("Built consensus update")
	return update, nil
}

// ancestry walks back from the parent of source and returns the headers
// strictly between boundary and source in ascending order.
func (p *Prover) ancestry(ctx context.Context, source *types.Header, boundary, attested idx.Block) ([]*types.Header, error) {
	sourceNumber := idx.Block(source.Number.Uint64())
	tooLarge := func(length int) error {
		return &AncestryTooLargeError{
			Length:         length,
			Max:            p.rules.Epochs.MaxAncestry,
			EpochBoundary:  boundary,
			SourceNumber:   sourceNumber,
			AttestedNumber: attested,
		}
	}
	// Headers are numbered consecutively, so the length is known up front.
	expected := int(sourceNumber - boundary - 1)
	if expected > p.rules.Epochs.MaxAncestry {
		return nil, tooLarge(expected)
	}

	reversed := make([]*types.Header, 0, expected)
	parent, prev := source.ParentHash, sourceNumber
	for {
		h, err := p.headerByHash(ctx, parent)
		if err != nil {
			return nil, err
		}
		n := idx.Block(h.Number.Uint64())
		if n+1 != prev {
			return nil, errors.Wrapf(ErrMalformedHeader, "block %d has parent numbered %d", prev, n)
		}
		if n <= boundary {
			break
		}
		reversed = append(reversed, h)
		parent, prev = h.ParentHash, n
	}
	if len(reversed) > p.rules.Epochs.MaxAncestry {
		return nil, tooLarge(len(reversed))
	}

	ancestry := make([]*types.Header, len(reversed))
	for i, h := range reversed {
		ancestry[len(reversed)-1-i] = h
	}
	return ancestry, nil
}

// LatestUpdate builds an update for the current chain head.
func (p *Prover) LatestUpdate(ctx context.Context, validatorSize int, epoch idx.Epoch, force bool) (*inter.ConsensusUpdate, error) {
	p.metrics.HeaderFetches.Add(1)
	head, err := p.source.LatestHeader(ctx)
	if err != nil {
		return nil, unavailable(ctx, "latest", err)
	}
	return p.BuildUpdate(ctx, head, validatorSize, epoch, force)
}

// BootstrapTrustedState returns the epoch record a light client is
// initialised with: the boundary header of the current epoch and its
// declared validator set.
func (p *Prover) BootstrapTrustedState(ctx context.Context) (*ier.EpochRecord, error) {
	p.metrics.HeaderFetches.Add(1)
	head, err := p.source.LatestHeader(ctx)
	if err != nil {
		return nil, unavailable(ctx, "latest", err)
	}
	epoch := p.rules.EpochOf(idx.Block(head.Number.Uint64()))
	return p.EpochRecord(ctx, epoch)
}

// EpochRecord reads the validator set declared at the start of epoch.
func (p *Prover) EpochRecord(ctx context.Context, epoch idx.Epoch) (*ier.EpochRecord, error) {
	header, validators, err := p.EpochValidators(ctx, epoch)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"epoch":      epoch,
		"block":      header.Number.Uint64(),
		"validators": len(validators),
	}).Info("Loaded epoch validator set")
	return &ier.EpochRecord{Epoch: epoch, Header: header, Validators: validators.VoteKeys()}, nil
}

// EpochValidators returns the boundary header of epoch together with the full
// validator entries it declares.
func (p *Prover) EpochValidators(ctx context.Context, epoch idx.Epoch) (*types.Header, drivertype.Validators, error) {
	boundary := p.rules.EpochStart(epoch)
	p.metrics.HeaderFetches.Add(1)
	header, err := p.source.HeaderByNumber(ctx, uint64(boundary))
	if err != nil {
		return nil, nil, unavailable(ctx, fmt.Sprintf("block %d", boundary), err)
	}

	extra, err := p.parser.Parse(header)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrMalformedHeader, "epoch header %d: %v", boundary, err)
	}
	if len(extra.Validators) == 0 {
		return nil, nil, errors.Wrapf(ErrMalformedHeader, "epoch header %d declares no validators", boundary)
	}

	validators := make(drivertype.Validators, len(extra.Validators))
	for i, v := range extra.Validators {
		key, err := validatorpk.FromBytes(v.VoteKey)
		if err != nil {
			return nil, nil, &CorruptValidatorEntryError{Index: i, Err: err}
		}
		validators[i] = drivertype.Validator{Address: v.Address, VoteKey: key}
	}
	return header, validators, nil
}

func (p *Prover) headerByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	p.metrics.HeaderFetches.Add(1)
	h, err := p.source.HeaderByHash(ctx, hash)
	if errors.Is(err, evmcore.ErrHashMismatch) {
		return nil, errors.Wrap(ErrMalformedHeader, err.Error())
	}
	if err != nil {
		return nil, unavailable(ctx, hash.Hex(), err)
	}
	if h.Number == nil {
		return nil, errors.Wrapf(ErrMalformedHeader, "header %s without number", hash.Hex())
	}
	return h, nil
}

// unavailable classifies a source failure. Only the end of the caller's own
// context is passed through as is. A deadline the source applied to a single
// request is a transient failure like any other.
func unavailable(ctx context.Context, locator string, err error) error {
	if ctx.Err() != nil {
		return err
	}
	return &HeaderUnavailableError{Locator: locator, Err: err}
}
