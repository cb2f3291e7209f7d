package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-ismp-bsc/evmcore"
	"github.com/rony4d/go-ismp-bsc/ismp"
	"github.com/rony4d/go-ismp-bsc/prover"
	"github.com/rony4d/go-ismp-bsc/trieproof"
)

// DefaultFakeLength is the number of blocks of the fake chain: three full
// epochs plus a few blocks into the fourth.
const DefaultFakeLength = 620

// RuntimeConfig selects the network and the plumbing around it.
type RuntimeConfig struct {
	Preset ChainPreset

	// RequestTimeout bounds every header request. Zero means no bound.
	RequestTimeout time.Duration

	// FakeLength overrides DefaultFakeLength on the fake network.
	FakeLength uint64

	// Metrics defaults to prover.NopMetrics.
	Metrics *prover.Metrics
	Logger  logrus.FieldLogger
}

// Runtime is the assembled prover stack for one network.
type Runtime struct {
	Preset   ChainPreset
	Source   evmcore.HeaderSource
	Prover   *prover.Prover
	Verifier *ismp.Verifier

	// Fake is set on the fake network only.
	Fake *evmcore.FakeChain

	log    logrus.FieldLogger
	closer func()
}

// NewRuntime dials the preset's endpoint, or builds the fake chain, and wires
// the prover and verifier to it.
func NewRuntime(ctx context.Context, cfg RuntimeConfig) (*Runtime, error) {
	if err := cfg.Preset.Validate(); err != nil {
		return nil, fmt.Errorf("preset %s: %w", cfg.Preset.Name, err)
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = prover.NopMetrics()
	}

	rt := &Runtime{
		Preset:   cfg.Preset,
		Verifier: ismp.NewVerifier(trieproof.Keccak256, cfg.Preset.Layout),
		log:      log,
		closer:   func() {},
	}
	var source evmcore.HeaderSource
	if cfg.Preset.IsFake() {
		length := cfg.FakeLength
		if length == 0 {
			length = DefaultFakeLength
		}
		chain, err := evmcore.NewFakeChain(cfg.Preset.Rules, cfg.Preset.ValidatorSize, length, types.EmptyRootHash)
		if err != nil {
			return nil, err
		}
		rt.Fake = chain
		source = chain
		log.WithFields(logrus.Fields{"blocks": length, "validators": cfg.Preset.ValidatorSize}).Info("Built fake chain")
	} else {
		if cfg.Preset.RPCURL == "" {
			return nil, fmt.Errorf("preset %s: no RPC endpoint", cfg.Preset.Name)
		}
		dialCtx := ctx
		if cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()
		}
		client, err := evmcore.DialRPC(dialCtx, cfg.Preset.RPCURL)
		if err != nil {
			return nil, err
		}
		rt.closer = client.Close
		source = client
		log.WithField("url", cfg.Preset.RPCURL).Info("Connected to header source")
	}
	if cfg.RequestTimeout > 0 {
		source = &timeoutSource{HeaderSource: source, timeout: cfg.RequestTimeout}
	}
	rt.Source = source

	p, err := prover.New(cfg.Preset.Rules, source,
		prover.WithMetrics(metrics),
		prover.WithLogger(log.WithField("module", "prover")),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Prover = p
	return rt, nil
}

// ValidatorSize returns the size of the validator set declared by the
// boundary header of epoch. The preset size is used when the boundary header
// cannot be fetched or lists no usable vote keys.
func (rt *Runtime) ValidatorSize(ctx context.Context, epoch idx.Epoch) (int, error) {
	_, validators, err := rt.Prover.EpochValidators(ctx, epoch)
	switch {
	case err == nil:
		return len(validators), nil
	case errors.Is(err, prover.ErrHeaderUnavailable), errors.Is(err, prover.ErrCorruptValidatorEntry):
		rt.log.WithError(err).WithFields(logrus.Fields{
			"epoch":      epoch,
			"validators": rt.Preset.ValidatorSize,
		}).Warn("Declared validator set unavailable, using preset size")
		return rt.Preset.ValidatorSize, nil
	default:
		return 0, err
	}
}

// Close releases the header source connection.
func (rt *Runtime) Close() {
	rt.closer()
}

// timeoutSource bounds each request of the wrapped source.
type timeoutSource struct {
	evmcore.HeaderSource
	timeout time.Duration
}

func (s *timeoutSource) HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.HeaderSource.HeaderByNumber(ctx, number)
}

func (s *timeoutSource) HeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.HeaderSource.HeaderByHash(ctx, hash)
}

func (s *timeoutSource) LatestHeader(ctx context.Context) (*types.Header, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.HeaderSource.LatestHeader(ctx)
}
