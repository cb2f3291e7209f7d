package launcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-ismp-bsc/flags"
	"github.com/rony4d/go-ismp-bsc/inter"
	"github.com/rony4d/go-ismp-bsc/inter/ier"
	"github.com/rony4d/go-ismp-bsc/inter/validatorpk"
	"github.com/rony4d/go-ismp-bsc/prover"
)

var (
	epochCommand = cli.Command{
		Name:   "epoch",
		Usage:  "Print the epoch boundary and rotation block of a block number for the configured validator set size",
		Flags:  []cli.Flag{flags.BlockFlag},
		Action: epochAction,
	}
	bootstrapCommand = cli.Command{
		Name:   "bootstrap",
		Usage:  "Print the trusted state a light client is initialised with",
		Flags:  []cli.Flag{flags.EpochFlag},
		Action: bootstrapAction,
	}
	updateCommand = cli.Command{
		Name:   "update",
		Usage:  "Build the consensus update for an attested header",
		Flags:  []cli.Flag{flags.BlockFlag, flags.EpochFlag, flags.ForceFlag},
		Action: updateAction,
	}
	watchCommand = cli.Command{
		Name:   "watch",
		Usage:  "Build a consensus update for every new finalized header",
		Flags:  []cli.Flag{flags.IntervalFlag},
		Action: watchAction,
	}
	verifyCommand = cli.Command{
		Name:   "verify",
		Usage:  "Verify ISMP message commitments against a state proof",
		Flags:  []cli.Flag{flags.InputFlag},
		Action: verifyAction,
	}
	dumpConfigCommand = cli.Command{
		Name:   "dumpconfig",
		Usage:  "Print the effective configuration as TOML",
		Action: dumpConfigAction,
	}
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type epochView struct {
	Block            uint64 `json:"block"`
	Epoch            uint64 `json:"epoch"`
	Boundary         uint64 `json:"boundary"`
	RotationBlock    uint64 `json:"rotationBlock"`
	IsBoundary       bool   `json:"isBoundary"`
	InRotationWindow bool   `json:"inRotationWindow"`
}

func epochAction(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	preset, err := cfg.Preset()
	if err != nil {
		return err
	}
	if !ctx.IsSet(flags.BlockFlag.Name) {
		return errors.New("--block is required")
	}
	rules := preset.Rules
	number := idx.Block(ctx.Uint64(flags.BlockFlag.Name))
	epoch := rules.EpochOf(number)
	boundary := rules.EpochStart(epoch)
	rotation := rules.RotationBlock(boundary, preset.ValidatorSize)

	return writeJSON(ctx.App.Writer, epochView{
		Block:            uint64(number),
		Epoch:            uint64(epoch),
		Boundary:         uint64(boundary),
		RotationBlock:    uint64(rotation),
		IsBoundary:       rules.IsEpochBoundary(number),
		InRotationWindow: number >= boundary+2 && number < rotation,
	})
}

type validatorView struct {
	ID      idx.ValidatorID          `json:"id"`
	Address common.Address           `json:"address"`
	VoteKey validatorpk.BLSPublicKey `json:"voteKey"`
}

type bootstrapView struct {
	Epoch       uint64          `json:"epoch"`
	Number      uint64          `json:"number"`
	Hash        common.Hash     `json:"hash"`
	Fingerprint common.Hash     `json:"fingerprint"`
	Header      *types.Header   `json:"header"`
	Validators  []validatorView `json:"validators"`
}

func bootstrapAction(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	c, cancel := signalContext()
	defer cancel()
	rt, cleanup, err := makeRuntime(c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var epoch idx.Epoch
	if ctx.IsSet(flags.EpochFlag.Name) {
		epoch = idx.Epoch(ctx.Uint64(flags.EpochFlag.Name))
	} else {
		head, err := rt.Source.LatestHeader(c)
		if err != nil {
			return err
		}
		epoch = rt.Preset.Rules.EpochOf(idx.Block(head.Number.Uint64()))
	}

	header, validators, err := rt.Prover.EpochValidators(c, epoch)
	if err != nil {
		return err
	}
	record := ier.EpochRecord{Epoch: epoch, Header: header, Validators: validators.VoteKeys()}

	view := bootstrapView{
		Epoch:       uint64(epoch),
		Number:      header.Number.Uint64(),
		Hash:        header.Hash(),
		Fingerprint: common.Hash(record.Hash()),
		Header:      header,
	}
	for _, v := range validators.Indexed() {
		view.Validators = append(view.Validators, validatorView{
			ID:      v.ValidatorID,
			Address: v.Validator.Address,
			VoteKey: v.Validator.VoteKey,
		})
	}
	return writeJSON(ctx.App.Writer, view)
}

type updateView struct {
	Epoch    uint64          `json:"epoch"`
	Attested *types.Header   `json:"attestedHeader"`
	Source   *types.Header   `json:"sourceHeader"`
	Target   *types.Header   `json:"targetHeader"`
	Ancestry []*types.Header `json:"epochHeaderAncestry"`
}

func newUpdateView(epoch idx.Epoch, u *inter.ConsensusUpdate) updateView {
	ancestry := u.EpochHeaderAncestry
	if ancestry == nil {
		ancestry = []*types.Header{}
	}
	return updateView{
		Epoch:    uint64(epoch),
		Attested: u.AttestedHeader,
		Source:   u.SourceHeader,
		Target:   u.TargetHeader,
		Ancestry: ancestry,
	}
}

func updateAction(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	c, cancel := signalContext()
	defer cancel()
	rt, cleanup, err := makeRuntime(c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var attested *types.Header
	if ctx.IsSet(flags.BlockFlag.Name) {
		attested, err = rt.Source.HeaderByNumber(c, ctx.Uint64(flags.BlockFlag.Name))
	} else {
		attested, err = rt.Source.LatestHeader(c)
	}
	if err != nil {
		return err
	}
	epoch := rt.Preset.Rules.EpochOf(idx.Block(attested.Number.Uint64()))
	if ctx.IsSet(flags.EpochFlag.Name) {
		epoch = idx.Epoch(ctx.Uint64(flags.EpochFlag.Name))
	}

	size, err := rt.ValidatorSize(c, epoch)
	if err != nil {
		return err
	}
	update, err := rt.Prover.BuildUpdate(c, attested, size, epoch, ctx.Bool(flags.ForceFlag.Name))
	if err != nil {
		return err
	}
	if update == nil {
		logrus.WithField("block", attested.Number.Uint64()).Warn("Header carries no attestation")
		return writeJSON(ctx.App.Writer, nil)
	}
	return writeJSON(ctx.App.Writer, newUpdateView(epoch, update))
}

func watchAction(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	c, cancel := signalContext()
	defer cancel()
	rt, cleanup, err := makeRuntime(c, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	log := logrus.WithField("module", "watch")
	ticker := time.NewTicker(ctx.Duration(flags.IntervalFlag.Name))
	defer ticker.Stop()

	var lastTarget uint64
	for {
		head, err := rt.Source.LatestHeader(c)
		if err == nil {
			epoch := rt.Preset.Rules.EpochOf(idx.Block(head.Number.Uint64()))
			var update *inter.ConsensusUpdate
			var size int
			if size, err = rt.ValidatorSize(c, epoch); err == nil {
				update, err = rt.Prover.BuildUpdate(c, head, size, epoch, false)
			}
			if err == nil && update != nil && update.TargetHeader.Number.Uint64() > lastTarget {
				lastTarget = update.TargetHeader.Number.Uint64()
				if err := writeJSON(ctx.App.Writer, newUpdateView(epoch, update)); err != nil {
					return err
				}
			}
		}
		switch {
		case err == nil:
		case c.Err() != nil:
			return nil
		case errors.Is(err, prover.ErrHeaderUnavailable):
			log.WithError(err).Warn("Header source unavailable, retrying")
		default:
			return err
		}

		select {
		case <-c.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func dumpConfigAction(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	return toml.NewEncoder(ctx.App.Writer).Encode(&cfg)
}
