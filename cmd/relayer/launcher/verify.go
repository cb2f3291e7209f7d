package launcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-ismp-bsc/flags"
	"github.com/rony4d/go-ismp-bsc/inter"
	"github.com/rony4d/go-ismp-bsc/ismp"
	"github.com/rony4d/go-ismp-bsc/trieproof"
)

// verifyInput is the document read by the verify command. A batch holds
// either requests (posts and gets) or responses, never both.
type verifyInput struct {
	StateRoot common.Hash     `json:"stateRoot"`
	Host      *common.Address `json:"host,omitempty"`
	Proof     hexutil.Bytes   `json:"proof"`
	Posts     []postJSON      `json:"posts,omitempty"`
	Gets      []getJSON       `json:"gets,omitempty"`
	Responses []responseJSON  `json:"responses,omitempty"`
}

type postJSON struct {
	Source           string        `json:"source"`
	Dest             string        `json:"dest"`
	Nonce            uint64        `json:"nonce"`
	From             hexutil.Bytes `json:"from"`
	To               hexutil.Bytes `json:"to"`
	TimeoutTimestamp uint64        `json:"timeoutTimestamp"`
	Body             hexutil.Bytes `json:"body"`
	GasLimit         uint64        `json:"gasLimit"`
}

type getJSON struct {
	Source           string          `json:"source"`
	Dest             string          `json:"dest"`
	Nonce            uint64          `json:"nonce"`
	From             hexutil.Bytes   `json:"from"`
	Keys             []hexutil.Bytes `json:"keys"`
	Height           uint64          `json:"height"`
	TimeoutTimestamp uint64          `json:"timeoutTimestamp"`
	GasLimit         uint64          `json:"gasLimit"`
}

type responseJSON struct {
	Post             postJSON      `json:"post"`
	Response         hexutil.Bytes `json:"response"`
	TimeoutTimestamp uint64        `json:"timeoutTimestamp"`
	GasLimit         uint64        `json:"gasLimit"`
}

func (p postJSON) request() (*ismp.PostRequest, error) {
	source, err := ismp.ParseStateMachine(p.Source)
	if err != nil {
		return nil, err
	}
	dest, err := ismp.ParseStateMachine(p.Dest)
	if err != nil {
		return nil, err
	}
	return &ismp.PostRequest{
		Source:           source,
		Dest:             dest,
		Nonce:            p.Nonce,
		From:             p.From,
		To:               p.To,
		TimeoutTimestamp: p.TimeoutTimestamp,
		Data:             p.Body,
		GasLimit:         p.GasLimit,
	}, nil
}

func (g getJSON) request() (*ismp.GetRequest, error) {
	source, err := ismp.ParseStateMachine(g.Source)
	if err != nil {
		return nil, err
	}
	dest, err := ismp.ParseStateMachine(g.Dest)
	if err != nil {
		return nil, err
	}
	keys := make([][]byte, len(g.Keys))
	for i, k := range g.Keys {
		keys[i] = k
	}
	return &ismp.GetRequest{
		Source:           source,
		Dest:             dest,
		Nonce:            g.Nonce,
		From:             g.From,
		Keys:             keys,
		Height:           g.Height,
		TimeoutTimestamp: g.TimeoutTimestamp,
		GasLimit:         g.GasLimit,
	}, nil
}

// batch converts the messages of the input, returning their commitments too.
func (in *verifyInput) batch() (ismp.Batch, []common.Hash, error) {
	nrequests := len(in.Posts) + len(in.Gets)
	switch {
	case nrequests > 0 && len(in.Responses) > 0:
		return nil, nil, errors.New("input mixes requests and responses")
	case nrequests == 0 && len(in.Responses) == 0:
		return nil, nil, errors.New("input has no messages")
	}

	var commitments []common.Hash
	if len(in.Responses) > 0 {
		responses := make(ismp.Responses, len(in.Responses))
		for i, r := range in.Responses {
			post, err := r.Post.request()
			if err != nil {
				return nil, nil, fmt.Errorf("response %d: %w", i, err)
			}
			res := &ismp.PostResponse{
				Post:             *post,
				Response:         r.Response,
				TimeoutTimestamp: r.TimeoutTimestamp,
				GasLimit:         r.GasLimit,
			}
			responses[i] = res
			commitments = append(commitments, ismp.HashResponse(trieproof.Keccak256, res))
		}
		return responses, commitments, nil
	}

	requests := make(ismp.Requests, 0, nrequests)
	for i, p := range in.Posts {
		req, err := p.request()
		if err != nil {
			return nil, nil, fmt.Errorf("post %d: %w", i, err)
		}
		requests = append(requests, req)
	}
	for i, g := range in.Gets {
		req, err := g.request()
		if err != nil {
			return nil, nil, fmt.Errorf("get %d: %w", i, err)
		}
		requests = append(requests, req)
	}
	for _, req := range requests {
		commitments = append(commitments, ismp.HashRequest(trieproof.Keccak256, req))
	}
	return requests, commitments, nil
}

type verifyView struct {
	Host        common.Address `json:"host"`
	StateRoot   common.Hash    `json:"stateRoot"`
	Commitments []common.Hash  `json:"commitments"`
	Verified    bool           `json:"verified"`
}

func verifyAction(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	preset, err := cfg.Preset()
	if err != nil {
		return err
	}
	path := ctx.String(flags.InputFlag.Name)
	if path == "" {
		return errors.New("--input is required")
	}
	raw, err := ioutil.ReadFile(resolvePath(path))
	if err != nil {
		return err
	}
	var in verifyInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("input %s: %w", path, err)
	}

	host := preset.Host
	if in.Host != nil {
		host = *in.Host
	}
	if host == (common.Address{}) {
		return errors.New("no host contract address (use --host or the input's host field)")
	}
	items, commitments, err := in.batch()
	if err != nil {
		return err
	}

	verifier := ismp.NewVerifier(trieproof.Keccak256, preset.Layout)
	if err := verifier.VerifyMembership(items, inter.StateCommitment{StateRoot: in.StateRoot}, in.Proof, host); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"host":     host,
		"messages": len(commitments),
	}).Info("Commitments verified")
	return writeJSON(ctx.App.Writer, verifyView{
		Host:        host,
		StateRoot:   in.StateRoot,
		Commitments: commitments,
		Verified:    true,
	})
}
