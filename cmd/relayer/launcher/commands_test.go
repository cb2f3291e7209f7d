package launcher

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-ismp-bsc/evmcore"
	"github.com/rony4d/go-ismp-bsc/integration"
	"github.com/rony4d/go-ismp-bsc/ismp"
	"github.com/rony4d/go-ismp-bsc/trieproof"
)

// run executes the CLI and returns what it wrote to stdout.
func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"ismp-bsc", "--log.verbosity", "1"}, args...))
	return stdout.Bytes(), err
}

func TestEpochCommand(t *testing.T) {
	require := require.New(t)
	out, err := run(t, "epoch", "--block", "1003")
	require.NoError(err)

	var got epochView
	require.NoError(json.Unmarshal(out, &got))
	require.Equal(epochView{Block: 1003, Epoch: 5, Boundary: 1000, RotationBlock: 1010, InRotationWindow: true}, got)

	out, err = run(t, "--validators", "45", "epoch", "--block", "1200")
	require.NoError(err)
	require.NoError(json.Unmarshal(out, &got))
	require.Equal(epochView{Block: 1200, Epoch: 6, Boundary: 1200, RotationBlock: 1222, IsBoundary: true}, got)

	_, err = run(t, "epoch")
	require.Error(err)
}

func TestBootstrapCommand(t *testing.T) {
	require := require.New(t)
	out, err := run(t, "--network", "fake", "bootstrap")
	require.NoError(err)

	var got bootstrapView
	require.NoError(json.Unmarshal(out, &got))
	require.EqualValues(3, got.Epoch)
	require.EqualValues(600, got.Number)
	require.Equal(got.Header.Hash(), got.Hash)
	require.Len(got.Validators, integration.FakenetPreset().ValidatorSize)
	for i, v := range got.Validators {
		require.EqualValues(i, v.ID)
		require.Equal(evmcore.FakeVoteKey(i+1), v.VoteKey)
	}

	// Case 1: an explicit epoch
	out, err = run(t, "--network", "fake", "bootstrap", "--epoch", "1")
	require.NoError(err)
	require.NoError(json.Unmarshal(out, &got))
	require.EqualValues(200, got.Number)
}

func TestUpdateCommand(t *testing.T) {
	require := require.New(t)

	// Case 1: inside the rotation window the ancestry links the source to the boundary
	out, err := run(t, "--network", "fake", "update", "--block", "605")
	require.NoError(err)
	var got updateView
	require.NoError(json.Unmarshal(out, &got))
	require.EqualValues(3, got.Epoch)
	require.EqualValues(605, got.Attested.Number.Uint64())
	require.EqualValues(603, got.Source.Number.Uint64())
	require.EqualValues(604, got.Target.Number.Uint64())
	require.Len(got.Ancestry, 2)
	require.EqualValues(601, got.Ancestry[0].Number.Uint64())

	// Case 2: the chain head is past the window
	out, err = run(t, "--network", "fake", "update")
	require.NoError(err)
	require.NoError(json.Unmarshal(out, &got))
	require.Empty(got.Ancestry)

	// Case 3: the first blocks carry no attestation
	out, err = run(t, "--network", "fake", "update", "--block", "1")
	require.NoError(err)
	require.Equal("null", string(bytes.TrimSpace(out)))
}

func writeVerifyInput(t *testing.T, in verifyInput) string {
	t.Helper()
	raw, err := json.Marshal(in)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, ioutil.WriteFile(path, raw, 0o600))
	return path
}

func TestVerifyCommand(t *testing.T) {
	require := require.New(t)
	sender := common.HexToAddress("0x66819E1BBB03760D227745C71FE76C5783A5F810")
	post := postJSON{
		Source:           "BSC",
		Dest:             "POLKADOT-3367",
		Nonce:            7,
		From:             sender.Bytes(),
		To:               []byte("ismp-ast"),
		TimeoutTimestamp: 1707039708,
		Body:             hexutil.Bytes{0xde, 0xad},
	}
	req, err := post.request()
	require.NoError(err)
	commitment := ismp.HashRequest(trieproof.Keccak256, req)

	// Commit the request in the host storage of a fake state.
	layout := ismp.DefaultHostLayout()
	fee, senderKey := layout.RequestKeys(trieproof.Keccak256, commitment)
	state := evmcore.NewFakeState()
	root, err := state.ApplyStorage(integration.FakeHost, map[common.Hash]common.Hash{
		fee:       common.BigToHash(common.Big1),
		senderKey: common.BytesToHash(sender.Bytes()),
	})
	require.NoError(err)
	account, storage, err := state.Prove(integration.FakeHost, senderKey)
	require.NoError(err)
	sp := &ismp.EvmStateProof{ContractProof: account, StorageProof: make(map[common.Hash][][]byte)}
	for key, nodes := range storage {
		sp.StorageProof[trieproof.Keccak256.Hash(key[:])] = nodes
	}
	blob, err := sp.Encode()
	require.NoError(err)

	in := verifyInput{StateRoot: root, Proof: blob, Posts: []postJSON{post}}
	out, err := run(t, "--network", "fake", "verify", "--input", writeVerifyInput(t, in))
	require.NoError(err)
	var got verifyView
	require.NoError(json.Unmarshal(out, &got))
	require.True(got.Verified)
	require.Equal(integration.FakeHost, got.Host)
	require.Equal([]common.Hash{commitment}, got.Commitments)

	// Case 1: a request that was never committed
	other := post
	other.Nonce = 8
	in.Posts = []postJSON{other}
	_, err = run(t, "--network", "fake", "verify", "--input", writeVerifyInput(t, in))
	require.Error(err)

	// Case 2: requests and responses in one batch
	in.Posts = []postJSON{post}
	in.Responses = []responseJSON{{Post: post, Response: []byte{1}}}
	_, err = run(t, "--network", "fake", "verify", "--input", writeVerifyInput(t, in))
	require.Error(err)

	// Case 3: no host on mainnet without --host
	in.Responses = nil
	_, err = run(t, "verify", "--input", writeVerifyInput(t, in))
	require.Error(err)
}

func TestDumpConfigCommand(t *testing.T) {
	require := require.New(t)
	out, err := run(t, "--network", "fake", "--validators", "9", "dumpconfig")
	require.NoError(err)

	path := filepath.Join(t.TempDir(), "dumped.toml")
	require.NoError(ioutil.WriteFile(path, out, 0o600))
	cfg, err := runConfigFromArgs(t, []string{"--config", path})
	require.NoError(err)
	require.Equal("fake", cfg.Chain.Network)
	require.Equal(9, cfg.Chain.ValidatorSize)
	// the verbosity flag of run is part of the dump
	require.Equal(1, cfg.Logging.Verbosity)
}
