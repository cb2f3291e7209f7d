package ismp

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-ismp-bsc/trieproof"
)

// testPost is a request sent from Ethereum to Base.
func testPost() *PostRequest {
	return &PostRequest{
		Source:           Ethereum,
		Dest:             Base,
		Nonce:            119,
		From:             common.FromHex("0xD21C7893BD7A96732E65CEB2B9E6DD9CA95846C9"),
		To:               common.FromHex("0x66819E1BBB03760D227745C71FE76C5783A5F810"),
		TimeoutTimestamp: 1707167196,
		Data:             []byte("hello from ETHE"),
		GasLimit:         0,
	}
}

func TestHashPostRequest(t *testing.T) {
	require := require.New(t)
	post := testPost()

	preimage := common.FromHex(
		"45544845" + // ETHE
			"42415345" + // BASE
			"0000000000000077" + // nonce
			"0000000065c14ddc" + // timeout
			"d21c7893bd7a96732e65ceb2b9e6dd9ca95846c9" +
			"66819e1bbb03760d227745c71fe76c5783a5f810" +
			"68656c6c6f2066726f6d2045544845" +
			"0000000000000000") // gas limit
	require.Equal(preimage, post.Preimage())
	require.Equal(crypto.Keccak256Hash(preimage), HashRequest(trieproof.Keccak256, post))
}

func TestHashRequestFieldSensitivity(t *testing.T) {
	base := HashRequest(trieproof.Keccak256, testPost())
	mutations := map[string]func(p *PostRequest){
		"source":  func(p *PostRequest) { p.Source = BSC },
		"dest":    func(p *PostRequest) { p.Dest = Polygon },
		"nonce":   func(p *PostRequest) { p.Nonce++ },
		"timeout": func(p *PostRequest) { p.TimeoutTimestamp++ },
		"from":    func(p *PostRequest) { p.From[0] ^= 1 },
		"to":      func(p *PostRequest) { p.To[0] ^= 1 },
		"data":    func(p *PostRequest) { p.Data = append(p.Data, '!') },
		"gas":     func(p *PostRequest) { p.GasLimit = 1 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := testPost()
			mutate(p)
			require.NotEqual(t, base, HashRequest(trieproof.Keccak256, p))
		})
	}
}

func TestHashGetRequest(t *testing.T) {
	require := require.New(t)
	get := &GetRequest{
		Source:           BSC,
		Dest:             Ethereum,
		Nonce:            1,
		From:             []byte{0xaa},
		Keys:             [][]byte{{0x01}, {0x02, 0x03}},
		Height:           5,
		TimeoutTimestamp: 6,
		GasLimit:         7,
	}
	want := common.FromHex("425343" + "45544845" +
		"0000000000000001" + "0000000000000005" + "0000000000000006" +
		"aa" + "01" + "0203" + "0000000000000007")
	require.Equal(want, get.Preimage())
}

func TestHashPostResponse(t *testing.T) {
	require := require.New(t)
	res := &PostResponse{Post: *testPost(), Response: []byte{0xbe, 0xef}, TimeoutTimestamp: 9, GasLimit: 10}

	want := append(testPost().Preimage(), common.FromHex("beef"+"0000000000000009"+"000000000000000a")...)
	require.Equal(want, res.Preimage())
	require.NotEqual(HashRequest(trieproof.Keccak256, testPost()), HashResponse(trieproof.Keccak256, res))
}

func TestParseStateMachine(t *testing.T) {
	for _, ok := range []string{"ETHE", "ARBI", "OPTI", "BASE", "BSC", "POLY", "POLKADOT-3367", "KUSAMA-2000"} {
		sm, err := ParseStateMachine(ok)
		require.NoError(t, err, ok)
		require.Equal(t, ok, sm.String())
	}
	for _, bad := range []string{"", "eth", "POLKADOT-", "KUSAMA-x", "SOLANA"} {
		_, err := ParseStateMachine(bad)
		require.Error(t, err, bad)
	}
	require.Equal(t, StateMachine("POLKADOT-3367"), Polkadot(3367))
	require.Equal(t, StateMachine("KUSAMA-2000"), Kusama(2000))
}
