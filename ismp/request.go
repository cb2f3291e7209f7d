// Package ismp implements the parts of the Interoperable State Machine
// Protocol needed to prove that messages were committed by the host contract
// of an EVM chain: message commitments, the host storage layout, the state
// proof wire format and membership verification against a state root.
package ismp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-ismp-bsc/trieproof"
)

// StateMachine identifies a chain taking part in ISMP. Its string form is
// part of every commitment preimage.
type StateMachine string

const (
	Ethereum StateMachine = "ETHE"
	Arbitrum StateMachine = "ARBI"
	Optimism StateMachine = "OPTI"
	Base     StateMachine = "BASE"
	BSC      StateMachine = "BSC"
	Polygon  StateMachine = "POLY"
)

// Polkadot returns the id of a parachain on Polkadot.
func Polkadot(paraID uint32) StateMachine {
	return StateMachine("POLKADOT-" + strconv.FormatUint(uint64(paraID), 10))
}

// Kusama returns the id of a parachain on Kusama.
func Kusama(paraID uint32) StateMachine {
	return StateMachine("KUSAMA-" + strconv.FormatUint(uint64(paraID), 10))
}

// ParseStateMachine validates a state machine id.
func ParseStateMachine(s string) (StateMachine, error) {
	switch sm := StateMachine(s); sm {
	case Ethereum, Arbitrum, Optimism, Base, BSC, Polygon:
		return sm, nil
	}
	for _, prefix := range []string{"POLKADOT-", "KUSAMA-"} {
		if id := strings.TrimPrefix(s, prefix); id != s {
			if _, err := strconv.ParseUint(id, 10, 32); err != nil {
				return "", fmt.Errorf("state machine %q: bad para id", s)
			}
			return StateMachine(s), nil
		}
	}
	return "", fmt.Errorf("unknown state machine %q", s)
}

func (sm StateMachine) String() string { return string(sm) }

// Request is a message whose commitment is stored by the source host.
type Request interface {
	// Preimage is the canonical byte string the commitment is hashed from.
	Preimage() []byte
}

// Response is an answer to a request, committed by the responding host.
type Response interface {
	Preimage() []byte
}

// PostRequest asks the destination to deliver Data to the To module.
type PostRequest struct {
	Source           StateMachine
	Dest             StateMachine
	Nonce            uint64
	From             []byte
	To               []byte
	TimeoutTimestamp uint64 // seconds, 0 = no timeout
	Data             []byte
	GasLimit         uint64
}

// Preimage implements Request.
func (r *PostRequest) Preimage() []byte {
	return concat(
		[]byte(r.Source),
		[]byte(r.Dest),
		bigendian.Uint64ToBytes(r.Nonce),
		bigendian.Uint64ToBytes(r.TimeoutTimestamp),
		r.From,
		r.To,
		r.Data,
		bigendian.Uint64ToBytes(r.GasLimit),
	)
}

// GetRequest asks for the values of storage Keys of the destination at Height.
type GetRequest struct {
	Source           StateMachine
	Dest             StateMachine
	Nonce            uint64
	From             []byte
	Keys             [][]byte
	Height           uint64
	TimeoutTimestamp uint64
	GasLimit         uint64
}

// Preimage implements Request.
func (r *GetRequest) Preimage() []byte {
	parts := [][]byte{
		[]byte(r.Source),
		[]byte(r.Dest),
		bigendian.Uint64ToBytes(r.Nonce),
		bigendian.Uint64ToBytes(r.Height),
		bigendian.Uint64ToBytes(r.TimeoutTimestamp),
		r.From,
	}
	parts = append(parts, r.Keys...)
	parts = append(parts, bigendian.Uint64ToBytes(r.GasLimit))
	return concat(parts...)
}

// PostResponse answers a PostRequest.
type PostResponse struct {
	Post             PostRequest
	Response         []byte
	TimeoutTimestamp uint64
	GasLimit         uint64
}

// Preimage implements Response.
func (r *PostResponse) Preimage() []byte {
	return concat(
		r.Post.Preimage(),
		r.Response,
		bigendian.Uint64ToBytes(r.TimeoutTimestamp),
		bigendian.Uint64ToBytes(r.GasLimit),
	)
}

// HashRequest returns the commitment of a request.
func HashRequest(h trieproof.Hasher, req Request) common.Hash {
	return h.Hash(req.Preimage())
}

// HashResponse returns the commitment of a response.
func HashResponse(h trieproof.Hasher, res Response) common.Hash {
	return h.Hash(res.Preimage())
}

func concat(parts ...[]byte) []byte {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]byte, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
