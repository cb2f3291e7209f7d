package parlia

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rony4d/go-ismp-bsc/inter"
	"github.com/rony4d/go-ismp-bsc/inter/validatorpk"
	"github.com/rony4d/go-ismp-bsc/utils/fast"
)

// Extra-data field sizes.
const (
	ExtraVanityLength   = 32
	ExtraSealLength     = crypto.SignatureLength
	ValidatorNumberSize = 1
	ValidatorEntrySize  = common.AddressLength + validatorpk.BLSPublicKeyLength
	// TurnLengthSize is the Bohr turn-length byte following the validator list.
	TurnLengthSize = 1
)

// ErrMalformedExtra is returned for extra-data that does not follow the layout.
var ErrMalformedExtra = errors.New("parlia: malformed header extra-data")

// ValidatorEntry is a validator as it appears in the extra-data of an epoch
// header. The vote key is kept raw so consumers decide how to treat bad keys.
type ValidatorEntry struct {
	Address common.Address
	VoteKey []byte
}

// Extra is the decoded extra-data of a Parlia header.
type Extra struct {
	Vanity [ExtraVanityLength]byte

	// Validators and TurnLength are only present on epoch-boundary headers.
	Validators []ValidatorEntry
	TurnLength uint8

	// Attestation is nil when the header carries no vote.
	Attestation *inter.VoteAttestation

	Seal [ExtraSealLength]byte
}

// VoteData returns the attested vote range, or zero vote data if none.
func (e *Extra) VoteData() inter.VoteData {
	if e.Attestation == nil || e.Attestation.Data == nil {
		return inter.VoteData{}
	}
	return *e.Attestation.Data
}

// ExtraParser extracts the Parlia fields of a header.
type ExtraParser interface {
	Parse(header *types.Header) (*Extra, error)
}

// RulesParser is the ExtraParser for a given set of chain rules.
type RulesParser struct {
	Rules Rules
}

// Parse implements ExtraParser.
func (p RulesParser) Parse(header *types.Header) (*Extra, error) {
	return ParseExtra(p.Rules, header)
}

// ParseExtra decodes header.Extra according to rules.
func ParseExtra(rules Rules, header *types.Header) (*Extra, error) {
	if header == nil || header.Number == nil {
		return nil, fmt.Errorf("%w: header without number", ErrMalformedExtra)
	}
	extra := header.Extra
	if len(extra) < ExtraVanityLength+ExtraSealLength {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedExtra, len(extra), ExtraVanityLength+ExtraSealLength)
	}

	res := &Extra{}
	copy(res.Vanity[:], extra[:ExtraVanityLength])
	copy(res.Seal[:], extra[len(extra)-ExtraSealLength:])

	r := fast.NewReader(extra[ExtraVanityLength : len(extra)-ExtraSealLength])
	number := idx.Block(header.Number.Uint64())
	if rules.IsEpochBoundary(number) {
		if !rules.Upgrades.Luban {
			// Before Luban an epoch header lists bare addresses and carries no vote.
			if err := parseAddresses(r, res); err != nil {
				return nil, fmt.Errorf("%w: block %d: %v", ErrMalformedExtra, number, err)
			}
			return res, nil
		}
		if err := parseValidators(rules, r, res); err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrMalformedExtra, number, err)
		}
	}

	if tail := r.Rest(); len(tail) > 0 {
		att := new(inter.VoteAttestation)
		if err := rlp.DecodeBytes(tail, att); err != nil {
			return nil, fmt.Errorf("%w: block %d: attestation: %v", ErrMalformedExtra, number, err)
		}
		res.Attestation = att
	}
	return res, nil
}

func parseAddresses(r *fast.Reader, res *Extra) error {
	if r.Len()%common.AddressLength != 0 {
		return fmt.Errorf("validator list of %d bytes", r.Len())
	}
	res.Validators = make([]ValidatorEntry, r.Len()/common.AddressLength)
	for i := range res.Validators {
		addr, _ := r.Read(common.AddressLength)
		res.Validators[i].Address = common.BytesToAddress(addr)
	}
	return nil
}

func parseValidators(rules Rules, r *fast.Reader, res *Extra) error {
	n, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("validator count: %w", err)
	}
	res.Validators = make([]ValidatorEntry, n)
	for i := range res.Validators {
		entry, err := r.Read(ValidatorEntrySize)
		if err != nil {
			return fmt.Errorf("validator %d at offset %d: %w", i, ExtraVanityLength+r.Position(), err)
		}
		res.Validators[i].Address = common.BytesToAddress(entry[:common.AddressLength])
		res.Validators[i].VoteKey = common.CopyBytes(entry[common.AddressLength:])
	}
	if rules.Upgrades.Bohr {
		if res.TurnLength, err = r.ReadByte(); err != nil {
			return fmt.Errorf("turn length at offset %d: %w", ExtraVanityLength+r.Position(), err)
		}
	}
	return nil
}

// EncodeExtra is the inverse of ParseExtra for a header at the given number.
// Validator entries must carry keys of exactly BLSPublicKeyLength bytes.
func EncodeExtra(rules Rules, number idx.Block, e *Extra) ([]byte, error) {
	w := fast.NewWriter(make([]byte, 0, ExtraVanityLength+ExtraSealLength+ValidatorNumberSize+len(e.Validators)*ValidatorEntrySize))
	w.Write(e.Vanity[:])

	if rules.IsEpochBoundary(number) && !rules.Upgrades.Luban {
		for _, v := range e.Validators {
			w.Write(v.Address.Bytes())
		}
		w.Write(e.Seal[:])
		return w.Bytes(), nil
	}
	if rules.IsEpochBoundary(number) {
		if len(e.Validators) > 0xff {
			return nil, fmt.Errorf("%w: %d validators", ErrMalformedExtra, len(e.Validators))
		}
		_ = w.WriteByte(byte(len(e.Validators)))
		for i, v := range e.Validators {
			if len(v.VoteKey) != validatorpk.BLSPublicKeyLength {
				return nil, fmt.Errorf("%w: validator %d key is %d bytes", ErrMalformedExtra, i, len(v.VoteKey))
			}
			w.Write(v.Address.Bytes())
			w.Write(v.VoteKey)
		}
		if rules.Upgrades.Bohr {
			_ = w.WriteByte(e.TurnLength)
		}
	}

	if e.Attestation != nil {
		enc, err := rlp.EncodeToBytes(e.Attestation)
		if err != nil {
			return nil, err
		}
		w.Write(enc)
	}
	w.Write(e.Seal[:])
	return w.Bytes(), nil
}
