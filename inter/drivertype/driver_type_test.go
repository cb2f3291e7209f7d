package drivertype

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-ismp-bsc/inter/validatorpk"
)

func TestValidators(t *testing.T) {
	vv := make(Validators, 3)
	for i := range vv {
		vv[i].Address = common.BigToAddress(common.Big1)
		vv[i].VoteKey[0] = byte(i + 1)
	}

	keys := vv.VoteKeys()
	require.Len(t, keys, 3)
	for i, key := range keys {
		require.Equal(t, byte(i+1), key[0])
	}

	indexed := vv.Indexed()
	require.Len(t, indexed, 3)
	require.EqualValues(t, 2, indexed[2].ValidatorID)
	require.Equal(t, vv[2], indexed[2].Validator)

	require.Empty(t, Validators{}.VoteKeys())
	require.Equal(t, validatorpk.BLSPublicKey{}, Validators{{}}.VoteKeys()[0])
}
