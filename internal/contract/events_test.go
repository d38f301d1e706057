package contract

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeVaultLog(t *testing.T, event string, user, collateral common.Address, amount *big.Int) types.Log {
	t.Helper()

	data, err := vaultABI.Events[event].Inputs.NonIndexed().Pack(amount)
	require.NoError(t, err)

	return types.Log{
		Address: common.HexToAddress("0x000000000000000000000000000000000000dEaD"),
		Topics: []common.Hash{
			vaultABI.Events[event].ID,
			common.BytesToHash(user.Bytes()),
			common.BytesToHash(collateral.Bytes()),
		},
		Data:        data,
		BlockNumber: 42,
		TxHash:      common.HexToHash("0xabc1"),
	}
}

func TestEventFilterDecode(t *testing.T) {
	filter := NewEventFilter(nil, common.HexToAddress("0xdead"))
	user := common.HexToAddress("0x1111111111111111111111111111111111111111")
	collateral := common.HexToAddress("0x2222222222222222222222222222222222222222")

	for _, name := range vaultEventNames {
		t.Run(name, func(t *testing.T) {
			lg := makeVaultLog(t, name, user, collateral, big.NewInt(2500000))

			record, err := filter.decode(lg)
			require.NoError(t, err)

			assert.Equal(t, name, record.Name)
			assert.Equal(t, user, record.User)
			assert.Equal(t, collateral, record.Collateral)
			assert.Equal(t, uint64(42), record.BlockNumber)
			assert.Equal(t, int64(2500000), record.Amount.Int64())
		})
	}
}

func TestEventFilterDecodeRejectsUnknownTopic(t *testing.T) {
	filter := NewEventFilter(nil, common.HexToAddress("0xdead"))

	lg := types.Log{
		Topics: []common.Hash{
			common.HexToHash("0x1234"),
			common.HexToHash("0x01"),
			common.HexToHash("0x02"),
		},
	}

	_, err := filter.decode(lg)
	assert.Error(t, err)
}

func TestEventFilterDecodeRejectsShortTopics(t *testing.T) {
	filter := NewEventFilter(nil, common.HexToAddress("0xdead"))

	_, err := filter.decode(types.Log{Topics: []common.Hash{vaultABI.Events["TGHSXMinted"].ID}})
	assert.Error(t, err)
}

func TestIsStalePrice(t *testing.T) {
	assert.True(t, IsStalePrice(ErrStalePrice))
	assert.True(t, IsStalePrice(errors.New("execution reverted: PriceStale()")))
	assert.True(t, IsStalePrice(errors.New("execution reverted: stale price data")))
	assert.False(t, IsStalePrice(errors.New("execution reverted: NotAuthorized()")))
	assert.False(t, IsStalePrice(nil))
}

func TestWrapCallErrorMapsStaleRevert(t *testing.T) {
	err := wrapCallError("getUserPosition", errors.New("execution reverted: PriceStale()"))
	assert.ErrorIs(t, err, ErrStalePrice)

	err = wrapCallError("getUserPosition", errors.New("boom"))
	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, "getUserPosition", callErr.Method)
}
