package service

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/types"
)

var (
	testWallet     = "0x1111111111111111111111111111111111111111"
	testCollateral = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func newMintFixture() (*MintService, *fakeVault, *fakeMintRequests, *fakeProfiles) {
	vault := &fakeVault{
		tokens: []common.Address{testCollateral},
		configs: map[common.Address]*contract.CollateralConfig{
			testCollateral: {
				Enabled:         true,
				Price:           big.NewInt(250000000000),
				PriceDecimals:   8,
				LastPriceUpdate: big.NewInt(1700000000),
				Decimals:        18,
			},
		},
		positions: map[string]*contract.UserPosition{
			positionKey(common.HexToAddress(testWallet), testCollateral): {
				CollateralAmount: big.NewInt(2500000),
				MintedAmount:     big.NewInt(100000000), // 100 tGHSX
				CollateralValue:  big.NewInt(300000000), // 300 GHS worth
				CollateralRatio:  big.NewInt(300000000),
				LastUpdateTime:   big.NewInt(1700000000),
			},
		},
		minRatio: big.NewInt(150000000), // 150%
	}

	requests := newFakeMintRequests()
	profiles := newFakeProfiles()
	profiles.add("user-1", &testWallet)

	return NewMintService(vault, requests, profiles), vault, requests, profiles
}

func TestSubmitCreatesPendingRequest(t *testing.T) {
	svc, _, requests, _ := newMintFixture()

	// 100 existing + 50 new = 150 debt against 300 value: ratio 200% >= 150%
	req, err := svc.Submit(context.Background(), "user-1", testCollateral.Hex(), "50")
	require.NoError(t, err)

	assert.Equal(t, types.MintStatusPending, req.Status)
	assert.Equal(t, "50", req.MintAmount)
	assert.Equal(t, testCollateral.Hex(), req.CollateralAddress)
	assert.Len(t, requests.requests, 1)
}

func TestSubmitRejectsUndercollateralized(t *testing.T) {
	svc, _, requests, _ := newMintFixture()

	// 100 existing + 150 new = 250 debt against 300 value: ratio 120% < 150%
	_, err := svc.Submit(context.Background(), "user-1", testCollateral.Hex(), "150")
	require.Error(t, err)

	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.CodeValidation, svcErr.Code)
	assert.Empty(t, requests.requests)
}

func TestSubmitBoundaryRatioAllowed(t *testing.T) {
	svc, _, _, _ := newMintFixture()

	// 100 existing + 100 new = 200 debt against 300 value: exactly 150%
	_, err := svc.Submit(context.Background(), "user-1", testCollateral.Hex(), "100")
	assert.NoError(t, err)
}

func TestSubmitRequiresLinkedWallet(t *testing.T) {
	svc, _, _, profiles := newMintFixture()
	profiles.add("user-2", nil)

	_, err := svc.Submit(context.Background(), "user-2", testCollateral.Hex(), "10")
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.CodeValidation, svcErr.Code)
}

func TestSubmitRejectsDisabledCollateral(t *testing.T) {
	svc, vault, _, _ := newMintFixture()
	vault.configs[testCollateral].Enabled = false

	_, err := svc.Submit(context.Background(), "user-1", testCollateral.Hex(), "10")
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.CodeValidation, svcErr.Code)
}

func TestSubmitRejectsBadAmounts(t *testing.T) {
	svc, _, _, _ := newMintFixture()

	for _, amount := range []string{"", "abc", "-5", "0", "1.2345678"} {
		_, err := svc.Submit(context.Background(), "user-1", testCollateral.Hex(), amount)
		assert.Error(t, err, "amount %q", amount)
	}
}

func TestSubmitSurfacesStalePrice(t *testing.T) {
	svc, vault, _, _ := newMintFixture()
	vault.readErr = contract.ErrStalePrice

	_, err := svc.Submit(context.Background(), "user-1", testCollateral.Hex(), "10")
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.CodeStalePrice, svcErr.Code)
}

func TestApproveAndDecline(t *testing.T) {
	svc, _, requests, _ := newMintFixture()
	ctx := context.Background()

	first, err := svc.Submit(ctx, "user-1", testCollateral.Hex(), "10")
	require.NoError(t, err)
	second, err := svc.Submit(ctx, "user-1", testCollateral.Hex(), "10")
	require.NoError(t, err)

	require.NoError(t, svc.Approve(ctx, first.ID))
	require.NoError(t, svc.Decline(ctx, second.ID, "insufficient history"))

	assert.Equal(t, types.MintStatusApproved, requests.requests[first.ID].Status)
	assert.Equal(t, types.MintStatusDeclined, requests.requests[second.ID].Status)
	require.NotNil(t, requests.requests[second.ID].ErrorMessage)
	assert.Equal(t, "insufficient history", *requests.requests[second.ID].ErrorMessage)

	// deciding twice fails
	err = svc.Approve(ctx, first.ID)
	var svcErr *types.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, types.CodeNotFound, svcErr.Code)
}

func TestPendingListsOnlyPending(t *testing.T) {
	svc, _, _, _ := newMintFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, "user-1", testCollateral.Hex(), "10")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "user-1", testCollateral.Hex(), "20")
	require.NoError(t, err)
	require.NoError(t, svc.Approve(ctx, req.ID))

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, "20", pending[0].MintAmount)
}
