package worker

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/models"
)

var (
	wallet1 = "0x1111111111111111111111111111111111111111"
	wallet2 = "0x2222222222222222222222222222222222222222"
	tokenA  = common.HexToAddress("0xaaaAAAaAAaaAAaaAaaaAAAAaaAaAaAAAAaaaaAaA")
	tokenB  = common.HexToAddress("0xBbbbBBbBBbbbBbbBbbbBBbBbbBbBbbbbbbBBbbBB")
)

type fakePositionReader struct {
	tokens    []common.Address
	tokensErr error
	configs   map[common.Address]*contract.CollateralConfig
	positions map[string]*contract.UserPosition
	errs      map[string]error
}

func pairKey(user, collateral common.Address) string {
	return user.Hex() + "|" + collateral.Hex()
}

func (f *fakePositionReader) GetAllCollateralTokens(context.Context) ([]common.Address, error) {
	return f.tokens, f.tokensErr
}

func (f *fakePositionReader) GetCollateralConfig(_ context.Context, token common.Address) (*contract.CollateralConfig, error) {
	cfg, ok := f.configs[token]
	if !ok {
		return nil, errors.New("no config")
	}
	return cfg, nil
}

func (f *fakePositionReader) GetUserPosition(_ context.Context, user, collateral common.Address) (*contract.UserPosition, error) {
	if err := f.errs[pairKey(user, collateral)]; err != nil {
		return nil, err
	}
	if p, ok := f.positions[pairKey(user, collateral)]; ok {
		return p, nil
	}
	zero := big.NewInt(0)
	return &contract.UserPosition{
		CollateralAmount: zero, MintedAmount: zero, CollateralValue: zero,
		CollateralRatio: zero, LastUpdateTime: zero,
	}, nil
}

type fakeProfileSource struct {
	profiles []models.Profile
	err      error
}

func (f *fakeProfileSource) ListLinked(context.Context) ([]models.Profile, error) {
	return f.profiles, f.err
}

type fakeSnapshotSink struct {
	mu    sync.Mutex
	rows  map[string]models.VaultSnapshot // key: userID|collateral
	fails map[string]error
}

func newFakeSnapshotSink() *fakeSnapshotSink {
	return &fakeSnapshotSink{rows: make(map[string]models.VaultSnapshot), fails: make(map[string]error)}
}

func (f *fakeSnapshotSink) Upsert(_ context.Context, snap *models.VaultSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := snap.UserID + "|" + snap.CollateralAddress
	if err := f.fails[key]; err != nil {
		return err
	}
	f.rows[key] = *snap
	return nil
}

type fakeClock struct {
	now time.Time
	ch  chan time.Time
}

func (c *fakeClock) Now() time.Time                       { return c.now }
func (c *fakeClock) After(time.Duration) <-chan time.Time { return c.ch }

func newSyncFixture(t *testing.T) (*VaultSyncWorker, *fakePositionReader, *fakeProfileSource, *fakeSnapshotSink) {
	t.Helper()

	reader := &fakePositionReader{
		tokens: []common.Address{tokenA},
		configs: map[common.Address]*contract.CollateralConfig{
			tokenA: {Enabled: true, Price: big.NewInt(1), PriceDecimals: 8, LastPriceUpdate: big.NewInt(0), Decimals: 18},
			tokenB: {Enabled: true, Price: big.NewInt(1), PriceDecimals: 8, LastPriceUpdate: big.NewInt(0), Decimals: 6},
		},
		positions: map[string]*contract.UserPosition{},
		errs:      map[string]error{},
	}
	profiles := &fakeProfileSource{}
	sink := newFakeSnapshotSink()

	w, err := NewVaultSyncWorker(&VaultSyncConfig{
		Vault:     reader,
		Profiles:  profiles,
		Snapshots: sink,
		Clock:     &fakeClock{now: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
	return w, reader, profiles, sink
}

func TestRunCycleWritesSnapshots(t *testing.T) {
	w, reader, profiles, sink := newSyncFixture(t)

	profiles.profiles = []models.Profile{{UserID: "user-1", WalletAddress: &wallet1}}
	reader.positions[pairKey(common.HexToAddress(wallet1), tokenA)] = &contract.UserPosition{
		CollateralAmount: big.NewInt(2500000000000000000), // 2.5 ETH, 18 decimals
		MintedAmount:     big.NewInt(100000000),           // 100 tGHSX
		CollateralValue:  big.NewInt(150000000),
		CollateralRatio:  big.NewInt(150000000),
		IsLiquidatable:   false,
		LastUpdateTime:   big.NewInt(1700000000),
	}

	require.NoError(t, w.RunCycle(context.Background()))

	snap, ok := sink.rows["user-1|"+tokenA.Hex()]
	require.True(t, ok)
	assert.Equal(t, "2.5", snap.CollateralAmount)
	assert.Equal(t, "100", snap.MintedAmount)
	assert.Equal(t, wallet1, common.HexToAddress(snap.WalletAddress).Hex())
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), snap.LastSyncedAt)
}

func TestRunCycleIsIdempotent(t *testing.T) {
	w, reader, profiles, sink := newSyncFixture(t)

	profiles.profiles = []models.Profile{{UserID: "user-1", WalletAddress: &wallet1}}
	reader.positions[pairKey(common.HexToAddress(wallet1), tokenA)] = &contract.UserPosition{
		CollateralAmount: big.NewInt(1000000000000000000),
		MintedAmount:     big.NewInt(50000000),
		CollateralValue:  big.NewInt(100000000),
		CollateralRatio:  big.NewInt(200000000),
		LastUpdateTime:   big.NewInt(1700000000),
	}

	require.NoError(t, w.RunCycle(context.Background()))
	first := sink.rows["user-1|"+tokenA.Hex()]

	require.NoError(t, w.RunCycle(context.Background()))
	second := sink.rows["user-1|"+tokenA.Hex()]

	assert.Equal(t, first, second)
	assert.Len(t, sink.rows, 1)
}

func TestRunCycleIsolatesPairFailures(t *testing.T) {
	w, reader, profiles, sink := newSyncFixture(t)

	reader.tokens = []common.Address{tokenA, tokenB}
	profiles.profiles = []models.Profile{
		{UserID: "user-1", WalletAddress: &wallet1},
		{UserID: "user-2", WalletAddress: &wallet2},
	}
	// user-1 x tokenA reverts; everything else succeeds
	reader.errs[pairKey(common.HexToAddress(wallet1), tokenA)] = errors.New("execution reverted")

	require.NoError(t, w.RunCycle(context.Background()))

	assert.Len(t, sink.rows, 3)
	_, failedWritten := sink.rows["user-1|"+tokenA.Hex()]
	assert.False(t, failedWritten)

	status := w.GetStatus()
	assert.Equal(t, 3, status.PairsSynced)
	assert.Equal(t, 1, status.PairsFailed)
}

func TestRunCycleIsolatesStoreFailures(t *testing.T) {
	w, reader, profiles, sink := newSyncFixture(t)

	reader.tokens = []common.Address{tokenA, tokenB}
	profiles.profiles = []models.Profile{{UserID: "user-1", WalletAddress: &wallet1}}
	sink.fails["user-1|"+tokenA.Hex()] = errors.New("connection dropped")

	require.NoError(t, w.RunCycle(context.Background()))

	assert.Len(t, sink.rows, 1)
	_, ok := sink.rows["user-1|"+tokenB.Hex()]
	assert.True(t, ok)
}

func TestRunCycleEmptyStatesAreNotErrors(t *testing.T) {
	w, reader, profiles, _ := newSyncFixture(t)

	// no linked wallets
	require.NoError(t, w.RunCycle(context.Background()))

	// wallets but no collaterals
	profiles.profiles = []models.Profile{{UserID: "user-1", WalletAddress: &wallet1}}
	reader.tokens = nil
	require.NoError(t, w.RunCycle(context.Background()))
}

func TestRunCycleFatalWhenProfilesUnavailable(t *testing.T) {
	w, _, profiles, _ := newSyncFixture(t)
	profiles.err = errors.New("store unreachable")

	err := w.RunCycle(context.Background())
	require.Error(t, err)

	status := w.GetStatus()
	assert.NotEmpty(t, status.LastCycleErr)
}

func TestRunCycleFatalWhenChainUnavailable(t *testing.T) {
	w, reader, profiles, _ := newSyncFixture(t)
	profiles.profiles = []models.Profile{{UserID: "user-1", WalletAddress: &wallet1}}
	reader.tokensErr = errors.New("rpc unreachable")

	assert.Error(t, w.RunCycle(context.Background()))
}

func TestStartAndStop(t *testing.T) {
	w, _, profiles, _ := newSyncFixture(t)
	profiles.profiles = []models.Profile{{UserID: "user-1", WalletAddress: &wallet1}}

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx), "double start must fail")

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))
	assert.False(t, w.GetStatus().Running)
	assert.Error(t, w.Stop(stopCtx), "double stop must fail")
}
