package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/storage"
)

var (
	ethUsdFeed = common.HexToAddress("0x1000000000000000000000000000000000000001")
	usdGhsFeed = common.HexToAddress("0x1000000000000000000000000000000000000002")
)

type fakeFeedReader struct {
	rounds map[common.Address]*contract.RoundData
	errs   map[common.Address]error
	calls  int
}

func (f *fakeFeedReader) LatestRound(_ context.Context, feed common.Address) (*contract.RoundData, error) {
	f.calls++
	if err := f.errs[feed]; err != nil {
		return nil, err
	}
	round, ok := f.rounds[feed]
	if !ok {
		return nil, errors.New("unknown feed")
	}
	return round, nil
}

func newService(t *testing.T, feeds *fakeFeedReader) (*PriceService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := storage.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })

	svc := NewPriceService(feeds, cache, Config{
		EthUsdFeed: ethUsdFeed,
		UsdGhsFeed: usdGhsFeed,
		CacheTTL:   time.Minute,
		MaxFeedAge: time.Hour,
		Retries:    3,
	})
	return svc, mr
}

func freshFeeds(now time.Time) *fakeFeedReader {
	updated := big.NewInt(now.Unix())
	return &fakeFeedReader{
		rounds: map[common.Address]*contract.RoundData{
			// ETH/USD = 2500.00000000 (8 decimals)
			ethUsdFeed: {Answer: big.NewInt(250000000000), UpdatedAt: updated, Decimals: 8},
			// USD/GHS = 15.50000000 (8 decimals)
			usdGhsFeed: {Answer: big.NewInt(1550000000), UpdatedAt: updated, Decimals: 8},
		},
		errs: map[common.Address]error{},
	}
}

func TestEthGhsPriceCombinesFeeds(t *testing.T) {
	now := time.Now()
	svc, _ := newService(t, freshFeeds(now))

	quote, err := svc.EthGhsPrice(context.Background())
	require.NoError(t, err)

	// 2500 * 15.5 = 38750 GHS, in the ETH/USD feed's 8 decimals
	assert.Equal(t, "3875000000000", quote.Price.String())
	assert.Equal(t, uint8(8), quote.Decimals)
	assert.False(t, quote.Cached)
}

func TestEthGhsPriceServesFromCache(t *testing.T) {
	feeds := freshFeeds(time.Now())
	svc, _ := newService(t, feeds)
	ctx := context.Background()

	_, err := svc.EthGhsPrice(ctx)
	require.NoError(t, err)
	callsAfterFirst := feeds.calls

	quote, err := svc.EthGhsPrice(ctx)
	require.NoError(t, err)
	assert.True(t, quote.Cached)
	assert.Equal(t, "3875000000000", quote.Price.String())
	assert.Equal(t, callsAfterFirst, feeds.calls, "cached quote must not hit the feeds")
}

func TestEthGhsPriceRefetchesAfterTTL(t *testing.T) {
	feeds := freshFeeds(time.Now())
	svc, mr := newService(t, feeds)
	ctx := context.Background()

	_, err := svc.EthGhsPrice(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	quote, err := svc.EthGhsPrice(ctx)
	require.NoError(t, err)
	assert.False(t, quote.Cached)
}

func TestEthGhsPriceRejectsStaleFeed(t *testing.T) {
	feeds := freshFeeds(time.Now())
	feeds.rounds[usdGhsFeed].UpdatedAt = big.NewInt(time.Now().Add(-2 * time.Hour).Unix())
	svc, _ := newService(t, feeds)

	_, err := svc.EthGhsPrice(context.Background())
	assert.ErrorIs(t, err, ErrFeedStale)
}

func TestEthGhsPriceRetriesTransientErrors(t *testing.T) {
	feeds := freshFeeds(time.Now())
	svc, _ := newService(t, feeds)

	failures := 0
	svc.feeds = feedFunc(func(ctx context.Context, feed common.Address) (*contract.RoundData, error) {
		if feed == ethUsdFeed && failures < 1 {
			failures++
			return nil, errors.New("connection reset")
		}
		return feeds.LatestRound(ctx, feed)
	})

	quote, err := svc.EthGhsPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3875000000000", quote.Price.String())
	assert.Equal(t, 1, failures)
}

type feedFunc func(ctx context.Context, feed common.Address) (*contract.RoundData, error)

func (f feedFunc) LatestRound(ctx context.Context, feed common.Address) (*contract.RoundData, error) {
	return f(ctx, feed)
}
