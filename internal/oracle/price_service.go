// Package oracle derives the ETH/GHS price the protocol needs from the two
// Chainlink feeds that exist for it: ETH/USD and USD/GHS.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/logging"
	"github.com/tghsx-backend/internal/retry"
)

const cacheKey = "oracle:eth_ghs"

// ErrFeedStale is returned when a feed's latest round is older than the
// configured maximum age.
var ErrFeedStale = errors.New("price feed data is stale")

// FeedReader reads Chainlink aggregator rounds. Satisfied by
// contract.FeedReader.
type FeedReader interface {
	LatestRound(ctx context.Context, feed common.Address) (*contract.RoundData, error)
}

// Cache stores computed quotes between fetches. Satisfied by
// storage.RedisCache.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Quote is one computed ETH/GHS price. Decimals is inherited from the
// ETH/USD feed.
type Quote struct {
	Price     *big.Int  `json:"-"`
	RawPrice  string    `json:"price"`
	Decimals  uint8     `json:"decimals"`
	FetchedAt time.Time `json:"fetchedAt"`
	Cached    bool      `json:"-"`
}

// Config holds the oracle tuning knobs.
type Config struct {
	EthUsdFeed common.Address
	UsdGhsFeed common.Address
	CacheTTL   time.Duration
	MaxFeedAge time.Duration
	Retries    int
}

// PriceService computes and caches the ETH/GHS cross rate.
type PriceService struct {
	feeds FeedReader
	cache Cache
	cfg   Config
	now   func() time.Time
}

func NewPriceService(feeds FeedReader, cache Cache, cfg Config) *PriceService {
	return &PriceService{
		feeds: feeds,
		cache: cache,
		cfg:   cfg,
		now:   time.Now,
	}
}

// EthGhsPrice returns the current ETH/GHS price, serving from cache while a
// recent quote is within its TTL. Feed reads are retried before failing.
func (s *PriceService) EthGhsPrice(ctx context.Context) (*Quote, error) {
	if quote, ok := s.fromCache(ctx); ok {
		return quote, nil
	}

	var quote *Quote
	retryCfg := &retry.Config{
		MaxAttempts:  s.cfg.Retries,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	}
	err := retry.Do(ctx, retryCfg, func(ctx context.Context, _ int) error {
		var fetchErr error
		quote, fetchErr = s.fetch(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, quote)
	return quote, nil
}

// fetch reads both feeds and combines them:
//
//	ethGhs = ethUsd * usdGhs / 10^usdGhsDecimals
//
// which leaves the result in the ETH/USD feed's decimals.
func (s *PriceService) fetch(ctx context.Context) (*Quote, error) {
	ethUsd, err := s.feeds.LatestRound(ctx, s.cfg.EthUsdFeed)
	if err != nil {
		return nil, fmt.Errorf("failed to read ETH/USD feed: %w", err)
	}
	if err := s.checkFreshness("ETH/USD", ethUsd); err != nil {
		return nil, err
	}

	usdGhs, err := s.feeds.LatestRound(ctx, s.cfg.UsdGhsFeed)
	if err != nil {
		return nil, fmt.Errorf("failed to read USD/GHS feed: %w", err)
	}
	if err := s.checkFreshness("USD/GHS", usdGhs); err != nil {
		return nil, err
	}

	price := new(big.Int).Mul(ethUsd.Answer, usdGhs.Answer)
	price.Quo(price, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(usdGhs.Decimals)), nil))

	return &Quote{
		Price:     price,
		RawPrice:  price.String(),
		Decimals:  ethUsd.Decimals,
		FetchedAt: s.now().UTC(),
	}, nil
}

func (s *PriceService) checkFreshness(feedName string, round *contract.RoundData) error {
	updated := time.Unix(round.UpdatedAt.Int64(), 0)
	if s.now().Sub(updated) > s.cfg.MaxFeedAge {
		return fmt.Errorf("%s feed last updated %s: %w", feedName, updated.UTC().Format(time.RFC3339), ErrFeedStale)
	}
	return nil
}

func (s *PriceService) fromCache(ctx context.Context) (*Quote, bool) {
	raw, found, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		// cache trouble degrades to a fresh fetch
		logging.FromContext(ctx).WithError(err).Warn("Price cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var quote Quote
	if err := json.Unmarshal([]byte(raw), &quote); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Discarding malformed cached quote")
		return nil, false
	}

	price, ok := new(big.Int).SetString(quote.RawPrice, 10)
	if !ok {
		return nil, false
	}
	quote.Price = price
	quote.Cached = true
	return &quote, true
}

func (s *PriceService) toCache(ctx context.Context, quote *Quote) {
	raw, err := json.Marshal(quote)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey, string(raw), s.cfg.CacheTTL); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Price cache write failed")
	}
}
