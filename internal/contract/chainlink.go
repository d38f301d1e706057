package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// RoundData is one Chainlink aggregator reading.
type RoundData struct {
	Answer    *big.Int
	UpdatedAt *big.Int
	Decimals  uint8
}

// FeedReader reads Chainlink price feeds.
type FeedReader struct {
	provider *RPCProvider
}

func NewFeedReader(provider *RPCProvider) *FeedReader {
	return &FeedReader{provider: provider}
}

// LatestRound fetches the newest round of a feed along with the feed's
// decimals. Non-positive answers are rejected; a feed never legitimately
// reports a zero or negative price.
func (f *FeedReader) LatestRound(ctx context.Context, feed common.Address) (*RoundData, error) {
	roundOut, err := f.callFeed(ctx, feed, "latestRoundData")
	if err != nil {
		return nil, err
	}
	if len(roundOut) != 5 {
		return nil, fmt.Errorf("latestRoundData: expected 5 values, got %d", len(roundOut))
	}

	answer := roundOut[1].(*big.Int)
	if answer.Sign() <= 0 {
		return nil, fmt.Errorf("feed %s returned non-positive answer %s", feed.Hex(), answer)
	}

	decOut, err := f.callFeed(ctx, feed, "decimals")
	if err != nil {
		return nil, err
	}

	return &RoundData{
		Answer:    answer,
		UpdatedAt: roundOut[3].(*big.Int),
		Decimals:  decOut[0].(uint8),
	}, nil
}

func (f *FeedReader) callFeed(ctx context.Context, feed common.Address, method string) ([]interface{}, error) {
	data, err := aggregatorABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	var raw []byte
	err = f.provider.Do(ctx, func(client *ethclient.Client) error {
		var callErr error
		raw, callErr = client.CallContract(ctx, ethereum.CallMsg{To: &feed, Data: data}, nil)
		return callErr
	})
	if err != nil {
		return nil, wrapCallError(method, err)
	}

	out, err := aggregatorABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return out, nil
}
