package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// vaultEventNames are the vault events the backend mirrors off-chain.
var vaultEventNames = []string{
	"CollateralDeposited",
	"CollateralWithdrawn",
	"TGHSXMinted",
	"TGHSXBurned",
}

// EventRecord is one decoded vault event.
type EventRecord struct {
	Name        string
	TxHash      string
	BlockNumber uint64
	User        common.Address
	Collateral  common.Address
	Amount      *big.Int
}

// EventFilter fetches and decodes vault events over block ranges.
type EventFilter struct {
	provider *RPCProvider
	vault    common.Address
	topics   map[common.Hash]string
}

func NewEventFilter(provider *RPCProvider, vault common.Address) *EventFilter {
	topics := make(map[common.Hash]string, len(vaultEventNames))
	for _, name := range vaultEventNames {
		topics[vaultABI.Events[name].ID] = name
	}
	return &EventFilter{
		provider: provider,
		vault:    vault,
		topics:   topics,
	}
}

// CurrentBlock returns the chain head block number.
func (f *EventFilter) CurrentBlock(ctx context.Context) (uint64, error) {
	var head uint64
	err := f.provider.Do(ctx, func(client *ethclient.Client) error {
		var callErr error
		head, callErr = client.BlockNumber(ctx)
		return callErr
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch chain head: %w", err)
	}
	return head, nil
}

// BlockTimestamp returns the unix timestamp of a block.
func (f *EventFilter) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	var header *types.Header
	err := f.provider.Do(ctx, func(client *ethclient.Client) error {
		var callErr error
		header, callErr = client.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
		return callErr
	})
	if err != nil {
		return 0, fmt.Errorf("failed to fetch header for block %d: %w", number, err)
	}
	return header.Time, nil
}

// FetchEvents returns the decoded vault events emitted in [fromBlock, toBlock],
// ordered as the node returns them (block, then log index).
func (f *EventFilter) FetchEvents(ctx context.Context, fromBlock, toBlock uint64) ([]EventRecord, error) {
	sigs := make([]common.Hash, 0, len(f.topics))
	for _, name := range vaultEventNames {
		sigs = append(sigs, vaultABI.Events[name].ID)
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{f.vault},
		Topics:    [][]common.Hash{sigs},
	}

	var logs []types.Log
	err := f.provider.Do(ctx, func(client *ethclient.Client) error {
		var callErr error
		logs, callErr = client.FilterLogs(ctx, query)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to filter vault logs %d-%d: %w", fromBlock, toBlock, err)
	}

	records := make([]EventRecord, 0, len(logs))
	for _, lg := range logs {
		record, err := f.decode(lg)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// decode turns a raw log into an EventRecord. All four vault events share
// the (user indexed, collateral indexed, amount) shape.
func (f *EventFilter) decode(lg types.Log) (EventRecord, error) {
	if len(lg.Topics) < 3 {
		return EventRecord{}, fmt.Errorf("malformed vault log in tx %s: %d topics", lg.TxHash.Hex(), len(lg.Topics))
	}

	name, ok := f.topics[lg.Topics[0]]
	if !ok {
		return EventRecord{}, fmt.Errorf("unknown vault event topic %s in tx %s", lg.Topics[0].Hex(), lg.TxHash.Hex())
	}

	out, err := vaultABI.Unpack(name, lg.Data)
	if err != nil {
		return EventRecord{}, fmt.Errorf("failed to decode %s event in tx %s: %w", name, lg.TxHash.Hex(), err)
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return EventRecord{}, fmt.Errorf("unexpected %s amount type %T", name, out[0])
	}

	return EventRecord{
		Name:        name,
		TxHash:      lg.TxHash.Hex(),
		BlockNumber: lg.BlockNumber,
		User:        common.BytesToAddress(lg.Topics[1].Bytes()),
		Collateral:  common.BytesToAddress(lg.Topics[2].Bytes()),
		Amount:      amount,
	}, nil
}
