package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tghsx-backend/internal/contract"
	"github.com/tghsx-backend/internal/logging"
	"github.com/tghsx-backend/internal/models"
	"github.com/tghsx-backend/internal/storage"
	"github.com/tghsx-backend/internal/types"
)

const listenerName = "vault_event_listener"

// EventSource fetches decoded vault events. Satisfied by
// contract.EventFilter.
type EventSource interface {
	CurrentBlock(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	FetchEvents(ctx context.Context, fromBlock, toBlock uint64) ([]contract.EventRecord, error)
}

// WalletResolver maps a wallet address back to the owning user.
type WalletResolver interface {
	GetByWallet(ctx context.Context, wallet string) (*models.Profile, error)
}

// TransactionSink persists mirrored events.
type TransactionSink interface {
	Upsert(ctx context.Context, tx *models.Transaction) error
}

// ProgressStore remembers the last block the listener finished.
type ProgressStore interface {
	GetLastBlock(ctx context.Context, workerName string) (uint64, error)
	SetLastBlock(ctx context.Context, workerName string, block uint64) error
}

// EventListener tails the vault's events and mirrors them into the
// transactions table. Progress survives restarts via worker_progress, and
// the upsert-by-hash write makes rescanning a block range harmless.
type EventListener struct {
	source       EventSource
	profiles     WalletResolver
	transactions TransactionSink
	progress     ProgressStore
	pollInterval time.Duration
	maxBlocks    uint64
	clock        Clock

	mu        sync.RWMutex
	running   bool
	lastBlock uint64

	stopCh chan struct{}
	doneCh chan struct{}
}

// EventListenerConfig holds configuration for the event listener
type EventListenerConfig struct {
	Source       EventSource
	Profiles     WalletResolver
	Transactions TransactionSink
	Progress     ProgressStore
	PollInterval time.Duration // default 15 seconds
	MaxBlocks    int           // max blocks per poll, default 30
	Clock        Clock
}

// NewEventListener creates a new event listener
func NewEventListener(cfg *EventListenerConfig) (*EventListener, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("event source cannot be nil")
	}
	if cfg.Profiles == nil {
		return nil, fmt.Errorf("wallet resolver cannot be nil")
	}
	if cfg.Transactions == nil {
		return nil, fmt.Errorf("transaction sink cannot be nil")
	}
	if cfg.Progress == nil {
		return nil, fmt.Errorf("progress store cannot be nil")
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	maxBlocks := cfg.MaxBlocks
	if maxBlocks <= 0 {
		maxBlocks = 30
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &EventListener{
		source:       cfg.Source,
		profiles:     cfg.Profiles,
		transactions: cfg.Transactions,
		progress:     cfg.Progress,
		pollInterval: pollInterval,
		maxBlocks:    uint64(maxBlocks), // #nosec G115 - validated positive
		clock:        clock,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}, nil
}

// Start resumes from the persisted block (or the chain head on first run)
// and launches the poll loop.
func (l *EventListener) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("event listener is already running")
	}
	l.running = true
	l.mu.Unlock()

	log := logging.FromContext(ctx)

	lastBlock, err := l.progress.GetLastBlock(ctx, listenerName)
	if err != nil {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		return fmt.Errorf("failed to load listener progress: %w", err)
	}
	if lastBlock == 0 {
		head, err := l.source.CurrentBlock(ctx)
		if err != nil {
			l.mu.Lock()
			l.running = false
			l.mu.Unlock()
			return fmt.Errorf("failed to fetch chain head: %w", err)
		}
		lastBlock = head
		log.WithField("block", head).Info("Event listener starting at chain head")
	} else {
		log.WithField("block", lastBlock).Info("Event listener resuming from saved block")
	}

	l.mu.Lock()
	l.lastBlock = lastBlock
	l.mu.Unlock()

	go l.loop(ctx)
	return nil
}

// Stop signals the loop and waits for it to exit.
func (l *EventListener) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return fmt.Errorf("event listener is not running")
	}
	l.mu.Unlock()

	close(l.stopCh)

	select {
	case <-l.doneCh:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
	return nil
}

func (l *EventListener) loop(ctx context.Context) {
	defer close(l.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-l.clock.After(l.pollInterval):
		}

		if err := l.Poll(ctx); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Event poll failed, will retry")
		}
	}
}

// Poll processes up to maxBlocks new blocks and advances the persisted
// high-water mark.
func (l *EventListener) Poll(ctx context.Context) error {
	head, err := l.source.CurrentBlock(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch chain head: %w", err)
	}

	l.mu.RLock()
	from := l.lastBlock + 1
	l.mu.RUnlock()

	if head < from {
		return nil
	}

	to := head
	if to-from+1 > l.maxBlocks {
		to = from + l.maxBlocks - 1
	}

	events, err := l.source.FetchEvents(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to fetch events %d-%d: %w", from, to, err)
	}

	log := logging.FromContext(ctx)
	timestamps := make(map[uint64]time.Time)
	failed := 0
	for _, event := range events {
		if err := l.mirror(ctx, event, timestamps); err != nil {
			failed++
			log.WithError(err).WithFields(map[string]interface{}{
				"tx_hash": event.TxHash,
				"event":   event.Name,
			}).Warn("Failed to mirror event")
		}
	}

	// Progress only advances past fully-mirrored ranges. A transient store
	// failure leaves the high-water mark in place so the next poll rescans
	// the same blocks; the upsert-by-hash write makes the replay harmless.
	if failed > 0 {
		return fmt.Errorf("failed to mirror %d of %d events in blocks %d-%d", failed, len(events), from, to)
	}

	if err := l.progress.SetLastBlock(ctx, listenerName, to); err != nil {
		return fmt.Errorf("failed to persist listener progress: %w", err)
	}

	l.mu.Lock()
	l.lastBlock = to
	l.mu.Unlock()

	if len(events) > 0 {
		log.WithFields(map[string]interface{}{
			"from":   from,
			"to":     to,
			"events": len(events),
		}).Info("Mirrored vault events")
	}
	return nil
}

// mirror resolves the event's wallet to a user and upserts the transaction
// row. Events from wallets with no profile are skipped.
func (l *EventListener) mirror(ctx context.Context, event contract.EventRecord, timestamps map[uint64]time.Time) error {
	profile, err := l.profiles.GetByWallet(ctx, event.User.Hex())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("wallet lookup failed: %w", err)
	}

	blockTime, ok := timestamps[event.BlockNumber]
	if !ok {
		ts, err := l.source.BlockTimestamp(ctx, event.BlockNumber)
		if err != nil {
			return fmt.Errorf("block timestamp lookup failed: %w", err)
		}
		blockTime = time.Unix(int64(ts), 0).UTC() // #nosec G115 - chain timestamps fit int64
		timestamps[event.BlockNumber] = blockTime
	}

	return l.transactions.Upsert(ctx, &models.Transaction{
		TxHash:    event.TxHash,
		UserID:    profile.UserID,
		EventName: types.EventName(event.Name),
		EventData: map[string]string{
			"wallet":     event.User.Hex(),
			"collateral": event.Collateral.Hex(),
			"amount":     event.Amount.String(),
		},
		BlockNumber:    event.BlockNumber,
		BlockTimestamp: blockTime,
	})
}

// LastBlock returns the listener's current high-water mark.
func (l *EventListener) LastBlock() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastBlock
}
