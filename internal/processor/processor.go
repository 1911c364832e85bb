// Package processor drains submitted transfers. A single worker loop receives
// transaction ids from the queue and, on every timeout, falls back to scanning
// the store for the oldest NEW transaction, so a transfer whose queue message
// was lost still reaches a terminal state.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/congo-pay/coinledger/internal/ledger"
	"github.com/congo-pay/coinledger/internal/notification"
	"github.com/congo-pay/coinledger/internal/queue"
	"github.com/congo-pay/coinledger/internal/transfer"
)

// DefaultPollTimeout is how long one iteration waits for a queue delivery
// before scanning the store instead.
const DefaultPollTimeout = 2 * time.Second

// ErrStopped is returned by Step once the queue is closed or ctx is done.
var ErrStopped = errors.New("processor stopped")

// Store is the slice of the ledger the processor works against.
type Store interface {
	OldestNewTransaction(ctx context.Context) (ledger.Transaction, error)
	NewTransactionsBefore(ctx context.Context, id int64) ([]ledger.Transaction, error)
	ClaimTransaction(ctx context.Context, id int64) (bool, error)
	SettleTransaction(ctx context.Context, id int64, decide ledger.Decider) (ledger.Transaction, error)
}

// Receiver is the consuming half of a queue.
type Receiver interface {
	Receive(ctx context.Context, timeout time.Duration) (int64, error)
}

// Options tune the worker loop.
type Options struct {
	PollTimeout time.Duration
	// Delay simulates settlement latency between claim and settle.
	Delay time.Duration
}

// Processor moves transactions from NEW to a terminal state.
type Processor struct {
	store    Store
	queue    Receiver
	notifier notification.Notifier
	logger   *slog.Logger
	opts     Options
	sleep    func(time.Duration)
}

// New wires a processor. A nil notifier disables notifications.
func New(store Store, q Receiver, notifier notification.Notifier, logger *slog.Logger, opts Options) *Processor {
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		store:    store,
		queue:    q,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		sleep:    time.Sleep,
	}
}

// Run loops until ctx is cancelled or the queue is closed. Failed iterations
// are logged and retried after one poll interval.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("transaction processor started",
		slog.Duration("poll_timeout", p.opts.PollTimeout),
		slog.Duration("delay", p.opts.Delay),
	)
	defer p.logger.Info("transaction processor stopped")

	for {
		err := p.Step(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, ErrStopped) {
			return nil
		}
		p.logger.Error("processor iteration failed", slog.Any("error", err))

		timer := time.NewTimer(p.opts.PollTimeout)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Step runs one iteration: a queue delivery triggers catch-up of every older
// NEW transaction followed by the delivered one; a timeout processes the
// oldest NEW transaction, if any.
func (p *Processor) Step(ctx context.Context) error {
	if ctx.Err() != nil {
		return ErrStopped
	}

	id, err := p.queue.Receive(ctx, p.opts.PollTimeout)
	switch {
	case err == nil:
		return p.catchUp(ctx, id)
	case errors.Is(err, queue.ErrEmpty):
		return p.fallback(ctx)
	case errors.Is(err, queue.ErrClosed), ctx.Err() != nil:
		return ErrStopped
	default:
		// The store scan still makes progress while the queue is unavailable.
		return errors.Join(fmt.Errorf("receive from queue: %w", err), p.fallback(ctx))
	}
}

func (p *Processor) fallback(ctx context.Context) error {
	tx, err := p.store.OldestNewTransaction(ctx)
	if errors.Is(err, ledger.ErrTransactionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("scan oldest new transaction: %w", err)
	}
	_, _, err = p.Process(ctx, tx.ID)
	return err
}

func (p *Processor) catchUp(ctx context.Context, id int64) error {
	pending, err := p.store.NewTransactionsBefore(ctx, id)
	if err != nil {
		return fmt.Errorf("scan transactions before %d: %w", id, err)
	}
	for _, tx := range pending {
		if _, _, err := p.Process(ctx, tx.ID); err != nil {
			return err
		}
	}
	_, _, err = p.Process(ctx, id)
	return err
}

// Process claims and settles a single transaction. It reports false when the
// transaction does not exist or was already taken. Once claimed, settlement
// runs to completion even if ctx is cancelled.
func (p *Processor) Process(ctx context.Context, id int64) (ledger.Transaction, bool, error) {
	work := context.WithoutCancel(ctx)
	log := p.logger.With(slog.Int64("transaction_id", id))

	claimed, err := p.store.ClaimTransaction(work, id)
	if errors.Is(err, ledger.ErrTransactionNotFound) {
		log.Warn("queued transaction does not exist")
		return ledger.Transaction{}, false, nil
	}
	if err != nil {
		return ledger.Transaction{}, false, fmt.Errorf("claim transaction %d: %w", id, err)
	}
	if !claimed {
		log.Debug("transaction already taken")
		return ledger.Transaction{}, false, nil
	}
	log.Debug("transaction claimed", slog.String("state", string(ledger.StateProcessing)))

	if p.opts.Delay > 0 {
		p.sleep(p.opts.Delay)
	}

	tx, err := p.store.SettleTransaction(work, id, transfer.Decide)
	if err != nil {
		return tx, true, fmt.Errorf("settle transaction %d: %w", id, err)
	}

	if tx.State.IsError() {
		log.Info("transaction rejected",
			slog.String("state", string(tx.State)),
			slog.String("reason", tx.State.Reason()),
			slog.String("detail", tx.Detail),
		)
	} else {
		log.Info("transaction processed",
			slog.String("state", string(tx.State)),
			slog.String("currency", tx.Currency.String()),
			slog.Int64("amount", tx.Amount),
		)
	}
	p.notify(work, tx)
	return tx, true, nil
}

func (p *Processor) notify(ctx context.Context, tx ledger.Transaction) {
	if p.notifier == nil {
		return
	}
	var messages []notification.Message
	if tx.State == ledger.StateDone {
		messages = append(messages,
			notification.Message{
				Kind:          notification.KindTransferCompleted,
				Destination:   userDestination(tx.SourceUserID),
				TransactionID: tx.ID,
				Body:          fmt.Sprintf("sent %d %s to user %d", tx.Amount, tx.Currency, tx.TargetUserID),
			},
			notification.Message{
				Kind:          notification.KindTransferCompleted,
				Destination:   userDestination(tx.TargetUserID),
				TransactionID: tx.ID,
				Body:          fmt.Sprintf("received %d %s from user %d", tx.Amount, tx.Currency, tx.SourceUserID),
			},
		)
	} else {
		messages = append(messages, notification.Message{
			Kind:          notification.KindTransferRejected,
			Destination:   userDestination(tx.SourceUserID),
			TransactionID: tx.ID,
			Body:          tx.Detail,
		})
	}
	for _, msg := range messages {
		if err := p.notifier.Send(ctx, msg); err != nil {
			p.logger.Warn("notification failed",
				slog.Int64("transaction_id", tx.ID),
				slog.String("kind", msg.Kind),
				slog.Any("error", err),
			)
		}
	}
}

func userDestination(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}
