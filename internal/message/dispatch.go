package message

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/sermonario/internal/metrics"
)

// Delivery pairs a message with the channel that carries it.  A nil
// Notifier means the channel is not configured; the delivery is skipped.
type Delivery struct {
	Via Notifier
	Msg Message
}

// Dispatcher sends deliveries in the background.
type Dispatcher struct {
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher returns a dispatcher whose batches run under timeout.
func NewDispatcher(log *zap.Logger, timeout time.Duration) *Dispatcher {
	if log == nil {
		log = zap.L()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{log: log.Named("notify"), timeout: timeout}
}

// Dispatch starts the batch and returns immediately.  Errors are logged and
// counted, never returned.
func (d *Dispatcher) Dispatch(batch ...Delivery) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		d.run(ctx, batch)
	}()
}

// Wait blocks until every started batch has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Report summarises a batch sent with Deliver.
type Report struct {
	Total  int      `json:"total"`
	Sent   int      `json:"sent"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}

// ErrNoChannel marks a delivery whose channel is not configured.
var ErrNoChannel = errors.New("message: channel not configured")

// Deliver sends batch and waits for it, with at most limit sends in flight.
// Each send gets the dispatcher timeout.  Unlike Dispatch, a delivery with
// no channel counts as failed.
func (d *Dispatcher) Deliver(ctx context.Context, limit int, batch ...Delivery) Report {
	errs := make([]error, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, dl := range batch {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, d.timeout)
			defer cancel()
			errs[i] = d.send(sctx, dl)
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{Total: len(batch), Errors: []string{}}
	for i, err := range errs {
		if err != nil {
			rep.Failed++
			rep.Errors = append(rep.Errors, batch[i].Msg.To+": "+err.Error())
			continue
		}
		rep.Sent++
	}
	return rep
}

func (d *Dispatcher) run(ctx context.Context, batch []Delivery) {
	var g errgroup.Group
	for _, dl := range batch {
		if dl.Via == nil {
			continue
		}
		g.Go(func() error { return d.send(ctx, dl) })
	}
	if err := g.Wait(); err != nil {
		d.log.Info("notification batch finished with failures", zap.Error(err))
	}
}

func (d *Dispatcher) send(ctx context.Context, dl Delivery) error {
	if dl.Via == nil {
		return ErrNoChannel
	}
	channel := dl.Via.Channel()
	if err := dl.Via.Send(ctx, dl.Msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues(channel, "error").Inc()
		d.log.Warn("notification failed", zap.String("channel", channel), zap.Error(err))
		return err
	}
	metrics.NotificationsTotal.WithLabelValues(channel, "sent").Inc()
	d.log.Debug("notification sent", zap.String("channel", channel))
	return nil
}
