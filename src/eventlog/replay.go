package eventlog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/brightpay/ledgercore/src/models"
)

// Handler processes one page of events for a single subscriber.
type Handler func(ctx context.Context, events []models.DomainEvent) error

// ReplayAll drives every named subscriber's handler concurrently, each
// fetching and advancing its own cursor independently, bounded by
// maxConcurrency in-flight subscribers at a time. One subscriber's error
// does not stop the others; all errors are joined and returned together.
func (l *Log) ReplayAll(ctx context.Context, subscribers map[string]Handler, pageSize, maxConcurrency int) error {
	var g errgroup.Group
	g.SetLimit(maxConcurrency)

	var mu sync.Mutex
	var errs []error
	for name, handler := range subscribers {
		name, handler := name, handler
		g.Go(func() error {
			if err := l.drainSubscriber(ctx, name, handler, pageSize); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("subscriber %q: %w", name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// drainSubscriber pages through a subscriber's backlog until a page comes
// back empty, advancing the cursor after each page's handler succeeds.
func (l *Log) drainSubscriber(ctx context.Context, name string, handler Handler, pageSize int) error {
	for {
		page, err := l.GetForSubscriber(ctx, name, pageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if err := handler(ctx, page); err != nil {
			return err
		}
		if err := l.AdvanceSubscriber(ctx, name, page[len(page)-1]); err != nil {
			return err
		}
	}
}
