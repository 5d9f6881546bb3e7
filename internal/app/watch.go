package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/ports"
)

// Watch defaults.
const (
	DefaultDebounce     = 2 * time.Second
	DefaultWatchRetries = 3
)

// WatchConfig configures watch mode.
type WatchConfig struct {
	// Debounce is how long a mask file must stay quiet before it is processed.
	Debounce time.Duration
	// Retries is how often a case is retried when its image is missing or
	// extraction fails.
	Retries int
	// RetryDelay is the first backoff delay between retries.
	// Defaults to DefaultBackoffInitial.
	RetryDelay time.Duration
	// Existing, when set, preloads rows from a table written earlier.
	Existing ports.TableReader
}

// Watch processes masks as they appear in the labels directory until ctx
// is cancelled. Each processed case replaces its previous row and the table
// is rewritten. Cases are processed one at a time.
func (r *Runner) Watch(ctx context.Context, wc WatchConfig) error {
	if wc.Debounce <= 0 {
		wc.Debounce = DefaultDebounce
	}
	if wc.Retries < 0 {
		wc.Retries = 0
	}
	if wc.RetryDelay <= 0 {
		wc.RetryDelay = DefaultBackoffInitial
	}

	collector := NewCollector()
	tablePath := TablePath(r.config.TableDir, r.config.BatchLabel)
	if wc.Existing != nil {
		records, err := wc.Existing.ReadTable(tablePath)
		switch {
		case err == nil:
			for _, rec := range records {
				collector.Add(rec)
			}
			r.logger.Info("loaded existing table", ports.String("table", tablePath), ports.Int("rows", len(records)))
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("load existing table: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := r.layout.LabelsPath()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	r.logger.Info("watching for masks", ports.String("dir", dir), ports.String("table", tablePath))

	status := domain.RunStatus{
		BatchLabel: r.config.BatchLabel,
		Start:      r.config.Start,
		End:        r.config.End,
		StartedAt:  time.Now().UTC(),
		CasesTotal: r.config.End - r.config.Start,
		Host:       r.config.Host,
	}
	r.saveStatus(ctx, status)

	g, gctx := errgroup.WithContext(ctx)
	queue := make(chan int, 64)
	d := newDebouncer(wc.Debounce)
	defer d.stop()

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
					continue
				}
				idx, ok := r.layout.ParseCaseID(ev.Name)
				if !ok || idx < r.config.Start || idx >= r.config.End {
					continue
				}
				d.trigger(idx, func() {
					select {
					case queue <- idx:
					case <-gctx.Done():
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				r.logger.Warn("watcher error", ports.Err(err))
			}
		}
	})

	g.Go(func() error {
		b := newBackoff(wc.RetryDelay, DefaultBackoffMax)
		for {
			select {
			case <-gctx.Done():
				return nil
			case idx := <-queue:
				if err := r.watchCase(gctx, idx, wc.Retries, b, collector, &status, tablePath); err != nil {
					return err
				}
			}
		}
	})

	err = g.Wait()
	status.FinishedAt = time.Now().UTC()
	r.saveStatus(context.Background(), status)
	return err
}

// watchCase processes one case in watch mode. Case failures are logged and
// recorded; only table write failures are returned.
func (r *Runner) watchCase(
	ctx context.Context,
	idx, retries int,
	b *backoff,
	collector *Collector,
	status *domain.RunStatus,
	tablePath string,
) error {
	c, err := r.layout.Resolve(idx)
	if err != nil {
		r.logger.Warn("skipping mask", ports.Int("index", idx), ports.Err(err))
		return nil
	}

	defer b.Reset()

	var rec *domain.Record
	for attempt := 0; ; attempt++ {
		if _, err = os.Stat(c.ImagePath); err == nil {
			rec, err = r.processCase(ctx, c)
			if err == nil {
				break
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		if attempt >= retries {
			break
		}
		r.logger.Debug("retrying case",
			ports.String("case", c.ID),
			ports.Int("attempt", attempt+1),
			ports.Duration("backoff", b.Current()),
			ports.Err(err),
		)
		if b.Wait(ctx) != nil {
			return nil
		}
	}

	if err != nil {
		r.logger.Error("case failed", ports.String("case", c.ID), ports.Err(err))
		status.MarkCase(c.ID, false)
		status.Error = err.Error()
		r.saveStatus(ctx, *status)
		return nil
	}

	collector.Add(rec)
	if err := r.tables.WriteTable(tablePath, collector.Table()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	status.MarkCase(c.ID, true)
	status.TablePath = tablePath
	r.saveStatus(ctx, *status)
	r.logger.Info("table updated", ports.String("case", c.ID), ports.Int("rows", collector.Len()))
	return nil
}

// debouncer delays a callback per key until events for that key stop.
type debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	timers map[int]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: make(map[int]*time.Timer)}
}

func (d *debouncer) trigger(key int, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
}
