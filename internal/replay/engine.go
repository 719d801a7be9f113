package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"barreplay/config"
	"barreplay/internal/feed"
	"barreplay/internal/indicator"
	"barreplay/internal/memorystore"
	"barreplay/pkg/storage/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Supported engine modes. Live data is not wired up; the only data source
// is the CSV feed directory.
const (
	ModeReplay = "replay"
	ModeLive   = "live"
)

var ErrLiveNotImplemented = errors.New("live mode is not implemented")

// ProcessedBar is a bar that went through the processing stage, carrying the
// value of every registered indicator at that point in the stream.
type ProcessedBar struct {
	Bar        feed.Bar
	Indicators map[string]float64
}

// Engine replays OHLCV bars from the feed directory through a two-stage
// pipeline: a fetch goroutine reads bars from the CSV and a process
// goroutine updates indicators, retains bars in memory, and optionally
// persists them.
type Engine struct {
	cfg    *config.Config
	logger *zap.Logger

	reader *feed.Reader
	store  *memorystore.MemoryBarStore
	db     *postgres.PostgresClient // nil when persistence is disabled

	indicators []indicator.Indicator
	runID      string

	incoming  chan feed.Bar
	processed chan ProcessedBar

	stop     chan struct{}
	stopOnce sync.Once
	graceful atomic.Bool
	wg       sync.WaitGroup
	done     chan struct{}

	errMu sync.Mutex
	err   error // error that terminated the fetch stage, if any
}

// NewEngine validates the configured mode, locates and opens the single CSV
// file in the feed directory, and prepares the replay pipeline.
func NewEngine(cfg *config.Config, logger *zap.Logger) (*Engine, error) {
	switch cfg.Replay.Mode {
	case ModeReplay:
	case ModeLive:
		return nil, ErrLiveNotImplemented
	default:
		return nil, fmt.Errorf("invalid mode %q: supported modes are %q, %q",
			cfg.Replay.Mode, ModeReplay, ModeLive)
	}

	path, err := feed.Locate(cfg.Feed.Dir)
	if err != nil {
		return nil, err
	}
	logger.Info("connecting to csv", zap.String("path", path))

	reader, err := feed.Open(path)
	if err != nil {
		return nil, err
	}

	var db *postgres.PostgresClient
	if cfg.Replay.StoreToDB {
		db, err = postgres.InitializeAndMigrateBarRecord(cfg.Postgres, cfg.Log.Environment, true)
		if err != nil {
			reader.Close()
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
	}

	queueSize := cfg.Replay.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}

	return &Engine{
		cfg:       cfg,
		logger:    logger,
		reader:    reader,
		store:     memorystore.NewBarStore(),
		db:        db,
		runID:     uuid.NewString(),
		incoming:  make(chan feed.Bar, queueSize),
		processed: make(chan ProcessedBar, queueSize),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// RunID returns the unique identifier of this replay run.
func (e *Engine) RunID() string { return e.runID }

// Store exposes the in-memory bar store.
func (e *Engine) Store() *memorystore.MemoryBarStore { return e.store }

// Events returns the processed-bar stream. The channel is closed when the
// pipeline ends.
func (e *Engine) Events() <-chan ProcessedBar { return e.processed }

// Done is closed once both pipeline stages have exited.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Err reports the error that terminated the fetch stage, if any. A replay
// that ran to end of data leaves it nil. Stable once Done is closed.
func (e *Engine) Err() error {
	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

func (e *Engine) setErr(err error) {
	e.errMu.Lock()
	e.err = err
	e.errMu.Unlock()
}

// AddIndicator registers an indicator. Call before Connect.
func (e *Engine) AddIndicator(ind indicator.Indicator) {
	e.indicators = append(e.indicators, ind)
}

// NextBar returns the next bar matching the configured symbol, skipping rows
// for other symbols. io.EOF signals end of data.
func (e *Engine) NextBar() (feed.Bar, error) {
	for {
		bar, err := e.reader.Next()
		if err != nil {
			return feed.Bar{}, err
		}
		if bar.Symbol == e.cfg.Feed.Symbol {
			return bar, nil
		}
	}
}

// Connect starts the fetch and process goroutines.
func (e *Engine) Connect() {
	e.logger.Info("engine started",
		zap.String("mode", e.cfg.Replay.Mode),
		zap.String("symbol", e.cfg.Feed.Symbol),
		zap.String("run_id", e.runID))

	e.wg.Add(2)
	go e.fetchLoop()
	go e.processLoop()

	go func() {
		e.wg.Wait()
		close(e.done)
	}()
}

func (e *Engine) fetchLoop() {
	defer e.wg.Done()
	defer close(e.incoming)

	for {
		select {
		case <-e.stop:
			return
		default:
		}

		bar, err := e.NextBar()
		if errors.Is(err, io.EOF) {
			e.logger.Info("end of data reached", zap.String("symbol", e.cfg.Feed.Symbol))
			return
		}
		if err != nil {
			e.setErr(err)
			e.logger.Error("failed to read next bar", zap.Error(err))
			return
		}

		select {
		case e.incoming <- bar:
			e.logger.Debug("enqueued bar", zap.Uint64("ts_event", bar.TsEvent))
		case <-e.stop:
			return
		}
	}
}

func (e *Engine) processLoop() {
	defer e.wg.Done()
	defer close(e.processed)

	for bar := range e.incoming {
		if e.stopped() && !e.graceful.Load() {
			e.logger.Info("process loop stopping immediately")
			return
		}
		e.handleBar(bar)
	}
}

func (e *Engine) handleBar(bar feed.Bar) {
	values := make(map[string]float64, len(e.indicators))
	for _, ind := range e.indicators {
		ind.Update(bar)
		values[ind.Name()] = ind.Value()
	}

	e.store.Add(bar)

	if e.db != nil {
		// context for DB insert (short timeout)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := e.db.InsertBar(ctx, postgres.ToBarRecord(bar, e.runID))
		cancel()
		if err != nil {
			e.logger.Warn("failed to insert bar into DB",
				zap.String("symbol", bar.Symbol), zap.Error(err))
		}
	}

	select {
	case e.processed <- ProcessedBar{Bar: bar, Indicators: values}:
	default:
		// Slow or absent consumer; the bar is still retained in the store.
		e.logger.Debug("event queue full, dropping processed bar event",
			zap.Uint64("ts_event", bar.TsEvent))
	}

	e.logger.Debug("processed bar",
		zap.Uint64("ts_event", bar.TsEvent), zap.String("symbol", bar.Symbol))
}

func (e *Engine) stopped() bool {
	select {
	case <-e.stop:
		return true
	default:
		return false
	}
}

// Stop shuts the pipeline down and releases the feed and DB handles.
// A graceful stop lets the process stage drain bars already queued; a
// non-graceful stop discards them.
func (e *Engine) Stop(graceful bool) {
	e.logger.Info("stopping engine", zap.Bool("graceful", graceful))
	e.graceful.Store(graceful)
	e.stopOnce.Do(func() { close(e.stop) })
	e.wg.Wait()

	e.reader.Close()
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			e.logger.Warn("failed to close DB", zap.Error(err))
		}
	}
	e.logger.Info("engine stopped", zap.String("run_id", e.runID))
}
