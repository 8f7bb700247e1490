package logger

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap/zapcore"
)

// logEntry keeps the core that produced it so fields added with With
// survive the trip through the queue.
type logEntry struct {
	core   zapcore.Core
	entry  zapcore.Entry
	fields []zapcore.Field
}

type asyncState struct {
	entries   chan logEntry
	flush     chan chan struct{}
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
	dropped   uint64
}

// AsyncCore wraps a zapcore.Core and writes its entries in batches from a
// background goroutine. Entries are dropped when the buffer is full.
type AsyncCore struct {
	core          zapcore.Core
	state         *asyncState
	batchSize     int
	flushInterval time.Duration
}

// NewAsyncCore starts the batching goroutine for core.
// bufferSize: size of the buffered channel
// batchSize: number of log entries per batch
// flushInterval: maximum time to wait before flushing a batch
func NewAsyncCore(core zapcore.Core, bufferSize, batchSize int, flushInterval time.Duration) *AsyncCore {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 || batchSize > bufferSize {
		batchSize = bufferSize / 10
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	ac := &AsyncCore{
		core: core,
		state: &asyncState{
			entries: make(chan logEntry, bufferSize),
			flush:   make(chan chan struct{}),
			quit:    make(chan struct{}),
		},
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}

	ac.state.wg.Add(1)
	go ac.processEntries()

	return ac
}

func (ac *AsyncCore) processEntries() {
	defer ac.state.wg.Done()

	ticker := time.NewTicker(ac.flushInterval)
	defer ticker.Stop()

	batch := make([]logEntry, 0, ac.batchSize)
	write := func() {
		ac.writeBatch(batch)
		batch = batch[:0]
	}
	drain := func() {
		for {
			select {
			case e := <-ac.state.entries:
				batch = append(batch, e)
				if len(batch) >= ac.batchSize {
					write()
				}
			default:
				write()
				return
			}
		}
	}

	for {
		select {
		case e := <-ac.state.entries:
			batch = append(batch, e)
			if len(batch) >= ac.batchSize {
				write()
			}
		case <-ticker.C:
			write()
			ac.reportDropped()
		case done := <-ac.state.flush:
			drain()
			close(done)
		case <-ac.state.quit:
			drain()
			ac.reportDropped()
			return
		}
	}
}

func (ac *AsyncCore) writeBatch(batch []logEntry) {
	for _, e := range batch {
		if err := e.core.Write(e.entry, e.fields); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write log entry: %v\n", err)
		}
	}
}

func (ac *AsyncCore) reportDropped() {
	dropped := atomic.SwapUint64(&ac.state.dropped, 0)
	if dropped == 0 {
		return
	}
	entry := zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Message:    fmt.Sprintf("Dropped %d log entries due to full buffer", dropped),
		Time:       time.Now(),
		LoggerName: "AsyncCore",
	}
	_ = ac.core.Write(entry, nil)
}

// Dropped reports how many entries were discarded since the last report.
func (ac *AsyncCore) Dropped() uint64 {
	return atomic.LoadUint64(&ac.state.dropped)
}

func (ac *AsyncCore) Enabled(level zapcore.Level) bool {
	return ac.core.Enabled(level)
}

func (ac *AsyncCore) With(fields []zapcore.Field) zapcore.Core {
	return &AsyncCore{
		core:          ac.core.With(fields),
		state:         ac.state,
		batchSize:     ac.batchSize,
		flushInterval: ac.flushInterval,
	}
}

func (ac *AsyncCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if ac.Enabled(entry.Level) {
		return checkedEntry.AddCore(entry, ac)
	}
	return checkedEntry
}

// Write enqueues the entry without blocking.
func (ac *AsyncCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	select {
	case <-ac.state.quit:
		return ac.core.Write(entry, fields)
	default:
	}

	select {
	case ac.state.entries <- logEntry{core: ac.core, entry: entry, fields: fields}:
	default:
		atomic.AddUint64(&ac.state.dropped, 1)
	}
	return nil
}

// Sync writes every queued entry and syncs the underlying core. It can be
// called any number of times, also after Close.
func (ac *AsyncCore) Sync() error {
	done := make(chan struct{})
	select {
	case ac.state.flush <- done:
		<-done
	case <-ac.state.quit:
		ac.state.wg.Wait()
	}
	return ac.core.Sync()
}

// Close drains the queue and stops the background goroutine.
func (ac *AsyncCore) Close() {
	ac.state.closeOnce.Do(func() {
		close(ac.state.quit)
	})
	ac.state.wg.Wait()
}
