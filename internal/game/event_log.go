package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize       = 1024
	MaxEventsPerSec       = 1000
	MaxEventsPerSession   = 200
	BatchFlushSize        = 64
	BatchFlushInterval    = 100 * time.Millisecond
	SessionLimiterCleanup = 5 * time.Minute
)

// EventLog is a bounded, rate-limited audit trail flushed to JSONL.
// The ring keeps the most recent events for in-process readers; a writer
// goroutine appends new ones to disk in batches.
type EventLog struct {
	mu      sync.Mutex
	ring    [EventBufferSize]Event
	written uint64 // events ever accepted
	flushed uint64 // events handed to the writer

	globalLimiter   *rate.Limiter
	sessionLimiters sync.Map // map[string]*sessionLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	out      *bufio.Writer
	fileMu   sync.Mutex

	droppedCount uint64
	totalCount   uint64
}

type sessionLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64
}

// NewEventLog creates an idle event log
func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens filePath for append (empty keeps events in memory only) and
// starts the writer and limiter cleanup goroutines.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	el.filePath = filePath
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("open event log %s: %w", filePath, err)
		}
		el.file = file
		el.out = bufio.NewWriter(file)
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()
	return nil
}

// Stop flushes pending events and closes the file
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		if !el.running.Load() {
			return
		}
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.out != nil {
			el.out.Flush()
		}
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit records an event. Returns false when rate limited or not running.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}
	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}
	if event.SessionID != "" && !el.sessionLimiter(event.SessionID).Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	el.mu.Lock()
	el.written++
	event.Sequence = el.written
	el.ring[el.written%EventBufferSize] = event
	if el.written-el.flushed > EventBufferSize {
		// writer fell a full ring behind; the oldest unflushed event is overwritten
		el.flushed = el.written - EventBufferSize
		atomic.AddUint64(&el.droppedCount, 1)
	}
	el.mu.Unlock()

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple builds and records an event
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, sessionID string, payload interface{}) bool {
	return el.Emit(NewEvent(eventType, tickNum, sessionID, payload))
}

// Recent returns up to n of the latest events, oldest first
func (el *EventLog) Recent(n int) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	if n > EventBufferSize {
		n = EventBufferSize
	}
	if uint64(n) > el.written {
		n = int(el.written)
	}
	out := make([]Event, 0, n)
	for seq := el.written - uint64(n) + 1; seq <= el.written && n > 0; seq++ {
		out = append(out, el.ring[seq%EventBufferSize])
	}
	return out
}

func (el *EventLog) sessionLimiter(sessionID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if v, ok := el.sessionLimiters.Load(sessionID); ok {
		e := v.(*sessionLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}
	entry := &sessionLimiterEntry{limiter: rate.NewLimiter(MaxEventsPerSession, MaxEventsPerSession/10)}
	entry.lastUsed.Store(now)
	actual, _ := el.sessionLimiters.LoadOrStore(sessionID, entry)
	return actual.(*sessionLimiterEntry).limiter
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(SessionLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-SessionLimiterCleanup).UnixNano()
			el.sessionLimiters.Range(func(key, value interface{}) bool {
				if value.(*sessionLimiterEntry).lastUsed.Load() < cutoff {
					el.sessionLimiters.Delete(key)
				}
				return true
			})
		}
	}
}

func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.flushed < el.written && len(batch) < BatchFlushSize {
		el.flushed++
		batch = append(batch, el.ring[el.flushed%EventBufferSize])
	}
	return batch
}

func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.out == nil {
		return
	}
	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.out.Write(data)
		el.out.WriteByte('\n')
	}
	if err := el.out.Flush(); err != nil {
		log.Printf("⚠️ Event log flush failed: %v", err)
	}
}

// GetStats returns counters for monitoring
func (el *EventLog) GetStats() map[string]interface{} {
	el.mu.Lock()
	pending := el.written - el.flushed
	el.mu.Unlock()

	return map[string]interface{}{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
		"pending": pending,
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&el.droppedCount)
}

// GetTotalCount returns the number of accepted events
func (el *EventLog) GetTotalCount() uint64 {
	return atomic.LoadUint64(&el.totalCount)
}
