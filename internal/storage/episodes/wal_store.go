// Package episodes persists per-step episode records in a WAL so runs
// can be inspected and streamed after the fact.
package episodes

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	DefaultDir   = "./wal/episodes"
	segmentLimit = 1000
	maxSegments  = 20

	stepKeyPrefix = "step_"
)

// StepRecord is the serialized outcome of one episode step.
type StepRecord struct {
	EpisodeID    string    `json:"episode_id"`
	T            int       `json:"t"`
	Ticker       string    `json:"ticker"`
	Decision     string    `json:"decision"`
	CcldPrice    string    `json:"ccld_price"`
	CcldQty      string    `json:"ccld_qty"`
	Fee          string    `json:"fee"`
	Reward       string    `json:"reward"`
	PortfolioVal string    `json:"portfolio_val"`
	Done         bool      `json:"done"`
	Msg          string    `json:"msg,omitempty"`
	Time         time.Time `json:"time"`
}

// StepRecordEntry pairs a record with its WAL index for streaming readers.
type StepRecordEntry struct {
	Index  uint64
	Record StepRecord
}

// WALStore persists step records in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed episode store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "episode_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init episode WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save writes a step record to the WAL.
func (s *WALStore) Save(record StepRecord) error {
	if s == nil || s.wal == nil {
		return errors.New("episode store is not initialized")
	}
	if record.EpisodeID == "" {
		return fmt.Errorf("step record episode id is required")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal step record")
	}

	key := fmt.Sprintf("%s%s", stepKeyPrefix, record.EpisodeID)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// RecordsAfter returns all step records written after the provided WAL index.
func (s *WALStore) RecordsAfter(index uint64) ([]StepRecordEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("episode store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	entries := make([]StepRecordEntry, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		_, payload, err := s.wal.Get(idx)
		if err != nil {
			continue
		}

		var record StepRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return nil, errors.Wrap(err, "decode step record")
		}
		entries = append(entries, StepRecordEntry{Index: idx, Record: record})
	}

	return entries, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("episode store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
