package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"burndown-mcp/internal/jira"

	"github.com/rs/zerolog/log"
)

// Kind tags what a Record holds.
type Kind string

const (
	KindSprint   Kind = "sprint"
	KindIssue    Kind = "issue"
	KindWorklogs Kind = "worklogs"
)

// Record is one line of a snapshot file.
type Record struct {
	Kind      Kind              `json:"kind"`
	Key       string            `json:"key"`
	FetchedAt time.Time         `json:"fetchedAt"`
	Sprint    *jira.SprintDTO   `json:"sprint,omitempty"`
	Issue     *jira.IssueDTO    `json:"issue,omitempty"`
	Worklogs  []jira.WorklogDTO `json:"worklogs,omitempty"`
}

func (r Record) identity() string {
	return string(r.Kind) + "|" + r.Key
}

// SprintSource is the source id holding a sprint's issues and work-logs.
func SprintSource(sprintID int) string {
	return fmt.Sprintf("sprint-%d", sprintID)
}

// BoardSource is the source id holding the operative sprint last resolved for a board.
func BoardSource(boardID int) string {
	return fmt.Sprintf("board-%d", boardID)
}

// Store keeps the last fetched Jira data per source, deduplicated by record identity.
type Store struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{
		records: make(map[string][]Record),
	}
}

// Append merges records into a source. A record with the same kind and key as an existing one
// replaces it when it was fetched later.
func (s *Store) Append(sourceID string, records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.records[sourceID]
	index := make(map[string]int, len(current))
	for i, r := range current {
		index[r.identity()] = i
	}

	changed := 0
	for _, r := range records {
		if i, ok := index[r.identity()]; ok {
			if r.FetchedAt.After(current[i].FetchedAt) {
				current[i] = r
				changed++
			}
			continue
		}
		index[r.identity()] = len(current)
		current = append(current, r)
		changed++
	}
	if changed == 0 {
		return
	}

	sortRecords(current)
	s.records[sourceID] = current
}

// Replace discards everything stored for a source and stores records instead.
func (s *Store) Replace(sourceID string, records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]Record, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.identity()]; dup {
			continue
		}
		seen[r.identity()] = struct{}{}
		fresh = append(fresh, r)
	}
	sortRecords(fresh)
	s.records[sourceID] = fresh
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Kind != records[j].Kind {
			return records[i].Kind < records[j].Kind
		}
		return records[i].Key < records[j].Key
	})
}

// Count returns the number of records stored for a source.
func (s *Store) Count(sourceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[sourceID])
}

// Load reads records from a JSONL cache file for the given source.
func (s *Store) Load(cacheDir string, sourceID string) error {
	path := filepath.Join(cacheDir, sourceID+".jsonl")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No cache yet, not an error
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	// Issues with long changelogs make long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("source", sourceID).Msg("Skipping invalid JSON line in snapshot")
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading snapshot: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(records)).Msg("Loaded snapshot")
	s.Append(sourceID, records)
	return nil
}

// Save persists the records of the given source to a JSONL cache file, atomically.
func (s *Store) Save(cacheDir string, sourceID string) error {
	s.mu.RLock()
	records, ok := s.records[sourceID]
	s.mu.RUnlock()

	if !ok || len(records) == 0 {
		return nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	path := filepath.Join(cacheDir, sourceID+".jsonl")
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode record: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(records)).Msg("Snapshot saved")
	return nil
}
