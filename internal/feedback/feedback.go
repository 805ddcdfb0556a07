// Package feedback persists submitted feedback as an append-only log backed
// by a single pretty-printed JSON array on disk.
package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Record is one piece of submitted feedback. Records are immutable once
// stored; there is no update or delete.
type Record struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// ErrMissingField is returned when a record lacks text or timestamp. The log
// is never mutated for such a record.
var ErrMissingField = errors.New("text and timestamp are required")

// Log is a file-backed ordered list of records. Appends within one process
// are serialized; concurrent writers from separate processes are out of
// scope (the server is the single writer).
type Log struct {
	mu   sync.Mutex
	path string
}

// Open prepares the log at path, creating an empty one if the file is
// absent.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}

	l := &Log{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := l.write([]Record{}); err != nil {
			return nil, fmt.Errorf("initialize log: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	return l, nil
}

// Append validates the record and adds it to the end of the log, preserving
// the order of all prior records. The rewrite goes through a temp file and
// rename so a crash mid-write never loses the existing log.
func (l *Log) Append(rec Record) error {
	if rec.Text == "" || rec.Timestamp == "" {
		return ErrMissingField
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.load()
	records = append(records, rec)
	return l.write(records)
}

// Records returns every stored record in append order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// load reads the whole log. An unreadable or unparseable file is treated as
// empty rather than failing the request; the affected content is lost on the
// next append.
func (l *Log) load() []Record {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("feedback: log unreadable, treating as empty: %v", err)
		}
		return []Record{}
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		log.Printf("feedback: log corrupt, treating as empty: %v", err)
		return []Record{}
	}
	return records
}

func (l *Log) write(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal log: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace log: %w", err)
	}
	return nil
}
