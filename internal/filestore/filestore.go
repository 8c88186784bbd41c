// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filestore hands out one-time tokens for generated artifacts.
// A report is stored under a fresh ID and evicted when it is collected,
// so the server never accumulates stale downloads.
package filestore

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one stored artifact.
type Entry struct {
	Name     string // suggested download filename
	MIME     string
	Data     []byte
	StoredAt time.Time
}

// Store is an in-memory artifact store safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Put stores an artifact and returns its retrieval ID.
func (s *Store) Put(name, mime string, data []byte) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = Entry{Name: name, MIME: mime, Data: data, StoredAt: time.Now()}
	return id
}

// Take retrieves an artifact and removes it from the store. A second
// Take with the same ID fails.
func (s *Store) Take(id string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("no artifact with id %q", id)
	}
	delete(s.entries, id)
	return entry, nil
}

// Len reports the number of stored artifacts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
