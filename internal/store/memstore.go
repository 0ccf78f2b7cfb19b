package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"tabletop/internal/room"
)

// MemoryStore keeps rooms and state records in process. A single mutex
// makes SaveIfVersion an atomic compare-and-swap.
type MemoryStore struct {
	mu      sync.RWMutex
	rooms   map[string]*room.Room
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:   map[string]*room.Room{},
		records: map[string]*Record{},
	}
}

// ===== Rooms

func (m *MemoryStore) GetRoom(id string) (*room.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

func (m *MemoryStore) SaveRoom(r *room.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = r.Clone()
}

func (m *MemoryStore) DeleteRoom(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

func (m *MemoryStore) ListRooms() []*room.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*room.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ===== State records

func (m *MemoryStore) Create(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.RoomID]; ok {
		return ErrExists
	}
	rec.Version = 1
	rec.SchemaVersion = SchemaVersion
	rec.Fingerprint = Fingerprint(rec.GameData)
	m.records[rec.RoomID] = rec.Clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, roomID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// SaveIfVersion replaces the stored record only if its version is still
// expected. On success rec carries the new version and fingerprint.
func (m *MemoryStore) SaveIfVersion(_ context.Context, rec *Record, expected int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[rec.RoomID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != expected {
		return ErrVersionConflict
	}
	rec.Version = expected + 1
	rec.SchemaVersion = SchemaVersion
	rec.CreatedAt = cur.CreatedAt
	rec.Fingerprint = Fingerprint(rec.GameData)
	m.records[rec.RoomID] = rec.Clone()
	return nil
}

// ReplaceFinished swaps in rec at version 1 when the room has no record or
// its game is over. A running game is left in place.
func (m *MemoryStore) ReplaceFinished(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.records[rec.RoomID]; ok && !cur.GameOver {
		return ErrInProgress
	}
	rec.Version = 1
	rec.SchemaVersion = SchemaVersion
	rec.Fingerprint = Fingerprint(rec.GameData)
	m.records[rec.RoomID] = rec.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[roomID]; !ok {
		return ErrNotFound
	}
	delete(m.records, roomID)
	return nil
}

// ListIdle returns unfinished records last written before the cutoff.
func (m *MemoryStore) ListIdle(_ context.Context, before time.Time) ([]*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Record
	for _, rec := range m.records {
		if !rec.GameOver && rec.UpdatedAt.Before(before) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
