// Package registry keeps the live association between map markers and landmine records.
//
// Marker handles belong to the map layer and are only indexed here. Each bound handle is
// translated to a marker ID issued by the registry, and the record is stored under that ID,
// so nothing depends on the identity semantics of the renderer's handles. A third index from
// record ID back to marker ID keeps the association one-to-one in both directions.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/UnknownOlympus/minemap/internal/models"
	"github.com/google/uuid"
)

// Registry errors.
var (
	ErrAlreadyBound = errors.New("marker handle is already bound")
	ErrNotBound     = errors.New("marker handle is not bound")
	ErrRecordBound  = errors.New("landmine record is already bound to another marker")
	ErrEmptyHandle  = errors.New("marker handle is empty")
)

type markerID uint64

type entry struct {
	handle models.Handle
	record models.Landmine
}

// Entry is a snapshot of one association.
type Entry struct {
	Handle models.Handle
	Record models.Landmine
}

// Registry is the single source of truth for which record a marker represents.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	nextID   markerID
	handles  map[models.Handle]markerID
	entries  map[markerID]entry
	byRecord map[string]markerID
	newID    func() string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		handles:  make(map[models.Handle]markerID),
		entries:  make(map[markerID]entry),
		byRecord: make(map[string]markerID),
		newID:    uuid.NewString,
	}
}

// Bind associates handle with rec and returns the stored record. A record without an ID is
// assigned a fresh one. Binding a handle twice, or showing one record on two handles, fails.
func (r *Registry) Bind(handle models.Handle, rec models.Landmine) (models.Landmine, error) {
	if handle == "" {
		return models.Landmine{}, ErrEmptyHandle
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handles[handle]; ok {
		return models.Landmine{}, fmt.Errorf("%w: %s", ErrAlreadyBound, handle)
	}

	if rec.ID == "" {
		rec = rec.WithID(r.newID())
	}
	if _, ok := r.byRecord[rec.ID]; ok {
		return models.Landmine{}, fmt.Errorf("%w: %s", ErrRecordBound, rec.ID)
	}

	id := r.nextID
	r.nextID++
	r.handles[handle] = id
	r.entries[id] = entry{handle: handle, record: rec}
	r.byRecord[rec.ID] = id

	return rec, nil
}

// Lookup returns the record bound to handle.
func (r *Registry) Lookup(handle models.Handle) (models.Landmine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.handles[handle]
	if !ok {
		return models.Landmine{}, false
	}

	return r.entries[id].record, true
}

// HandleFor returns the handle currently showing the record with the given ID.
func (r *Registry) HandleFor(recordID string) (models.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byRecord[recordID]
	if !ok {
		return "", false
	}

	return r.entries[id].handle, true
}

// Unbind removes the association for handle and returns the record it held.
// Unbinding an unknown handle is a no-op.
func (r *Registry) Unbind(handle models.Handle) (models.Landmine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.handles[handle]
	if !ok {
		return models.Landmine{}, false
	}

	rec := r.entries[id].record
	delete(r.handles, handle)
	delete(r.entries, id)
	delete(r.byRecord, rec.ID)

	return rec, true
}

// Replace swaps the record bound to handle without touching the handle. A record without an
// ID inherits the ID of the record it replaces.
func (r *Registry) Replace(handle models.Handle, rec models.Landmine) (models.Landmine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.handles[handle]
	if !ok {
		return models.Landmine{}, fmt.Errorf("%w: %s", ErrNotBound, handle)
	}

	return r.swap(id, rec)
}

// Update replaces the record bound to handle with fn applied to the current record.
// fn runs under the registry lock, so concurrent updates of different fields never
// overwrite each other. fn must not call back into the registry.
func (r *Registry) Update(handle models.Handle, fn func(models.Landmine) models.Landmine) (models.Landmine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.handles[handle]
	if !ok {
		return models.Landmine{}, fmt.Errorf("%w: %s", ErrNotBound, handle)
	}

	return r.swap(id, fn(r.entries[id].record))
}

// swap stores rec under id. The caller holds r.mu.
func (r *Registry) swap(id markerID, rec models.Landmine) (models.Landmine, error) {
	current := r.entries[id]
	if rec.ID == "" {
		rec = rec.WithID(current.record.ID)
	}
	if owner, taken := r.byRecord[rec.ID]; taken && owner != id {
		return models.Landmine{}, fmt.Errorf("%w: %s", ErrRecordBound, rec.ID)
	}

	delete(r.byRecord, current.record.ID)
	r.byRecord[rec.ID] = id
	r.entries[id] = entry{handle: current.handle, record: rec}

	return rec, nil
}

// Len returns the number of bound handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.handles)
}

// Entries returns every association in bind order.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]markerID, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e := r.entries[id]
		out = append(out, Entry{Handle: e.handle, Record: e.record})
	}

	return out
}
