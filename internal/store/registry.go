// Package store keeps uploaded datasets in memory, keyed by id, with
// single-writer discipline per dataset.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/smartdoc/internal/apperr"
	"github.com/KaramelBytes/smartdoc/internal/ingest"
)

// Dataset is one stored table. Every row carries exactly Headers as keys.
type Dataset struct {
	ID      string       `json:"id"`
	Headers []string     `json:"headers"`
	Rows    []ingest.Row `json:"rows"`
	// Version starts at 1 and increments on each committed mutation.
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone deep-copies d.
func (d Dataset) Clone() Dataset {
	d.Headers = append([]string(nil), d.Headers...)
	d.Rows = ingest.CloneRows(d.Rows)
	return d
}

// SavedView is a named query stored next to a dataset.
type SavedView struct {
	Name      string    `json:"name"`
	Spec      any       `json:"spec"`
	CreatedAt time.Time `json:"created_at"`
}

type entry struct {
	mu    sync.RWMutex
	ds    Dataset
	views map[string]SavedView
}

// Registry maps dataset ids to datasets. Entries live for the lifetime of
// the registry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: map[string]*entry{}, now: time.Now}
}

// Create stores a dataset under a fresh id and returns the id.
func (r *Registry) Create(headers []string, rows []ingest.Row) string {
	id := uuid.NewString()
	r.Put(id, headers, rows)
	return id
}

// Put stores a copy of the dataset under id, replacing any previous one.
// Replacing bumps the version.
func (r *Registry) Put(id string, headers []string, rows []ingest.Row) Dataset {
	ds := Dataset{ID: id, Headers: append([]string(nil), headers...), Rows: normalize(headers, rows), Version: 1, UpdatedAt: r.now()}

	r.mu.Lock()
	e, ok := r.entries[id]
	if !ok {
		// A new entry is complete before any reader can look it up.
		r.entries[id] = &entry{ds: ds, views: map[string]SavedView{}}
		r.mu.Unlock()
		return ds.Clone()
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	ds.Version = e.ds.Version + 1
	e.ds = ds
	return ds.Clone()
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, apperr.NotFound(id)
	}
	return e, nil
}

// Get returns a deep copy of the dataset.
func (r *Registry) Get(id string) (Dataset, error) {
	e, err := r.lookup(id)
	if err != nil {
		return Dataset{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ds.Clone(), nil
}

// Read calls fn with the current dataset under the read lock. fn must not
// modify the dataset or keep references to it after returning.
func (r *Registry) Read(id string, fn func(ds Dataset) error) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.ds)
}

// Mutate runs fn on a working copy under the write lock. The copy replaces
// the stored dataset only when fn returns changed=true and no error, so a
// failing mutation leaves the dataset untouched. Mutate returns the version
// after the call.
func (r *Registry) Mutate(id string, fn func(ds *Dataset) (changed bool, err error)) (int, error) {
	e, err := r.lookup(id)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	work := e.ds.Clone()
	changed, err := fn(&work)
	if err != nil {
		return e.ds.Version, err
	}
	if !changed {
		return e.ds.Version, nil
	}
	work.ID = e.ds.ID
	work.Rows = normalize(work.Headers, work.Rows)
	work.Version = e.ds.Version + 1
	work.UpdatedAt = r.now()
	e.ds = work
	return work.Version, nil
}

// SaveView stores a named query for a dataset, replacing one of the same
// name.
func (r *Registry) SaveView(id, name string, spec any) error {
	if name == "" {
		return apperr.Validation("save_as_view", "view name is empty")
	}
	e, err := r.lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.views[name] = SavedView{Name: name, Spec: spec, CreatedAt: r.now()}
	return nil
}

// Views lists a dataset's saved views by name.
func (r *Registry) Views(id string) ([]SavedView, error) {
	e, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]SavedView, 0, len(e.views))
	for _, v := range e.views {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// IDs lists stored dataset ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for id := range r.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// normalize copies rows so that each has exactly the given headers.
func normalize(headers []string, rows []ingest.Row) []ingest.Row {
	out := make([]ingest.Row, len(rows))
	for i, src := range rows {
		r := make(ingest.Row, len(headers))
		for _, h := range headers {
			r[h] = src[h]
		}
		out[i] = r
	}
	return out
}
