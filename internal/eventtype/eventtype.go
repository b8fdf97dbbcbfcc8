// Package eventtype persists the event-type -> topic metadata the
// specification treats as an external collaborator's responsibility
// ("persistence of event-type metadata" is out of scope for the core, but a
// runnable service needs a concrete implementation of it). Modeled directly
// on the teacher's namespace package: a small idempotent get-or-create
// record backed by Pebble.
package eventtype

import (
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	pebblestore "github.com/rzbill/flo/internal/storage/pebble"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned when an event type has no metadata record.
var ErrNotFound = errors.New("eventtype: not found")

// Meta describes one event type: the topic backing it, its partition count,
// and the read scopes a principal must hold to stream from it.
type Meta struct {
	Name        string   `json:"name"`
	Topic       string   `json:"topic"`
	Partitions  int      `json:"partitions"`
	ReadScopes  []string `json:"readScopes"`
	CreatedAtMs int64    `json:"createdAtMs"`
}

// HasReadScope reports whether scopes satisfies m's required read scopes.
// An event type with no configured ReadScopes is readable by any principal.
func (m Meta) HasReadScope(scopes []string) bool {
	if len(m.ReadScopes) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		held[s] = struct{}{}
	}
	for _, required := range m.ReadScopes {
		if _, ok := held[required]; ok {
			return true
		}
	}
	return false
}

var metaPrefix = []byte("eventtype/")

func metaKey(name string) []byte {
	k := make([]byte, 0, len(metaPrefix)+len(name))
	k = append(k, metaPrefix...)
	k = append(k, name...)
	return k
}

// Repository reads and writes event-type metadata.
type Repository struct {
	db *pebblestore.DB
}

// NewRepository wraps db for event-type metadata storage.
func NewRepository(db *pebblestore.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the metadata for name, or ErrNotFound if no record exists.
func (r *Repository) Get(name string) (Meta, error) {
	b, err := r.db.Get(metaKey(name))
	if err != nil || len(b) == 0 {
		return Meta{}, ErrNotFound
	}
	var m Meta
	if err := json.Unmarshal(b, &m); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// Create creates or overwrites the metadata record for an event type backed
// by topic with the given partition count and read scopes.
func (r *Repository) Create(name, topic string, partitions int, readScopes []string) (Meta, error) {
	m := Meta{
		Name:        name,
		Topic:       topic,
		Partitions:  partitions,
		ReadScopes:  readScopes,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	b, err := json.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := r.db.Set(metaKey(name), b); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// Delete removes the metadata record for name, if any.
func (r *Repository) Delete(name string) error {
	return r.db.Delete(metaKey(name))
}
