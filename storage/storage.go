// Package storage keeps enrollment records. Templates are stored as opaque
// blobs; storage never looks inside them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/high-horse/fingerprint-server/config"
)

var ErrNotFound = errors.New("record not found")

// Record is one enrolled person.
type Record struct {
	Code     string    `cbor:"1,keyasint" json:"code"`
	Name     string    `cbor:"2,keyasint,omitempty" json:"name"`
	Template []byte    `cbor:"3,keyasint" json:"-"`
	Enrolled time.Time `cbor:"4,keyasint,omitempty" json:"enrolled"`
}

// Store is implemented by every backend. LoadAll returns records in
// insertion order; storing an existing code replaces the record in place.
type Store interface {
	Store(ctx context.Context, r Record) error
	Load(ctx context.Context, code string) (Record, error)
	LoadAll(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, code string) error
	Close() error
}

// New opens the backend selected by cfg.
func New(cfg config.Storage) (Store, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemory(), nil
	case "file":
		return OpenFile(cfg.Path)
	case "redis":
		return NewRedis(RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

func validate(r Record) error {
	if r.Code == "" {
		return errors.New("record code is empty")
	}
	return nil
}
