package store

// diskfactory.go adapts internal/diskstore.Factory (a plain
// internal/segment.Factory implementation) into a full SubstituteFactory by
// adding the Bind/Unbind lifecycle hooks this package's interface requires
// but internal/diskstore intentionally doesn't know about, since it has no
// reason to import pkg.
//
// © 2025 arena-cache authors. MIT License.

import (
    badger "github.com/dgraph-io/badger/v4"

    "github.com/muthumcapec31/ehcache2/internal/diskstore"
)

// DiskFactory is a disk-backed SubstituteFactory, typically installed via
// WithFactory to give a Store a proxy tier that Fault/TryFault demote
// heap-resident elements into.
type DiskFactory[K comparable, V any] struct {
    *diskstore.Factory[K, V]
}

// NewDiskFactory wraps an already-open Badger database. The caller retains
// ownership of db's lifecycle — Bind and Unbind are no-ops; the caller
// opens and closes its own *badger.DB around the store rather than handing
// ownership to it.
func NewDiskFactory[K comparable, V any](db *badger.DB, keyPrefix string) *DiskFactory[K, V] {
    return &DiskFactory[K, V]{Factory: diskstore.New[K, V](db, keyPrefix)}
}

// Bind is a no-op; see NewDiskFactory.
func (f *DiskFactory[K, V]) Bind(*Store[K, V]) error { return nil }

// Unbind is a no-op; see NewDiskFactory.
func (f *DiskFactory[K, V]) Unbind(*Store[K, V]) error { return nil }
