// Package decodegroup coalesces concurrent proxy-substitute decodes for the
// same key so that a thundering read against a disk-backed substitute pays
// the factory round trip once, not once per waiting goroutine.
package decodegroup

import (
    "fmt"

    "golang.org/x/sync/singleflight"
)

// Group de-duplicates concurrent decode calls keyed by an actual map key
// within a segment. Two distinct keys that happen to collide into the same
// bucket (or share a spread hash) must never coalesce into one decode call —
// only identical keys may share a result.
type Group[K comparable] struct {
    g singleflight.Group
}

// Do executes fn at most once per concurrently-overlapping call with the
// same (segmentIndex, key); every caller observes the same result. shared
// reports whether this goroutine received another goroutine's result
// instead of running fn itself.
func (g *Group[K]) Do(segmentIndex int, key K, fn func() (any, error)) (val any, err error, shared bool) {
    groupKey := fmt.Sprintf("%d|%v", segmentIndex, key)
    return g.g.Do(groupKey, fn)
}
