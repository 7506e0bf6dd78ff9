// Package keyhash provides the default key-hashing strategy used by the
// store when callers don't supply their own: a process-wide maphash seed
// folded down to the 32-bit hash the segmented store's spread function
// expects.
//
// © 2025 arena-cache authors. MIT License.
package keyhash

import (
    "hash/maphash"
    "unsafe"

    "github.com/muthumcapec31/ehcache2/internal/unsafehelpers"
)

// Default builds a 32-bit hash function for comparable key type K using a
// process-wide maphash seed. Strings and []byte keys are fed directly to
// maphash; every other (scalar, struct, pointer) key is hashed by its raw
// in-memory representation, which is safe as long as K contains no
// interface or slice fields with non-deterministic layout — callers with
// such keys should supply their own HashFunc.
func Default[K comparable]() func(K) uint32 {
    seed := maphash.MakeSeed()
    return func(key K) uint32 {
        var h maphash.Hash
        h.SetSeed(seed)
        switch k := any(key).(type) {
        case string:
            h.WriteString(k)
        case []byte:
            h.Write(k)
        default:
            ptr := unsafe.Pointer(&key)
            size := unsafe.Sizeof(key)
            h.Write(unsafehelpers.ByteSliceFrom(ptr, size))
        }
        sum := h.Sum64()
        // Fold the 64-bit maphash sum into 32 bits rather than truncating,
        // so both halves of the original sum influence the result.
        return uint32(sum) ^ uint32(sum>>32)
    }
}

// StringKey is a convenience HashFunc for string-keyed stores that avoids
// the type switch above entirely.
func StringKey(seed maphash.Seed) func(string) uint32 {
    return func(s string) uint32 {
        var h maphash.Hash
        h.SetSeed(seed)
        h.WriteString(s)
        sum := h.Sum64()
        return uint32(sum) ^ uint32(sum>>32)
    }
}
