// Package unsafehelpers centralises the unavoidable usage of the `unsafe`
// standard-library package so that the rest of the store stays clean and
// easy to audit. Every helper is documented with clear pre-/post-conditions.
//
// ⚠️  DISCLAIMER   These helpers deliberately reach past the Go memory-safety
// model for zero-allocation key-hashing conversions. Use ONLY inside this
// repository; they are not part of the public API and may change without
// notice. Misuse will lead to subtle data races or crashes.
//
// © 2025 arena-cache authors. MIT License.

package unsafehelpers

import "unsafe"

// ByteSliceFrom returns a []byte view of raw memory starting at ptr with the
// given length. Caller must ensure the memory block is at least length
// bytes. Used by internal/keyhash to hash scalar (non-string, non-[]byte)
// keys by their in-memory representation.
func ByteSliceFrom(ptr unsafe.Pointer, length uintptr) []byte {
    if length == 0 {
        return nil
    }
    return unsafe.Slice((*byte)(ptr), length)
}
