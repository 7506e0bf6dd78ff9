// Package goid recovers the calling goroutine's runtime id, for the lock
// provider's IsHeldByCurrentThread check. This is built directly against
// the standard library rather than a third-party package, since no known
// library offers anything beyond what runtime.Stack already exposes.
//
// © 2025 arena-cache authors. MIT License.
package goid

import (
    "bytes"
    "runtime"
    "strconv"
)

// Current parses the id out of the calling goroutine's own stack header
// ("goroutine 37 [running]:..."), the same trick net/http/pprof and most
// goroutine-leak detectors use in lieu of an exported runtime API.
func Current() uint64 {
    buf := make([]byte, 64)
    for {
        n := runtime.Stack(buf, false)
        if n < len(buf) {
            buf = buf[:n]
            break
        }
        buf = make([]byte, len(buf)*2)
    }
    const prefix = "goroutine "
    if !bytes.HasPrefix(buf, []byte(prefix)) {
        return 0
    }
    buf = buf[len(prefix):]
    end := bytes.IndexByte(buf, ' ')
    if end < 0 {
        return 0
    }
    id, err := strconv.ParseUint(string(buf[:end]), 10, 64)
    if err != nil {
        return 0
    }
    return id
}
