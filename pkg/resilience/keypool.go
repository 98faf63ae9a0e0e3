// Package resilience provides resiliency primitives for the poster:
// credential rotation and backoff scheduling.
package resilience

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrEmptyPool is returned when a pool is constructed with zero credentials.
// This is a configuration error and is surfaced at startup, not on first use.
var ErrEmptyPool = errors.New("keypool: no credentials configured")

// KeyPool holds an ordered list of API credentials with a rotating cursor.
// Rotation order is the order the credentials were loaded in. The pool has
// no notion of exhaustion itself; callers bound their attempts by Size().
type KeyPool struct {
	mu      sync.Mutex
	keys    []string
	current int
}

// NewKeyPool creates a pool from an ordered credential list.
func NewKeyPool(keys []string) (*KeyPool, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyPool
	}
	return &KeyPool{keys: keys}, nil
}

// Current returns the credential at the cursor and its index.
func (kp *KeyPool) Current() (int, string) {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	return kp.current, kp.keys[kp.current]
}

// Advance moves the cursor to the next credential, wrapping around
// indefinitely. The cursor update happens entirely under the lock, so a
// cancelled caller never leaves it half-applied.
func (kp *KeyPool) Advance() {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	kp.current = (kp.current + 1) % len(kp.keys)
}

// Size returns the number of credentials in the pool.
func (kp *KeyPool) Size() int {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	return len(kp.keys)
}

// LoadKeys reads credentials from a file, one per line. Blank lines and
// '#' comments are skipped. Order in the file is rotation order.
func LoadKeys(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("keypool: open %s: %w", path, err)
	}
	defer f.Close()

	var keys []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			keys = append(keys, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("keypool: read %s: %w", path, err)
	}
	return keys, nil
}
