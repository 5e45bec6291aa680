package keypool

import (
	"errors"
	"sync/atomic"
)

var ErrEmptyKeyPool = errors.New("keypool: at least one API key is required")

// KeyRotator hands out API keys in strict round-robin order. The cursor is shared
// by every caller and advanced atomically, so concurrent requests interleave but
// never observe a torn index.
type KeyRotator struct {
	keys   []string
	cursor atomic.Uint64
}

func NewKeyRotator(keys []string) (*KeyRotator, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeyPool
	}
	cp := make([]string, len(keys))
	copy(cp, keys)
	return &KeyRotator{keys: cp}, nil
}

// Next returns the key at the cursor and advances it by one with wraparound.
func (r *KeyRotator) Next() string {
	n := r.cursor.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

// Len is the pool size.
func (r *KeyRotator) Len() int {
	return len(r.keys)
}

// Cursor is the index the next call to Next will return.
func (r *KeyRotator) Cursor() int {
	return int(r.cursor.Load() % uint64(len(r.keys)))
}
