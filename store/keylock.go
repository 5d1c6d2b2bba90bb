// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"slices"
	"sync"
)

// KeyLocker serializes work per key. Different keys proceed in parallel.
type KeyLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{locks: make(map[string]*keyLock)}
}

// Lock acquires every key and returns a function releasing them. Keys are
// taken in sorted order so overlapping callers cannot deadlock.
func (l *KeyLocker) Lock(keys ...string) (unlock func()) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*keyLock, 0, len(sorted))
	for _, key := range sorted {
		l.mu.Lock()
		kl, ok := l.locks[key]
		if !ok {
			kl = &keyLock{}
			l.locks[key] = kl
		}
		kl.refs++
		l.mu.Unlock()

		kl.mu.Lock()
		held = append(held, kl)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			kl := held[i]
			kl.mu.Unlock()

			l.mu.Lock()
			kl.refs--
			if kl.refs == 0 {
				delete(l.locks, sorted[i])
			}
			l.mu.Unlock()
		}
	}
}

// Key scopes an id to an entity type so poll and agent ids never collide.
func Key(b Bucket, id string) string {
	return string(b) + "/" + id
}
