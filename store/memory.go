// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"sync"

	"github.com/google/btree"
)

type entry struct {
	seq       uint64
	key       string
	partition string
	value     []byte
}

func entryLess(a, b *entry) bool { return a.seq < b.seq }

type memBucket struct {
	tree  *btree.BTreeG[*entry]
	byKey map[string]*entry
}

// Memory is an in-process Store. Records are kept in a btree ordered by
// insertion sequence. Update transactions are serialized.
type Memory struct {
	mu      sync.RWMutex
	buckets map[Bucket]*memBucket
	seq     uint64
}

func NewMemory() *Memory {
	return &Memory{buckets: make(map[Bucket]*memBucket)}
}

func (m *Memory) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memTx{m: m})
}

func (m *Memory) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{m: m, writable: true, pending: make(map[Bucket]map[string]*entry)}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) bucket(b Bucket) *memBucket {
	mb, ok := m.buckets[b]
	if !ok {
		mb = &memBucket{
			tree:  btree.NewG[*entry](16, entryLess),
			byKey: make(map[string]*entry),
		}
		m.buckets[b] = mb
	}
	return mb
}

type memTx struct {
	m        *Memory
	writable bool
	pending  map[Bucket]map[string]*entry
	order    []pendingWrite
}

type pendingWrite struct {
	bucket Bucket
	entry  *entry
}

func (tx *memTx) Get(b Bucket, key string) ([]byte, error) {
	if e, ok := tx.pending[b][key]; ok {
		return clone(e.value), nil
	}
	mb, ok := tx.m.buckets[b]
	if !ok {
		return nil, ErrNotFound
	}
	e, ok := mb.byKey[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(e.value), nil
}

func (tx *memTx) Put(b Bucket, partition, key string, value []byte) error {
	if !tx.writable {
		return ErrReadOnly
	}
	writes, ok := tx.pending[b]
	if !ok {
		writes = make(map[string]*entry)
		tx.pending[b] = writes
	}
	if e, ok := writes[key]; ok {
		e.partition = partition
		e.value = clone(value)
		return nil
	}
	e := &entry{key: key, partition: partition, value: clone(value)}
	writes[key] = e
	tx.order = append(tx.order, pendingWrite{bucket: b, entry: e})
	return nil
}

func (tx *memTx) Scan(b Bucket, partition string, fn func(key string, value []byte) error) error {
	writes := tx.pending[b]

	var visit []*entry
	if mb, ok := tx.m.buckets[b]; ok {
		mb.tree.Ascend(func(e *entry) bool {
			if w, ok := writes[e.key]; ok {
				visit = append(visit, w)
			} else {
				visit = append(visit, e)
			}
			return true
		})
	}
	for _, pw := range tx.order {
		if pw.bucket != b {
			continue
		}
		if mb, ok := tx.m.buckets[b]; ok {
			if _, committed := mb.byKey[pw.entry.key]; committed {
				continue
			}
		}
		visit = append(visit, pw.entry)
	}

	for _, e := range visit {
		if partition != "" && e.partition != partition {
			continue
		}
		if err := fn(e.key, clone(e.value)); err != nil {
			return err
		}
	}
	return nil
}

func (tx *memTx) commit() {
	for _, pw := range tx.order {
		mb := tx.m.bucket(pw.bucket)
		if existing, ok := mb.byKey[pw.entry.key]; ok {
			existing.partition = pw.entry.partition
			existing.value = pw.entry.value
			continue
		}
		tx.m.seq++
		e := &entry{
			seq:       tx.m.seq,
			key:       pw.entry.key,
			partition: pw.entry.partition,
			value:     pw.entry.value,
		}
		mb.tree.ReplaceOrInsert(e)
		mb.byKey[e.key] = e
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
