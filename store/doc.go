// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store provides the record store every ledger persists into.

# Model

Records are JSON values addressed by (bucket, key). Each record also carries
a partition used to scan related records together, e.g. all votes of a poll.
Scans return records in insertion order; overwriting a key does not move it.

	err := st.Update(ctx, func(tx store.Tx) error {
		return store.PutJSON(tx, store.BucketPolls, "", poll.ID, poll)
	})

# Backends

  - Memory: in-process, btree ordered by insertion sequence
  - SQL: durable, one record table on PostgreSQL or SQLite

# Transactions

Update runs fn and commits all of its writes at once, or none if fn returns
an error. A committed write is visible to every transaction started after
Update returns.

# Per-key Locking

KeyLocker linearizes mutations of one aggregate without blocking others:

	unlock := locks.Lock(store.Key(store.BucketPolls, pollID))
	defer unlock()
*/
package store
