// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quorum/db"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func openSQLite(t *testing.T) *SQL {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.CreateSchema(conn))

	s, err := NewSQL(context.Background(), conn)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, fn func(t *testing.T, st Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openSQLite(t)) })
}

func TestPutGet(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		err := st.Update(ctx, func(tx Tx) error {
			return PutJSON(tx, BucketPolls, "", "w1", widget{Name: "a", Count: 1})
		})
		require.NoError(t, err)

		var got widget
		err = st.View(ctx, func(tx Tx) error {
			var err error
			got, err = GetJSON[widget](tx, BucketPolls, "w1")
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, widget{Name: "a", Count: 1}, got)

		err = st.View(ctx, func(tx Tx) error {
			_, err := tx.Get(BucketPolls, "missing")
			return err
		})
		assert.ErrorIs(t, err, ErrNotFound)

		// same key, different bucket
		err = st.View(ctx, func(tx Tx) error {
			_, err := tx.Get(BucketVotes, "w1")
			return err
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateRollsBackOnError(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		boom := errors.New("boom")

		err := st.Update(ctx, func(tx Tx) error {
			if err := PutJSON(tx, BucketPolls, "", "a", widget{Name: "a"}); err != nil {
				return err
			}
			if err := PutJSON(tx, BucketVotes, "a", "v1", widget{Name: "v"}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		err = st.View(ctx, func(tx Tx) error {
			ok, err := Exists(tx, BucketPolls, "a")
			require.NoError(t, err)
			assert.False(t, ok)
			ok, err = Exists(tx, BucketVotes, "v1")
			require.NoError(t, err)
			assert.False(t, ok)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestScanInsertionOrder(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		// keys deliberately out of lexical order
		for _, name := range []string{"zeta", "alpha", "mid"} {
			name := name
			err := st.Update(ctx, func(tx Tx) error {
				return PutJSON(tx, BucketPolls, "p1", name, widget{Name: name})
			})
			require.NoError(t, err)
		}
		err := st.Update(ctx, func(tx Tx) error {
			return PutJSON(tx, BucketPolls, "p2", "other", widget{Name: "other"})
		})
		require.NoError(t, err)

		// overwrite keeps position
		err = st.Update(ctx, func(tx Tx) error {
			return PutJSON(tx, BucketPolls, "p1", "zeta", widget{Name: "zeta", Count: 9})
		})
		require.NoError(t, err)

		var part, all []widget
		err = st.View(ctx, func(tx Tx) error {
			var err error
			if part, err = ScanJSON[widget](tx, BucketPolls, "p1"); err != nil {
				return err
			}
			all, err = ScanJSON[widget](tx, BucketPolls, "")
			return err
		})
		require.NoError(t, err)

		require.Len(t, part, 3)
		assert.Equal(t, "zeta", part[0].Name)
		assert.Equal(t, 9, part[0].Count)
		assert.Equal(t, "alpha", part[1].Name)
		assert.Equal(t, "mid", part[2].Name)

		require.Len(t, all, 4)
		assert.Equal(t, "other", all[3].Name)
	})
}

func TestScanSeesOwnWrites(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		require.NoError(t, st.Update(ctx, func(tx Tx) error {
			return PutJSON(tx, BucketAgentPolls, "alice", "alice/p1", "p1")
		}))

		err := st.Update(ctx, func(tx Tx) error {
			if err := PutJSON(tx, BucketAgentPolls, "alice", "alice/p2", "p2"); err != nil {
				return err
			}
			ids, err := ScanJSON[string](tx, BucketAgentPolls, "alice")
			if err != nil {
				return err
			}
			assert.Equal(t, []string{"p1", "p2"}, ids)
			return nil
		})
		require.NoError(t, err)
	})
}

func TestViewIsReadOnly(t *testing.T) {
	backends(t, func(t *testing.T, st Store) {
		err := st.View(context.Background(), func(tx Tx) error {
			return tx.Put(BucketPolls, "", "x", []byte(`{}`))
		})
		assert.ErrorIs(t, err, ErrReadOnly)
	})
}

func TestSQLSequenceSurvivesReopen(t *testing.T) {
	conn, err := db.Open(db.TypeSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.CreateSchema(conn))
	defer conn.Close()

	ctx := context.Background()
	first, err := NewSQL(ctx, conn)
	require.NoError(t, err)
	require.NoError(t, first.Update(ctx, func(tx Tx) error {
		return PutJSON(tx, BucketPolls, "", "b", widget{Name: "b"})
	}))

	second, err := NewSQL(ctx, conn)
	require.NoError(t, err)
	require.NoError(t, second.Update(ctx, func(tx Tx) error {
		return PutJSON(tx, BucketPolls, "", "a", widget{Name: "a"})
	}))

	var all []widget
	require.NoError(t, second.View(ctx, func(tx Tx) error {
		all, err = ScanJSON[widget](tx, BucketPolls, "")
		return err
	}))
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Name)
	assert.Equal(t, "a", all[1].Name)
}

func TestKeyLockerSerializesSameKey(t *testing.T) {
	locks := NewKeyLocker()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(Key(BucketPolls, "p1"))
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locks.locks, "lock table should be empty once released")
}

func TestKeyLockerDifferentKeysDoNotBlock(t *testing.T) {
	locks := NewKeyLocker()

	unlockA := locks.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock("b", "b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key blocked")
	}
}
