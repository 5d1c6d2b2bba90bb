// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Bucket names one entity type in the store.
type Bucket string

const (
	BucketPolls      Bucket = "polls"
	BucketVotes      Bucket = "votes"
	BucketVoterIndex Bucket = "voter_index"
	BucketPlans      Bucket = "plans"
	BucketAgentPolls Bucket = "agent_polls"
	BucketPayments   Bucket = "payments"
	BucketWallets    Bucket = "wallets"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrReadOnly = errors.New("write in read-only transaction")
)

// Tx is a view of the store inside one transaction.
type Tx interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(b Bucket, key string) ([]byte, error)

	// Put inserts or overwrites key. Overwritten keys keep their
	// original position in scan order.
	Put(b Bucket, partition, key string, value []byte) error

	// Scan visits records in insertion order. An empty partition visits
	// the whole bucket. Returning an error from fn stops the scan.
	Scan(b Bucket, partition string, fn func(key string, value []byte) error) error
}

// Store is an ordered key-value store partitioned by bucket.
//
// Writes made inside Update become visible together when fn returns nil
// and are discarded when it returns an error.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// GetJSON loads and decodes a record.
func GetJSON[T any](tx Tx, b Bucket, key string) (T, error) {
	var v T
	raw, err := tx.Get(b, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s/%s: %w", b, key, err)
	}
	return v, nil
}

// PutJSON encodes and stores a record.
func PutJSON(tx Tx, b Bucket, partition, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", b, key, err)
	}
	return tx.Put(b, partition, key, raw)
}

// ScanJSON decodes every record in a bucket partition, in insertion order.
func ScanJSON[T any](tx Tx, b Bucket, partition string) ([]T, error) {
	out := []T{}
	err := tx.Scan(b, partition, func(key string, raw []byte) error {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", b, key, err)
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether key is present in b.
func Exists(tx Tx, b Bucket, key string) (bool, error) {
	_, err := tx.Get(b, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
