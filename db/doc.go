// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens database connections and creates the schema.

# Connections

Open maps a database type to its driver and pings the connection:

	conn, err := db.Open(db.TypePostgres, "postgres://...")
	conn, err := db.Open(db.TypeSQLite, "file:quorum.db")

PostgreSQL uses github.com/lib/pq; SQLite uses the pure-Go modernc.org/sqlite
driver. SQLite connections are capped at one open connection.

# Schema Creation

CreateSchema initializes the record table:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for the table and indexes.

# Tables

Every entity lives in a single key-value table:

  - record: (bucket, record_key) primary key, JSON value, insertion seq

Buckets are polls, votes, voter_index, plans, agent_polls, payments and
wallets. The part column groups records for scans (votes by poll, voter
index by voter, inventory by agent, payments by agent).

# Indexes

  - record.(bucket, seq) for whole-bucket scans in insertion order
  - record.(bucket, part, seq) for partition scans
*/
package db
