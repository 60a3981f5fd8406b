/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package cache provides SQLite-backed storage for historical bars and
// contract details. The client reads and writes bars through it so
// repeated closed-ended ReqHistoricalData calls for the same instrument
// do not need a broker round trip; ReqContractDetails does not use the
// cache, and contract-details rows can be stored but not loaded. It
// adapts the teacher's MarketDataDb (database/marketdata.go): the same
// WAL-mode open string, the same lazily-prepared-statement-plus-
// tx.Stmt() batch-insert pattern, restructured around IB bar rows and
// contract-details rows instead of FIX market-data-entry rows.
package cache

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	con_id      INTEGER NOT NULL,
	bar_size    TEXT NOT NULL,
	what_to_show TEXT NOT NULL,
	ts          TEXT NOT NULL,
	open        REAL NOT NULL,
	high        REAL NOT NULL,
	low         REAL NOT NULL,
	close       REAL NOT NULL,
	volume      INTEGER NOT NULL,
	wap         REAL NOT NULL,
	count       INTEGER NOT NULL,
	PRIMARY KEY (con_id, bar_size, what_to_show, ts)
);

CREATE TABLE IF NOT EXISTS contract_details (
	con_id       INTEGER NOT NULL,
	req_key      TEXT NOT NULL,
	market_name  TEXT NOT NULL,
	long_name    TEXT NOT NULL,
	min_tick     REAL NOT NULL,
	order_types  TEXT NOT NULL,
	valid_exchanges TEXT NOT NULL,
	fetched_at   TEXT NOT NULL,
	PRIMARY KEY (con_id, req_key)
);
`

const insertBarQuery = `
INSERT OR REPLACE INTO bars
	(con_id, bar_size, what_to_show, ts, open, high, low, close, volume, wap, count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const insertContractDetailsQuery = `
INSERT OR REPLACE INTO contract_details
	(con_id, req_key, market_name, long_name, min_tick, order_types, valid_exchanges, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const selectBarsQuery = `
SELECT ts, open, high, low, close, volume, wap, count
FROM bars
WHERE con_id = ? AND bar_size = ? AND what_to_show = ?
ORDER BY ts ASC
`

// Bar is the row shape stored for one historical bar. It intentionally
// does not import package ibtws, so the cache has no dependency on the
// wire client; callers convert to/from ibtws.Bar at the call site.
type Bar struct {
	Timestamp string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
	WAP       float64
	Count     int32
}

// ContractDetailsRow is the row shape stored for one resolved contract.
type ContractDetailsRow struct {
	ConID          int32
	ReqKey         string
	MarketName     string
	LongName       string
	MinTick        float64
	OrderTypes     string
	ValidExchanges string
	FetchedAt      string
}

// Cache provides SQLite storage for bar and contract-details rows with
// prepared statements, reused across every write.
type Cache struct {
	db *sql.DB

	stmtBar     *sql.Stmt
	stmtDetails *sql.Stmt
}

// Open opens (creating if absent) a SQLite cache at path, with the
// same WAL/NORMAL/cache-size pragmas the teacher's MarketDataDb uses.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("cache: opening database: %w", err)
	}

	c := &Cache{db: db}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: initializing schema: %w", err)
	}

	if c.stmtBar, err = db.Prepare(insertBarQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: preparing bar statement: %w", err)
	}
	if c.stmtDetails, err = db.Prepare(insertContractDetailsQuery); err != nil {
		_ = c.stmtBar.Close()
		_ = db.Close()
		return nil, fmt.Errorf("cache: preparing contract-details statement: %w", err)
	}

	return c, nil
}

func (c *Cache) Close() error {
	if c.stmtBar != nil {
		_ = c.stmtBar.Close()
	}
	if c.stmtDetails != nil {
		_ = c.stmtDetails.Close()
	}
	return c.db.Close()
}

// StoreBars writes an entire bar series in one transaction, using
// tx.Stmt to bind the prepared insert to the transaction the same way
// the teacher's StoreTradeBatch does.
func (c *Cache) StoreBars(conID int32, barSize, whatToShow string, bars []Bar) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("cache: beginning bar transaction: %w", err)
	}
	stmt := tx.Stmt(c.stmtBar)
	for _, b := range bars {
		if _, err := stmt.Exec(conID, barSize, whatToShow, b.Timestamp, b.Open, b.High, b.Low, b.Close, b.Volume, b.WAP, b.Count); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("cache: inserting bar: %w", err)
		}
	}
	return tx.Commit()
}

// LoadBars returns every cached bar for (conID, barSize, whatToShow),
// oldest first, or an empty slice if nothing is cached.
func (c *Cache) LoadBars(conID int32, barSize, whatToShow string) ([]Bar, error) {
	rows, err := c.db.Query(selectBarsQuery, conID, barSize, whatToShow)
	if err != nil {
		return nil, fmt.Errorf("cache: querying bars: %w", err)
	}
	defer rows.Close()

	var out []Bar
	for rows.Next() {
		var b Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.WAP, &b.Count); err != nil {
			return nil, fmt.Errorf("cache: scanning bar row: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// StoreContractDetails caches one resolved contract-details row keyed
// by the request's correlation key (e.g. the original symbol string).
// The package has no function that reads these rows back.
func (c *Cache) StoreContractDetails(row ContractDetailsRow) error {
	_, err := c.stmtDetails.Exec(row.ConID, row.ReqKey, row.MarketName, row.LongName, row.MinTick, row.OrderTypes, row.ValidExchanges, row.FetchedAt)
	if err != nil {
		return fmt.Errorf("cache: inserting contract details: %w", err)
	}
	return nil
}
