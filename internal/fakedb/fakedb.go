// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb holds types to fake an in-memory DB.
//
// Queries return the rows installed with Run.
// Statements executed with Exec are recorded and can be inspected with Execs.
package fakedb // import "github.com/go-lpc/picoq/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"
)

var query struct {
	mu   sync.Mutex
	rows Rows
}

var exec struct {
	mu  sync.Mutex
	id  int64
	log []Exec
}

// Exec describes a statement executed against the fake DB.
type Exec struct {
	Query string
	Args  []driver.Value
}

// Run installs rows as the result of all queries issued by f.
// The record of executed statements is cleared before f is run.
func Run(ctx context.Context, rows Rows, f func(ctx context.Context) error) error {
	query.mu.Lock()
	defer query.mu.Unlock()
	query.rows = rows

	exec.mu.Lock()
	exec.id = 0
	exec.log = nil
	exec.mu.Unlock()

	return f(ctx)
}

// Execs returns the statements executed since the last call to Run.
func Execs() []Exec {
	exec.mu.Lock()
	defer exec.mu.Unlock()
	return append([]Exec(nil), exec.log...)
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{query: query}, nil
}

// Close invalidates the connection.
func (c *Conn) Close() error {
	return nil
}

// Begin starts and returns a new transaction.
func (c *Conn) Begin() (driver.Tx, error) {
	panic("not implemented")
}

type Stmt struct {
	query string
}

// Close closes the statement.
func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns the number of placeholder parameters.
// The fake DB does not know, so argument counts are not checked.
func (stmt *Stmt) NumInput() int {
	return -1
}

// Exec records the statement and its arguments.
func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	exec.mu.Lock()
	defer exec.mu.Unlock()

	exec.id++
	exec.log = append(exec.log, Exec{
		Query: stmt.query,
		Args:  append([]driver.Value(nil), args...),
	})
	return Result{id: exec.id, n: 1}, nil
}

// Query returns the rows installed by Run.
func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return &query.rows, nil
}

// Result is the result of an executed statement.
// Each statement inserts one row with an increasing identifier.
type Result struct {
	id int64
	n  int64
}

func (res Result) LastInsertId() (int64, error) { return res.id, nil }
func (res Result) RowsAffected() (int64, error) { return res.n, nil }

type Rows struct {
	Names  []string
	Values [][]driver.Value
}

// Columns returns the names of the columns.
func (rows *Rows) Columns() []string {
	return rows.Names
}

// Close closes the rows iterator.
func (rows *Rows) Close() error {
	return nil
}

// Next populates dest with the next row of data.
// Next returns io.EOF when there are no more rows.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver = (*Driver)(nil)
	_ driver.Conn   = (*Conn)(nil)
	_ driver.Stmt   = (*Stmt)(nil)
	_ driver.Result = Result{}
	_ driver.Rows   = (*Rows)(nil)
)
