// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runlog records acquisition sessions in a MySQL run registry.
package runlog // import "github.com/go-lpc/picoq/runlog"

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"github.com/go-lpc/picoq/acq"
	"github.com/go-lpc/picoq/tttr"
	"github.com/go-sql-driver/mysql"
	"golang.org/x/xerrors"
)

var (
	host = "localhost:3306"
	usr  = "picoq"
	pwd  = ""

	drvName = "mysql"
)

var (
	// ErrNoRun is returned when the registry holds no matching run.
	ErrNoRun = errors.New("runlog: no run")
)

// Run status values.
const (
	StatusOK      = "ok"
	StatusAborted = "aborted"
)

const schema = `CREATE TABLE IF NOT EXISTS runs (
	id        BIGINT AUTO_INCREMENT PRIMARY KEY,
	device    VARCHAR(64) NOT NULL,
	mode      VARCHAR(8) NOT NULL,
	start     DATETIME(6) NOT NULL,
	stop      DATETIME(6) NOT NULL,
	records   BIGINT NOT NULL,
	photons   BIGINT NOT NULL,
	markers   BIGINT NOT NULL,
	overflows BIGINT NOT NULL,
	status    TEXT NOT NULL
)`

const columns = "id, device, mode, start, stop, records, photons, markers, overflows, status"

// Run is the summary of one acquisition session.
type Run struct {
	ID        int64
	Device    string
	Mode      tttr.Mode
	Start     time.Time
	Stop      time.Time
	Records   int64
	Photons   int64
	Markers   int64
	Overflows int64
	Status    string
}

// NewRun creates the registry entry of an acquisition session on device,
// from its summary and the error it ended with.
func NewRun(device string, mode tttr.Mode, sum acq.Summary, err error) Run {
	status := StatusOK
	switch {
	case err != nil:
		status = err.Error()
	case sum.Aborted:
		status = StatusAborted
	}
	return Run{
		Device:    device,
		Mode:      mode,
		Start:     sum.Start,
		Stop:      sum.Stop,
		Records:   sum.Records,
		Photons:   int64(sum.Stats.Photons),
		Markers:   int64(sum.Stats.Markers),
		Overflows: int64(sum.Stats.Overflows),
		Status:    status,
	}
}

// DB is a connection to the run registry.
type DB struct {
	db   *sql.DB
	name string // name of the run registry database
}

// Open opens a connection to the run registry dbname.
//
// Credentials are taken from the PICOQ_DB_USER, PICOQ_DB_PASSWORD and
// PICOQ_DB_HOST environment variables, when defined.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, xerrors.Errorf("runlog: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	cfg := mysql.NewConfig()
	cfg.User = getenv("PICOQ_DB_USER", usr)
	cfg.Passwd = getenv("PICOQ_DB_PASSWORD", pwd)
	cfg.Net = "tcp"
	cfg.Addr = getenv("PICOQ_DB_HOST", host)
	cfg.DBName = db
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return xerrors.Errorf("runlog: could not ping %q db: %w", dbname, err)
	}

	return nil
}

// Name returns the name of the run registry database.
func (db *DB) Name() string { return db.name }

func (db *DB) Close() error {
	return db.db.Close()
}

// Init creates the runs table, if needed.
func (db *DB) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := db.db.ExecContext(ctx, schema)
	if err != nil {
		return xerrors.Errorf("runlog: could not create runs table: %w", err)
	}
	return nil
}

// Insert adds a run to the registry and returns its identifier.
func (db *DB) Insert(ctx context.Context, run Run) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := db.db.ExecContext(
		ctx,
		"INSERT INTO runs (device, mode, start, stop, records, photons, markers, overflows, status) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.Device, run.Mode.String(),
		run.Start.UTC(), run.Stop.UTC(),
		run.Records, run.Photons, run.Markers, run.Overflows,
		run.Status,
	)
	if err != nil {
		return 0, xerrors.Errorf("runlog: could not insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, xerrors.Errorf("runlog: could not retrieve run id: %w", err)
	}
	return id, nil
}

// LastRun returns the most recent run of the registry.
func (db *DB) LastRun(ctx context.Context) (Run, error) {
	runs, err := db.query(ctx, "SELECT "+columns+" FROM runs ORDER BY start DESC LIMIT 1")
	if err != nil {
		return Run{}, xerrors.Errorf("runlog: could not retrieve last run: %w", err)
	}
	if len(runs) == 0 {
		return Run{}, ErrNoRun
	}
	return runs[0], nil
}

// Runs returns all the runs taken with device, oldest first.
func (db *DB) Runs(ctx context.Context, device string) ([]Run, error) {
	runs, err := db.query(ctx, "SELECT "+columns+" FROM runs WHERE device=? ORDER BY start ASC", device)
	if err != nil {
		return nil, xerrors.Errorf("runlog: could not retrieve runs of %q: %w", device, err)
	}
	return runs, nil
}

func (db *DB) query(ctx context.Context, query string, args ...interface{}) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, xerrors.Errorf("could not query db: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run  Run
			mode string
		)
		err = rows.Scan(
			&run.ID, &run.Device, &mode, &run.Start, &run.Stop,
			&run.Records, &run.Photons, &run.Markers, &run.Overflows,
			&run.Status,
		)
		if err != nil {
			return nil, xerrors.Errorf("could not scan run: %w", err)
		}
		run.Mode, err = tttr.ParseMode(mode)
		if err != nil {
			return nil, xerrors.Errorf("could not decode mode of run %d: %w", run.ID, err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, xerrors.Errorf("could not iterate over runs: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, xerrors.Errorf("context error while retrieving runs: %w", err)
	}

	return runs, nil
}
