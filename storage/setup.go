// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/lib/pq"

	"github.com/bitmark-inc/ledgerd/configuration"
	"github.com/bitmark-inc/ledgerd/report"
)

// postgres error codes
const (
	uniqueViolation      pq.ErrorCode  = "23505"
	connectionException  pq.ErrorClass = "08"
	operatorIntervention pq.ErrorClass = "57"
)

// Opener - create a database handle
type Opener func() (*sql.DB, error)

// PostgresStore - lazily connected store
type PostgresStore struct {
	sync.Mutex
	log  *logger.L
	open Opener
	db   *sql.DB
}

// New - store for the configured database, nothing is opened yet
func New(config configuration.DatabaseConfiguration) *PostgresStore {
	dsn := ConnectionString(config)
	return NewWithOpener(func() (*sql.DB, error) {
		db, err := sql.Open("postgres", dsn)
		if nil != err {
			return nil, err
		}
		// a single shared connection per worker
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return db, nil
	})
}

// NewWithOpener - store using a custom handle factory
func NewWithOpener(open Opener) *PostgresStore {
	return &PostgresStore{
		log:  logger.New("storage"),
		open: open,
	}
}

// ConnectionString - key/value form accepted by lib/pq
func ConnectionString(config configuration.DatabaseConfiguration) string {
	items := []string{
		"host=" + quote(config.Host),
		fmt.Sprintf("port=%d", config.Port),
		"user=" + quote(config.User),
		"password=" + quote(config.Password),
		"dbname=" + quote(config.Name),
	}
	if "" != config.SSLMode {
		items = append(items, "sslmode="+quote(config.SSLMode))
	}
	return strings.Join(items, " ")
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// Close - release the handle if one is open
func (s *PostgresStore) Close() error {
	s.Lock()
	defer s.Unlock()

	if nil == s.db {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *PostgresStore) handle() (*sql.DB, error) {
	s.Lock()
	defer s.Unlock()

	if nil != s.db {
		return s.db, nil
	}
	db, err := s.open()
	if nil != err {
		return nil, err
	}
	s.db = db
	return db, nil
}

// check an error from a query, dropping the handle if the
// connection itself failed
func (s *PostgresStore) check(db *sql.DB, err error) error {
	if nil == err || !isConnectionError(err) {
		return err
	}

	s.Lock()
	defer s.Unlock()

	// another query may already have replaced it
	if s.db != db {
		return err
	}
	s.log.Warnf("connection error, will reconnect: %s", report.Scrub(err.Error()))
	_ = s.db.Close()
	s.db = nil
	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		class := pqErr.Code.Class()
		return connectionException == class || operatorIntervention == class
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func isDuplicate(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && uniqueViolation == pqErr.Code
}
