// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitmark-inc/ledgerd/configuration"
	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/fixtures"
	"github.com/bitmark-inc/ledgerd/storage"
	"github.com/bitmark-inc/ledgerd/transaction"
)

var recordColumns = []string{
	"transaction_id", "version", "contract_hash", "valid_till", "payload", "public_key", "signature",
	"status", "create_ts", "sender", "contract_type", "message", "block_id", "position_in_block",
	"processed_ts", "receiver", "extra1", "extra2",
}

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

func newStore(t *testing.T) (*storage.PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.Nil(t, err, "sqlmock error")
	t.Cleanup(func() { db.Close() })

	return storage.NewWithOpener(func() (*sql.DB, error) {
		return db, nil
	}), mock
}

func TestConnectionString(t *testing.T) {
	s := storage.ConnectionString(configuration.DatabaseConfiguration{
		Host:     "localhost",
		Port:     5432,
		User:     "backend",
		Password: "it's secret",
		Name:     "blockchain",
		SSLMode:  "disable",
	})
	assert.Equal(t, `host='localhost' port=5432 user='backend' password='it\'s secret' dbname='blockchain' sslmode='disable'`, s, "wrong connection string")
}

func TestLatestProcessed(t *testing.T) {
	store, mock := newStore(t)
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT MAX(processed_ts) FROM basics.transactions;")

	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(1700)))

	ts, err := store.LatestProcessed(ctx)
	assert.Nil(t, err, "empty table error")
	assert.Equal(t, storage.NoTransactions, ts, "empty table cursor")

	ts, err = store.LatestProcessed(ctx)
	assert.Nil(t, err, "error")
	assert.Equal(t, int64(1700), ts, "wrong cursor")

	assert.Nil(t, mock.ExpectationsWereMet(), "expectations")
}

func TestProcessedSince(t *testing.T) {
	store, mock := newStore(t)

	rows := sqlmock.NewRows(recordColumns).
		AddRow([]byte{1, 2}, 1, []byte{3}, int64(99), "{}", []byte{4}, []byte{5},
			"accepted", nil, "alice", "transfer", "ok", int64(7), int64(0),
			int64(1800), "bob", nil, nil).
		AddRow([]byte{6, 7}, 1, []byte{3}, int64(99), "{}", []byte{4}, []byte{5},
			"rejected", int64(1000), "carol", "transfer", "bad", int64(7), int64(1),
			int64(1801), nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM basics.transactions WHERE processed_ts > $1;")).
		WithArgs(int64(1700)).
		WillReturnRows(rows)

	records, err := store.ProcessedSince(context.Background(), 1700)
	require.Nil(t, err, "query error")
	require.Equal(t, 2, len(records), "record count")

	r := records[0]
	assert.Equal(t, []byte{1, 2}, r.ID, "id")
	assert.Equal(t, transaction.Accepted, r.Status, "status")
	assert.Nil(t, r.CreateTs, "create ts")
	require.NotNil(t, r.Sender, "sender")
	assert.Equal(t, "alice", *r.Sender, "sender")
	require.NotNil(t, r.Receiver, "receiver")
	assert.Equal(t, "bob", *r.Receiver, "receiver")
	require.NotNil(t, r.ProcessedTs, "processed")
	assert.Equal(t, int64(1800), *r.ProcessedTs, "processed")

	assert.Nil(t, records[1].Receiver, "second receiver")
	require.NotNil(t, records[1].CreateTs, "second create ts")
	assert.Equal(t, int64(1000), *records[1].CreateTs, "second create ts")

	assert.Nil(t, mock.ExpectationsWereMet(), "expectations")
}

func TestTransactionNotFound(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM basics.transactions WHERE transaction_id = $1;")).
		WithArgs([]byte{9}).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	r, err := store.Transaction(context.Background(), []byte{9})
	assert.Nil(t, err, "error")
	assert.Nil(t, r, "record")
	assert.Nil(t, mock.ExpectationsWereMet(), "expectations")
}

func TestTransactionStatus(t *testing.T) {
	store, mock := newStore(t)
	query := regexp.QuoteMeta("SELECT status FROM basics.transactions WHERE transaction_id = $1;")

	mock.ExpectQuery(query).WithArgs([]byte{1}).WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("new"))
	mock.ExpectQuery(query).WithArgs([]byte{2}).WillReturnRows(sqlmock.NewRows([]string{"status"}))

	status, found, err := store.TransactionStatus(context.Background(), []byte{1})
	assert.Nil(t, err, "error")
	assert.True(t, found, "not found")
	assert.Equal(t, transaction.New, status, "status")

	_, found, err = store.TransactionStatus(context.Background(), []byte{2})
	assert.Nil(t, err, "error")
	assert.False(t, found, "found")

	assert.Nil(t, mock.ExpectationsWereMet(), "expectations")
}

func TestLatestBlockTime(t *testing.T) {
	store, mock := newStore(t)
	query := regexp.QuoteMeta("SELECT processed_ts FROM basics.blocks ORDER BY block_id DESC LIMIT 1;")

	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"processed_ts"}))
	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"processed_ts"}).AddRow(int64(4242)))

	_, found, err := store.LatestBlockTime(context.Background())
	assert.Nil(t, err, "error")
	assert.False(t, found, "found with no blocks")

	ts, found, err := store.LatestBlockTime(context.Background())
	assert.Nil(t, err, "error")
	assert.True(t, found, "not found")
	assert.Equal(t, int64(4242), ts, "time")

	assert.Nil(t, mock.ExpectationsWereMet(), "expectations")
}

func TestContracts(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM basics.contracts;")).
		WillReturnRows(sqlmock.NewRows([]string{"contract_hash", "contract_type", "contract_version", "description", "creator", "contract_template"}).
			AddRow([]byte{0xaa}, "Transfer", "1.0", "move funds", []byte{0x01}, []byte(`{"amount":{"type":"uint"}}`)))

	contracts, err := store.Contracts(context.Background())
	require.Nil(t, err, "error")
	require.Equal(t, 1, len(contracts), "count")
	assert.Equal(t, "Transfer", contracts[0].Type, "type")
	assert.Equal(t, []byte{0xaa}, contracts[0].Hash, "hash")
	assert.JSONEq(t, `{"amount":{"type":"uint"}}`, string(contracts[0].Template), "template")

	assert.Nil(t, mock.ExpectationsWereMet(), "expectations")
}

func TestInsertTransaction(t *testing.T) {
	store, mock := newStore(t)
	query := regexp.QuoteMeta("INSERT INTO basics.transactions(version, transaction_id, contract_hash, valid_till, payload, signature, public_key, create_ts)")

	e := &transaction.Envelope{
		Version:      1,
		ID:           []byte{1},
		ContractHash: []byte{2},
		ValidTill:    0,
		Payload:      "{}",
		Signature:    []byte{3},
		PublicKey:    []byte{4},
	}
	createTs := int64(77)

	mock.ExpectExec(query).
		WithArgs(1, []byte{1}, []byte{2}, int64(0), "{}", []byte{3}, []byte{4}, int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(query).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})
	mock.ExpectExec(query).
		WillReturnError(&pq.Error{Code: "22P02", Message: "invalid input"})

	assert.Nil(t, store.InsertTransaction(context.Background(), e, &createTs), "insert error")
	assert.Equal(t, fault.TransactionExists, store.InsertTransaction(context.Background(), e, nil), "duplicate not detected")

	err := store.InsertTransaction(context.Background(), e, nil)
	assert.NotNil(t, err, "failure not returned")
	assert.NotEqual(t, fault.TransactionExists, err, "failure is duplicate")

	assert.Nil(t, mock.ExpectationsWereMet(), "expectations")
}

func TestReconnectAfterConnectionError(t *testing.T) {
	db1, mock1, err := sqlmock.New()
	require.Nil(t, err, "sqlmock error")
	db2, mock2, err := sqlmock.New()
	require.Nil(t, err, "sqlmock error")
	defer db2.Close()

	handles := []*sql.DB{db1, db2}
	opened := 0
	store := storage.NewWithOpener(func() (*sql.DB, error) {
		db := handles[opened]
		opened += 1
		return db, nil
	})

	query := regexp.QuoteMeta("SELECT MAX(processed_ts) FROM basics.transactions;")
	mock1.ExpectQuery(query).WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})
	mock1.ExpectClose()
	mock2.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(5)))

	_, err = store.LatestProcessed(context.Background())
	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr), "connection error not returned")

	ts, err := store.LatestProcessed(context.Background())
	assert.Nil(t, err, "error after reconnect")
	assert.Equal(t, int64(5), ts, "cursor after reconnect")
	assert.Equal(t, 2, opened, "handle not reopened")

	assert.Nil(t, mock1.ExpectationsWereMet(), "first expectations")
	assert.Nil(t, mock2.ExpectationsWereMet(), "second expectations")
}

func TestQueryErrorKeepsHandle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.Nil(t, err, "sqlmock error")
	defer db.Close()

	opened := 0
	store := storage.NewWithOpener(func() (*sql.DB, error) {
		opened += 1
		return db, nil
	})

	query := regexp.QuoteMeta("SELECT MAX(processed_ts) FROM basics.transactions;")
	mock.ExpectQuery(query).WillReturnError(&pq.Error{Code: "42P01", Message: "undefined table"})
	mock.ExpectQuery(query).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(5)))

	_, err = store.LatestProcessed(context.Background())
	assert.NotNil(t, err, "error not returned")
	_, err = store.LatestProcessed(context.Background())
	assert.Nil(t, err, "second query error")
	assert.Equal(t, 1, opened, "handle reopened after statement error")
}
