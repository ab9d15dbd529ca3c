// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bitmark-inc/ledgerd/fault"
	"github.com/bitmark-inc/ledgerd/transaction"
)

const transactionColumns = "transaction_id, version, contract_hash, valid_till, payload, public_key, signature, " +
	"status, create_ts, sender, contract_type, message, block_id, position_in_block, processed_ts, " +
	"receiver, extra1, extra2"

const (
	insertTransaction = "INSERT INTO basics.transactions(version, transaction_id, contract_hash, " +
		"valid_till, payload, signature, public_key, create_ts) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);"
	selectContracts = "SELECT contract_hash, contract_type, contract_version, description, " +
		"creator, contract_template FROM basics.contracts;"
	selectTransaction     = "SELECT " + transactionColumns + " FROM basics.transactions WHERE transaction_id = $1;"
	selectStatus          = "SELECT status FROM basics.transactions WHERE transaction_id = $1;"
	selectLatestBlockTime = "SELECT processed_ts FROM basics.blocks ORDER BY block_id DESC LIMIT 1;"
	selectLatestProcessed = "SELECT MAX(processed_ts) FROM basics.transactions;"
	selectProcessedSince  = "SELECT " + transactionColumns + " FROM basics.transactions WHERE processed_ts > $1;"
)

// NoTransactions - cursor value when nothing has been processed
const NoTransactions int64 = -1

// Contract - a row of the contracts table
type Contract struct {
	Hash        []byte
	Type        string
	Version     string
	Description string
	Creator     []byte
	Template    []byte // JSON
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*transaction.Record, error) {
	r := &transaction.Record{}
	err := row.Scan(
		&r.ID,
		&r.Version,
		&r.ContractHash,
		&r.ValidTill,
		&r.Payload,
		&r.PublicKey,
		&r.Signature,
		&r.Status,
		&r.CreateTs,
		&r.Sender,
		&r.ContractType,
		&r.Message,
		&r.BlockID,
		&r.PositionInBlock,
		&r.ProcessedTs,
		&r.Receiver,
		&r.Extra1,
		&r.Extra2,
	)
	if nil != err {
		return nil, err
	}
	return r, nil
}

// InsertTransaction - store a newly submitted transaction
func (s *PostgresStore) InsertTransaction(ctx context.Context, e *transaction.Envelope, createTs *int64) error {
	db, err := s.handle()
	if nil != err {
		return err
	}
	_, err = db.ExecContext(ctx, insertTransaction,
		int(e.Version),
		e.ID,
		e.ContractHash,
		e.ValidTill,
		e.Payload,
		e.Signature,
		e.PublicKey,
		createTs,
	)
	if isDuplicate(err) {
		return fault.TransactionExists
	}
	return s.check(db, err)
}

// Contracts - every known contract
func (s *PostgresStore) Contracts(ctx context.Context) ([]Contract, error) {
	db, err := s.handle()
	if nil != err {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, selectContracts)
	if nil != err {
		return nil, s.check(db, err)
	}
	defer rows.Close()

	contracts := make([]Contract, 0, 16)
	for rows.Next() {
		var c Contract
		err := rows.Scan(&c.Hash, &c.Type, &c.Version, &c.Description, &c.Creator, &c.Template)
		if nil != err {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, s.check(db, rows.Err())
}

// Transaction - a single transaction, nil if it does not exist
func (s *PostgresStore) Transaction(ctx context.Context, id []byte) (*transaction.Record, error) {
	db, err := s.handle()
	if nil != err {
		return nil, err
	}
	r, err := scanRecord(db.QueryRowContext(ctx, selectTransaction, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if nil != err {
		return nil, s.check(db, err)
	}
	return r, nil
}

// TransactionStatus - status of a transaction, found is false if it does not exist
func (s *PostgresStore) TransactionStatus(ctx context.Context, id []byte) (status transaction.Status, found bool, err error) {
	db, err := s.handle()
	if nil != err {
		return "", false, err
	}
	err = db.QueryRowContext(ctx, selectStatus, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if nil != err {
		return "", false, s.check(db, err)
	}
	return status, true, nil
}

// LatestBlockTime - processed time of the newest block, found is false if no blocks exist
func (s *PostgresStore) LatestBlockTime(ctx context.Context) (ts int64, found bool, err error) {
	db, err := s.handle()
	if nil != err {
		return 0, false, err
	}
	var processed sql.NullInt64
	err = db.QueryRowContext(ctx, selectLatestBlockTime).Scan(&processed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if nil != err {
		return 0, false, s.check(db, err)
	}
	if !processed.Valid {
		return 0, false, fmt.Errorf("latest block has no processed time")
	}
	return processed.Int64, true, nil
}

// LatestProcessed - newest processed time of any transaction or NoTransactions
func (s *PostgresStore) LatestProcessed(ctx context.Context) (int64, error) {
	db, err := s.handle()
	if nil != err {
		return 0, err
	}
	var processed sql.NullInt64
	err = db.QueryRowContext(ctx, selectLatestProcessed).Scan(&processed)
	if nil != err {
		return 0, s.check(db, err)
	}
	if !processed.Valid {
		return NoTransactions, nil
	}
	return processed.Int64, nil
}

// ProcessedSince - all transactions processed strictly after ts
func (s *PostgresStore) ProcessedSince(ctx context.Context, ts int64) ([]*transaction.Record, error) {
	db, err := s.handle()
	if nil != err {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, selectProcessedSince, ts)
	if nil != err {
		return nil, s.check(db, err)
	}
	defer rows.Close()

	records := make([]*transaction.Record, 0, 16)
	for rows.Next() {
		r, err := scanRecord(rows)
		if nil != err {
			return nil, err
		}
		records = append(records, r)
	}
	return records, s.check(db, rows.Err())
}
