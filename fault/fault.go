// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyClosing              = ProcessError("Server already closing.")
	AlreadyInitialised          = ExistsError("already initialised")
	APINameUnknown              = NotFoundError("api name is not a known constructor")
	ApiRequired                 = InvalidError("at least one api version is required")
	BlocksNotFound              = NotFoundError("No existing blocks found.")
	BlockRetrieveFailed         = ProcessError("Unable to retrieve latest block from database.")
	CertificateFileExists       = ExistsError("certificate file already exists")
	CertificateFileNotFound     = NotFoundError("certificate file not found")
	ConnectionClosed            = ProcessError("connection closed")
	ContractsRetrieveFailed     = ProcessError("Failed to retrieve contracts.")
	DatabasePortInvalid         = InvalidError("database port is invalid")
	InvalidAPIVersion           = InvalidError("Api version missing or not supported.")
	InvalidJSON                 = InvalidError("Invalid JSON")
	InvalidLogLevel             = InvalidError("log level must be in range 0..5")
	InvalidPortNumber           = InvalidError("port number must be in range 0..65535")
	InvalidRequestJSON          = InvalidError("Invalid request json.")
	InvalidRequestMethod        = InvalidError("Invalid request method.")
	InvalidTransactionFormat    = InvalidError("Invalid transaction format.")
	KeyFileExists               = ExistsError("key file already exists")
	KeyFileNotFound             = NotFoundError("key file not found")
	MaximumMemoryTooLow         = InvalidError("maximum memory must be at least 50 MB")
	MissingID                   = InvalidError("Request is missing or has an invalid an ID field")
	MissingParameters           = InvalidError("Missing or invalid request data parameters.")
	MissingType                 = InvalidError("Request is missing or has an invalid request type")
	MissingURL                  = InvalidError("Missing url.")
	MissingVersionOrType        = InvalidError("Missing api version or request type.")
	NotInitialised              = NotFoundError("not initialised")
	PayloadTooLarge             = InvalidError("Payload too large.")
	PortsRequired               = InvalidError("at least one of rest or websocket port must be set")
	PortsSame                   = InvalidError("rest and websocket ports must be different")
	PushNotSupported            = ProcessError("push is not supported on this connection")
	SendQueueFull               = ProcessError("send queue full")
	StoreTransactionFailed      = ProcessError("Invalid format or unable to store transaction.")
	TimeoutTooShort             = InvalidError("websocket timeout must be at least 5 seconds")
	TLSPathsRequired            = InvalidError("tls requires both key and certificate paths")
	TooManyRequests             = ProcessError("Too many requests.")
	TransactionExists           = ExistsError("Transaction with id already exists.")
	TransactionRetrieveFailed   = ProcessError("Unable to retrieve transaction.")
	TransactionStatusFailed     = ProcessError("Unable to retrieve transaction status.")
	UnknownWorker               = NotFoundError("unknown worker")
	UpdateIntervalTooShort      = InvalidError("update interval must be at least 1 second")
	VersionNotSupported         = InvalidError("Version of the api is not supported.")
	WorkerChannelNotConnected   = ProcessError("worker channel is not connected")
	WorkerCountInvalid          = InvalidError("worker count is invalid")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }

// UnknownType - error for a request type that has no handler
type UnknownType string

func (e UnknownType) Error() string { return "Invalid type: " + string(e) }

// IsErrUnknownType - check for a missing handler
func IsErrUnknownType(e error) bool { _, ok := e.(UnknownType); return ok }
