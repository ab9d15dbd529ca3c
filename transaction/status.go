// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

// Status - lifecycle state of a stored transaction
type Status string

// possible states, in lifecycle order
const (
	New                Status = "new"
	ProcessingAccepted Status = "processing_accepted"
	ProcessingRejected Status = "processing_rejected"
	Invalid            Status = "invalid"
	Accepted           Status = "accepted"
	Rejected           Status = "rejected"
)

// IsFinal - true once the processor will no longer change the status
func (s Status) IsFinal() bool {
	switch s {
	case Invalid, Accepted, Rejected:
		return true
	default:
		return false
	}
}

// UpdateReason - why a listener was notified of a transaction
type UpdateReason int

// the listener key that matched
const (
	ReasonID UpdateReason = iota
	ReasonAddress
	ReasonGlobal
)

func (r UpdateReason) String() string {
	switch r {
	case ReasonID:
		return "id"
	case ReasonAddress:
		return "address"
	case ReasonGlobal:
		return "global"
	default:
		return "unknown"
	}
}
