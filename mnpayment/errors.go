// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import "fmt"

// ErrorCode identifies a kind of error returned by this package.
type ErrorCode int

// These constants are used to identify a specific PaymentError.
const (
	// ErrBadSigner indicates the configured Signer does not hold the
	// operator key registered for the voting masternode.
	ErrBadSigner ErrorCode = iota

	// ErrBadSignature indicates a Winner's signature failed to verify
	// under the voter's registered operator key.
	ErrBadSignature

	// ErrUnknownVoter indicates the registry has no masternode matching
	// a vote's voter outpoint.
	ErrUnknownVoter

	// ErrUnknownPayee indicates a legacy-form vote's payee script could
	// not be resolved to a registered masternode.
	ErrUnknownPayee

	// ErrUnknownAnchor indicates the buried block a vote anchors to
	// (block_height - 100) is not yet known to the chain.
	ErrUnknownAnchor

	// ErrDoubleVote indicates the voter already cast a vote for this
	// tier at an equal or greater height (spec invariant I4).
	ErrDoubleVote

	// ErrOutOfWindow indicates a vote's height falls outside the
	// [H_lo, H_hi] acceptance window.
	ErrOutOfWindow

	// ErrRankTooLow indicates the voter's deterministic rank at the
	// anchor height exceeds VoterTopN.
	ErrRankTooLow

	// ErrStaleProtocol indicates the voter, or the peer relaying the
	// vote, is running a protocol version below the active minimum.
	ErrStaleProtocol

	// ErrCorruptSnapshot indicates a persisted ledger file failed its
	// magic, network, or checksum check.
	ErrCorruptSnapshot
)

// errorCodeStrings maps ErrorCode values back to their constant names
// for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrBadSigner:       "ErrBadSigner",
	ErrBadSignature:    "ErrBadSignature",
	ErrUnknownVoter:    "ErrUnknownVoter",
	ErrUnknownPayee:    "ErrUnknownPayee",
	ErrUnknownAnchor:   "ErrUnknownAnchor",
	ErrDoubleVote:      "ErrDoubleVote",
	ErrOutOfWindow:     "ErrOutOfWindow",
	ErrRankTooLow:      "ErrRankTooLow",
	ErrStaleProtocol:   "ErrStaleProtocol",
	ErrCorruptSnapshot: "ErrCorruptSnapshot",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("unknown ErrorCode (%d)", int(e))
}

// PaymentError provides a single error type for everything that can go
// wrong while ingesting or validating a vote.
type PaymentError struct {
	ErrorCode   ErrorCode
	Description string
	Err         error
}

// Error satisfies the error interface.
func (e PaymentError) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e PaymentError) Unwrap() error {
	return e.Err
}

// paymentError builds a PaymentError from its parts.
func paymentError(c ErrorCode, desc string, err error) PaymentError {
	return PaymentError{ErrorCode: c, Description: desc, Err: err}
}
