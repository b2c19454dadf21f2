// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Height is a block index. Heights are always non-negative in practice,
// but kept as a signed type to match wire.BlockHeader-adjacent code and
// to let arithmetic like height-100 go negative without wrapping.
type Height int32

// Tier is a masternode collateral class. Each active tier is paid one
// winner per block.
//
// Tier values run from TierMin to TierMax inclusive; the set itself is
// fixed by consensus and changing it is a hard fork (see SporkNewTiers
// in capabilities.go).
type Tier uint8

const (
	// TierMin is the lowest (cheapest) masternode collateral tier.
	TierMin Tier = 1
	// TierMax is the highest masternode collateral tier. Pre-NEW_TIERS
	// chains only ever pay this tier.
	TierMax Tier = 4
)

// Script is an opaque payment destination, interpreted by the base
// chain. Two Scripts are considered the same payee iff they are
// byte-equal.
type Script []byte

// String returns the canonical hex form of the script, used both for
// diagnostics and as the payee component of a Winner's signed message.
func (s Script) String() string {
	return hex.EncodeToString(s)
}

// Equal reports whether two scripts name the same payee.
func (s Script) Equal(other Script) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Hash256 is a 256-bit digest, used for Winner identity and for the
// persistence file's integrity checksum.
type Hash256 = chainhash.Hash

// nullOutPoint is the canonical "empty vin" sentinel: a zero hash paired
// with the maximum index, the same convention bitcoin-derived chains use
// for a coinbase's null previous-outpoint. A Winner carrying this value
// in PayeeVin is in the legacy form described in spec §3.
var nullOutPoint = wire.OutPoint{Index: ^uint32(0)}

// isNullOutPoint reports whether op is the empty-vin sentinel.
func isNullOutPoint(op wire.OutPoint) bool {
	return op == nullOutPoint
}

// outPointString renders an OutPoint in the canonical form used by the
// signed vote message and by diagnostics: "{tx-hash-hex}-{out-index}".
func outPointString(op wire.OutPoint) string {
	return fmt.Sprintf("%s-%d", op.Hash.String(), op.Index)
}

// PeerID names a connected peer for the purposes of the PeerOps and
// Gossip capabilities. Its concrete representation (address, node id,
// ...) is up to the host; this package only ever compares and logs it.
type PeerID string
