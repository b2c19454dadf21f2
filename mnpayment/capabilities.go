// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// MasternodeInfo is the subset of registry-held state about one
// masternode that this package needs: its collateral identity, its
// operator key, and the bookkeeping fields that gate whether it may
// vote or receive a legacy-form vote.
type MasternodeInfo struct {
	Vin             wire.OutPoint
	CollateralPub   *btcec.PublicKey
	OperatorPub     *btcec.PublicKey
	ProtocolVersion uint32
	Tier            Tier
}

// PayeeScript returns the payment destination implied by this
// masternode's collateral pubkey, the way FillBlockPayee derives a
// fallback payee and IsScheduled derives the script to compare against.
func (mi MasternodeInfo) PayeeScript() Script {
	if mi.CollateralPub == nil {
		return nil
	}
	return Script(mi.CollateralPub.SerializeCompressed())
}

// Registry is the masternode membership, ranking, and liveness service.
// It is explicitly out of scope for this package (spec §1); only the
// narrow read surface needed by the election/validation engine is
// modeled here.
type Registry interface {
	// FindByVin returns the masternode registered under the given
	// collateral outpoint.
	FindByVin(vin wire.OutPoint) (MasternodeInfo, bool)

	// FindByScript returns the masternode whose derived payee script
	// matches, used to resolve legacy-form votes.
	FindByScript(payee Script) (MasternodeInfo, bool)

	// Rank returns the masternode's deterministic rank at atHeight,
	// restricted to masternodes whose protocol version is at least
	// minProtocol. ok is false if the masternode is unknown at that
	// height.
	Rank(vin wire.OutPoint, atHeight Height, minProtocol uint32) (rank int, ok bool)

	// Size is the total number of known masternodes.
	Size() int

	// StableSize is the number of masternodes excluding those recently
	// activated, used to compute the payment drift allowance when
	// MN_PAY_ENFORCE is active.
	StableSize() int

	// CountEnabled returns the number of enabled masternodes in tier.
	CountEnabled(tier Tier) int

	// DriftAllowance is the slack added to the masternode count when
	// computing a required payment, to tolerate peers disagreeing on
	// the exact registry size.
	DriftAllowance() int

	// NextInQueueForPayment returns the masternode next due a payment
	// in tier at height, optionally restricted to enabled nodes.
	NextInQueueForPayment(height Height, tier Tier, onlyEnabled bool) (MasternodeInfo, bool)

	// CurrentMasternode returns the offset-th highest-ranked live
	// masternode in tier (offset is 1-based), used as a fallback payee
	// when no vote tally exists yet for a height.
	CurrentMasternode(tier Tier, offset int) (MasternodeInfo, bool)
}

// BudgetTxStatus is the outcome of validating a transaction against a
// finalized budget (superblock) payment schedule.
type BudgetTxStatus int

const (
	// BudgetInvalid means the schedule is known and the transaction
	// does not pay it.
	BudgetInvalid BudgetTxStatus = iota
	// BudgetValid means the transaction matches a finalized budget.
	BudgetValid
	// BudgetNoActiveSchedule means there is no finalized budget to
	// check against (e.g. insufficient votes, or none submitted) — the
	// block falls back to the masternode payment path.
	BudgetNoActiveSchedule
)

// Budget is the governance/superblock subsystem. Out of scope for this
// package per spec §1; modeled only for the handful of calls
// BlockBuilder/BlockValidator make into it.
type Budget interface {
	IsBudgetPaymentBlock(height Height) bool
	IsTransactionValid(tx *wire.MsgTx, height Height) BudgetTxStatus
	FillBlockPayee(tx *wire.MsgTx, fees btcutil.Amount, isPoS bool, blockValue btcutil.Amount)
	FillTreasuryBlockPayee(tx *wire.MsgTx, fees btcutil.Amount, isPoS bool, blockValue btcutil.Amount)
	// CycleLength is the number of blocks in one budget/superblock
	// cycle, used to find where a height falls within its cycle.
	CycleLength() int
}

// TreasuryPayee is one hard-coded developer/community split at a given
// treasury height.
type TreasuryPayee struct {
	Script  Script
	Percent int
}

// Treasury is the hard-coded address/percentage split ruleset. Out of
// scope per spec §1.
type Treasury interface {
	IsTreasuryBlock(height Height) bool
	Schedule(height Height) []TreasuryPayee
	Award(height Height) btcutil.Amount
}

// SporkID names one of the policy toggles this package reads.
type SporkID int

const (
	SporkMNPayEnforce    SporkID = 8
	SporkBudgetEnforce   SporkID = 9
	SporkPayUpdatedNodes SporkID = 10
	SporkSuperblocks     SporkID = 13
	SporkTreasuryEnforce SporkID = 17
	SporkNewTiers        SporkID = 18
)

// Sporks is the network-wide policy toggle service. Out of scope per
// spec §1; this package only ever reads toggles, never writes them.
type Sporks interface {
	Active(id SporkID) bool
	TimestampActive(id SporkID, t time.Time) bool
}

// Economics computes consensus-critical reward and payment amounts. Out
// of scope per spec §1.
type Economics interface {
	BlockValue(height Height, isPoS bool, coinAge uint64) btcutil.Amount
	MNPayment(height Height, blockValue btcutil.Amount, isPoS bool, tier Tier, drift int, hasZCSpend bool) btcutil.Amount
	CoinAge(tx *wire.MsgTx, blockTime time.Time, height Height) uint64
}

// Chain is the active chain and block index. Out of scope per spec §1;
// this package only ever needs tip height and buried-ancestor/height
// lookups.
//
// Implementations must never block this package's callers: per spec §5
// the chain-state lock is acquired with a non-blocking try-lock, and on
// contention an implementation should return its best cached value for
// TipHeight, or false for HasBlockAtHeight/HeightForPrevHash — never
// wait. Occasional missed votes from a stale read are tolerated by the
// eventual-consistency model; a blocked chain-processing thread is not.
type Chain interface {
	TipHeight() Height
	HasBlockAtHeight(height Height) bool
	HeightForPrevHash(prevHash Hash256) (Height, bool)
}

// PeerOps is the narrow capability a peer pointer is reduced to (spec
// §9): no back-reference into the networking stack, just the handful of
// operations the gossip/election paths need to perform against one
// peer.
type PeerOps interface {
	// AskForMNList requests a full masternode-list refresh from peer.
	AskForMNList(ctx context.Context, peer PeerID) error
	// AskForMN requests a targeted lookup of vin from peer.
	AskForMN(ctx context.Context, peer PeerID, vin wire.OutPoint) error
	// PushInventory announces a Winner's id to peer.
	PushInventory(peer PeerID, id Hash256) error
	// Misbehave applies a misbehavior score penalty to peer.
	Misbehave(peer PeerID, score int)
}

// SyncStatus reports whether the host has caught up with the chain
// header stream, and is notified of winners seen/forgotten so the
// masternode-list sync subsystem can track progress. Out of scope per
// spec §1.
type SyncStatus interface {
	IsBlockchainSynced() bool
	IsFullySynced() bool
	NotifyWinnerSeen(id Hash256)
	NotifyWinnerForgotten(id Hash256)
}

// Broadcaster announces a Winner's id to every connected peer (a
// CInv(MSG_MASTERNODE_WINNER, id) in the original wire protocol). It is
// used both by Gossip's relay-once step and by Elector after a
// successful local self-vote.
type Broadcaster interface {
	BroadcastWinner(id Hash256)
}

// Signer is the persistent signer service (spec §1): it holds operator
// private keys and signs on behalf of a voter outpoint without ever
// exposing the key material to this package.
type Signer interface {
	// Sign returns a signature over digest using the operator private
	// key registered for voter. It returns an error if no such key is
	// held (or it does not match), which callers surface as
	// ErrBadSigner.
	Sign(voter wire.OutPoint, digest [32]byte) ([]byte, error)
}

// Deps bundles the capability collaborators every component other than
// Winner needs. Constructing one Deps value and sharing it between a
// Ledger, Gossip, Elector, BlockBuilder, and BlockValidator is the
// intended wiring; tests substitute fakes for some or all fields.
type Deps struct {
	Registry  Registry
	Budget    Budget
	Treasury  Treasury
	Sporks    Sporks
	Economics Economics
	Chain     Chain
}

// ActiveProtocol returns the minimum protocol version a vote, or the
// peer relaying it, must speak. When PAY_UPDATED_NODES is active only
// up-to-date peers are accepted; otherwise older peers are tolerated as
// long as they're still within the network's absolute floor.
func ActiveProtocol(sporks Sporks, currentProtocol, minProtocolBeforeEnforcement uint32) uint32 {
	if sporks.Active(SporkPayUpdatedNodes) {
		return currentProtocol
	}
	return minProtocolBeforeEnforcement
}
