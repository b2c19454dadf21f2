// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"sync"

	"github.com/btcsuite/btcd/wire"
)

// RetentionFloor is the minimum number of blocks behind tip a vote is
// kept for, even on a tiny registry.
const RetentionFloor = 1000

// RetentionScale multiplies the registry size to derive the retention
// window on larger networks.
const RetentionScale = 1.25

// voterKey identifies a (voter, tier) pair for the double-vote history.
type voterKey struct {
	Voter wire.OutPoint
	Tier  Tier
}

// Ledger is the process-wide store of accepted votes and their
// per-height tallies (spec §3, "PaymentLedger"). It is safe for
// concurrent use.
//
// Two locks protect it, always acquired in this order when both are
// needed: mu guards votesByID and voterHistory, talliesMu guards
// talliesByHeight. Every exported method that needs both takes them in
// that order itself; no caller is ever handed a raw lock, which is what
// makes the ordering impossible to get backwards from outside the
// package.
type Ledger struct {
	deps Deps
	sync SyncStatus

	mu           sync.RWMutex
	votesByID    map[Hash256]*Winner
	voterHistory map[voterKey]Height

	talliesMu       sync.RWMutex
	talliesByHeight map[Height]*BlockPayees

	lastHeightMu        sync.Mutex
	lastProcessedHeight Height
}

// NewLedger creates an empty Ledger using deps for its registry/chain
// lookups and sync for vote-seen/forgotten notifications. sync may be
// nil, in which case notifications are simply skipped — useful in
// tests that don't care about sync bookkeeping.
func NewLedger(deps Deps, sync SyncStatus) *Ledger {
	return &Ledger{
		deps:            deps,
		sync:            sync,
		votesByID:       make(map[Hash256]*Winner),
		voterHistory:    make(map[voterKey]Height),
		talliesByHeight: make(map[Height]*BlockPayees),
	}
}

// CanVote reports whether voter may cast a new vote for tier at height:
// true iff voter has not already voted for this tier at an equal or
// greater height (spec invariant I4).
func (l *Ledger) CanVote(voter wire.OutPoint, height Height, tier Tier) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	last, ok := l.voterHistory[voterKey{voter, tier}]
	return !ok || last < height
}

// AcceptVote atomically admits w into the ledger, reporting whether it
// did. It returns false for a duplicate id and for an anchor block
// (block_height - 100) that is at or below zero or not yet known.
//
// Steps 3-5 of spec §4.3 are observed together by all readers: a reader
// that sees w in votesByID after AcceptVote returns true will also see
// its tally update and its voterHistory bump, because both happen while
// mu and talliesMu are held.
func (l *Ledger) AcceptVote(w *Winner) bool {
	id := w.ID()

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.votesByID[id]; exists {
		return false
	}

	anchorHeight := w.BlockHeight - 100
	if anchorHeight <= 0 || !l.deps.Chain.HasBlockAtHeight(anchorHeight) {
		return false
	}

	l.votesByID[id] = w

	l.talliesMu.Lock()
	bp, ok := l.talliesByHeight[w.BlockHeight]
	if !ok {
		bp = NewBlockPayees(w.BlockHeight)
		l.talliesByHeight[w.BlockHeight] = bp
	}
	bp.Add(w.Payee, w.PayeeTier, w.PayeeVin, 1)
	l.talliesMu.Unlock()

	key := voterKey{w.Voter, w.PayeeTier}
	if prev, ok := l.voterHistory[key]; !ok || w.BlockHeight > prev {
		l.voterHistory[key] = w.BlockHeight
	}

	if l.sync != nil {
		l.sync.NotifyWinnerSeen(id)
	}

	return true
}

// Lookup returns the accepted vote with the given id, if any.
func (l *Ledger) Lookup(id Hash256) (*Winner, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	w, ok := l.votesByID[id]
	return w, ok
}

// GetPayee returns the winning payee for tier at height, or false if no
// tally exists yet for that height.
func (l *Ledger) GetPayee(height Height, tier Tier) (Script, bool) {
	l.talliesMu.RLock()
	defer l.talliesMu.RUnlock()
	bp, ok := l.talliesByHeight[height]
	if !ok {
		return nil, false
	}
	return bp.GetPayee(tier)
}

// Tally returns the BlockPayees for height, if one has been created.
// The returned value must not be mutated by the caller; use AcceptVote
// to record new votes.
func (l *Ledger) Tally(height Height) (*BlockPayees, bool) {
	l.talliesMu.RLock()
	defer l.talliesMu.RUnlock()
	bp, ok := l.talliesByHeight[height]
	return bp, ok
}

// IsScheduled reports whether mn is the winning payee at its tier for
// any height in [tip, tip+8] other than notHeight — "is this masternode
// about to get paid" (spec §4.3).
func (l *Ledger) IsScheduled(mn MasternodeInfo, notHeight Height) bool {
	tip := l.deps.Chain.TipHeight()
	payee := mn.PayeeScript()

	l.talliesMu.RLock()
	defer l.talliesMu.RUnlock()

	for h := tip; h <= tip+8; h++ {
		if h == notHeight {
			continue
		}
		bp, ok := l.talliesByHeight[h]
		if !ok {
			continue
		}
		winner, ok := bp.GetPayee(mn.Tier)
		if ok && winner.Equal(payee) {
			return true
		}
	}
	return false
}

// retention returns the number of blocks behind tip a vote is kept for.
func (l *Ledger) retention() Height {
	n := int(float64(l.deps.Registry.Size()) * RetentionScale)
	if n < RetentionFloor {
		n = RetentionFloor
	}
	return Height(n)
}

// Clean removes every vote (and its height's entire tally) whose age
// exceeds the retention window relative to tip (spec §3 "Lifecycle",
// invariant P5). Because erasing a height wipes the whole bucket, the
// bucket is erased on the first stale vote found for a given height;
// every stale vote is still removed from the vote index individually,
// same as the original's CleanPaymentList.
func (l *Ledger) Clean(tip Height) {
	retention := l.retention()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.talliesMu.Lock()
	defer l.talliesMu.Unlock()

	seenHeights := make(map[Height]bool)
	for id, w := range l.votesByID {
		if tip-w.BlockHeight <= retention {
			continue
		}
		delete(l.votesByID, id)
		if !seenHeights[w.BlockHeight] {
			delete(l.talliesByHeight, w.BlockHeight)
			seenHeights[w.BlockHeight] = true
		}
		if l.sync != nil {
			l.sync.NotifyWinnerForgotten(id)
		}
	}
}

// OldestBlock returns the smallest height with a tally, or false if the
// ledger holds no tallies.
func (l *Ledger) OldestBlock() (Height, bool) {
	l.talliesMu.RLock()
	defer l.talliesMu.RUnlock()
	var (
		oldest Height
		found  bool
	)
	for h := range l.talliesByHeight {
		if !found || h < oldest {
			oldest = h
			found = true
		}
	}
	return oldest, found
}

// NewestBlock returns the largest height with a tally, or false if the
// ledger holds no tallies.
func (l *Ledger) NewestBlock() (Height, bool) {
	l.talliesMu.RLock()
	defer l.talliesMu.RUnlock()
	var newest Height
	found := false
	for h := range l.talliesByHeight {
		if !found || h > newest {
			newest = h
			found = true
		}
	}
	return newest, found
}

// Stats is a diagnostics-only summary, the Go equivalent of the
// original's CMasternodePayments::ToString.
type Stats struct {
	Votes  int
	Blocks int
}

// Stats returns the current vote and tally-bucket counts.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	votes := len(l.votesByID)
	l.mu.RUnlock()

	l.talliesMu.RLock()
	blocks := len(l.talliesByHeight)
	l.talliesMu.RUnlock()

	return Stats{Votes: votes, Blocks: blocks}
}

// LastProcessedHeight returns the last height at which this node's own
// Elector emitted votes.
func (l *Ledger) LastProcessedHeight() Height {
	l.lastHeightMu.Lock()
	defer l.lastHeightMu.Unlock()
	return l.lastProcessedHeight
}

// tryAdvanceLastProcessedHeight atomically sets lastProcessedHeight to
// height if height is strictly greater than the current value,
// reporting whether it did so. This is the single-writer guard spec §5
// requires of the Elector: two concurrent elections racing for the same
// height will have exactly one of them win.
func (l *Ledger) tryAdvanceLastProcessedHeight(height Height) bool {
	l.lastHeightMu.Lock()
	defer l.lastHeightMu.Unlock()
	if height <= l.lastProcessedHeight {
		return false
	}
	l.lastProcessedHeight = height
	return true
}

// Restore replaces the ledger's contents with previously-persisted
// votes and tallies (spec §6, C8 persistence). It does not run Clean;
// callers decide separately whether to prune after a restore (the
// persisted snapshot's dry_run flag).
func (l *Ledger) Restore(votes map[Hash256]*Winner, tallies map[Height]*BlockPayees, lastProcessedHeight Height) {
	l.mu.Lock()
	l.votesByID = votes
	l.voterHistory = make(map[voterKey]Height, len(votes))
	for _, w := range votes {
		key := voterKey{w.Voter, w.PayeeTier}
		if prev, ok := l.voterHistory[key]; !ok || w.BlockHeight > prev {
			l.voterHistory[key] = w.BlockHeight
		}
	}
	l.mu.Unlock()

	l.talliesMu.Lock()
	l.talliesByHeight = tallies
	l.talliesMu.Unlock()

	l.lastHeightMu.Lock()
	l.lastProcessedHeight = lastProcessedHeight
	l.lastHeightMu.Unlock()
}

// Snapshot returns copies of the ledger's two maps and its last
// processed height, suitable for Persistence.Write.
func (l *Ledger) Snapshot() (map[Hash256]*Winner, map[Height]*BlockPayees, Height) {
	l.mu.RLock()
	votes := make(map[Hash256]*Winner, len(l.votesByID))
	for id, w := range l.votesByID {
		votes[id] = w
	}
	l.mu.RUnlock()

	l.talliesMu.RLock()
	tallies := make(map[Height]*BlockPayees, len(l.talliesByHeight))
	for h, bp := range l.talliesByHeight {
		tallies[h] = bp
	}
	l.talliesMu.RUnlock()

	return votes, tallies, l.LastProcessedHeight()
}
