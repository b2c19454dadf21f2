// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// VoterTopN is the rank cutoff a voter's masternode must be within (at
// the vote's anchor height) for its vote to be accepted outright
// (MNPAYMENTS_SIGNATURES_TOTAL in the original source). A vote from a
// voter ranked between N and 2N is dropped without penalty; beyond 2N
// it is also dropped and treated as misbehavior once the host is fully
// synced (spec §4.5).
const VoterTopN = 10

// listRefreshCooldown bounds how often this package will ask any one
// peer for a full masternode-list refresh in response to repeated
// legacy-form votes it cannot resolve.
const listRefreshCooldown = 3 * time.Hour

// Gossip is the inbound vote-message handler (spec §3, C4). One Gossip
// is shared by every peer connection; it owns no per-peer state beyond
// the throttling bookkeeping needed to avoid hammering a peer with
// masternode-list refresh requests.
type Gossip struct {
	ledger *Ledger
	deps   Deps
	sync   SyncStatus

	currentProtocol  uint32
	minProtocolFloor uint32

	refreshMu    sync.Mutex
	lastRefresh  map[PeerID]time.Time
	refreshGroup singleflight.Group
}

// NewGossip creates a Gossip delivering accepted votes into ledger.
// currentProtocol is this node's own protocol version; minProtocolFloor
// is the network-wide absolute floor tolerated when PAY_UPDATED_NODES is
// not active (spec §4.4 step 1, ActiveProtocol).
func NewGossip(ledger *Ledger, deps Deps, sync SyncStatus, currentProtocol, minProtocolFloor uint32) *Gossip {
	return &Gossip{
		ledger:           ledger,
		deps:             deps,
		sync:             sync,
		currentProtocol:  currentProtocol,
		minProtocolFloor: minProtocolFloor,
		lastRefresh:      make(map[PeerID]time.Time),
	}
}

// Ingest processes one vote message received from peer at peerProtoVersion,
// implementing spec §4.4 steps 1-9. It returns nil both when w is
// accepted and when it is silently dropped (stale version, out of
// window, already known, failed validation); no path returns a non-nil
// error, so callers may ignore the return value.
func (g *Gossip) Ingest(ctx context.Context, w *Winner, peer PeerID, peerProtoVersion uint32, peerOps PeerOps) error {
	if g.sync != nil && !g.sync.IsBlockchainSynced() {
		log.Debugf("mnpayment: dropping vote from %s, not yet synced", peer)
		return nil
	}

	// 1. Version gate.
	active := ActiveProtocol(g.deps.Sporks, g.currentProtocol, g.minProtocolFloor)
	if peerProtoVersion < active {
		log.Debugf("mnpayment: dropping vote from %s, protocol %d below %d", peer, peerProtoVersion, active)
		return nil
	}

	// 2. Legacy fill / resolve by vin, remembering the wire form as
	// received so step 3's choice of refresh vs. targeted ask reflects
	// what the sender actually sent, not what we just filled in.
	wasLegacy := w.IsLegacy()
	var (
		mn    MasternodeInfo
		found bool
	)
	if wasLegacy {
		mn, found = g.deps.Registry.FindByScript(w.Payee)
		if found {
			w.PayeeTier = mn.Tier
			w.PayeeVin = mn.Vin
		}
	} else {
		mn, found = g.deps.Registry.FindByVin(w.PayeeVin)
	}

	// 3. Unknown payee.
	if !found {
		if wasLegacy {
			g.requestListRefresh(ctx, peer, peerOps)
		} else if err := peerOps.AskForMN(ctx, peer, w.PayeeVin); err != nil {
			log.Debugf("mnpayment: ask for payee %s from %s failed: %v", outPointString(w.PayeeVin), peer, err)
		}
		return nil
	}

	// 4. Dedup.
	id := w.ID()
	if _, exists := g.ledger.Lookup(id); exists {
		if g.sync != nil {
			g.sync.NotifyWinnerSeen(id)
		}
		return nil
	}

	// 5. Window check.
	tip := g.deps.Chain.TipHeight()
	lookback := int(float64(g.deps.Registry.CountEnabled(w.PayeeTier)) * RetentionScale)
	lo := tip - Height(lookback)
	hi := tip + FutureTolerance
	if w.BlockHeight < lo || w.BlockHeight > hi {
		log.Debugf("mnpayment: dropping vote for height %d outside window [%d,%d]", w.BlockHeight, lo, hi)
		return nil
	}

	// 6. Structural validity (spec §4.5): voter known, rank within
	// tolerance, protocol current enough.
	voterMN, ok := g.deps.Registry.FindByVin(w.Voter)
	if !ok {
		if err := peerOps.AskForMN(ctx, peer, w.Voter); err != nil {
			log.Debugf("mnpayment: ask for voter %s from %s failed: %v", outPointString(w.Voter), peer, err)
		}
		return nil
	}
	if voterMN.ProtocolVersion < active {
		log.Debugf("mnpayment: dropping vote, voter %s on stale protocol %d", outPointString(w.Voter), voterMN.ProtocolVersion)
		return nil
	}
	rank, ok := g.deps.Registry.Rank(w.Voter, w.BlockHeight-100, active)
	if !ok {
		return nil
	}
	if rank > VoterTopN {
		if rank > 2*VoterTopN && g.sync != nil && g.sync.IsFullySynced() {
			peerOps.Misbehave(peer, 20)
		}
		log.Debugf("mnpayment: dropping vote, voter %s ranked %d", outPointString(w.Voter), rank)
		return nil
	}

	// 7. Anti-double-vote.
	if !g.ledger.CanVote(w.Voter, w.BlockHeight, w.PayeeTier) {
		log.Debugf("mnpayment: dropping vote, voter %s already voted at or after height %d for tier %d", outPointString(w.Voter), w.BlockHeight, w.PayeeTier)
		return nil
	}

	// 8. Signature.
	if !w.Verify(voterMN.OperatorPub) {
		peerOps.Misbehave(peer, 20)
		if err := peerOps.AskForMN(ctx, peer, w.Voter); err != nil {
			log.Debugf("mnpayment: re-ask for voter %s from %s failed: %v", outPointString(w.Voter), peer, err)
		}
		return nil
	}

	// 9. Accept and relay.
	if !g.ledger.AcceptVote(w) {
		return nil
	}
	if err := peerOps.PushInventory(peer, id); err != nil {
		log.Debugf("mnpayment: push inventory to %s failed: %v", peer, err)
	}
	return nil
}

// requestListRefresh asks peer for a full masternode-list refresh, at
// most once per listRefreshCooldown, collapsing concurrent callers for
// the same peer into a single request via the singleflight group.
func (g *Gossip) requestListRefresh(ctx context.Context, peer PeerID, peerOps PeerOps) {
	g.refreshMu.Lock()
	last, ok := g.lastRefresh[peer]
	due := !ok || time.Since(last) >= listRefreshCooldown
	if due {
		g.lastRefresh[peer] = time.Now()
	}
	g.refreshMu.Unlock()

	if !due {
		return
	}

	_, _, _ = g.refreshGroup.Do(string(peer), func() (interface{}, error) {
		if err := peerOps.AskForMNList(ctx, peer); err != nil {
			log.Debugf("mnpayment: masternode list refresh from %s failed: %v", peer, err)
		}
		return nil, nil
	})
}
