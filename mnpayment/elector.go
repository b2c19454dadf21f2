// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import "github.com/btcsuite/btcd/wire"

// LocalMasternode is the identity of a masternode this node itself
// operates, if any. A node with no local masternode configured never
// elects — Elector.OnNewTip becomes a no-op (spec §4.6 step 1).
type LocalMasternode struct {
	Vin wire.OutPoint
}

// Elector votes on behalf of a locally-operated masternode each time a
// new chain tip is observed (spec §3, C5). It is driven by exactly one
// caller at a time per spec §5's single-writer election rule; concurrent
// calls for the same height race on Ledger.tryAdvanceLastProcessedHeight
// and exactly one wins.
type Elector struct {
	ledger *Ledger
	deps   Deps
	signer Signer
	bcast  Broadcaster

	currentProtocol  uint32
	minProtocolFloor uint32

	self *LocalMasternode
}

// NewElector creates an Elector voting as self using signer to sign its
// ballots. self may be nil, in which case OnNewTip always stops at step
// 1 (no local masternode configured). currentProtocol and
// minProtocolFloor are the same values passed to NewGossip, so both
// paths agree on active_protocol() (spec §4.5/§4.6).
func NewElector(ledger *Ledger, deps Deps, signer Signer, bcast Broadcaster, self *LocalMasternode, currentProtocol, minProtocolFloor uint32) *Elector {
	return &Elector{
		ledger:           ledger,
		deps:             deps,
		signer:           signer,
		bcast:            bcast,
		currentProtocol:  currentProtocol,
		minProtocolFloor: minProtocolFloor,
		self:             self,
	}
}

// OnNewTip runs the election for nBlockHeight, implementing spec §4.6
// steps 1-6 in order. It returns the votes it cast (for diagnostics and
// tests); on any early stop it returns nil.
func (e *Elector) OnNewTip(nBlockHeight Height) []*Winner {
	// 1. Must be configured as a masternode.
	if e.self == nil {
		return nil
	}

	// 2. No duplicate election per height.
	if nBlockHeight <= e.ledger.LastProcessedHeight() {
		return nil
	}

	// 3. Self-rank gate.
	active := ActiveProtocol(e.deps.Sporks, e.currentProtocol, e.minProtocolFloor)
	rank, ok := e.deps.Registry.Rank(e.self.Vin, nBlockHeight-100, active)
	if !ok || rank > VoterTopN {
		return nil
	}

	// 4. Budget owns superblocks.
	if e.deps.Budget.IsBudgetPaymentBlock(nBlockHeight) {
		log.Debugf("mnpayment: height %d is a budget block, not electing", nBlockHeight)
		return nil
	}

	// 5. Elect one payee per tier.
	var winners []*Winner
	for t := TierMin; t <= TierMax; t++ {
		payeeMN, ok := e.deps.Registry.NextInQueueForPayment(nBlockHeight, t, true)
		if !ok {
			continue
		}

		w := NewWinner(e.self.Vin, nBlockHeight, payeeMN.PayeeScript(), payeeMN.Vin, t)
		if err := w.Sign(e.signer); err != nil {
			log.Warnf("mnpayment: tier %d election at height %d: %v", t, nBlockHeight, err)
			continue
		}
		if !e.ledger.AcceptVote(w) {
			log.Debugf("mnpayment: tier %d election at height %d rejected by ledger", t, nBlockHeight)
			continue
		}
		winners = append(winners, w)
	}

	// 6. Relay and advance the watermark. The watermark always advances
	// when we reach this point, even if every tier above was skipped —
	// an empty election at H still means H has been considered.
	if e.bcast != nil {
		for _, w := range winners {
			e.bcast.BroadcastWinner(w.ID())
		}
	}
	e.ledger.tryAdvanceLastProcessedHeight(nBlockHeight)

	return winners
}
