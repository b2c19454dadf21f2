// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// MinSigsPerPayee is the minimum vote count a payee must reach before it
// is consensus-enforced (MNPAYMENTS_SIGNATURES_REQUIRED in the original
// source).
const MinSigsPerPayee = 6

// PayeeTally is the running vote count for one (height, tier, payee)
// triple.
type PayeeTally struct {
	Payee    Script
	PayeeVin wire.OutPoint
	Tier     Tier
	Votes    uint32
}

// BlockPayees aggregates votes for every payee nominated at one height.
// Entries are kept in insertion order so that tie-breaking (spec
// invariant P4: ties resolve to first-inserted) falls out of a plain
// linear scan rather than needing an explicit sequence counter.
//
// BlockPayees has no lock of its own; callers (Ledger) serialize access
// to it under the tallies-by-height lock, matching how the original
// source's single cs_vecPayments critical section covered every
// CMasternodeBlockPayees instance.
type BlockPayees struct {
	Height  Height
	entries []*PayeeTally
}

// NewBlockPayees creates an empty tally for height.
func NewBlockPayees(height Height) *BlockPayees {
	return &BlockPayees{Height: height}
}

// Add records deltaVotes more votes for payee at tier. If a tally for
// this exact script already exists its vote count is incremented and
// its tier left unchanged (new script means new entry; disagreeing tier
// claims never reassign an existing entry's tier).
func (bp *BlockPayees) Add(payee Script, tier Tier, payeeVin wire.OutPoint, deltaVotes uint32) {
	for _, e := range bp.entries {
		if e.Payee.Equal(payee) {
			e.Votes += deltaVotes
			return
		}
	}
	bp.entries = append(bp.entries, &PayeeTally{
		Payee:    payee,
		PayeeVin: payeeVin,
		Tier:     tier,
		Votes:    deltaVotes,
	})
}

// Entries returns the tallies in insertion order. The slice is owned by
// BlockPayees; callers must not mutate it.
func (bp *BlockPayees) Entries() []*PayeeTally {
	return bp.entries
}

// GetPayee returns the payee with the most votes among entries matching
// tier. Ties resolve to the first-inserted entry.
func (bp *BlockPayees) GetPayee(tier Tier) (Script, bool) {
	var best *PayeeTally
	for _, e := range bp.entries {
		if e.Tier != tier {
			continue
		}
		if best == nil || e.Votes > best.Votes {
			best = e
		}
	}
	if best == nil {
		return nil, false
	}
	return best.Payee, true
}

// RequiredPaymentsString renders a human-readable summary of every
// tally at this height, for diagnostics only.
func (bp *BlockPayees) RequiredPaymentsString() string {
	if len(bp.entries) == 0 {
		return "Unknown"
	}
	parts := make([]string, 0, len(bp.entries))
	for _, e := range bp.entries {
		parts = append(parts, fmt.Sprintf("%s:%d:%d", e.Payee.String(), e.Tier, e.Votes))
	}
	return strings.Join(parts, ", ")
}

// requiredPayments computes, for every tally that has reached
// MinSigsPerPayee votes, the minimum output value a block must pay that
// tier's winning payee. Tiers below the threshold are not enforced at
// all (the block is accepted on whichever chain is longest). When
// payNewTiers is false, every tier except TierMax is ignored outright,
// matching the legacy single-tier chain behavior.
//
// Ties between two payees at the same tier that both somehow reached
// the threshold keep only the highest-voted one, mirroring the
// original's max_signatures map (it holds one entry per level).
func (bp *BlockPayees) requiredPayments(payNewTiers bool) map[Tier]*PayeeTally {
	out := make(map[Tier]*PayeeTally)
	for _, e := range bp.entries {
		if e.Votes < MinSigsPerPayee {
			continue
		}
		if !payNewTiers && e.Tier != TierMax {
			continue
		}
		cur, ok := out[e.Tier]
		if !ok || e.Votes > cur.Votes {
			out[e.Tier] = e
		}
	}
	return out
}

// IsTransactionValid checks txOutputs against this height's tally per
// spec §4.7: every tier that reached MinSigsPerPayee votes must be paid
// at least its required amount to *some* output carrying that tier's
// winning payee script. If no tally has reached the threshold, the
// block is accepted unconditionally (insufficient consensus to enforce
// anything yet).
func (bp *BlockPayees) IsTransactionValid(
	txOutputs []*wire.TxOut,
	blockHeight Height,
	blockValue btcutil.Amount,
	isPoS bool,
	drift int,
	payNewTiers bool,
	hasZCSpend bool,
	economics Economics,
) bool {
	required := bp.requiredPayments(payNewTiers)
	if len(required) == 0 {
		log.Debugf("mnpayment: no tier reached %d votes at height %d, accepting", MinSigsPerPayee, blockHeight)
		return true
	}

	for tier, payee := range required {
		need := economics.MNPayment(blockHeight, blockValue, isPoS, tier, drift, hasZCSpend)

		paid := false
		for _, out := range txOutputs {
			if !Script(out.PkScript).Equal(payee.Payee) {
				continue
			}
			if btcutil.Amount(out.Value) >= need {
				paid = true
				break
			}
		}
		if paid {
			delete(required, tier)
			if len(required) == 0 {
				return true
			}
			continue
		}
	}

	return len(required) == 0
}
