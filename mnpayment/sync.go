// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

// SyncStatusCountTag is the tag carried in the "ssc"
// (sync_status_count) message pushed after a vote replay, naming which
// sync category the count belongs to.
const SyncStatusCountTag = "MASTERNODE_SYNC_MNW"

// FutureTolerance is how far past the current tip a vote's height may
// still be accepted (spec §4.4 step 5, §6).
const FutureTolerance = 20

// Sync answers a peer's "mnget" request: it pushes an inventory
// announcement for every known vote whose height falls in
// [tip-min(countNeeded, 1.25*count_enabled_for_tier), tip+20] (spec §6).
//
// It returns the number of inventories pushed. Sync does not send the
// trailing "ssc" message itself; the host sends it with
// SyncStatusCountTag and the returned count. A returned count of zero
// is not an error — it just means nothing in range was known.
func (l *Ledger) Sync(peer PeerID, countNeeded int, peerOps PeerOps) int {
	tip := l.deps.Chain.TipHeight()

	l.mu.RLock()
	defer l.mu.RUnlock()

	pushed := 0
	for id, w := range l.votesByID {
		enabledForTier := l.deps.Registry.CountEnabled(w.PayeeTier)
		lookback := int(float64(enabledForTier) * RetentionScale)
		if countNeeded < lookback {
			lookback = countNeeded
		}
		lo := tip - Height(lookback)
		hi := tip + FutureTolerance
		if w.BlockHeight < lo || w.BlockHeight > hi {
			continue
		}
		if err := peerOps.PushInventory(peer, id); err != nil {
			log.Debugf("mnpayment: push inventory to %s failed: %v", peer, err)
			continue
		}
		pushed++
	}
	return pushed
}
