// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mnpayment implements the masternode payment election and
// validation engine: a gossip-driven vote tally that picks, for every
// future block, which masternode gets paid, the block-template logic
// that inserts the winner's payment output, and the consensus validator
// that accepts or rejects incoming blocks based on whether their payment
// outputs match the elected winners.
//
// The package never talks to the network, the chain index, the
// masternode registry, or the governance/budget subsystem directly.
// Those collaborators are modeled as capability interfaces (Registry,
// Budget, Treasury, Sporks, Economics, Chain, PeerOps, Signer,
// SyncStatus) and injected at construction (PeerOps is passed per call
// to Gossip.Ingest and Ledger.Sync), so the election/validation
// logic can be tested in isolation with in-memory fakes.
package mnpayment
