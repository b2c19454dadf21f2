// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keystore provides a minimal in-memory mnpayment.Signer: a map
// of masternode collateral outpoint to the operator private key that
// votes on its behalf. It exists for hosts simple enough to hold
// operator keys directly in process memory; anything needing an HSM or
// a remote signer implements mnpayment.Signer itself.
package keystore

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/wire"

	"github.com/pivx-project/mnpayments/internal/zero"
	"github.com/pivx-project/mnpayments/mnpayment"
)

// Keystore holds operator private keys in memory, indexed by the
// masternode collateral outpoint they vote for.
type Keystore struct {
	mu   sync.RWMutex
	keys map[wire.OutPoint]*btcec.PrivateKey
}

// New creates an empty Keystore.
func New() *Keystore {
	return &Keystore{keys: make(map[wire.OutPoint]*btcec.PrivateKey)}
}

// Add registers key as the operator key voting on behalf of vin. It
// replaces any previously registered key, zeroing the one it displaces.
func (k *Keystore) Add(vin wire.OutPoint, key *btcec.PrivateKey) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if old, ok := k.keys[vin]; ok {
		zeroPrivateKey(old)
	}
	k.keys[vin] = key
}

// Remove erases and forgets the operator key registered for vin, if
// any.
func (k *Keystore) Remove(vin wire.OutPoint) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if key, ok := k.keys[vin]; ok {
		zeroPrivateKey(key)
		delete(k.keys, vin)
	}
}

// Sign implements mnpayment.Signer: it produces a DER-encoded ECDSA
// signature over digest using the key registered for voter.
func (k *Keystore) Sign(voter wire.OutPoint, digest [32]byte) ([]byte, error) {
	k.mu.RLock()
	key, ok := k.keys[voter]
	k.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("keystore: no operator key registered for %s-%d", voter.Hash, voter.Index)
	}
	sig := ecdsa.Sign(key, digest[:])
	return sig.Serialize(), nil
}

// zeroPrivateKey clears a private key's scalar from memory before
// dropping the last reference to it.
func zeroPrivateKey(key *btcec.PrivateKey) {
	b := key.Serialize()
	zero.Bytes(b)
	key.Zero()
}

var _ mnpayment.Signer = (*Keystore)(nil)
