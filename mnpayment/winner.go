// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// Winner is a single signed vote: "masternode Voter elects Payee at
// tier PayeeTier for block BlockHeight".
//
// A Winner received with an empty PayeeVin (the nullOutPoint sentinel)
// is the legacy wire form; callers ingesting one must resolve PayeeVin
// and PayeeTier from the registry before it can be accepted (spec §3,
// §4.4 step 2).
type Winner struct {
	Voter       wire.OutPoint
	BlockHeight Height
	Payee       Script
	PayeeVin    wire.OutPoint
	PayeeTier   Tier
	Signature   []byte
}

// NewWinner builds an unsigned Winner for voter electing payee at tier
// for blockHeight.
func NewWinner(voter wire.OutPoint, blockHeight Height, payee Script, payeeVin wire.OutPoint, tier Tier) *Winner {
	return &Winner{
		Voter:       voter,
		BlockHeight: blockHeight,
		Payee:       payee,
		PayeeVin:    payeeVin,
		PayeeTier:   tier,
	}
}

// IsLegacy reports whether w was received without a resolved payee vin.
func (w *Winner) IsLegacy() bool {
	return isNullOutPoint(w.PayeeVin)
}

// signedMessage is the canonical byte string covered by Sign/Verify:
// concat(voter_short_string, decimal(block_height), payee_canonical_string).
func (w *Winner) signedMessage() []byte {
	var buf bytes.Buffer
	buf.WriteString(outPointString(w.Voter))
	fmt.Fprintf(&buf, "%d", w.BlockHeight)
	buf.WriteString(w.Payee.String())
	return buf.Bytes()
}

// digest returns the sha256 digest of the signed message, the value
// actually handed to the ECDSA sign/verify primitives.
func (w *Winner) digest() [32]byte {
	return chainhash.HashH(w.signedMessage())
}

// Sign produces w.Signature using signer, which must hold the operator
// private key registered for w.Voter. A mismatched or absent key
// surfaces as ErrBadSigner.
func (w *Winner) Sign(signer Signer) error {
	sig, err := signer.Sign(w.Voter, w.digest())
	if err != nil {
		return paymentError(ErrBadSigner, "masternode operator key rejected signing request", err)
	}
	w.Signature = sig
	return nil
}

// Verify reports whether w.Signature covers the canonical message under
// operatorPub.
func (w *Winner) Verify(operatorPub *btcec.PublicKey) bool {
	if len(w.Signature) == 0 || operatorPub == nil {
		return false
	}
	sig, err := ecdsa.ParseDERSignature(w.Signature)
	if err != nil {
		return false
	}
	digest := w.digest()
	return sig.Verify(digest[:], operatorPub)
}

// ID is the deterministic identity of w: the hash of its canonical
// serialization. Two Winners with the same ID are the same vote.
func (w *Winner) ID() Hash256 {
	var buf bytes.Buffer
	// Serialize errors only on an io.Writer failure; bytes.Buffer
	// never fails to write.
	_ = w.Serialize(&buf)
	return chainhash.HashH(buf.Bytes())
}

// Serialize writes w in its canonical, versioned field order: voter,
// block_height, payee, payee_vin, payee_tier, signature. Every field is
// always written: a legacy Winner (isNullOutPoint(PayeeVin)) is written
// with the null sentinel as its payee_vin and is recognised by that
// sentinel when read back, mirroring the original CTxIn() == CTxIn()
// legacy check. An encoding that omits payee_vin and payee_tier
// altogether is not produced, and Deserialize does not read one.
func (w *Winner) Serialize(wtr io.Writer) error {
	if err := writeOutPoint(wtr, w.Voter); err != nil {
		return err
	}
	if err := binary.Write(wtr, binary.LittleEndian, int32(w.BlockHeight)); err != nil {
		return err
	}
	if err := writeVarBytes(wtr, w.Payee); err != nil {
		return err
	}
	if err := writeOutPoint(wtr, w.PayeeVin); err != nil {
		return err
	}
	if err := binary.Write(wtr, binary.LittleEndian, uint8(w.PayeeTier)); err != nil {
		return err
	}
	return writeVarBytes(wtr, w.Signature)
}

// Deserialize reads a Winner previously written by Serialize, including
// the legacy form.
func (w *Winner) Deserialize(r io.Reader) error {
	voter, err := readOutPoint(r)
	if err != nil {
		return err
	}
	var height int32
	if err := binary.Read(r, binary.LittleEndian, &height); err != nil {
		return err
	}
	payee, err := readVarBytes(r)
	if err != nil {
		return err
	}
	payeeVin, err := readOutPoint(r)
	if err != nil {
		return err
	}
	var tier uint8
	if err := binary.Read(r, binary.LittleEndian, &tier); err != nil {
		return err
	}
	sig, err := readVarBytes(r)
	if err != nil {
		return err
	}

	w.Voter = voter
	w.BlockHeight = Height(height)
	w.Payee = Script(payee)
	w.PayeeVin = payeeVin
	w.PayeeTier = Tier(tier)
	w.Signature = sig
	return nil
}

// writeOutPoint writes the canonical 36-byte outpoint encoding: 32-byte
// hash followed by the little-endian output index. This is the same
// layout wtxmgr's canonicalOutPoint uses for its database keys.
func writeOutPoint(w io.Writer, op wire.OutPoint) error {
	if _, err := w.Write(op.Hash[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, op.Index)
}

func readOutPoint(r io.Reader) (wire.OutPoint, error) {
	var op wire.OutPoint
	if _, err := io.ReadFull(r, op.Hash[:]); err != nil {
		return op, err
	}
	if err := binary.Read(r, binary.LittleEndian, &op.Index); err != nil {
		return op, err
	}
	return op, nil
}

// writeVarBytes writes a uint32 little-endian length prefix followed by
// data.
func writeVarBytes(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(data))); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}

func readVarBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	const maxVarBytes = 1 << 24
	if n > maxVarBytes {
		return nil, fmt.Errorf("mnpayment: unreasonable length prefix %d", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}
