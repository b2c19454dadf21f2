// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// magicMessage is the file-format tag written ahead of the network
// magic and the serialized ledger, unchanged since the original
// masternode payment cache file.
const magicMessage = "MasternodePayments"

// ReadResult reports the outcome of Persistence.Read, mirroring the
// original CMasternodePaymentDB::ReadResult enum so every failure mode
// named in spec §7's "Persistence" error kind has a distinct value.
type ReadResult int

const (
	ReadOK ReadResult = iota
	ReadFileError
	ReadHashReadError
	ReadIncorrectHash
	ReadIncorrectMagicMessage
	ReadIncorrectMagicNumber
	ReadIncorrectFormat
)

func (r ReadResult) String() string {
	switch r {
	case ReadOK:
		return "ok"
	case ReadFileError:
		return "file error"
	case ReadHashReadError:
		return "hash read error"
	case ReadIncorrectHash:
		return "checksum mismatch"
	case ReadIncorrectMagicMessage:
		return "incorrect magic message"
	case ReadIncorrectMagicNumber:
		return "incorrect network magic"
	case ReadIncorrectFormat:
		return "incorrect format"
	default:
		return "unknown"
	}
}

// Persistence snapshots and restores a Ledger to a single framed file
// (spec §3, C8; file format per spec §6). A write failure is advisory —
// callers log and continue, since gossip resync rebuilds the ledger from
// peers (spec §7).
type Persistence struct {
	path         string
	networkMagic [4]byte
}

// NewPersistence creates a Persistence reading/writing path, tagging the
// file with networkMagic (the chain's wire.BitcoinNet bytes) so a file
// from the wrong network is rejected rather than silently misread.
func NewPersistence(path string, networkMagic [4]byte) *Persistence {
	return &Persistence{path: path, networkMagic: networkMagic}
}

// Write snapshots ledger to disk: magic message, network magic, the
// canonical serialization of its two maps, then a trailing sha256d
// checksum over everything before it.
func (p *Persistence) Write(ledger *Ledger) error {
	votes, tallies, lastHeight := ledger.Snapshot()

	var buf bytes.Buffer
	if err := writeVarBytes(&buf, []byte(magicMessage)); err != nil {
		return err
	}
	if _, err := buf.Write(p.networkMagic[:]); err != nil {
		return err
	}
	if err := serializeLedger(&buf, votes, tallies, lastHeight); err != nil {
		return err
	}

	checksum := chainhash.DoubleHashB(buf.Bytes())

	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("mnpayment: failed to open %s: %w", p.path, err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("mnpayment: failed to write %s: %w", p.path, err)
	}
	if _, err := f.Write(checksum); err != nil {
		return fmt.Errorf("mnpayment: failed to write %s: %w", p.path, err)
	}

	log.Debugf("mnpayment: wrote %d votes, %d blocks to %s", len(votes), len(tallies), p.path)
	return nil
}

// Read restores ledger from disk. dryRun, when true, skips the Clean
// pass that would otherwise prune stale entries immediately after a
// successful load (used when the caller wants to inspect the raw
// on-disk state, e.g. a diagnostic dump tool).
func (p *Persistence) Read(ledger *Ledger, tip Height, dryRun bool) ReadResult {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		log.Warnf("mnpayment: failed to open %s: %v", p.path, err)
		return ReadFileError
	}
	if len(raw) < chainhash.HashSize {
		log.Warnf("mnpayment: %s too small to contain a checksum", p.path)
		return ReadHashReadError
	}

	body := raw[:len(raw)-chainhash.HashSize]
	wantHash := raw[len(raw)-chainhash.HashSize:]

	gotHash := chainhash.DoubleHashB(body)
	if !bytes.Equal(gotHash, wantHash) {
		log.Warnf("mnpayment: checksum mismatch reading %s, data corrupted", p.path)
		return ReadIncorrectHash
	}

	r := bytes.NewReader(body)

	magic, err := readVarBytes(r)
	if err != nil {
		log.Warnf("mnpayment: failed to read magic message from %s: %v", p.path, err)
		return ReadIncorrectFormat
	}
	if string(magic) != magicMessage {
		log.Warnf("mnpayment: invalid masternode payment cache magic message in %s", p.path)
		return ReadIncorrectMagicMessage
	}

	var gotNet [4]byte
	if _, err := io.ReadFull(r, gotNet[:]); err != nil {
		log.Warnf("mnpayment: failed to read network magic from %s: %v", p.path, err)
		return ReadIncorrectFormat
	}
	if gotNet != p.networkMagic {
		log.Warnf("mnpayment: invalid network magic in %s", p.path)
		return ReadIncorrectMagicNumber
	}

	votes, tallies, lastHeight, err := deserializeLedger(r)
	if err != nil {
		log.Warnf("mnpayment: failed to deserialize %s: %v", p.path, err)
		return ReadIncorrectFormat
	}

	ledger.Restore(votes, tallies, lastHeight)
	log.Infof("mnpayment: loaded %d votes, %d blocks from %s", len(votes), len(tallies), p.path)

	if !dryRun {
		log.Debugf("mnpayment: cleaning loaded ledger against tip %d", tip)
		ledger.Clean(tip)
	}

	return ReadOK
}

// serializeLedger writes the ledger's two maps: a uint32 count followed
// by that many Winner records for votesByID, then a uint32 count
// followed by that many (height, entry-count, entries...) groups for
// talliesByHeight, then the int32 last-processed height.
func serializeLedger(w io.Writer, votes map[Hash256]*Winner, tallies map[Height]*BlockPayees, lastHeight Height) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(votes))); err != nil {
		return err
	}
	for _, winner := range votes {
		if err := winner.Serialize(w); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(tallies))); err != nil {
		return err
	}
	for height, bp := range tallies {
		if err := binary.Write(w, binary.LittleEndian, int32(height)); err != nil {
			return err
		}
		entries := bp.Entries()
		if err := binary.Write(w, binary.LittleEndian, uint32(len(entries))); err != nil {
			return err
		}
		for _, e := range entries {
			if err := writeVarBytes(w, e.Payee); err != nil {
				return err
			}
			if err := writeOutPoint(w, e.PayeeVin); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, uint8(e.Tier)); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, e.Votes); err != nil {
				return err
			}
		}
	}

	return binary.Write(w, binary.LittleEndian, int32(lastHeight))
}

// deserializeLedger reads what serializeLedger wrote.
func deserializeLedger(r io.Reader) (map[Hash256]*Winner, map[Height]*BlockPayees, Height, error) {
	var voteCount uint32
	if err := binary.Read(r, binary.LittleEndian, &voteCount); err != nil {
		return nil, nil, 0, err
	}
	const maxSaneCount = 1 << 24
	if voteCount > maxSaneCount {
		return nil, nil, 0, fmt.Errorf("mnpayment: unreasonable vote count %d", voteCount)
	}
	votes := make(map[Hash256]*Winner, voteCount)
	for i := uint32(0); i < voteCount; i++ {
		w := &Winner{}
		if err := w.Deserialize(r); err != nil {
			return nil, nil, 0, err
		}
		votes[w.ID()] = w
	}

	var blockCount uint32
	if err := binary.Read(r, binary.LittleEndian, &blockCount); err != nil {
		return nil, nil, 0, err
	}
	if blockCount > maxSaneCount {
		return nil, nil, 0, fmt.Errorf("mnpayment: unreasonable block count %d", blockCount)
	}
	tallies := make(map[Height]*BlockPayees, blockCount)
	for i := uint32(0); i < blockCount; i++ {
		var height int32
		if err := binary.Read(r, binary.LittleEndian, &height); err != nil {
			return nil, nil, 0, err
		}
		var entryCount uint32
		if err := binary.Read(r, binary.LittleEndian, &entryCount); err != nil {
			return nil, nil, 0, err
		}
		if entryCount > maxSaneCount {
			return nil, nil, 0, fmt.Errorf("mnpayment: unreasonable entry count %d", entryCount)
		}
		bp := NewBlockPayees(Height(height))
		for j := uint32(0); j < entryCount; j++ {
			payee, err := readVarBytes(r)
			if err != nil {
				return nil, nil, 0, err
			}
			payeeVin, err := readOutPoint(r)
			if err != nil {
				return nil, nil, 0, err
			}
			var tier uint8
			if err := binary.Read(r, binary.LittleEndian, &tier); err != nil {
				return nil, nil, 0, err
			}
			var votes uint32
			if err := binary.Read(r, binary.LittleEndian, &votes); err != nil {
				return nil, nil, 0, err
			}
			bp.Add(Script(payee), Tier(tier), payeeVin, votes)
		}
		tallies[Height(height)] = bp
	}

	var lastHeight int32
	if err := binary.Read(r, binary.LittleEndian, &lastHeight); err != nil {
		return nil, nil, 0, err
	}

	return votes, tallies, Height(lastHeight), nil
}
