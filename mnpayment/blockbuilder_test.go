// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFillBlockPayeePoWSingleTier(t *testing.T) {
	sporks := new(mockSporks)
	sporks.On("Active", SporkSuperblocks).Return(false)
	sporks.On("Active", SporkNewTiers).Return(false)

	treasury := new(mockTreasury)
	treasury.On("IsTreasuryBlock", mock.Anything).Return(false)

	payee := Script{0xAA}
	l := NewLedger(Deps{}, nil)
	l.Restore(map[Hash256]*Winner{}, map[Height]*BlockPayees{
		1001: func() *BlockPayees {
			bp := NewBlockPayees(1001)
			bp.Add(payee, TierMax, wire.OutPoint{}, MinSigsPerPayee)
			return bp
		}(),
	}, 0)

	econ := new(mockEconomics)
	econ.On("MNPayment", Height(1001), btcutil.Amount(5000), false, TierMax, 0, false).
		Return(btcutil.Amount(500))

	b := NewBlockBuilder(l, Deps{Sporks: sporks, Treasury: treasury, Economics: econ})

	tx := &wire.MsgTx{TxOut: []*wire.TxOut{{Value: 5000}}}
	b.FillBlockPayee(tx, 0, false, false, false, 1000, 5000)

	require.Len(t, tx.TxOut, 2)
	require.EqualValues(t, 4500, tx.TxOut[0].Value)
	require.EqualValues(t, 500, tx.TxOut[1].Value)
	require.True(t, Script(tx.TxOut[1].PkScript).Equal(payee))
}

func TestFillBlockPayeePoSSplitAcrossOutputs(t *testing.T) {
	sporks := new(mockSporks)
	sporks.On("Active", SporkSuperblocks).Return(false)
	sporks.On("Active", SporkNewTiers).Return(false)

	treasury := new(mockTreasury)
	treasury.On("IsTreasuryBlock", mock.Anything).Return(false)

	payee := Script{0xBB}
	l := NewLedger(Deps{}, nil)
	l.Restore(map[Hash256]*Winner{}, map[Height]*BlockPayees{
		1001: func() *BlockPayees {
			bp := NewBlockPayees(1001)
			bp.Add(payee, TierMax, wire.OutPoint{}, MinSigsPerPayee)
			return bp
		}(),
	}, 0)

	econ := new(mockEconomics)
	econ.On("MNPayment", Height(1001), btcutil.Amount(5000), true, TierMax, 0, false).
		Return(btcutil.Amount(100))

	b := NewBlockBuilder(l, Deps{Sporks: sporks, Treasury: treasury, Economics: econ})

	// PoS marker output + 2 stake outputs, no payment output yet.
	tx := &wire.MsgTx{TxOut: []*wire.TxOut{
		{Value: 0},
		{Value: 3000},
		{Value: 2000},
	}}
	b.FillBlockPayee(tx, 0, true, false, false, 1000, 5000)

	require.Len(t, tx.TxOut, 4)
	// 100 split across 2 outputs == 50 each.
	require.EqualValues(t, 2950, tx.TxOut[1].Value)
	require.EqualValues(t, 1950, tx.TxOut[2].Value)
	require.EqualValues(t, 100, tx.TxOut[3].Value)
}

func TestFillBlockPayeeSkipsZCMintDeduction(t *testing.T) {
	sporks := new(mockSporks)
	sporks.On("Active", SporkSuperblocks).Return(false)
	sporks.On("Active", SporkNewTiers).Return(false)

	treasury := new(mockTreasury)
	treasury.On("IsTreasuryBlock", mock.Anything).Return(false)

	payee := Script{0xCC}
	l := NewLedger(Deps{}, nil)
	l.Restore(map[Hash256]*Winner{}, map[Height]*BlockPayees{
		1001: func() *BlockPayees {
			bp := NewBlockPayees(1001)
			bp.Add(payee, TierMax, wire.OutPoint{}, MinSigsPerPayee)
			return bp
		}(),
	}, 0)

	econ := new(mockEconomics)
	econ.On("MNPayment", Height(1001), btcutil.Amount(5000), true, TierMax, 0, true).
		Return(btcutil.Amount(100))

	b := NewBlockBuilder(l, Deps{Sporks: sporks, Treasury: treasury, Economics: econ})

	tx := &wire.MsgTx{TxOut: []*wire.TxOut{
		{Value: 0},
		{Value: 3000}, // zerocoin mint output; must not be touched
	}}
	b.FillBlockPayee(tx, 0, true, true, true, 1000, 5000)

	require.Len(t, tx.TxOut, 3)
	require.EqualValues(t, 3000, tx.TxOut[1].Value, "zerocoin mint output must not be deducted from")
	require.EqualValues(t, 100, tx.TxOut[2].Value)
}
