// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestBlockPayeesAddMergesByScript(t *testing.T) {
	bp := NewBlockPayees(100)
	payee := Script{0x01, 0x02}
	bp.Add(payee, TierMax, wire.OutPoint{}, 1)
	bp.Add(payee, TierMax, wire.OutPoint{}, 1)
	bp.Add(Script{0x03}, TierMax, wire.OutPoint{}, 5)

	require.Len(t, bp.Entries(), 2)
	require.EqualValues(t, 2, bp.Entries()[0].Votes)
}

func TestBlockPayeesGetPayeeTieBreaksFirstInserted(t *testing.T) {
	bp := NewBlockPayees(100)
	first := Script{0x01}
	second := Script{0x02}
	bp.Add(first, TierMax, wire.OutPoint{}, 3)
	bp.Add(second, TierMax, wire.OutPoint{}, 3)

	got, ok := bp.GetPayee(TierMax)
	require.True(t, ok)
	require.True(t, got.Equal(first))
}

func TestBlockPayeesGetPayeeHighestVotesWins(t *testing.T) {
	bp := NewBlockPayees(100)
	low := Script{0x01}
	high := Script{0x02}
	bp.Add(low, TierMax, wire.OutPoint{}, 3)
	bp.Add(high, TierMax, wire.OutPoint{}, 7)

	got, ok := bp.GetPayee(TierMax)
	require.True(t, ok)
	require.True(t, got.Equal(high))
}

func TestBlockPayeesGetPayeeUnknownTier(t *testing.T) {
	bp := NewBlockPayees(100)
	bp.Add(Script{0x01}, TierMax, wire.OutPoint{}, 10)

	_, ok := bp.GetPayee(TierMin)
	require.False(t, ok)
}

func TestIsTransactionValidAcceptsWhenBelowThreshold(t *testing.T) {
	bp := NewBlockPayees(100)
	bp.Add(Script{0x01}, TierMax, wire.OutPoint{}, MinSigsPerPayee-1)

	ok := bp.IsTransactionValid(nil, 100, 1000, false, 0, true, false, new(mockEconomics))
	require.True(t, ok)
}

func TestIsTransactionValidRequiresPayment(t *testing.T) {
	bp := NewBlockPayees(100)
	payee := Script{0x01}
	bp.Add(payee, TierMax, wire.OutPoint{}, MinSigsPerPayee)

	econ := new(mockEconomics)
	econ.On("MNPayment", Height(100), btcutil.Amount(1000), false, TierMax, 0, false).
		Return(btcutil.Amount(250))

	outputs := []*wire.TxOut{
		{Value: 250, PkScript: payee},
	}
	require.True(t, bp.IsTransactionValid(outputs, 100, 1000, false, 0, true, false, econ))

	underpaid := []*wire.TxOut{
		{Value: 100, PkScript: payee},
	}
	require.False(t, bp.IsTransactionValid(underpaid, 100, 1000, false, 0, true, false, econ))
}

func TestIsTransactionValidIgnoresNonMaxTierWhenLegacy(t *testing.T) {
	bp := NewBlockPayees(100)
	bp.Add(Script{0x01}, TierMin, wire.OutPoint{}, MinSigsPerPayee)

	ok := bp.IsTransactionValid(nil, 100, 1000, false, 0, false, false, new(mockEconomics))
	require.True(t, ok)
}
