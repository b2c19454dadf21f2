// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mnpayment

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestElectorStopsWithNoLocalMasternode(t *testing.T) {
	l := NewLedger(Deps{}, nil)
	e := NewElector(l, Deps{}, nil, nil, nil, 70000, 70000)
	require.Nil(t, e.OnNewTip(1000))
}

func TestElectorStopsOnDuplicateHeight(t *testing.T) {
	chain := new(mockChain)
	l := NewLedger(Deps{Chain: chain}, nil)
	l.Restore(map[Hash256]*Winner{}, map[Height]*BlockPayees{}, 1000)

	sporks := new(mockSporks)
	sporks.On("Active", SporkPayUpdatedNodes).Return(false)
	registry := new(mockRegistry)
	registry.On("Rank", mock.Anything, mock.Anything, mock.Anything).Return(1, true)
	budget := new(mockBudget)
	budget.On("IsBudgetPaymentBlock", mock.Anything).Return(false)

	self := &LocalMasternode{Vin: wire.OutPoint{Index: 1}}
	e := NewElector(l, Deps{Chain: chain, Sporks: sporks, Registry: registry, Budget: budget}, nil, nil, self, 70000, 70000)

	require.Nil(t, e.OnNewTip(1000))
}

func TestElectorStopsWhenSelfRankTooLow(t *testing.T) {
	chain := new(mockChain)
	l := NewLedger(Deps{Chain: chain}, nil)

	sporks := new(mockSporks)
	sporks.On("Active", SporkPayUpdatedNodes).Return(false)
	registry := new(mockRegistry)
	registry.On("Rank", mock.Anything, Height(900), uint32(70000)).Return(VoterTopN+1, true)

	self := &LocalMasternode{Vin: wire.OutPoint{Index: 1}}
	e := NewElector(l, Deps{Chain: chain, Sporks: sporks, Registry: registry}, nil, nil, self, 70000, 70000)

	require.Nil(t, e.OnNewTip(1000))
}

func TestElectorSkipsBudgetBlock(t *testing.T) {
	chain := new(mockChain)
	l := NewLedger(Deps{Chain: chain}, nil)

	sporks := new(mockSporks)
	sporks.On("Active", SporkPayUpdatedNodes).Return(false)
	registry := new(mockRegistry)
	registry.On("Rank", mock.Anything, Height(900), uint32(70000)).Return(1, true)
	budget := new(mockBudget)
	budget.On("IsBudgetPaymentBlock", Height(1000)).Return(true)

	self := &LocalMasternode{Vin: wire.OutPoint{Index: 1}}
	e := NewElector(l, Deps{Chain: chain, Sporks: sporks, Registry: registry, Budget: budget}, nil, nil, self, 70000, 70000)

	require.Nil(t, e.OnNewTip(1000))
	require.EqualValues(t, 0, l.LastProcessedHeight(), "a skipped budget block must not advance the watermark")
}

func TestElectorElectsAndRelaysOneWinnerPerTier(t *testing.T) {
	chain := new(mockChain)
	chain.On("HasBlockAtHeight", Height(900)).Return(true)
	l := NewLedger(Deps{Chain: chain}, nil)

	sporks := new(mockSporks)
	sporks.On("Active", SporkPayUpdatedNodes).Return(false)

	registry := new(mockRegistry)
	registry.On("Rank", mock.Anything, Height(900), uint32(70000)).Return(1, true)

	budget := new(mockBudget)
	budget.On("IsBudgetPaymentBlock", mock.Anything).Return(false)

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	for t2 := TierMin; t2 <= TierMax; t2++ {
		payeeMN := MasternodeInfo{Vin: wire.OutPoint{Index: uint32(t2)}, CollateralPub: key.PubKey(), Tier: t2}
		registry.On("NextInQueueForPayment", Height(1000), t2, true).Return(payeeMN, true)
	}

	bcast := new(mockBroadcaster)
	bcast.On("BroadcastWinner", mock.Anything).Return()

	self := &LocalMasternode{Vin: wire.OutPoint{Index: 1}}
	signer := keySigner{key}
	e := NewElector(l, Deps{Chain: chain, Sporks: sporks, Registry: registry, Budget: budget}, signer, bcast, self, 70000, 70000)

	winners := e.OnNewTip(1000)
	require.Len(t, winners, int(TierMax-TierMin+1))
	require.EqualValues(t, 1000, l.LastProcessedHeight())
	bcast.AssertNumberOfCalls(t, "BroadcastWinner", len(winners))
}
