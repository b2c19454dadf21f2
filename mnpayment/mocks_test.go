// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// This file contains mock implementations of this package's capability
// interfaces, used to isolate the consensus engine under test from any
// real registry, budget, or chain implementation.

package mnpayment

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/mock"
)

type mockRegistry struct {
	mock.Mock
}

var _ Registry = (*mockRegistry)(nil)

func (m *mockRegistry) FindByVin(vin wire.OutPoint) (MasternodeInfo, bool) {
	args := m.Called(vin)
	info, _ := args.Get(0).(MasternodeInfo)
	return info, args.Bool(1)
}

func (m *mockRegistry) FindByScript(payee Script) (MasternodeInfo, bool) {
	args := m.Called(payee)
	info, _ := args.Get(0).(MasternodeInfo)
	return info, args.Bool(1)
}

func (m *mockRegistry) Rank(vin wire.OutPoint, atHeight Height, minProtocol uint32) (int, bool) {
	args := m.Called(vin, atHeight, minProtocol)
	return args.Int(0), args.Bool(1)
}

func (m *mockRegistry) Size() int {
	return m.Called().Int(0)
}

func (m *mockRegistry) StableSize() int {
	return m.Called().Int(0)
}

func (m *mockRegistry) CountEnabled(tier Tier) int {
	return m.Called(tier).Int(0)
}

func (m *mockRegistry) DriftAllowance() int {
	return m.Called().Int(0)
}

func (m *mockRegistry) NextInQueueForPayment(height Height, tier Tier, onlyEnabled bool) (MasternodeInfo, bool) {
	args := m.Called(height, tier, onlyEnabled)
	info, _ := args.Get(0).(MasternodeInfo)
	return info, args.Bool(1)
}

func (m *mockRegistry) CurrentMasternode(tier Tier, offset int) (MasternodeInfo, bool) {
	args := m.Called(tier, offset)
	info, _ := args.Get(0).(MasternodeInfo)
	return info, args.Bool(1)
}

type mockBudget struct {
	mock.Mock
}

var _ Budget = (*mockBudget)(nil)

func (m *mockBudget) IsBudgetPaymentBlock(height Height) bool {
	return m.Called(height).Bool(0)
}

func (m *mockBudget) IsTransactionValid(tx *wire.MsgTx, height Height) BudgetTxStatus {
	return m.Called(tx, height).Get(0).(BudgetTxStatus)
}

func (m *mockBudget) FillBlockPayee(tx *wire.MsgTx, fees btcutil.Amount, isPoS bool, blockValue btcutil.Amount) {
	m.Called(tx, fees, isPoS, blockValue)
}

func (m *mockBudget) FillTreasuryBlockPayee(tx *wire.MsgTx, fees btcutil.Amount, isPoS bool, blockValue btcutil.Amount) {
	m.Called(tx, fees, isPoS, blockValue)
}

func (m *mockBudget) CycleLength() int {
	return m.Called().Int(0)
}

type mockTreasury struct {
	mock.Mock
}

var _ Treasury = (*mockTreasury)(nil)

func (m *mockTreasury) IsTreasuryBlock(height Height) bool {
	return m.Called(height).Bool(0)
}

func (m *mockTreasury) Schedule(height Height) []TreasuryPayee {
	args := m.Called(height)
	sched, _ := args.Get(0).([]TreasuryPayee)
	return sched
}

func (m *mockTreasury) Award(height Height) btcutil.Amount {
	return m.Called(height).Get(0).(btcutil.Amount)
}

type mockSporks struct {
	mock.Mock
}

var _ Sporks = (*mockSporks)(nil)

func (m *mockSporks) Active(id SporkID) bool {
	return m.Called(id).Bool(0)
}

func (m *mockSporks) TimestampActive(id SporkID, t time.Time) bool {
	return m.Called(id, t).Bool(0)
}

type mockEconomics struct {
	mock.Mock
}

var _ Economics = (*mockEconomics)(nil)

func (m *mockEconomics) BlockValue(height Height, isPoS bool, coinAge uint64) btcutil.Amount {
	return m.Called(height, isPoS, coinAge).Get(0).(btcutil.Amount)
}

func (m *mockEconomics) MNPayment(height Height, blockValue btcutil.Amount, isPoS bool, tier Tier, drift int, hasZCSpend bool) btcutil.Amount {
	return m.Called(height, blockValue, isPoS, tier, drift, hasZCSpend).Get(0).(btcutil.Amount)
}

func (m *mockEconomics) CoinAge(tx *wire.MsgTx, blockTime time.Time, height Height) uint64 {
	return m.Called(tx, blockTime, height).Get(0).(uint64)
}

type mockChain struct {
	mock.Mock
}

var _ Chain = (*mockChain)(nil)

func (m *mockChain) TipHeight() Height {
	return Height(m.Called().Int(0))
}

func (m *mockChain) HasBlockAtHeight(height Height) bool {
	return m.Called(height).Bool(0)
}

func (m *mockChain) HeightForPrevHash(prevHash Hash256) (Height, bool) {
	args := m.Called(prevHash)
	return Height(args.Int(0)), args.Bool(1)
}

type mockPeerOps struct {
	mock.Mock
}

var _ PeerOps = (*mockPeerOps)(nil)

func (m *mockPeerOps) AskForMNList(ctx context.Context, peer PeerID) error {
	return m.Called(ctx, peer).Error(0)
}

func (m *mockPeerOps) AskForMN(ctx context.Context, peer PeerID, vin wire.OutPoint) error {
	return m.Called(ctx, peer, vin).Error(0)
}

func (m *mockPeerOps) PushInventory(peer PeerID, id Hash256) error {
	return m.Called(peer, id).Error(0)
}

func (m *mockPeerOps) Misbehave(peer PeerID, score int) {
	m.Called(peer, score)
}

type mockSyncStatus struct {
	mock.Mock
}

var _ SyncStatus = (*mockSyncStatus)(nil)

func (m *mockSyncStatus) IsBlockchainSynced() bool {
	return m.Called().Bool(0)
}

func (m *mockSyncStatus) IsFullySynced() bool {
	return m.Called().Bool(0)
}

func (m *mockSyncStatus) NotifyWinnerSeen(id Hash256) {
	m.Called(id)
}

func (m *mockSyncStatus) NotifyWinnerForgotten(id Hash256) {
	m.Called(id)
}

type mockSigner struct {
	mock.Mock
}

var _ Signer = (*mockSigner)(nil)

func (m *mockSigner) Sign(voter wire.OutPoint, digest [32]byte) ([]byte, error) {
	args := m.Called(voter, digest)
	sig, _ := args.Get(0).([]byte)
	return sig, args.Error(1)
}

type mockBroadcaster struct {
	mock.Mock
}

var _ Broadcaster = (*mockBroadcaster)(nil)

func (m *mockBroadcaster) BroadcastWinner(id Hash256) {
	m.Called(id)
}
