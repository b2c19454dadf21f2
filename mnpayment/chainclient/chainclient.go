// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainclient adapts a btcd-compatible JSON-RPC backend to the
// mnpayment.Chain capability, the same role chain.RPCClient plays for
// the wallet package, narrowed to the handful of lookups the payment
// engine needs.
package chainclient

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"

	"github.com/pivx-project/mnpayments/mnpayment"
)

// indexCapacity bounds the ancestor-height index kept in memory. This
// package only ever answers "do we know about height H" for H within a
// few retention windows of tip, so older entries are evicted first.
const indexCapacity = 20000

// Client adapts an rpcclient.Client connection to mnpayment.Chain.
//
// Reads never block: TipHeight is a lock-free atomic load, and
// HasBlockAtHeight and HeightForPrevHash use a non-blocking try-lock
// and report false on contention, honoring the chain-state lock
// contract spec §5 imposes on this package's callers. The index is updated from the
// backend's block-connected/disconnected notifications, never from the
// read path.
type Client struct {
	rpc *rpcclient.Client

	tip atomic.Int64

	mu           sync.RWMutex
	heightByHash map[chainhash.Hash]mnpayment.Height
	hashByHeight map[mnpayment.Height]chainhash.Hash
	order        []mnpayment.Height
}

// New creates a Client that will connect to connCfg's backend once
// Start is called. chainParams is accepted for parity with chain.RPCClient's
// constructor and for callers that need it to pick a network magic for
// Persistence, but it is not otherwise consulted here.
func New(connCfg *rpcclient.ConnConfig, chainParams *chaincfg.Params) (*Client, error) {
	_ = chainParams

	c := &Client{
		heightByHash: make(map[chainhash.Hash]mnpayment.Height),
		hashByHeight: make(map[mnpayment.Height]chainhash.Hash),
	}

	ntfnHandlers := &rpcclient.NotificationHandlers{
		OnBlockConnected:    c.onBlockConnected,
		OnBlockDisconnected: c.onBlockDisconnected,
	}
	rpc, err := rpcclient.New(connCfg, ntfnHandlers)
	if err != nil {
		return nil, fmt.Errorf("mnpayment/chainclient: %w", err)
	}
	c.rpc = rpc
	return c, nil
}

// Start connects to the backend, subscribes to block notifications, and
// seeds the index with the current tip.
func (c *Client) Start() error {
	if err := c.rpc.Connect(20); err != nil {
		return fmt.Errorf("mnpayment/chainclient: connect: %w", err)
	}
	if err := c.rpc.NotifyBlocks(); err != nil {
		return fmt.Errorf("mnpayment/chainclient: notify blocks: %w", err)
	}
	hash, height, err := c.rpc.GetBestBlock()
	if err != nil {
		return fmt.Errorf("mnpayment/chainclient: get best block: %w", err)
	}
	c.record(mnpayment.Height(height), *hash)
	return nil
}

// Stop disconnects from the backend.
func (c *Client) Stop() {
	c.rpc.Shutdown()
}

// WaitForShutdown blocks until the backend connection has fully closed.
func (c *Client) WaitForShutdown() {
	c.rpc.WaitForShutdown()
}

func (c *Client) onBlockConnected(hash *chainhash.Hash, height int32, _ time.Time) {
	c.record(mnpayment.Height(height), *hash)
}

func (c *Client) onBlockDisconnected(hash *chainhash.Hash, height int32, _ time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.heightByHash, *hash)
	delete(c.hashByHeight, mnpayment.Height(height))
	if mnpayment.Height(height) == mnpayment.Height(c.tip.Load()) {
		c.tip.Store(int64(height) - 1)
	}
}

// record indexes hash at height, evicting the oldest tracked height
// once indexCapacity is exceeded.
func (c *Client) record(height mnpayment.Height, hash chainhash.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.heightByHash[hash] = height
	if _, exists := c.hashByHeight[height]; !exists {
		c.order = append(c.order, height)
		if len(c.order) > indexCapacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			if oldHash, ok := c.hashByHeight[oldest]; ok {
				delete(c.heightByHash, oldHash)
			}
			delete(c.hashByHeight, oldest)
		}
	}
	c.hashByHeight[height] = hash

	if int64(height) > c.tip.Load() {
		c.tip.Store(int64(height))
	}
}

// TipHeight implements mnpayment.Chain.
func (c *Client) TipHeight() mnpayment.Height {
	return mnpayment.Height(c.tip.Load())
}

// HasBlockAtHeight implements mnpayment.Chain.
func (c *Client) HasBlockAtHeight(height mnpayment.Height) bool {
	if !c.mu.TryRLock() {
		return false
	}
	defer c.mu.RUnlock()
	_, ok := c.hashByHeight[height]
	return ok
}

// HeightForPrevHash implements mnpayment.Chain.
func (c *Client) HeightForPrevHash(prevHash mnpayment.Hash256) (mnpayment.Height, bool) {
	if !c.mu.TryRLock() {
		return 0, false
	}
	defer c.mu.RUnlock()
	height, ok := c.heightByHash[prevHash]
	if !ok {
		return 0, false
	}
	return height + 1, true
}

var _ mnpayment.Chain = (*Client)(nil)
