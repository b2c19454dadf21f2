// Copyright (c) 2025 The PIVX developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// mnpaydump is a diagnostic tool that loads a mnpayments.dat persistence
// file and prints a summary of its contents without ever feeding it back
// into a running node, the read-only counterpart to the original's
// DumpMasternodePayments debug path.
package main

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jessevdk/go-flags"

	"github.com/pivx-project/mnpayments/mnpayment"
)

const defaultNet = "mainnet"

var datadir = btcutil.AppDataDir("pivx", false)

var opts = struct {
	DatPath string `long:"file" description:"Path to mnpayments.dat"`
	Net     string `long:"net" description:"Network the file was written under: mainnet, testnet, or regtest"`
	Verbose bool   `short:"v" long:"verbose" description:"Print the per-height tally summary, not just the totals"`
}{
	Net: defaultNet,
}

func init() {
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}
	if opts.DatPath == "" {
		opts.DatPath = datadir + string(os.PathSeparator) + defaultNet + string(os.PathSeparator) + "mnpayments.dat"
	}
}

func netParams(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

func main() {
	os.Exit(mainInt())
}

func mainInt() int {
	params, err := netParams(opts.Net)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	var magic [4]byte
	binary.LittleEndian.PutUint32(magic[:], uint32(params.Net))

	fmt.Println("Persistence file:", opts.DatPath)

	ledger := mnpayment.NewLedger(mnpayment.Deps{}, nil)
	p := mnpayment.NewPersistence(opts.DatPath, magic)
	result := p.Read(ledger, 0, true)
	if result != mnpayment.ReadOK {
		fmt.Println("Failed to read persistence file:", result)
		return 1
	}

	stats := ledger.Stats()
	fmt.Printf("Votes: %d\nBlocks: %d\n", stats.Votes, stats.Blocks)

	oldest, hasOldest := ledger.OldestBlock()
	newest, hasNewest := ledger.NewestBlock()
	if hasOldest && hasNewest {
		fmt.Printf("Height range: %d - %d\n", oldest, newest)
	}

	if !opts.Verbose {
		return 0
	}

	var heights []int
	votes, tallies, _ := ledger.Snapshot()
	for h := range tallies {
		heights = append(heights, int(h))
	}
	sort.Ints(heights)
	for _, h := range heights {
		bp := tallies[mnpayment.Height(h)]
		fmt.Printf("  %d: %s\n", h, bp.RequiredPaymentsString())
	}
	fmt.Printf("%d raw votes in ledger\n", len(votes))

	return 0
}
