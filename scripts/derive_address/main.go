// derive_address derives the first address of a network from a BIP39 mnemonic for testing.
//
// Usage:
//
//	go run ./scripts/derive_address eth "your 12 or 24 word seed phrase here"
//
// Or with stdin:
//
//	echo "your seed phrase" | go run ./scripts/derive_address sol
//
// The address is derived exactly as a seedloop keyring derives index 0, so
// EVM tickers all print the same address.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/complex-gh/seedloop"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	ticker := os.Args[1]

	var mnemonic string
	if len(os.Args) > 2 {
		mnemonic = strings.Join(os.Args[2:], " ")
	} else {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			mnemonic = strings.TrimSpace(scanner.Text())
		}
	}
	if mnemonic == "" {
		usage()
	}

	network, err := seedloop.DefaultRegistry().NetworkFromTicker(ticker)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	s, err := seedloop.New(seedloop.Options{
		Mnemonic: mnemonic,
		Networks: []seedloop.Network{network},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	addrs, err := s.Addresses(network)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if network.Family == seedloop.EVM {
		fmt.Println(seedloop.ChecksumAddress(addrs[0]))
		return
	}
	fmt.Println(addrs[0])
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: derive_address <ticker> \"seed phrase\"")
	fmt.Fprintln(os.Stderr, "   or: echo \"seed phrase\" | derive_address <ticker>")
	os.Exit(1)
}
