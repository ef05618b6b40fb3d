// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command filrpc issues JSON-RPC calls against a Filecoin node.
package main

func main() {
	Execute()
}
