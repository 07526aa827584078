// Command voicematchctl manages enrolled speakers and runs ad-hoc matches
// against a voicematch store.
//
// Usage:
//
//	voicematchctl [--badger DIR | --valkey ADDR | --redis ADDR] <command> [args]
//
// Commands:
//
//	enroll    - Enroll a speaker from a samples file
//	update    - Append or replace a speaker's samples
//	identify  - Identify the speaker of a query embedding
//	verify    - Verify a query against a claimed speaker
//	list      - List enrolled speakers
//	delete    - Delete a speaker
//	version   - Show version information
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
