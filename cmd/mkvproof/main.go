// Command mkvproof builds the merkle commitment artifact for a vesting
// bucket. It reads a JSON allocation list, computes the commitment root and
// per-beneficiary inclusion proofs, and writes the artifact that gets
// published alongside the bucket (its URL becomes the bucket's proofs
// location).
//
// Usage:
//
//	mkvproof --in allocations.json [--out proofs.json]
//
// The input is a JSON array of {"beneficiary": "0x...", "amount": "..."}
// rows; amounts accept decimal or 0x-prefixed hex. The reported
// totalAllocated is the exact leaf sum, which is what the bucket creation
// call should carry.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("mkvproof", flag.ContinueOnError)
	inPath := fs.String("in", "", "allocation list JSON file (required)")
	outPath := fs.String("out", "", "artifact output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --in is required")
		fs.Usage()
		return 2
	}

	data, err := os.ReadFile(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read %s: %v\n", *inPath, err)
		return 1
	}
	var allocs []Allocation
	if err := json.Unmarshal(data, &allocs); err != nil {
		fmt.Fprintf(os.Stderr, "Error: parse %s: %v\n", *inPath, err)
		return 1
	}

	artifact, err := BuildArtifact(allocs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	out, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode artifact: %v\n", err)
		return 1
	}
	out = append(out, '\n')

	if *outPath == "" {
		os.Stdout.Write(out)
	} else {
		if err := os.WriteFile(*outPath, out, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: write %s: %v\n", *outPath, err)
			return 1
		}
	}

	fmt.Fprintf(os.Stderr, "root %s over %d leaves, total %s\n",
		artifact.MerkleRoot, artifact.NumLeaves, artifact.TotalAllocated.Dec())
	return 0
}
