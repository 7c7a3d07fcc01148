// Command verifier recomputes every batch hash and Merkle root under
// an epoch directory and reports any mismatch.
package main

import (
	"fmt"
	"os"

	"github.com/nrg-champ/geohgc/internal/verify"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: verifier <epoch-dir>")
		os.Exit(1)
	}
	dir := os.Args[1]

	report, err := verify.Dir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verifier: %v\n", err)
		os.Exit(1)
	}

	for _, f := range report.Files {
		if f.OK {
			fmt.Printf("OK   %s\n", f.Path)
			continue
		}
		fmt.Printf("FAIL %s: %v\n", f.Path, f.Err)
	}

	if !report.OK() {
		os.Exit(1)
	}
	fmt.Println("all files verified")
	os.Exit(0)
}
