// Command versectl is the operator CLI for a standalone verse deployment: it
// seeds a Vault, its Properties and a KYC allowlist from a fixture, inspects
// their live state, and exposes Prometheus metrics for the deployment.
package main

import (
	"fmt"
	"os"
)

const (
	seedCommand   = "seed"
	statusCommand = "status"
	adminCommand  = "admin"
	serveCommand  = "serve"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case seedCommand:
		err = runSeed(os.Args[2:])
	case statusCommand:
		err = runStatus(os.Args[2:])
	case adminCommand:
		err = runAdmin(os.Args[2:])
	case serveCommand:
		err = runServe(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("versectl <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Printf("  %-8s  Initialize a Vault, its Properties and the KYC registry from a fixture\n", seedCommand)
	fmt.Printf("  %-8s  Print the live Vault and Property state for a data directory\n", statusCommand)
	fmt.Printf("  %-8s  Decrypt the admin keystore and print its derived address\n", adminCommand)
	fmt.Printf("  %-8s  Serve Prometheus metrics for a data directory until interrupted\n", serveCommand)
}
