package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exitOnError(err)
	}
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	printErrorf("Error: %v\n", err)
	os.Exit(1)
}
