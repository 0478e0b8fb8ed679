// domino-run wraps command-line workloads in a tracked run.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
