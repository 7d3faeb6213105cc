// Command depthcluster groups point-cloud frames into axis-aligned bounding
// boxes and serves the results for debugging.
package main

import (
	"log"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("depthcluster: %v", err)
		os.Exit(1)
	}
}
