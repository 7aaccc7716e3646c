package main

import (
	"log"

	"github.com/zintix-labs/reelkit/sdk/perf"
)

// makefile runner
func main() {
	bindVar()
	if err := perf.Run(executeSimulator, cfg.pprof, ""); err != nil {
		log.Fatal(err)
	}
}
