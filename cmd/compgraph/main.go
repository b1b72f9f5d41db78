// Command compgraph runs the bundled graphs over JSON lines files.
//
//	compgraph wordcount --input docs.jsonl --output counts.jsonl
//	compgraph roadspeed --times travel_times.jsonl --lengths road_graph.jsonl
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
