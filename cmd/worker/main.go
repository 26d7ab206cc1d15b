package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"tally/internal/app/bootstrap"
)

// Tally worker entrypoint.
// Every WORKER_POLL_INTERVAL it relays pending result form events from the
// outbox. Every PROJECTION_REFRESH_INTERVAL it rebuilds the candidate totals
// projection of each tally listed in TALLY_IDS.
func main() {
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("tally worker bootstrap failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("tally worker close failed: %v", err)
		}
	}()

	schedule := app.Schedule()
	if len(schedule.TallyIDs) == 0 {
		// Outbox relay still runs; there is nothing to project.
		log.Printf("tally worker: TALLY_IDS is empty, candidate projections will not be refreshed")
	}
	log.Printf("tally worker relaying outbox every %s, refreshing projections for [%s] every %s",
		schedule.PollInterval, strings.Join(schedule.TallyIDs, ", "), schedule.RefreshInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Printf("tally worker stopped: relay or projection refresh failed: %v", err)
		return
	}
	log.Printf("tally worker stopped on signal")
}
