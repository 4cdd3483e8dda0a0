package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/shubhamavl/axleweigh"
)

func main() {
	flow, err := axleweigh.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	display, snapshots, closeDisplay := axleweigh.NewChannelDisplay(8)
	defer closeDisplay()
	sink, records, closeRecords := axleweigh.NewChannelSink("archive", 4)
	defer closeRecords()

	go printSnapshots(snapshots)
	go archiveRecords(records)

	err = flow.Run(ctx,
		axleweigh.StreamOutDisplay(display),
		axleweigh.StreamOutRecordSink(sink),
	)
	if err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func printSnapshots(snapshots <-chan axleweigh.Snapshot) {
	var last time.Time
	for snap := range snapshots {
		if snap.Timestamp.Sub(last) < time.Second {
			continue
		}
		last = snap.Timestamp
		fmt.Printf("[live] %s left=%.1f right=%.1f %.1f%% left\n", snap.State, snap.Left, snap.Right, snap.BalancePercent)
	}
}

func archiveRecords(records <-chan *axleweigh.TestRecord) {
	for rec := range records {
		fmt.Printf("[archive] record %s axle %d saved with %d samples\n", rec.ID, rec.AxleNumber, rec.SampleCount)
	}
}
