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

	callback := func(_ context.Context, rec *axleweigh.TestRecord) error {
		fmt.Printf("%s axle=%d left=%.2f right=%.2f samples=%d balance=%s\n",
			rec.StartTime.Format(time.RFC3339Nano),
			rec.AxleNumber,
			rec.LeftWeight,
			rec.RightWeight,
			rec.SampleCount,
			rec.BalanceStatus,
		)
		return nil
	}

	if err := flow.Run(ctx, axleweigh.StreamOutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
