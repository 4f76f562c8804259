// Package main drives one full watch session from the command line: resolve,
// start, simulated playback, complete. Useful for exercising a tracking
// server end to end without a device.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/bereket-09/adlaunch-platform-sub000/config"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/metadata"
	"github.com/bereket-09/adlaunch-platform-sub000/internal/watch"
)

func main() {
	var (
		server   = flag.String("server", "http://localhost:8080", "tracking API base URL")
		token    = flag.String("token", "", "watch token; empty runs demo mode")
		msisdn   = flag.String("msisdn", "", "subscriber MSISDN for the metadata envelope")
		duration = flag.Float64("duration", 30, "simulated media duration in seconds")
		step     = flag.Float64("step", 1, "simulated playback step in seconds")
	)
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	env := metadata.NewEnvelope(*msisdn, "", "adlaunch-watcher/1.0", metadata.Location{Category: metadata.Unknown})
	meta, err := metadata.Encode(env)
	if err != nil {
		logger.Fatal("encode metadata", zap.Error(err))
	}

	policy := watch.FallbackPolicy{
		DemoAdID:     cfg.Playback.DemoAdID,
		DemoVideoURL: cfg.Playback.DemoVideoURL,
		SoftDelay:    cfg.Playback.RewardSoftDelay,
	}
	session := watch.NewSession(watch.SessionConfig{
		Token:            *token,
		Meta:             meta,
		Client:           watch.NewHTTPClient(*server, logger),
		Policy:           policy,
		SeekToleranceSec: *step + cfg.Playback.SeekTolerance.Seconds(),
		Logger:           logger,
	})
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := session.Resolve(ctx); err != nil {
		logger.Fatal("resolve", zap.Error(err))
	}
	desc := session.Descriptor()
	fmt.Printf("ad %s: %s (demo=%v)\n", desc.AdID, desc.VideoURL, session.Demo())

	if err := session.Start(ctx); err != nil {
		logger.Fatal("start", zap.Error(err))
	}

	session.OnLoaded(*duration)
	for pos := *step; pos <= *duration; pos += *step {
		session.OnPosition(pos)
	}
	session.OnPosition(*duration)
	session.OnEnded()

	if session.State() != watch.StateCompleted {
		logger.Fatal("playback did not complete", zap.Float64("progress", session.Progress()))
	}
	if err := session.Complete(ctx); err != nil {
		logger.Fatal("complete", zap.Error(err))
	}

	outcome, ok := session.Reward()
	if !ok {
		fmt.Println("no reward outcome recorded")
		os.Exit(1)
	}
	switch {
	case outcome.Granted:
		fmt.Printf("rewarded: record %s\n", outcome.RecordID)
	case outcome.Soft:
		fmt.Println("rewarded (soft): completion not confirmed by server")
	default:
		fmt.Println("rewarded (demo): no real reward issued")
	}
}
