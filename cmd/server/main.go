package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gobridgerelay/config"
	"gobridgerelay/redis"
	"gobridgerelay/types"
	"gobridgerelay/workers"
)

func main() {
	log.Print("Starting main/side bridge relay")

	f, err := os.OpenFile(fmt.Sprintf("logs/log_%s.txt", time.Now().Format("2006-01-02")), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file for writing: %v", err)
	}
	defer f.Close()

	log.SetOutput(f)

	config.Init()

	// connect to Redis, without persistence do not continue
	redis.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan types.ChainEvent, 64)

	// there are 3 worker threads:
	// * scan main chain for Deposit logs
	// * relay driver submitting side confirmations
	// * API + metrics HTTPS server (serves as main worker thread)
	go workers.Worker_scanMain(events)
	go workers.Worker_relay(ctx, events)

	workers.Worker_HTTP(events)

	// HTTP worker returned on signal; stop in-flight relays
	cancel()
}
