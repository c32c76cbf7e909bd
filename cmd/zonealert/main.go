package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"zonealert/internal/config"
	"zonealert/internal/web"
)

func main() {
	var configPath string
	var summaryPath string
	flag.StringVar(&configPath, "config", "./zonealert.yaml", "Path to YAML config")
	flag.StringVar(&summaryPath, "summary", "", "Print a summary of an NMEA replay log and exit")
	flag.Parse()

	if summaryPath != "" {
		if err := printLogSummary(os.Stdout, summaryPath); err != nil {
			log.Fatalf("log summary failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logs := web.NewLogBuffer(500)
	log.SetOutput(io.MultiWriter(os.Stderr, logs))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newLiveRuntime(cfg, logs)
	if err != nil {
		log.Fatalf("runtime init failed: %v", err)
	}
	defer rt.Close()

	log.Printf("zonealert starting mode=%s config=%s", rt.mode(), configPath)
	if err := rt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("zonealert stopped: %v", err)
		return
	}
	log.Printf("zonealert stopping")
}
