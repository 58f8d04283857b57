// Command rtmppublish connects to an RTMP server, creates a stream, and
// publishes under a given name, exposing health and metrics over HTTP for
// as long as the stream stays open.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rtmpclient"
	"rtmpclient/internal/httpserver"
	"rtmpclient/internal/logger"
)

func main() {
	url := flag.String("url", "", "RTMP URL, e.g. rtmp://host/app")
	app := flag.String("app", "", "application name (defaults to the URL's first path segment)")
	streamName := flag.String("stream", "", "stream key to publish")
	publishType := flag.String("type", "live", "publish type: live, record, or append")
	httpAddr := flag.String("http-addr", "", "health/metrics listen address (empty to disable)")
	commandTimeout := flag.Duration("command-timeout", 10*time.Second, "timeout for commands awaiting a response")
	flag.Parse()

	log := logger.New(slog.LevelInfo)

	if *url == "" || *streamName == "" {
		log.Error("both -url and -stream are required")
		os.Exit(2)
	}

	opts := rtmpclient.Default()
	opts.CommandTimeout = *commandTimeout

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := rtmpclient.Connect(ctx, *url, *app, opts)
	if err != nil {
		log.Error("connect failed", "err", err)
		os.Exit(1)
	}
	defer conn.Close(nil)
	log.Info("connected", "app", conn.App(), "connected", conn.Connected())

	if *httpAddr != "" {
		httpSrv := httpserver.New(*httpAddr, log, conn)
		go func() {
			if err := httpSrv.Run(ctx); err != nil {
				log.Error("http server error", "err", err)
			}
		}()
	}

	stream, err := conn.NewStream(ctx)
	if err != nil {
		log.Error("createStream failed", "err", err)
		os.Exit(1)
	}
	if err := stream.Publish(ctx, *streamName, *publishType); err != nil {
		log.Error("publish failed", "err", err)
		os.Exit(1)
	}

	for {
		status, ok := stream.Next(ctx)
		if !ok {
			log.Info("stream closed")
			return
		}
		log.Info("stream status", "level", status.Level, "code", status.Code, "description", status.Description)
	}
}
