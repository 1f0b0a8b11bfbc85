package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"discharge-docgen/internal/history"
	"discharge-docgen/internal/llm"
	"discharge-docgen/internal/preview"
	"discharge-docgen/internal/synthesize"
	"discharge-docgen/internal/webapp"
)

func main() {
	var (
		addr       = flag.String("addr", ":8090", "HTTP listen address")
		historyDB  = flag.String("history-db", "", "Path to the run-history SQLite database (empty disables history)")
		sessionTTL = flag.Duration("session-ttl", time.Hour, "How long an unfinished review session is kept")
		pdfPreview = flag.Bool("pdf-preview", true, "Enable PDF previews when a Chromium binary is present")
	)
	flag.Parse()

	// Credentials live in .env during local development; missing files are fine.
	_ = godotenv.Load()

	caller, err := llm.NewCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if shutdown := setupTracing(ctx); shutdown != nil {
		defer shutdown()
	}

	var hist *history.Log
	if *historyDB != "" {
		hist, err = history.Open(*historyDB)
		if err != nil {
			log.Fatal(err)
		}
		defer hist.Close()
	}

	opts := []webapp.Option{webapp.WithHistory(hist)}
	if *pdfPreview {
		renderer := preview.NewChromiumPDFRenderer()
		if renderer.Available() {
			opts = append(opts, webapp.WithPDFRenderer(renderer))
		} else {
			log.Printf("no chromium binary found; PDF previews disabled")
		}
	}

	synth := synthesize.New(caller)
	store := webapp.NewSessionStore(*sessionTTL)
	handler := webapp.NewServer(synth, store, opts...)

	log.Printf("discharge server listening on %s (model=%s)", *addr, caller.ModelName())
	srv := &http.Server{Addr: *addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

// setupTracing wires an OTLP/HTTP exporter when OTEL_EXPORTER_OTLP_ENDPOINT is
// set. Returns nil when tracing is not configured.
func setupTracing(ctx context.Context) func() {
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return nil
	}
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		log.Printf("otlp exporter init failed: %v", err)
		return nil
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}
}
