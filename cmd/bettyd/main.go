// Bettyd is the betty knowledge base daemon.
//
// It serves the retrieval-augmented chat API over HTTP: ingestion into the
// vector store, single- and multi-pass retrieval, and LLM-backed chat
// turns with source citations.
//
// Configuration is loaded from a YAML file plus environment overrides.
//
// Usage:
//
//	# Start with defaults (~/.config/betty/config.yaml)
//	bettyd
//
//	# Explicit config file
//	bettyd --config ./betty.yaml
//
//	# Configure via environment
//	SERVER_PORT=8585 LLM_PROVIDER=openai bettyd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/betty/internal/chat"
	"github.com/fyrsmithlabs/betty/internal/config"
	"github.com/fyrsmithlabs/betty/internal/embeddings"
	"github.com/fyrsmithlabs/betty/internal/eval"
	"github.com/fyrsmithlabs/betty/internal/ingest"
	"github.com/fyrsmithlabs/betty/internal/llm"
	"github.com/fyrsmithlabs/betty/internal/logging"
	"github.com/fyrsmithlabs/betty/internal/reranker"
	"github.com/fyrsmithlabs/betty/internal/retrieval"
	"github.com/fyrsmithlabs/betty/internal/server"
	"github.com/fyrsmithlabs/betty/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("bettyd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
		os.Exit(0)
	}

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "eval":
			if len(args) < 2 {
				fmt.Fprintf(os.Stderr, "Usage: bettyd eval <golden-set.yaml>\n")
				os.Exit(1)
			}
			if err := runEval(context.Background(), *configPath, args[1]); err != nil {
				log.Fatalf("Evaluation error: %v", err)
			}
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  bettyd                         Start the betty daemon\n")
			fmt.Fprintf(os.Stderr, "  bettyd eval <golden-set.yaml>  Evaluate retrieval quality\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// run starts bettyd and blocks until context cancellation.
//
// Initialization order:
//  1. Configuration and logger
//  2. Embedding provider and vector store
//  3. Knowledge collection (created if absent)
//  4. Retriever, ingester, LLM provider, chat service
//  5. HTTP server; graceful shutdown on cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	logger.Info("starting bettyd",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider),
		zap.String("llm", cfg.LLM.Provider),
	)

	embedder, err := embeddings.NewFastEmbedProvider(embeddings.FastEmbedConfig{
		Model:    cfg.Embeddings.Model,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("initializing embeddings: %w", err)
	}
	defer func() {
		_ = embedder.Close()
	}()

	store, err := vectorstore.NewStore(cfg.VectorStore, embedder, logger)
	if err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	if err := ensureCollection(ctx, store, cfg.Retrieval.Collection, embedder.Dimension(), logger); err != nil {
		return err
	}

	retriever, err := retrieval.New(
		retrieval.ConfigFrom(cfg.Retrieval),
		store,
		reranker.NewTermOverlapReranker(),
		logger.Named("retrieval"),
	)
	if err != nil {
		return fmt.Errorf("initializing retriever: %w", err)
	}

	ingester, err := ingest.New(store, cfg.Ingest, cfg.Retrieval, logger.Named("ingest"))
	if err != nil {
		return fmt.Errorf("initializing ingester: %w", err)
	}

	provider, err := llm.NewProvider(cfg.LLM, logger.Named("llm"))
	if err != nil {
		return fmt.Errorf("initializing llm provider: %w", err)
	}

	systemPrompt, err := chat.LoadSystemPrompt(cfg.Chat.SystemPromptPath)
	if err != nil {
		return fmt.Errorf("loading system prompt: %w", err)
	}

	chatSvc, err := chat.NewService(retriever, provider, systemPrompt, logger.Named("chat"))
	if err != nil {
		return fmt.Errorf("initializing chat service: %w", err)
	}

	srv, err := server.NewServer(chatSvc, retriever, ingester, logger.Named("http"), &server.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// runEval evaluates retrieval quality against a golden set and prints a
// report. It needs the vector store but not the LLM provider.
func runEval(ctx context.Context, configPath, goldenPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logging.Sync(logger)
	}()

	set, err := eval.LoadGoldenSet(goldenPath)
	if err != nil {
		return err
	}

	embedder, err := embeddings.NewFastEmbedProvider(embeddings.FastEmbedConfig{
		Model:    cfg.Embeddings.Model,
		CacheDir: cfg.Embeddings.CacheDir,
	})
	if err != nil {
		return fmt.Errorf("initializing embeddings: %w", err)
	}
	defer func() {
		_ = embedder.Close()
	}()

	store, err := vectorstore.NewStore(cfg.VectorStore, embedder, logger)
	if err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}
	defer func() {
		_ = store.Close()
	}()

	retriever, err := retrieval.New(
		retrieval.ConfigFrom(cfg.Retrieval),
		store,
		reranker.NewTermOverlapReranker(),
		logger.Named("retrieval"),
	)
	if err != nil {
		return fmt.Errorf("initializing retriever: %w", err)
	}

	runner, err := eval.NewRunner(retriever, logger.Named("eval"))
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, set)
	if err != nil {
		return err
	}

	for _, c := range report.Cases {
		status := "ok"
		if c.Err != nil {
			status = "error: " + c.Err.Error()
		} else if len(c.Missing) > 0 {
			status = "missing: " + fmt.Sprint(c.Missing)
		}
		fmt.Printf("recall %.2f  %-60q %s\n", c.Recall, c.Question, status)
	}
	fmt.Printf("\ncases: %d  mean recall: %.3f  hit rate: %.3f  failures: %d\n",
		len(report.Cases), report.MeanRecall, report.HitRate, report.Failures)
	return nil
}

// ensureCollection creates the knowledge collection when it does not exist.
func ensureCollection(ctx context.Context, store vectorstore.Store, name string, vectorSize int, logger *zap.Logger) error {
	exists, err := store.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", name, err)
	}
	if exists {
		return nil
	}

	logger.Info("creating knowledge collection",
		zap.String("collection", name),
		zap.Int("vector_size", vectorSize),
	)
	if err := store.CreateCollection(ctx, name, vectorSize); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	return nil
}
