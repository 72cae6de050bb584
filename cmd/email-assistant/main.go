package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/RayKMAllen/email-assistant/internal/assistant"
	"github.com/RayKMAllen/email-assistant/internal/drafts"
	"github.com/RayKMAllen/email-assistant/internal/genai"
	"github.com/RayKMAllen/email-assistant/internal/lockfile"
	"github.com/RayKMAllen/email-assistant/internal/processor"
	"github.com/RayKMAllen/email-assistant/internal/store"
	"github.com/RayKMAllen/email-assistant/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for assistant state data
	DefaultStateDir = ".email-assistant"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "sessions.db"
	// DefaultDraftsDir is the default directory for saved drafts
	DefaultDraftsDir = "drafts"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	lock, err := lockfile.Acquire(*flags.stateDir)
	if err != nil {
		slog.Error("Failed to lock state directory", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	asst, err := buildAssistant(ctx, flags)
	if err != nil {
		slog.Error("Failed to build assistant", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := asst.Close(); err != nil {
			slog.Warn("Failed to close assistant cleanly", "error", err)
		}
	}()

	runREPL(ctx, asst)
	slog.Info("email-assistant exited", "metrics", fmt.Sprintf("%+v", asst.Metrics()))
}

// Config holds environment configuration
type Config struct {
	DBDriver  string
	DBDSN     string
	StateDir  string
	DraftsDir string
	OpenAIKey string
	Model     string
	S3Bucket  string
	S3Prefix  string
}

// Flags holds command line flag values
type Flags struct {
	dbDriver  *string
	dbDSN     *string
	stateDir  *string
	draftsDir *string
	openaiKey *string
	model     *string
	s3Bucket  *string
	s3Prefix  *string
}

func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DBDriver:  os.Getenv("DB_DRIVER"),
		DBDSN:     os.Getenv("DATABASE_URL"),
		StateDir:  util.GetenvDefault("EMAIL_ASSISTANT_STATE_DIR", DefaultStateDir),
		DraftsDir: util.GetenvDefault("EMAIL_ASSISTANT_DRAFTS_DIR", DefaultDraftsDir),
		OpenAIKey: os.Getenv("OPENAI_API_KEY"),
		Model:     os.Getenv("OPENAI_MODEL"),
		S3Bucket:  os.Getenv("S3_BUCKET"),
		S3Prefix:  os.Getenv("S3_PREFIX"),
	}

	slog.Debug("Environment configuration loaded", "state_dir", config.StateDir, "drafts_dir", config.DraftsDir, "openai_key_set", config.OpenAIKey != "")
	return config
}

// parseCommandLineFlags parses command line flags with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		dbDriver:  flag.String("db-driver", config.DBDriver, "session store driver: memory, sqlite3 or postgres"),
		dbDSN:     flag.String("db-dsn", config.DBDSN, "database DSN (file path for sqlite3, connection string for postgres)"),
		stateDir:  flag.String("state-dir", config.StateDir, "directory for assistant state data"),
		draftsDir: flag.String("drafts-dir", config.DraftsDir, "directory for locally saved drafts"),
		openaiKey: flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key"),
		model:     flag.String("model", config.Model, "OpenAI model override"),
		s3Bucket:  flag.String("s3-bucket", config.S3Bucket, "S3 bucket for cloud draft saves"),
		s3Prefix:  flag.String("s3-prefix", config.S3Prefix, "S3 key prefix for cloud draft saves"),
	}
	flag.Parse()
	return flags
}

// buildAssistant wires the store, savers and model client from flags.
func buildAssistant(ctx context.Context, flags Flags) (*assistant.Assistant, error) {
	archive, err := buildArchive(flags)
	if err != nil {
		return nil, err
	}

	var client *genai.Client
	if *flags.openaiKey != "" {
		var opts []genai.Option
		if *flags.model != "" {
			opts = append(opts, genai.WithModel(*flags.model))
		}
		client = genai.NewClientWithKey(*flags.openaiKey, opts...)
	} else {
		slog.Warn("No OpenAI API key configured, running with rule-based classification only")
	}

	var cloudSaver drafts.Saver
	if *flags.s3Bucket != "" {
		s3Saver, err := drafts.NewS3Saver(ctx, *flags.s3Bucket, *flags.s3Prefix)
		if err != nil {
			return nil, fmt.Errorf("configure S3 saver: %w", err)
		}
		cloudSaver = s3Saver
		slog.Info("Cloud draft saves enabled", "bucket", *flags.s3Bucket)
	}

	cfg := assistant.Config{
		Archive:    archive,
		LocalSaver: drafts.NewLocalSaver(*flags.draftsDir),
		CloudSaver: cloudSaver,
	}
	if client != nil {
		cfg.Collaborator = client
		cfg.Processor = processor.New(client)
	}
	return assistant.New(cfg), nil
}

func buildArchive(flags Flags) (store.Store, error) {
	switch *flags.dbDriver {
	case "postgres":
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	case "sqlite3":
		dsn := *flags.dbDSN
		if dsn == "" {
			dsn = filepath.Join(*flags.stateDir, DefaultDBFileName)
		}
		return store.NewSQLiteStore(store.WithDSN(dsn))
	case "", "memory":
		return store.NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", *flags.dbDriver)
	}
}

// runREPL reads user input line by line until EOF, interrupt or a quit word.
func runREPL(ctx context.Context, asst *assistant.Assistant) {
	fmt.Println(asst.Greeting())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit", "bye":
			fmt.Println("\nAssistant: Goodbye!")
			return
		}
		fmt.Printf("\nAssistant: %s\n", asst.ProcessUserInput(ctx, input))
	}
}
