package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/adapter"
	"github.com/m-mizutani/sensei/pkg/repository"
	"github.com/m-mizutani/sensei/pkg/usecase/chat"
	"github.com/m-mizutani/sensei/pkg/usecase/ingest"
	"github.com/m-mizutani/sensei/pkg/usecase/quiz"
	"github.com/m-mizutani/sensei/pkg/usecase/suggest"
	"github.com/m-mizutani/sensei/pkg/usecase/topic"
	"github.com/m-mizutani/sensei/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	backendFirestore = "firestore"
	backendMemory    = "memory"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Repository
	backend  string
	project  string
	database string

	// Gemini
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	model          string
	lightModel     string
	embeddingModel string
	dimensions     int64

	// Storage
	bucket string
}

func loggingFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("SENSEI_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Sources:     cli.EnvVars("SENSEI_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "Repository backend (firestore, memory)",
			Value:       backendFirestore,
			Sources:     cli.EnvVars("SENSEI_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket to archive ingested sources",
			Sources:     cli.EnvVars("SENSEI_BUCKET"),
			Destination: &cfg.bucket,
		},
	}
	flags = append(flags, loggingFlags(cfg)...)
	return append(flags, llmFlags(cfg)...)
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key. Vertex AI is used when empty",
			Sources:     cli.EnvVars("GEMINI_API_KEY", "GOOGLE_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "model",
			Usage:       "Model answering questions",
			Value:       "gemini-2.5-pro",
			Sources:     cli.EnvVars("SENSEI_MODEL"),
			Destination: &cfg.model,
		},
		&cli.StringFlag{
			Name:        "light-model",
			Usage:       "Model for summaries, suggestions and quizzes",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("SENSEI_LIGHT_MODEL"),
			Destination: &cfg.lightModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Model embedding passages and queries",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("SENSEI_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.IntFlag{
			Name:        "embedding-dimensions",
			Usage:       "Dimensions of embedding vectors",
			Value:       768,
			Sources:     cli.EnvVars("SENSEI_EMBEDDING_DIMENSIONS"),
			Destination: &cfg.dimensions,
		},
	}
}

// setupLogger replaces the default logger according to flags
func (cfg *config) setupLogger() error {
	logger, err := logging.NewWithFormat(cfg.logFormat, cfg.logLevel, os.Stderr)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	return nil
}

// newRepository creates a new repository instance. The returned function
// releases the connection.
func (cfg *config) newRepository() (repository.Repository, func(), error) {
	switch cfg.backend {
	case backendMemory:
		return repository.NewMemory(), func() {}, nil

	case backendFirestore:
		if cfg.project == "" {
			return nil, nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, nil, goerr.New("database is required")
		}

		repo, err := repository.New(cfg.project, cfg.database)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create repository")
		}
		closer := func() {
			if err := repo.Close(); err != nil {
				logging.Default().Warn("failed to close repository", "error", err)
			}
		}
		return repo, closer, nil

	default:
		return nil, nil, goerr.New("unknown backend", goerr.V("backend", cfg.backend))
	}
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	if cfg.geminiAPIKey == "" {
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-api-key or gemini-project is required")
		}
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
	}

	return adapter.NewGemini(ctx, adapter.GeminiBackend{
		APIKey:   cfg.geminiAPIKey,
		Project:  cfg.geminiProject,
		Location: cfg.geminiLocation,
	},
		adapter.WithGenerativeModel(cfg.model),
		adapter.WithEmbeddingModel(cfg.embeddingModel),
		adapter.WithEmbeddingDimensions(int(cfg.dimensions)),
	)
}

// newStorage returns nil when no bucket is configured
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return nil, nil
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

type useCases struct {
	repo   repository.Repository
	chat   *chat.UseCase
	topic  *topic.UseCase
	quiz   *quiz.UseCase
	ingest *ingest.UseCase
	close  func()
}

// newUseCases wires every use case from flags
func (cfg *config) newUseCases(ctx context.Context) (*useCases, error) {
	if err := cfg.setupLogger(); err != nil {
		return nil, err
	}

	repo, closer, err := cfg.newRepository()
	if err != nil {
		return nil, err
	}

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		closer()
		return nil, err
	}
	light := gemini.WithModel(cfg.lightModel)

	storage, err := cfg.newStorage(ctx)
	if err != nil {
		closer()
		return nil, err
	}

	var ingestOpts []ingest.Option
	if storage != nil {
		ingestOpts = append(ingestOpts, ingest.WithStorage(storage))
	}

	topicUC := topic.New(repo, light)
	return &useCases{
		repo: repo,
		chat: chat.New(repo, gemini,
			chat.WithSuggester(suggest.New(repo, light)),
			chat.WithSummarizer(topicUC),
		),
		topic:  topicUC,
		quiz:   quiz.New(repo, light),
		ingest: ingest.New(repo, gemini, ingestOpts...),
		close:  closer,
	}, nil
}
