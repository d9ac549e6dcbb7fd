package app

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"actigraph-sleep/internal/config"
	"actigraph-sleep/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database, a.Config.App.Name)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// participantFiles lists the regular files directly inside dir that carry a
// configured input extension, sorted by name.
func (a *App) participantFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !a.Config.HasExtension(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ScoreOptions configure the score command.
type ScoreOptions struct {
	InputDir        string
	OutputDir       string
	EMAPath         string
	AssessmentPoint string
	Workers         int
	WriteDB         bool
	Charts          bool
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Path            string
	Participant     string
	AssessmentPoint string
	Stored          bool
}

// ChartOptions configure the chart command.
type ChartOptions struct {
	Path    string
	PNGPath string
	From    *time.Time
	To      *time.Time
}
