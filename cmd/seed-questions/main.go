package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/stemsi/exstem-player/internal/catalog"
	"github.com/stemsi/exstem-player/internal/config"
	"github.com/stemsi/exstem-player/internal/database"
	"github.com/stemsi/exstem-player/internal/logger"
	"github.com/stemsi/exstem-player/internal/repository"
	"github.com/stemsi/exstem-player/questions"
)

// seed-questions copies a filesystem catalog into Postgres. Every subject
// in catalog.json is validated first and then replaced in one transaction.
func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup runs first.
func run(args []string) int {
	var dir string
	var only string
	flags := flag.NewFlagSet("seed-questions", flag.ContinueOnError)
	flags.StringVar(&dir, "dir", "", "Directory holding catalog.json (default: embedded samples)")
	flags.StringVar(&only, "subject", "", "Seed only this subject id")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var fsys fs.FS = questions.FS
	if dir != "" {
		fsys = os.DirFS(dir)
	}
	src := catalog.NewFSSource(fsys, log)

	subjects, err := src.List(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read catalog index")
		return 1
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to PostgreSQL")
		return 1
	}
	defer pool.Close()

	questionRepo := repository.NewQuestionRepository(pool)

	fmt.Println("=== Seeding question sets ===")

	seeded, failed := 0, 0
	for _, s := range subjects {
		if only != "" && s.ID != only {
			continue
		}

		set, err := src.Load(ctx, s.ID)
		if err != nil {
			log.Error().Err(err).Str("subject", s.ID).Msg("Skipping invalid question set")
			failed++
			continue
		}

		if err := questionRepo.ReplaceSet(ctx, set); err != nil {
			log.Error().Err(err).Str("subject", s.ID).Msg("Failed to store question set")
			failed++
			continue
		}

		fmt.Printf("  %-12s %-20s %3d questions\n", s.ID, s.Name, len(set.Questions))
		seeded++
	}

	fmt.Printf("Seeded %d subject(s), %d failed\n", seeded, failed)
	if failed > 0 {
		return 1
	}
	return 0
}
