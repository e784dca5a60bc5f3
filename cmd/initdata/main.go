package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"note-taker/internal/clients/api"
	"note-taker/internal/config"
	"note-taker/internal/credentials"
	"note-taker/internal/logger"
	"note-taker/internal/workspace"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	email       = flag.String("email", env("EMAIL", "demo@example.com"), "User e-mail")
	pass        = flag.String("pass", env("PASSWORD", "Password123"), "User password")
	nNotes      = flag.Int("n", 500, "How many notes to create")
	nCategories = flag.Int("categories", 3, "How many extra categories to create")
	seed        = flag.Int64("seed", 0, "Faker seed, 0 picks one from the clock")
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL: config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg, os.Stderr)

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(*seed)

	client := api.New(api.Options{
		BaseURL:       cfg.APIBaseURL,
		Timeout:       cfg.APITimeout(),
		RetryAttempts: cfg.APIRetryAttempts,
		Credentials:   credentials.NewMemoryStore(),
		Logger:        log,
	})
	defer func() { _ = client.Close() }()

	fmt.Printf("Init account %s (notes=%d, categories=+%d) on %s\n", *email, *nNotes, *nCategories, cfg.APIBaseURL)

	if err := run(ctx, client, faker, log); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	fmt.Println("✔ done")
}

func run(ctx context.Context, client *api.Client, faker *gofakeit.Faker, log *slog.Logger) error {
	if err := ensureUser(ctx, client); err != nil {
		return err
	}

	cats, err := createCategories(ctx, client, faker, *nCategories)
	if err != nil {
		return err
	}

	log.Debug("seeding notes", "categories", len(cats))
	return createNotes(ctx, client, faker, cats, *nNotes)
}

// ensureUser signs up, falling back to sign-in for an existing account.
func ensureUser(ctx context.Context, client *api.Client) error {
	if _, err := client.SignUp(ctx, *email, *pass); err == nil {
		fmt.Println("• signed-up new user")
		return nil
	} else if !errors.Is(err, workspace.ErrValidation) {
		return fmt.Errorf("sign-up: %w", err)
	}

	if _, err := client.SignIn(ctx, *email, *pass); err != nil {
		return fmt.Errorf("sign-in: %w", err)
	}
	fmt.Println("• signed-in existing user")
	return nil
}

func createCategories(ctx context.Context, client *api.Client, faker *gofakeit.Faker, n int) ([]workspace.Category, error) {
	for i := 0; i < n; i++ {
		cat := workspace.Category{
			ID:      workspace.NewProvisionalID(),
			Name:    faker.Hobby(),
			ThemeID: workspace.Themes[faker.Number(0, len(workspace.Themes)-1)],
		}
		if _, err := client.SaveCategory(ctx, cat); err != nil {
			return nil, fmt.Errorf("create category %d: %w", i+1, err)
		}
	}
	return client.ListCategories(ctx)
}

func createNotes(ctx context.Context, client *api.Client, faker *gofakeit.Faker, cats []workspace.Category, total int) error {
	for i := 1; i <= total; i++ {
		note := workspace.Note{
			ID:      workspace.NewProvisionalID(),
			Title:   faker.Sentence(3),
			Content: faker.Paragraph(1, 3, 40, "\n"),
		}
		// Roughly one note in ten stays uncategorized.
		if len(cats) > 0 && faker.Number(0, 9) > 0 {
			note.CategoryID = cats[faker.Number(0, len(cats)-1)].ID
		}

		if _, err := client.SaveNote(ctx, note); err != nil {
			return fmt.Errorf("create note %d: %w", i, err)
		}

		if i%50 == 0 || i == total {
			fmt.Printf("  … %d/%d\n", i, total)
		}
	}
	return nil
}
