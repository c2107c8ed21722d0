package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"evoforge/backend/internal/config"
	"evoforge/backend/internal/logging"
	"evoforge/backend/internal/repository"
	"evoforge/backend/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS problem_statements (
	id UUID PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	problem_type TEXT NOT NULL,
	objectives JSONB NOT NULL DEFAULT '[]',
	constraints JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS notebooks (
	id UUID PRIMARY KEY,
	problem_id UUID NOT NULL REFERENCES problem_statements(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS notebook_cells (
	id UUID PRIMARY KEY,
	notebook_id UUID NOT NULL REFERENCES notebooks(id) ON DELETE CASCADE,
	cell_type TEXT NOT NULL,
	code TEXT NOT NULL DEFAULT '',
	agent_id TEXT NOT NULL,
	version INT NOT NULL DEFAULT 1,
	position INT NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS notebook_cells_active_type
	ON notebook_cells (notebook_id, cell_type) WHERE is_active;

CREATE TABLE IF NOT EXISTS chat_messages (
	id UUID PRIMARY KEY,
	notebook_id UUID NOT NULL REFERENCES notebooks(id) ON DELETE CASCADE,
	message TEXT NOT NULL,
	sender TEXT NOT NULL,
	message_type TEXT NOT NULL,
	iteration_context INT,
	metadata JSONB,
	created_at TIMESTAMPTZ NOT NULL
);
`

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	logger.Info("Schema ensured")

	store := repository.NewPostgresNotebookStore(pool)

	problem := &models.Problem{
		UserID:      "local-dev",
		Title:       "Traveling salesman over 20 cities",
		Description: "Find the shortest round trip visiting each city exactly once.",
		ProblemType: "combinatorial",
		Objectives:  []string{"minimize total route distance"},
		Constraints: map[string]interface{}{
			"cities":      20,
			"start_city":  0,
			"return_home": true,
		},
	}
	if err := store.CreateProblem(ctx, problem); err != nil {
		log.Fatalf("Failed to create demo problem: %v", err)
	}
	logger.Info("Seeded problem", "id", problem.ID, "title", problem.Title)

	notebook := &models.Notebook{
		ProblemID: problem.ID,
		Name:      "TSP demo notebook",
	}
	if err := store.CreateNotebook(ctx, notebook); err != nil {
		log.Fatalf("Failed to create demo notebook: %v", err)
	}
	logger.Info("Seeded notebook", "id", notebook.ID)

	logger.Info("Seeding complete!")
}
