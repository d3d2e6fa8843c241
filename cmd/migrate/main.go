package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/geofotos/internal/pkg/config"
)

const schemaTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		name       TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`

func main() {
	dir := flag.String("dir", "migrations", "directory holding the migration files")
	steps := flag.Int("steps", 1, "migrations to revert with down")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("usage: migrate [-dir migrations] [-steps 1] <up|down|status>")
	}

	migrations, err := loadMigrations(*dir)
	if err != nil {
		log.Fatalf("migrations: %v", err)
	}

	cfg, err := config.Load("geofotos-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schemaTable); err != nil {
		log.Fatalf("schema_migrations: %v", err)
	}
	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		log.Fatalf("read applied: %v", err)
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		for _, m := range pending(migrations, applied) {
			if err := apply(ctx, pool, m.Name, m.Up, `INSERT INTO schema_migrations (name) VALUES ($1)`); err != nil {
				log.Fatalf("up %s: %v", m.Name, err)
			}
			fmt.Printf("UP    %s\n", m.Name)
		}
		log.Println("all migrations applied")
	case "down":
		plan, err := rollback(migrations, applied, *steps)
		if err != nil {
			log.Fatalf("down: %v", err)
		}
		for _, m := range plan {
			if err := apply(ctx, pool, m.Name, m.Down, `DELETE FROM schema_migrations WHERE name = $1`); err != nil {
				log.Fatalf("down %s: %v", m.Name, err)
			}
			fmt.Printf("DOWN  %s\n", m.Name)
		}
	case "status":
		for _, m := range migrations {
			state := "pending"
			if applied[m.Name] {
				state = "applied"
			}
			fmt.Printf("%-8s %s\n", state, m.Name)
		}
	default:
		log.Fatalf("unknown command: %s", cmd)
	}
}

func appliedMigrations(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(names))
	for _, n := range names {
		applied[n] = true
	}
	return applied, nil
}

// apply runs one migration script and its bookkeeping statement in a
// single transaction.
func apply(ctx context.Context, pool *pgxpool.Pool, name, path, record string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(script)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, record, name)
		return err
	})
}
