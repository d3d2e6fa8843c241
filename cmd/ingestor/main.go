package main

import (
	"context"
	"log"
	"os"

	"github.com/samirrijal/geofotos/internal/adapters/postgres"
	"github.com/samirrijal/geofotos/internal/pkg/config"
)

const batchSize = 500

// The ingestor loads curated highway notable points (police posts,
// bridges, accesses) from CSV files into highway_points.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: ingestor <points.csv> [more.csv...]")
	}

	cfg, err := config.Load("geofotos-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	repo := postgres.NewHighwayPointRepo(db)
	total := 0
	for _, path := range os.Args[1:] {
		n, err := ingestFile(ctx, repo, path)
		if err != nil {
			log.Fatalf("[%s] %v", path, err)
		}
		log.Printf("[%s] points: %d", path, n)
		total += n
	}
	log.Printf("ingest complete: %d points", total)
}

func ingestFile(ctx context.Context, repo *postgres.HighwayPointRepo, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	points, skipped, err := readPoints(f)
	if err != nil {
		return 0, err
	}
	if skipped > 0 {
		log.Printf("[%s] skipped %d malformed rows", path, skipped)
	}

	for start := 0; start < len(points); start += batchSize {
		end := start + batchSize
		if end > len(points) {
			end = len(points)
		}
		if err := repo.UpsertBatch(ctx, points[start:end]); err != nil {
			return start, err
		}
	}
	return len(points), nil
}
