//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	handler "github.com/samirrijal/geofotos/internal/adapters/http"
	"github.com/samirrijal/geofotos/internal/adapters/postgres"
	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/usecases"
	"github.com/samirrijal/geofotos/internal/pkg/config"
)

// setupTestDB connects to the test database described by the
// geofotos-test configuration.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("geofotos-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping db: %v", err)
	}

	return &postgres.DB{Pool: pool}
}

// setupTestDeps wires the real repositories behind stubbed providers.
func setupTestDeps(t *testing.T, db *postgres.DB) *handler.Dependencies {
	locations := newLocations(palhocaGeocoder(), br101Provider(), bridgeFeatures())
	return &handler.Dependencies{
		Locations:     locations,
		Enrichments:   usecases.NewEnrichmentService(postgres.NewEnrichmentJobRepo(db), locations, nil, nil),
		HighwayPoints: usecases.NewHighwayPointService(postgres.NewHighwayPointRepo(db)),
		DB:            db,
	}
}

// seedHighwayPoints inserts two police posts on BR-101 around the query point.
func seedHighwayPoints(t *testing.T, db *postgres.DB) {
	ctx := context.Background()
	if _, err := db.Pool.Exec(ctx, `DELETE FROM highway_points WHERE br = '999'`); err != nil {
		t.Fatalf("clean highway points: %v", err)
	}
	err := postgres.NewHighwayPointRepo(db).UpsertBatch(ctx, []domain.HighwayPoint{
		{BR: "999", Km: 210, Kind: "police_post", Description: "Posto PRF", UF: "SC", Location: domain.GeoPoint{Lat: queryLat, Lon: -48.65}},
		{BR: "999", Km: 212, Kind: "bridge", Description: "Ponte", UF: "SC", Location: domain.GeoPoint{Lat: queryLat, Lon: -48.63}},
	})
	if err != nil {
		t.Fatalf("seed highway points: %v", err)
	}
}

// TestEnrichmentLifecycle_Integration creates a job, resolves it and reads
// the stored result back.
func TestEnrichmentLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	deps := setupTestDeps(t, db)
	app := setupApp(deps)

	captureID := "integ-" + time.Now().Format("20060102150405")
	resp, err := app.Test(postJSON("/v1/enrichments", `{"capture_id":"`+captureID+`","lat":-27.6,"lon":-48.64}`), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var job domain.EnrichmentJob
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if _, err := deps.Enrichments.Run(context.Background(), job.ID); err != nil {
		t.Fatalf("run job: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/enrichments/"+job.ID, nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stored domain.EnrichmentJob
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stored.Status != domain.JobDone || stored.Info == nil {
		t.Fatalf("job = %+v", stored)
	}
	if stored.Info.Highway == nil || stored.Info.Highway.Ref != "BR-101" {
		t.Errorf("stored highway = %+v", stored.Info.Highway)
	}
	if stored.Info.Highway.Geometry != nil {
		t.Error("stored result must not carry geometry")
	}
}

// TestHighwayPointEstimate_Integration exercises the PostGIS proximity query.
func TestHighwayPointEstimate_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()
	seedHighwayPoints(t, db)

	app := setupApp(setupTestDeps(t, db))

	resp, err := app.Test(httptest.NewRequest("GET", pointQuery("/v1/highway-points/estimate"), nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var est domain.HighwayPointEstimate
	if err := json.NewDecoder(resp.Body).Decode(&est); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if est.BR != "999" || est.Km <= 210 || est.Km >= 212 {
		t.Errorf("estimate = %+v", est)
	}
}

// TestReady_Integration reports ready with a live database and no broker.
func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Pool.Close()

	app := setupApp(setupTestDeps(t, db))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}
