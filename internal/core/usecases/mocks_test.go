package usecases_test

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/pkg/geospatial"
)

// metersPerDegree is the length of one degree of longitude on the equator.
const metersPerDegree = geospatial.EarthRadiusMeters * 3.141592653589793 / 180

func deg(meters float64) float64 { return meters / metersPerDegree }

// --- Providers ---

type mockGeocoder struct {
	calls     atomic.Int32
	reverseFn func(ctx context.Context, p domain.GeoPoint) (*domain.GeocodedPlace, error)
}

func (m *mockGeocoder) Reverse(ctx context.Context, p domain.GeoPoint) (*domain.GeocodedPlace, error) {
	m.calls.Add(1)
	if m.reverseFn != nil {
		return m.reverseFn(ctx, p)
	}
	return nil, nil
}

type mockHighwayProvider struct {
	calls  atomic.Int32
	dataFn func(ctx context.Context, p domain.GeoPoint, wayRadius, milestoneRadius float64) (*domain.HighwayData, error)
}

func (m *mockHighwayProvider) HighwayData(ctx context.Context, p domain.GeoPoint, wayRadius, milestoneRadius float64) (*domain.HighwayData, error) {
	m.calls.Add(1)
	if m.dataFn != nil {
		return m.dataFn(ctx, p, wayRadius, milestoneRadius)
	}
	return &domain.HighwayData{}, nil
}

type mockFeatures struct {
	calls      atomic.Int32
	featuresFn func(ctx context.Context, p domain.GeoPoint, radius float64) ([]domain.MapFeature, error)
}

func (m *mockFeatures) NearbyFeatures(ctx context.Context, p domain.GeoPoint, radius float64) ([]domain.MapFeature, error) {
	m.calls.Add(1)
	if m.featuresFn != nil {
		return m.featuresFn(ctx, p, radius)
	}
	return nil, nil
}

type mockSearch struct {
	calls    atomic.Int32
	searchFn func(ctx context.Context, p domain.GeoPoint, delta float64) ([]domain.SearchHit, error)
}

func (m *mockSearch) SearchNearby(ctx context.Context, p domain.GeoPoint, delta float64) ([]domain.SearchHit, error) {
	m.calls.Add(1)
	if m.searchFn != nil {
		return m.searchFn(ctx, p, delta)
	}
	return nil, nil
}

type mockKnowledge struct {
	calls    atomic.Int32
	entityFn func(ctx context.Context, p domain.GeoPoint, radiusKm float64) ([]domain.KnowledgeHit, error)
}

func (m *mockKnowledge) NearbyEntities(ctx context.Context, p domain.GeoPoint, radiusKm float64) ([]domain.KnowledgeHit, error) {
	m.calls.Add(1)
	if m.entityFn != nil {
		return m.entityFn(ctx, p, radiusKm)
	}
	return nil, nil
}

// --- Repositories ---

type mockJobRepo struct {
	mu      sync.Mutex
	jobs    map[string]*domain.EnrichmentJob
	saveErr error
}

func newMockJobRepo() *mockJobRepo {
	return &mockJobRepo{jobs: make(map[string]*domain.EnrichmentJob)}
}

func (m *mockJobRepo) Create(ctx context.Context, job *domain.EnrichmentJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *mockJobRepo) GetByID(ctx context.Context, id string) (*domain.EnrichmentJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *mockJobRepo) MarkRunning(ctx context.Context, id string) error {
	return m.update(id, func(j *domain.EnrichmentJob) {
		j.Status = domain.JobRunning
		j.Attempts++
	})
}

func (m *mockJobRepo) SaveResult(ctx context.Context, id string, info *domain.LocationInfo) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	return m.update(id, func(j *domain.EnrichmentJob) {
		j.Status = domain.JobDone
		j.Info = info
		j.Error = ""
	})
}

func (m *mockJobRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return m.update(id, func(j *domain.EnrichmentJob) {
		j.Status = domain.JobFailed
		j.Error = reason
	})
}

func (m *mockJobRepo) ListPending(ctx context.Context, staleBefore time.Time, limit int) ([]domain.EnrichmentJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.EnrichmentJob
	for _, j := range m.jobs {
		stale := j.Status == domain.JobRunning && j.UpdatedAt.Before(staleBefore)
		if j.Status == domain.JobPending || j.Status == domain.JobFailed || stale {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (m *mockJobRepo) update(id string, fn func(*domain.EnrichmentJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(j)
	j.UpdatedAt = time.Now().UTC()
	return nil
}

type mockPointRepo struct {
	points []domain.HighwayPoint
}

func (m *mockPointRepo) FindNearby(ctx context.Context, p domain.GeoPoint, radiusMeters float64, limit int) ([]domain.HighwayPoint, error) {
	var out []domain.HighwayPoint
	for _, pt := range m.points {
		pt.Distance = geospatial.Haversine(p.Lat, p.Lon, pt.Location.Lat, pt.Location.Lon)
		if pt.Distance <= radiusMeters {
			out = append(out, pt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockPointRepo) ListByBR(ctx context.Context, br string) ([]domain.HighwayPoint, error) {
	var out []domain.HighwayPoint
	for _, pt := range m.points {
		if pt.BR == br {
			out = append(out, pt)
		}
	}
	return out, nil
}

func (m *mockPointRepo) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)
	for _, pt := range m.points {
		stats[pt.BR]++
	}
	return stats, nil
}

// --- Services ---

type mockPublisher struct {
	mu        sync.Mutex
	requested []domain.EnrichmentRequested
	completed []domain.EnrichmentCompleted
}

func (m *mockPublisher) PublishEnrichmentRequested(ctx context.Context, ev *domain.EnrichmentRequested) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = append(m.requested, *ev)
	return nil
}

func (m *mockPublisher) PublishEnrichmentCompleted(ctx context.Context, ev *domain.EnrichmentCompleted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, *ev)
	return nil
}

type mockWorkflows struct {
	started []string
}

func (m *mockWorkflows) StartReenrichment(ctx context.Context, jobID string) (string, error) {
	m.started = append(m.started, jobID)
	return "run-" + jobID, nil
}
