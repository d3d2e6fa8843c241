package domain

import "time"

// JobStatus is the lifecycle state of a deferred enrichment.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// EnrichmentJob tracks the enrichment of one capture. Captures may be saved
// before enrichment finishes and enriched again later.
type EnrichmentJob struct {
	ID        string        `json:"id"`
	CaptureID string        `json:"capture_id"`
	Point     GeoPoint      `json:"point"`
	Status    JobStatus     `json:"status"`
	Info      *LocationInfo `json:"info,omitempty"`
	Attempts  int           `json:"attempts"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// EnrichmentRequested is published when a capture asks for enrichment.
type EnrichmentRequested struct {
	JobID     string   `json:"job_id"`
	CaptureID string   `json:"capture_id"`
	Point     GeoPoint `json:"point"`
}

// EnrichmentCompleted is published once a job has a result.
type EnrichmentCompleted struct {
	JobID     string        `json:"job_id"`
	CaptureID string        `json:"capture_id"`
	Geohash   string        `json:"geohash"`
	Status    JobStatus     `json:"status"`
	Info      *LocationInfo `json:"info,omitempty"`
}

// HighwayPoint is a curated notable point on a federal highway, such as a
// police post, bridge or access ramp, with its official kilometer.
type HighwayPoint struct {
	ID           int64    `json:"id"`
	BR           string   `json:"br"`
	Km           float64  `json:"km"`
	Kind         string   `json:"kind"`
	Description  string   `json:"description"`
	Direction    string   `json:"direction,omitempty"`
	Municipality string   `json:"municipality,omitempty"`
	UF           string   `json:"uf,omitempty"`
	Location     GeoPoint `json:"location"`
	Distance     float64  `json:"distance_m,omitempty"`
}

// Precision grades a kilometer estimate built from notable points.
type Precision string

const (
	PrecisionHigh   Precision = "high"
	PrecisionMedium Precision = "medium"
	PrecisionLow    Precision = "low"
)

// HighwayPointEstimate is a kilometer estimate derived from notable points.
type HighwayPointEstimate struct {
	BR         string         `json:"br"`
	Km         float64        `json:"km"`
	Estimated  bool           `json:"estimated"`
	Precision  Precision      `json:"precision"`
	Distance   float64        `json:"distance_m"`
	Nearest    HighwayPoint   `json:"nearest"`
	References []HighwayPoint `json:"references,omitempty"`
}
