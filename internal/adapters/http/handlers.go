package http

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geofotos/internal/core/domain"
	"github.com/samirrijal/geofotos/internal/core/usecases"
)

var errMissingPoint = errors.New("lat and lon are required")

// parsePoint reads the lat and lon query parameters.
func parsePoint(c *fiber.Ctx) (domain.GeoPoint, error) {
	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr == "" || lonStr == "" {
		return domain.GeoPoint{}, errMissingPoint
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return domain.GeoPoint{}, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return domain.GeoPoint{}, errors.New("lon must be a number")
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return domain.GeoPoint{}, errors.New("lat must be within [-90, 90] and lon within [-180, 180]")
	}
	return p, nil
}

// noStoreIfUnavailable marks the response uncacheable when a resolver could not
// reach its providers, so a retry is not answered from a shared cache.
func noStoreIfUnavailable(c *fiber.Ctx, status domain.Status) {
	if status == domain.StatusUnavailable {
		c.Set("Cache-Control", "no-store")
	}
}

// AddressHandler reverse geocodes a point.
func AddressHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		res := deps.Locations.Addresses().ReverseGeocode(c.UserContext(), p)
		noStoreIfUnavailable(c, res.Status)
		return c.JSON(res)
	}
}

// highwayResponse is a highway Result with an optional encoded polyline.
type highwayResponse struct {
	Value    *domain.HighwayInfo `json:"value"`
	Status   domain.Status       `json:"status"`
	Reason   string              `json:"reason,omitempty"`
	Polyline string              `json:"polyline,omitempty"`
}

// HighwayHandler identifies the highway at a point and estimates its
// kilometer. With geometry=true the reconstructed line is returned both as
// coordinates and as an encoded polyline.
func HighwayHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		withGeometry := c.QueryBool("geometry", false)

		res := deps.Locations.Highways().FindHighwayInfo(c.UserContext(), p)
		out := highwayResponse{Status: res.Status, Reason: res.Reason}
		if res.OK() {
			h := res.Value
			if withGeometry {
				out.Polyline = encodePolyline(h.Geometry)
			} else {
				h = h.WithoutGeometry()
			}
			out.Value = &h
		}

		noStoreIfUnavailable(c, res.Status)
		return c.JSON(out)
	}
}

// LandmarksHandler returns the ranked landmarks around a point.
func LandmarksHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		res := deps.Locations.Landmarks().FindNearbyLandmarks(c.UserContext(), p)
		if res.Value == nil {
			res.Value = []domain.Landmark{}
		}
		noStoreIfUnavailable(c, res.Status)
		return c.JSON(res)
	}
}

// LocationInfoHandler resolves address, highway and landmarks together.
func LocationInfoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		info := deps.Locations.Resolve(c.UserContext(), p)
		if usecases.AllUnavailable(&info) {
			c.Set("Cache-Control", "no-store")
		}
		return c.JSON(info)
	}
}

// AddressInfoHandler resolves only the address and the highway.
func AddressInfoHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		info := deps.Locations.ResolveAddressInfo(c.UserContext(), p)
		noStoreIfUnavailable(c, info.Outcomes.Address.Status)
		return c.JSON(info)
	}
}

// ExportLocationHandler resolves a point and renders it as text, GeoJSON
// or KML.
func ExportLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		format := strings.ToLower(c.Query("format", formatText))
		switch format {
		case formatText, formatGeoJSON, formatKML:
		default:
			return errBadRequest(c, "format must be one of text, geojson, kml")
		}

		info := deps.Locations.Resolve(c.UserContext(), p)
		if usecases.AllUnavailable(&info) {
			c.Set("Cache-Control", "no-store")
		}

		switch format {
		case formatGeoJSON:
			return c.JSON(locationFeatures(&info), "application/geo+json")
		case formatKML:
			body, err := locationKML(&info)
			if err != nil {
				LoggerFromCtx(c.UserContext()).Error("kml export failed", "error", err)
				return errInternal(c, "could not render KML")
			}
			c.Set(fiber.HeaderContentType, "application/vnd.google-earth.kml+xml")
			c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+info.Geohash+`.kml"`)
			return c.Send(body)
		default:
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
			return c.SendString(usecases.FormatLocationInfo(&info))
		}
	}
}

// createEnrichmentRequest is the body of POST /v1/enrichments.
type createEnrichmentRequest struct {
	CaptureID string   `json:"capture_id"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
}

// CreateEnrichmentHandler queues the enrichment of a capture.
func CreateEnrichmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createEnrichmentRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if strings.TrimSpace(req.CaptureID) == "" {
			return errBadRequest(c, "capture_id is required")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, errMissingPoint.Error())
		}

		job, err := deps.Enrichments.Create(c.UserContext(), req.CaptureID, domain.GeoPoint{Lat: *req.Lat, Lon: *req.Lon})
		if errors.Is(err, usecases.ErrInvalidPoint) {
			return errBadRequest(c, "lat must be within [-90, 90] and lon within [-180, 180]")
		}
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("create enrichment failed", "capture_id", req.CaptureID, "error", err)
			return errInternal(c, "could not create enrichment job")
		}

		c.Location("/v1/enrichments/" + job.ID)
		return c.Status(fiber.StatusAccepted).JSON(job)
	}
}

// GetEnrichmentHandler returns a job and its result when done.
func GetEnrichmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "job id is required")
		}
		job, err := deps.Enrichments.Get(c.UserContext(), id)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "enrichment job not found")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(job)
	}
}

// ListPendingEnrichmentsHandler lists jobs that are pending or failed.
func ListPendingEnrichmentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		jobs, err := deps.Enrichments.ListPending(c.UserContext(), 500)
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset, limit := pageParams(c, 50, 200)
		page, pg := paginate(jobs, offset, limit)
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "no-cache")
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

// RerunEnrichmentHandler starts a durable re-enrichment of a job.
func RerunEnrichmentHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "job id is required")
		}

		runID, err := deps.Enrichments.Rerun(c.UserContext(), id)
		switch {
		case errors.Is(err, usecases.ErrWorkflowsDisabled):
			return errUnavailable(c, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			return errNotFound(c, "enrichment job not found")
		case errors.Is(err, usecases.ErrJobRunning):
			return errConflict(c, err.Error())
		case err != nil:
			LoggerFromCtx(c.UserContext()).Error("start re-enrichment failed", "job_id", id, "error", err)
			return errInternal(c, "could not start re-enrichment")
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"job_id": id,
			"run_id": runID,
		})
	}
}

// NearestHighwayPointHandler returns the closest notable highway point.
func NearestHighwayPointHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		maxDist := c.QueryFloat("max_distance", 2000)
		if maxDist <= 0 || maxDist > 10000 {
			return errBadRequest(c, "max_distance must be between 1 and 10000 meters")
		}

		pt, err := deps.HighwayPoints.NearestPoint(c.UserContext(), p, maxDist)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "no highway point within range")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(pt)
	}
}

// EstimateHighwayKmHandler estimates the kilometer from notable points.
func EstimateHighwayKmHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := parsePoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		est, err := deps.HighwayPoints.EstimateKm(c.UserContext(), p)
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "no highway point within 5 km")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(est)
	}
}

// HighwayPointStatsHandler returns notable point counts per highway.
func HighwayPointStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := deps.HighwayPoints.Stats(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}

		total := 0
		for _, n := range stats {
			total += n
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"total": total,
			"by_br": stats,
		})
	}
}
