package testutil

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/geo"
)

// Fixed coordinates used across tests. Downtown Minneapolis is the usual origin.
var (
	MinneapolisPoint = geo.Point{Lat: 44.9778, Lng: -93.2650}
	StPaulPoint      = geo.Point{Lat: 44.9537, Lng: -93.0900}
)

// TestCustomerID is a stable owner for fixture locations and jobs.
const TestCustomerID = "00000000-0000-4000-8000-000000000001"

// JobParamsBuilder provides a fluent interface for building NewJobParams for tests.
type JobParamsBuilder struct {
	p model.NewJobParams
}

// NewJobParams creates a builder for a priced, pending snow removal job at locationID.
func NewJobParams(locationID string) *JobParamsBuilder {
	return &JobParamsBuilder{p: model.NewJobParams{
		CustomerID:  TestCustomerID,
		LocationID:  locationID,
		Type:        model.JobTypeSnowRemoval,
		Priority:    model.JobPriorityMedium,
		Title:       "Clear driveway",
		Description: "Driveway and front walk",
		Price: model.PriceBreakdown{
			BasePrice:          100,
			SeverityMultiplier: 1,
			WeatherMultiplier:  1,
			DemandMultiplier:   1,
			TotalMultiplier:    1,
			FinalPrice:         100,
		},
		ExpiresIn: time.Hour,
	}}
}

// WithType sets the job type.
func (b *JobParamsBuilder) WithType(t model.JobType) *JobParamsBuilder {
	b.p.Type = t
	return b
}

// WithTitle sets the job title.
func (b *JobParamsBuilder) WithTitle(title string) *JobParamsBuilder {
	b.p.Title = title
	return b
}

// WithCustomer sets the owning customer.
func (b *JobParamsBuilder) WithCustomer(id string) *JobParamsBuilder {
	b.p.CustomerID = id
	return b
}

// WithExpiresIn sets the claim window.
func (b *JobParamsBuilder) WithExpiresIn(d time.Duration) *JobParamsBuilder {
	b.p.ExpiresIn = d
	return b
}

// WithFinalPrice sets the final price and base price together.
func (b *JobParamsBuilder) WithFinalPrice(price float64) *JobParamsBuilder {
	b.p.Price.BasePrice = price
	b.p.Price.FinalPrice = price
	return b
}

// WithImages attaches image URLs.
func (b *JobParamsBuilder) WithImages(urls ...string) *JobParamsBuilder {
	b.p.ImageURLs = urls
	return b
}

// WithAnalysis sets the vision evidence.
func (b *JobParamsBuilder) WithAnalysis(v model.VisionResult) *JobParamsBuilder {
	b.p.Analysis = v
	return b
}

// Build returns the params.
func (b *JobParamsBuilder) Build() model.NewJobParams {
	return b.p
}

// InsertLocation stores a location at p and returns its id.
func InsertLocation(t TestingTB, db *sql.DB, p geo.Point) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO locations (owner_id, latitude, longitude, address, city, state)
		VALUES ($1, $2, $3, '1 Test St', 'Minneapolis', 'MN')
		RETURNING id`, TestCustomerID, p.Lat, p.Lng).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to insert location: %v", err)
	}
	return id
}

// WorkerFixture describes a worker row for InsertWorker.
type WorkerFixture struct {
	Skills       []string
	Available    bool
	Verification string
	Location     *geo.Point
}

// EligibleWorker returns a verified, available worker with skill at p.
func EligibleWorker(skill model.JobType, p geo.Point) WorkerFixture {
	return WorkerFixture{
		Skills:       []string{string(skill)},
		Available:    true,
		Verification: string(model.VerificationVerified),
		Location:     &p,
	}
}

// InsertWorker stores a worker and returns its id.
func InsertWorker(t TestingTB, db *sql.DB, w WorkerFixture) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	verification := w.Verification
	if verification == "" {
		verification = string(model.VerificationPending)
	}
	var lat, lng *float64
	if w.Location != nil {
		lat, lng = &w.Location.Lat, &w.Location.Lng
	}
	skills := w.Skills
	if skills == nil {
		skills = []string{}
	}

	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO workers (name, skills, available, verification, current_latitude, current_longitude)
		VALUES ('fixture', $1, $2, $3, $4, $5)
		RETURNING id`, skills, w.Available, verification, lat, lng).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to insert worker: %v", err)
	}
	return id
}

// OffsetNorth returns a point km kilometres due north of p.
func OffsetNorth(p geo.Point, km float64) geo.Point {
	return geo.Point{Lat: p.Lat + km/kmPerDegreeLat, Lng: p.Lng}
}

const kmPerDegreeLat = geo.EarthRadiusKm * math.Pi / 180
