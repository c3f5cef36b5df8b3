// Package devseed loads a small, repeatable data set for local development:
// one customer with a few Minneapolis addresses and a pool of workers around
// them with mixed skills, availability and verification.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/target/jobmatch/internal/data"
	"github.com/target/jobmatch/internal/domain/model"
	"github.com/target/jobmatch/internal/geo"
)

// seedNamespace derives stable IDs so re-running the seed updates rows in place.
var seedNamespace = uuid.MustParse("5b0c2b7e-8f6a-4d1e-9c3b-2a7d4e6f8a10")

// SeedID returns the deterministic ID used for a named seed record.
func SeedID(name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(name)).String()
}

// Services bundles the repositories seeding writes through.
type Services struct {
	Locations *data.LocationRepo
	Workers   *data.WorkerRepo
}

// NewServices constructs the seeding repositories for db.
func NewServices(db *sql.DB) Services {
	return Services{
		Locations: data.NewLocationRepo(db),
		Workers:   data.NewWorkerRepo(db),
	}
}

// Result reports what a seed run produced.
type Result struct {
	CustomerID  string
	LocationIDs []string
	WorkerIDs   []string
}

type seedLocation struct {
	Address    string
	City       string
	State      string
	PostalCode string
	Point      geo.Point
}

var seedLocations = []seedLocation{
	{Address: "100 Nicollet Mall", City: "Minneapolis", State: "MN", PostalCode: "55403", Point: geo.Point{Lat: 44.9778, Lng: -93.2650}},
	{Address: "2400 Lyndale Ave S", City: "Minneapolis", State: "MN", PostalCode: "55405", Point: geo.Point{Lat: 44.9580, Lng: -93.2880}},
	{Address: "1 Grand Ave", City: "Saint Paul", State: "MN", PostalCode: "55102", Point: geo.Point{Lat: 44.9400, Lng: -93.1400}},
}

type seedWorker struct {
	Name         string
	Skills       []model.JobType
	Available    bool
	Verification model.VerificationStatus
	Point        *geo.Point
}

func at(lat, lng float64) *geo.Point { return &geo.Point{Lat: lat, Lng: lng} }

var seedWorkers = []seedWorker{
	{Name: "Avery Plow", Skills: []model.JobType{model.JobTypeSnowRemoval, model.JobTypeLawnCare}, Available: true, Verification: model.VerificationVerified, Point: at(44.9800, -93.2700)},
	{Name: "Jordan Yard", Skills: []model.JobType{model.JobTypeLawnCare}, Available: true, Verification: model.VerificationVerified, Point: at(44.9650, -93.2800)},
	{Name: "Riley Fixit", Skills: []model.JobType{model.JobTypeHandyman, model.JobTypeCarpentry}, Available: true, Verification: model.VerificationVerified, Point: at(44.9700, -93.2500)},
	{Name: "Casey Pipes", Skills: []model.JobType{model.JobTypePlumbing}, Available: true, Verification: model.VerificationVerified, Point: at(44.9450, -93.1500)},
	{Name: "Morgan Volt", Skills: []model.JobType{model.JobTypeElectrical}, Available: false, Verification: model.VerificationVerified, Point: at(44.9760, -93.2600)},
	{Name: "Quinn Newhire", Skills: []model.JobType{model.JobTypeSnowRemoval, model.JobTypeHandyman}, Available: true, Verification: model.VerificationPending, Point: at(44.9790, -93.2660)},
	{Name: "Sam Offline", Skills: []model.JobType{model.JobTypeSnowRemoval}, Available: true, Verification: model.VerificationVerified},
}

// Run upserts the development data set. Locations are matched by address so
// repeated runs do not duplicate them.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) (*Result, error) {
	if svcs.Locations == nil || svcs.Workers == nil {
		return nil, errors.New("seed repositories are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	res := &Result{CustomerID: SeedID("customer:demo")}

	locationIDs, err := seedCustomerLocations(ctx, svcs.Locations, res.CustomerID, logger)
	if err != nil {
		return nil, err
	}
	res.LocationIDs = locationIDs

	for _, sw := range seedWorkers {
		w, err := svcs.Workers.Upsert(ctx, &model.Worker{
			ID:              SeedID("worker:" + sw.Name),
			Name:            sw.Name,
			Skills:          sw.Skills,
			Available:       sw.Available,
			Verification:    sw.Verification,
			CurrentLocation: sw.Point,
		})
		if err != nil {
			return nil, fmt.Errorf("seed worker %q: %w", sw.Name, err)
		}
		res.WorkerIDs = append(res.WorkerIDs, w.ID)
	}

	logger.InfoContext(ctx, "development data seeded",
		"customer_id", res.CustomerID,
		"locations", len(res.LocationIDs),
		"workers", len(res.WorkerIDs),
	)
	return res, nil
}

func seedCustomerLocations(ctx context.Context, repo *data.LocationRepo, ownerID string, logger *slog.Logger) ([]string, error) {
	existing, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list seed locations: %w", err)
	}
	byAddress := make(map[string]string, len(existing))
	for _, loc := range existing {
		byAddress[loc.Address] = loc.ID
	}

	ids := make([]string, 0, len(seedLocations))
	for _, sl := range seedLocations {
		if id, ok := byAddress[sl.Address]; ok {
			ids = append(ids, id)
			continue
		}
		loc, err := repo.Create(ctx, &model.CreateLocationRequest{
			OwnerID:    ownerID,
			Point:      sl.Point,
			Address:    sl.Address,
			City:       sl.City,
			State:      sl.State,
			PostalCode: sl.PostalCode,
		})
		if err != nil {
			return nil, fmt.Errorf("seed location %q: %w", sl.Address, err)
		}
		logger.DebugContext(ctx, "seeded location", "id", loc.ID, "address", loc.Address)
		ids = append(ids, loc.ID)
	}
	return ids, nil
}
