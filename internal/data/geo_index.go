package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/target/jobmatch/internal/data/database"
	"github.com/target/jobmatch/internal/data/pgxutil"
	"github.com/target/jobmatch/internal/geo"
)

// pointSource describes where a sqlPointIndex reads its points from.
// filters is evaluated on every lookup so time-dependent predicates use a fresh clock.
type pointSource struct {
	table   string
	alias   string
	joins   []string
	idCol   string
	latCol  string
	lngCol  string
	filters func() []database.Condition
}

// sqlPointIndex is a geo.Index over a table of coordinates. The bounding box runs in
// SQL against the lat/lng indexes; haversine confirms each candidate in Go so the
// database and in-memory indexes agree on boundary cases.
type sqlPointIndex struct {
	db  *sql.DB
	src pointSource
}

var _ geo.Index = (*sqlPointIndex)(nil)

func (x *sqlPointIndex) query(center geo.Point, radiusKm float64) (string, []any) {
	box := geo.BoundingBoxFor(center, radiusKm)
	opts := []database.ListQueryOption{
		database.WithAlias(x.src.alias),
		database.WithColumns(x.src.idCol, x.src.latCol, x.src.lngCol),
		database.WithConditions(
			database.WhereBetween(x.src.latCol, box.MinLat, box.MaxLat),
			database.WhereBetween(x.src.lngCol, box.MinLng, box.MaxLng),
		),
	}
	for _, j := range x.src.joins {
		opts = append(opts, database.WithJoin(j))
	}
	if x.src.filters != nil {
		opts = append(opts, database.WithConditions(x.src.filters()...))
	}
	return database.BuildListQuery(database.NewListQueryOptions(x.src.table, opts...))
}

// WithinRadius implements geo.Index.
func (x *sqlPointIndex) WithinRadius(ctx context.Context, center geo.Point, radiusKm float64) ([]geo.Hit, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusKm < 0 {
		return nil, nil
	}

	query, args := x.query(center, radiusKm)
	var hits []geo.Hit
	err := pgxutil.WithPgxConn(ctx, x.db, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var h geo.Hit
			if scanErr := rows.Scan(&h.ID, &h.Point.Lat, &h.Point.Lng); scanErr != nil {
				return scanErr
			}
			h.DistanceKm = geo.Haversine(center, h.Point)
			if h.DistanceKm <= radiusKm {
				hits = append(hits, h)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("radius query on %s: %w", x.src.table, err)
	}
	geo.SortHits(hits)
	return hits, nil
}

// Distance implements geo.Index.
func (x *sqlPointIndex) Distance(a, b geo.Point) float64 {
	return geo.Haversine(a, b)
}
