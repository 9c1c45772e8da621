package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"provider-discovery/internal/models"

	"github.com/lib/pq"
)

// QueryFunc runs one named provider query.
type QueryFunc func(ctx context.Context, db *sql.DB, params map[string]interface{}) ([]models.ProviderRecord, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeProviderList:   ProviderList,
	models.QueryTypeProvidersByIDs: ProvidersByIDs,
}

const providerColumns = `
	id, business_name, services, municipality, barangay,
	rating, review_count, verified, featured, top_rated,
	latitude, longitude, phone, email, created_at`

// ProviderList returns active providers, newest first.
func ProviderList(ctx context.Context, db *sql.DB, _ map[string]interface{}) ([]models.ProviderRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT`+providerColumns+`
		FROM providers
		WHERE active = TRUE
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProviders(rows)
}

// ProvidersByIDs expects params["ids"] as []string.
func ProvidersByIDs(ctx context.Context, db *sql.DB, params map[string]interface{}) ([]models.ProviderRecord, error) {
	ids, ok := params["ids"].([]string)
	if !ok {
		return nil, fmt.Errorf("missing required parameter: ids")
	}
	if len(ids) == 0 {
		return []models.ProviderRecord{}, nil
	}

	rows, err := db.QueryContext(ctx, `
		SELECT`+providerColumns+`
		FROM providers
		WHERE active = TRUE AND id = ANY($1)
		ORDER BY created_at DESC, id`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProviders(rows)
}

func scanProviders(rows *sql.Rows) ([]models.ProviderRecord, error) {
	out := []models.ProviderRecord{}
	for rows.Next() {
		var (
			p        models.ProviderRecord
			services pq.StringArray
			lat, lon sql.NullFloat64
			phone    sql.NullString
			email    sql.NullString
			created  sql.NullTime
		)
		if err := rows.Scan(
			&p.ID, &p.BusinessName, &services, &p.Municipality, &p.Barangay,
			&p.Rating, &p.ReviewCount, &p.Verified, &p.Featured, &p.TopRated,
			&lat, &lon, &phone, &email, &created,
		); err != nil {
			return nil, err
		}

		p.Services = []string(services)
		if p.Services == nil {
			p.Services = []string{}
		}
		if lat.Valid && lon.Valid {
			p.Location = &models.Coordinate{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		p.Contact = models.Contact{Phone: phone.String, Email: email.String}
		if created.Valid {
			t := created.Time
			p.CreatedAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PostgresSource reads providers from the marketplace database.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) ListProviders(ctx context.Context) ([]models.ProviderRecord, error) {
	return s.run(ctx, models.QueryTypeProviderList, nil)
}

func (s *PostgresSource) GetProviders(ctx context.Context, ids []string) ([]models.ProviderRecord, error) {
	return s.run(ctx, models.QueryTypeProvidersByIDs, map[string]interface{}{"ids": ids})
}

func (s *PostgresSource) run(ctx context.Context, qt models.QueryType, params map[string]interface{}) ([]models.ProviderRecord, error) {
	fn, ok := Registry[qt]
	if !ok {
		return nil, fmt.Errorf("%w: unknown query type %s", ErrSourceUnavailable, qt)
	}
	start := time.Now()
	records, err := fn(ctx, s.db, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s after %s: %v", ErrSourceUnavailable, qt, time.Since(start).Round(time.Millisecond), err)
	}
	return records, nil
}
