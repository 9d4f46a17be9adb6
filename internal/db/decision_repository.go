package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/skyops/divert/pkg/divert"
)

// ErrDecisionNotFound is returned when a decision record cannot be found
var ErrDecisionNotFound = errors.New("decision not found")

// DecisionRecord is one persisted ranking request with its full result.
type DecisionRecord struct {
	ID                int                    `json:"id"`
	AircraftType      string                 `json:"aircraft_type"`
	Callsign          string                 `json:"callsign,omitempty"`
	Latitude          float64                `json:"latitude"`
	Longitude         float64                `json:"longitude"`
	EmergencyCategory string                 `json:"emergency_category"`
	EmergencySeverity string                 `json:"emergency_severity"`
	Status            string                 `json:"status"`
	PrimaryICAO       string                 `json:"primary_icao,omitempty"`
	Confidence        float64                `json:"confidence"`
	EvaluatedCount    int                    `json:"evaluated_count"`
	RequestedBy       *int                   `json:"requested_by,omitempty"`
	Result            *divert.DiversionResult `json:"result,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// DecisionRepository provides methods for decision history operations
type DecisionRepository struct {
	db *sql.DB
}

// NewDecisionRepository creates a new decision repository
func NewDecisionRepository(db *sql.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// Save persists a ranking result. The full result is stored as JSONB, with
// summary columns denormalized for history queries.
func (r *DecisionRepository) Save(ctx context.Context, rec *DecisionRecord) error {
	if rec.Result == nil {
		return fmt.Errorf("decision record has no result")
	}

	payload, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := `
		INSERT INTO diversion_decisions
			(aircraft_type, callsign, latitude, longitude,
			 emergency_category, emergency_severity, status,
			 primary_icao, confidence, evaluated_count, requested_by, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	err = r.db.QueryRowContext(
		ctx,
		query,
		rec.AircraftType,
		nullString(rec.Callsign),
		rec.Latitude,
		rec.Longitude,
		rec.EmergencyCategory,
		rec.EmergencySeverity,
		rec.Status,
		nullString(rec.PrimaryICAO),
		rec.Confidence,
		rec.EvaluatedCount,
		rec.RequestedBy,
		payload,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}

	return nil
}

// NewRecord builds a DecisionRecord summary from a ranking result and the
// request that produced it.
func NewRecord(aircraft divert.AircraftState, emergency divert.EmergencyContext, result *divert.DiversionResult) *DecisionRecord {
	rec := &DecisionRecord{
		AircraftType:      aircraft.AircraftType,
		Latitude:          aircraft.Position.Latitude,
		Longitude:         aircraft.Position.Longitude,
		EmergencyCategory: string(emergency.Category),
		EmergencySeverity: string(emergency.Severity),
		Status:            string(result.Status),
		Confidence:        result.DecisionConfidence,
		EvaluatedCount:    result.EvaluatedCount,
		Result:            result,
	}
	if result.Primary != nil {
		rec.PrimaryICAO = result.Primary.Airport.ICAO
	}
	return rec
}

// GetByID retrieves a decision with its full result payload.
func (r *DecisionRepository) GetByID(ctx context.Context, id int) (*DecisionRecord, error) {
	query := `
		SELECT id, aircraft_type, COALESCE(callsign, ''), latitude, longitude,
		       emergency_category, emergency_severity, status,
		       COALESCE(primary_icao, ''), confidence, evaluated_count,
		       requested_by, result, created_at
		FROM diversion_decisions
		WHERE id = $1
	`

	rec := &DecisionRecord{}
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.AircraftType,
		&rec.Callsign,
		&rec.Latitude,
		&rec.Longitude,
		&rec.EmergencyCategory,
		&rec.EmergencySeverity,
		&rec.Status,
		&rec.PrimaryICAO,
		&rec.Confidence,
		&rec.EvaluatedCount,
		&rec.RequestedBy,
		&payload,
		&rec.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrDecisionNotFound
	}
	if err != nil {
		return nil, err
	}

	var result divert.DiversionResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	rec.Result = &result

	return rec, nil
}

// ListRecent returns decision summaries in reverse chronological order.
// Result payloads are not loaded; use GetByID for the full record.
func (r *DecisionRepository) ListRecent(ctx context.Context, limit, offset int) ([]*DecisionRecord, error) {
	query := `
		SELECT id, aircraft_type, COALESCE(callsign, ''), latitude, longitude,
		       emergency_category, emergency_severity, status,
		       COALESCE(primary_icao, ''), confidence, evaluated_count,
		       requested_by, created_at
		FROM diversion_decisions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*DecisionRecord
	for rows.Next() {
		rec := &DecisionRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.AircraftType,
			&rec.Callsign,
			&rec.Latitude,
			&rec.Longitude,
			&rec.EmergencyCategory,
			&rec.EmergencySeverity,
			&rec.Status,
			&rec.PrimaryICAO,
			&rec.Confidence,
			&rec.EvaluatedCount,
			&rec.RequestedBy,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// ListByAirport returns decisions where the given ICAO was the primary
// recommendation.
func (r *DecisionRepository) ListByAirport(ctx context.Context, icao string, limit int) ([]*DecisionRecord, error) {
	query := `
		SELECT id, aircraft_type, COALESCE(callsign, ''), latitude, longitude,
		       emergency_category, emergency_severity, status,
		       COALESCE(primary_icao, ''), confidence, evaluated_count,
		       requested_by, created_at
		FROM diversion_decisions
		WHERE primary_icao = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, icao, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*DecisionRecord
	for rows.Next() {
		rec := &DecisionRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.AircraftType,
			&rec.Callsign,
			&rec.Latitude,
			&rec.Longitude,
			&rec.EmergencyCategory,
			&rec.EmergencySeverity,
			&rec.Status,
			&rec.PrimaryICAO,
			&rec.Confidence,
			&rec.EvaluatedCount,
			&rec.RequestedBy,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
