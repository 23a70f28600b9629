package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Run is one stored multi-filing analysis.
type Run struct {
	ID        string          `json:"run_id"`
	Company   string          `json:"company"`
	Analysis  json.RawMessage `json:"analysis"`
	CreatedAt time.Time       `json:"created_at"`
}

// ErrRunNotFound is returned by Load for an unknown run ID.
var ErrRunNotFound = errors.New("analysis run not found")

// AnalysisRepo stores analysis runs in the analysis_runs table.
type AnalysisRepo struct {
	db DBTX
}

func NewAnalysisRepo(db DBTX) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

// Save upserts the run, marshaling analysis into a JSONB column.
func (r *AnalysisRepo) Save(ctx context.Context, runID, company string, analysis any) error {
	if r.db == nil {
		return eris.New("database pool not initialized")
	}

	data, err := json.Marshal(analysis)
	if err != nil {
		return eris.Wrap(err, "failed to marshal analysis")
	}

	query := `
		INSERT INTO analysis_runs (run_id, company, analysis_json, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id)
		DO UPDATE SET
			company = EXCLUDED.company,
			analysis_json = EXCLUDED.analysis_json
	`
	if _, err := r.db.Exec(ctx, query, runID, company, data, time.Now().UTC()); err != nil {
		return eris.Wrapf(err, "failed to save analysis run %s", runID)
	}
	return nil
}

// Load returns the stored run.
func (r *AnalysisRepo) Load(ctx context.Context, runID string) (*Run, error) {
	if r.db == nil {
		return nil, eris.New("database pool not initialized")
	}

	query := `SELECT run_id, company, analysis_json, created_at FROM analysis_runs WHERE run_id = $1`

	var (
		run  Run
		data []byte
	)
	err := r.db.QueryRow(ctx, query, runID).Scan(&run.ID, &run.Company, &data, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to load analysis run %s", runID)
	}
	run.Analysis = data
	return &run, nil
}
