package trackerbun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-certgen/certgen"
	"github.com/uptrace/bun"
)

// Tracker stores batch run history in a Bun-backed database.
type Tracker struct {
	DB          *bun.DB
	Now         func() time.Time
	IDGenerator func() string
}

var _ certgen.RunTracker = (*Tracker)(nil)

// NewTracker creates a Bun-backed tracker.
func NewTracker(db *bun.DB) *Tracker {
	return &Tracker{DB: db, Now: time.Now, IDGenerator: defaultIDGenerator()}
}

// CreateTables creates the run and artifact tables when missing.
func CreateTables(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return certgen.NewError(certgen.KindInternal, "tracker database not configured", nil)
	}
	for _, model := range []any{(*runModel)(nil), (*artifactModel)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	_, err := db.NewCreateIndex().
		Model((*artifactModel)(nil)).
		Index("certgen_artifacts_run_id_idx").
		Column("run_id").
		IfNotExists().
		Exec(ctx)
	return err
}

// Start creates a new run record.
func (t *Tracker) Start(ctx context.Context, record certgen.RunRecord) (string, error) {
	if err := t.check(); err != nil {
		return "", err
	}
	if record.ID == "" {
		record.ID = t.nextID()
	}
	if record.State == "" {
		record.State = certgen.RunRunning
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = t.now()
	}

	model := modelFromRecord(record)
	if _, err := t.DB.NewInsert().Model(&model).Exec(ctx); err != nil {
		return "", err
	}
	return record.ID, nil
}

// Artifact records a produced certificate and bumps the run count.
func (t *Tracker) Artifact(ctx context.Context, runID string, artifact certgen.ArtifactRecord) error {
	if err := t.check(); err != nil {
		return err
	}
	if runID == "" {
		return certgen.NewError(certgen.KindValidation, "run ID is required", nil)
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = t.now()
	}
	artifact.RunID = runID

	return t.DB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model((*runModel)(nil)).
			Set("artifact_count = artifact_count + 1").
			Where("id = ?", runID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return certgen.NewError(certgen.KindNotFound, fmt.Sprintf("run %q not found", runID), nil)
		}

		model := artifactFromRecord(artifact)
		_, err = tx.NewInsert().Model(&model).Exec(ctx)
		return err
	})
}

// Complete marks a run as completed with its final count.
func (t *Tracker) Complete(ctx context.Context, runID string, count int) error {
	if err := t.check(); err != nil {
		return err
	}
	if runID == "" {
		return certgen.NewError(certgen.KindValidation, "run ID is required", nil)
	}

	res, err := t.DB.NewUpdate().Model((*runModel)(nil)).
		Set("state = ?", string(certgen.RunCompleted)).
		Set("artifact_count = ?", count).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", runID).
		Exec(ctx)
	return t.affected(res, err, runID)
}

// Fail marks a run as failed.
func (t *Tracker) Fail(ctx context.Context, runID string, cause error) error {
	if err := t.check(); err != nil {
		return err
	}
	if runID == "" {
		return certgen.NewError(certgen.KindValidation, "run ID is required", nil)
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	res, err := t.DB.NewUpdate().Model((*runModel)(nil)).
		Set("state = ?", string(certgen.RunFailed)).
		Set("error_message = ?", msg).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", runID).
		Exec(ctx)
	return t.affected(res, err, runID)
}

// Status returns a run and its artifacts.
func (t *Tracker) Status(ctx context.Context, runID string) (certgen.RunRecord, error) {
	if err := t.check(); err != nil {
		return certgen.RunRecord{}, err
	}
	if runID == "" {
		return certgen.RunRecord{}, certgen.NewError(certgen.KindValidation, "run ID is required", nil)
	}

	model := new(runModel)
	if err := t.DB.NewSelect().Model(model).Where("id = ?", runID).Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return certgen.RunRecord{}, certgen.NewError(certgen.KindNotFound, fmt.Sprintf("run %q not found", runID), nil)
		}
		return certgen.RunRecord{}, err
	}

	records := []certgen.RunRecord{model.toRecord()}
	if err := t.attachArtifacts(ctx, records); err != nil {
		return certgen.RunRecord{}, err
	}
	return records[0], nil
}

// List returns the most recent runs first, with their artifacts.
func (t *Tracker) List(ctx context.Context, limit int) ([]certgen.RunRecord, error) {
	if err := t.check(); err != nil {
		return nil, err
	}

	models := make([]runModel, 0)
	query := t.DB.NewSelect().Model(&models).Order("started_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	records := make([]certgen.RunRecord, 0, len(models))
	for _, model := range models {
		records = append(records, model.toRecord())
	}
	if err := t.attachArtifacts(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (t *Tracker) attachArtifacts(ctx context.Context, records []certgen.RunRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids := make([]string, 0, len(records))
	index := make(map[string]int, len(records))
	for i, record := range records {
		ids = append(ids, record.ID)
		index[record.ID] = i
	}

	artifacts := make([]artifactModel, 0)
	err := t.DB.NewSelect().Model(&artifacts).
		Where("run_id IN (?)", bun.In(ids)).
		Order("run_id ASC", "row_index ASC").
		Scan(ctx)
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		i, ok := index[a.RunID]
		if !ok {
			continue
		}
		records[i].Artifacts = append(records[i].Artifacts, a.toRecord())
	}
	return nil
}

func (t *Tracker) affected(res sql.Result, err error, runID string) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return certgen.NewError(certgen.KindNotFound, fmt.Sprintf("run %q not found", runID), nil)
	}
	return nil
}

func (t *Tracker) check() error {
	if t == nil || t.DB == nil {
		return certgen.NewError(certgen.KindInternal, "tracker database not configured", nil)
	}
	return nil
}

type runModel struct {
	bun.BaseModel `bun:"table:certgen_runs,alias:runs"`

	ID              string    `bun:",pk"`
	TemplatePath    string    `bun:"template_path,notnull"`
	SpreadsheetPath string    `bun:"spreadsheet_path,notnull"`
	OutputDir       string    `bun:"output_dir,notnull"`
	State           string    `bun:"state,notnull"`
	Count           int       `bun:"artifact_count,notnull"`
	Error           string    `bun:"error_message"`
	StartedAt       time.Time `bun:"started_at,notnull"`
	CompletedAt     time.Time `bun:"completed_at,nullzero"`
}

type artifactModel struct {
	bun.BaseModel `bun:"table:certgen_artifacts,alias:artifacts"`

	ID         int64     `bun:",pk,autoincrement"`
	RunID      string    `bun:"run_id,notnull"`
	RowIndex   int       `bun:"row_index,notnull"`
	Identifier string    `bun:"identifier,notnull"`
	Name       string    `bun:"name"`
	Key        string    `bun:"artifact_key,notnull"`
	Size       int64     `bun:"size"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

func modelFromRecord(record certgen.RunRecord) runModel {
	return runModel{
		ID:              record.ID,
		TemplatePath:    record.TemplatePath,
		SpreadsheetPath: record.SpreadsheetPath,
		OutputDir:       record.OutputDir,
		State:           string(record.State),
		Count:           record.Count,
		Error:           record.Error,
		StartedAt:       record.StartedAt,
		CompletedAt:     record.CompletedAt,
	}
}

func (m runModel) toRecord() certgen.RunRecord {
	return certgen.RunRecord{
		ID:              m.ID,
		TemplatePath:    m.TemplatePath,
		SpreadsheetPath: m.SpreadsheetPath,
		OutputDir:       m.OutputDir,
		State:           certgen.RunState(m.State),
		Count:           m.Count,
		Error:           m.Error,
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
	}
}

func artifactFromRecord(a certgen.ArtifactRecord) artifactModel {
	return artifactModel{
		RunID:      a.RunID,
		RowIndex:   a.RowIndex,
		Identifier: a.Identifier,
		Name:       a.Name,
		Key:        a.Key,
		Size:       a.Size,
		CreatedAt:  a.CreatedAt,
	}
}

func (m artifactModel) toRecord() certgen.ArtifactRecord {
	return certgen.ArtifactRecord{
		RunID:      m.RunID,
		RowIndex:   m.RowIndex,
		Identifier: m.Identifier,
		Name:       m.Name,
		Key:        m.Key,
		Size:       m.Size,
		CreatedAt:  m.CreatedAt,
	}
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) nextID() string {
	if t.IDGenerator != nil {
		return t.IDGenerator()
	}
	return defaultIDGenerator()()
}

func defaultIDGenerator() func() string {
	var counter uint64
	return func() string {
		id := atomic.AddUint64(&counter, 1)
		return fmt.Sprintf("run-%d", id)
	}
}
