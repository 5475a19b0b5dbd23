package trackerbun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-certgen/certgen"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func TestTracker_StartArtifactComplete(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))

	runID, err := tracker.Start(ctx, certgen.RunRecord{
		TemplatePath:    "/tmp/template.docx",
		SpreadsheetPath: "/tmp/people.xlsx",
		OutputDir:       "/tmp/out",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if runID == "" {
		t.Fatalf("expected run id")
	}

	for i, id := range []string{"ID001", "ID002"} {
		err := tracker.Artifact(ctx, runID, certgen.ArtifactRecord{
			RowIndex:   i + 2,
			Identifier: id,
			Name:       "Person " + id,
			Key:        id + ".pdf",
			Size:       128,
		})
		if err != nil {
			t.Fatalf("artifact %s: %v", id, err)
		}
	}
	if err := tracker.Complete(ctx, runID, 2); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := tracker.Status(ctx, runID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.State != certgen.RunCompleted || got.Count != 2 {
		t.Fatalf("unexpected run %#v", got)
	}
	if got.CompletedAt.IsZero() {
		t.Fatalf("expected completed_at to be set")
	}
	if len(got.Artifacts) != 2 || got.Artifacts[0].Key != "ID001.pdf" || got.Artifacts[1].RowIndex != 3 {
		t.Fatalf("unexpected artifacts %#v", got.Artifacts)
	}
	if got.OutputDir != "/tmp/out" {
		t.Fatalf("expected output dir, got %q", got.OutputDir)
	}
}

func TestTracker_Fail(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))

	runID, err := tracker.Start(ctx, certgen.RunRecord{ID: "run-fail"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tracker.Fail(ctx, runID, errors.New("soffice exited")); err != nil {
		t.Fatalf("fail: %v", err)
	}

	got, err := tracker.Status(ctx, runID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got.State != certgen.RunFailed || got.Error != "soffice exited" {
		t.Fatalf("unexpected run %#v", got)
	}
}

func TestTracker_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := tracker.Start(ctx, certgen.RunRecord{
			ID:        fmt.Sprintf("run-%d", i),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	if err := tracker.Artifact(ctx, "run-1", certgen.ArtifactRecord{RowIndex: 2, Identifier: "A", Key: "A.pdf"}); err != nil {
		t.Fatalf("artifact: %v", err)
	}

	list, err := tracker.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(list))
	}
	if list[0].ID != "run-2" || list[1].ID != "run-1" {
		t.Fatalf("unexpected order %s, %s", list[0].ID, list[1].ID)
	}
	if len(list[1].Artifacts) != 1 || list[1].Count != 1 {
		t.Fatalf("expected artifact on run-1, got %#v", list[1])
	}
}

func TestTracker_UnknownRun(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(newTestDB(t))

	if err := tracker.Complete(ctx, "missing", 1); certgen.KindFromError(err) != certgen.KindNotFound {
		t.Fatalf("expected not found on complete, got %v", err)
	}
	if err := tracker.Artifact(ctx, "missing", certgen.ArtifactRecord{Key: "x.pdf"}); certgen.KindFromError(err) != certgen.KindNotFound {
		t.Fatalf("expected not found on artifact, got %v", err)
	}
	if _, err := tracker.Status(ctx, "missing"); certgen.KindFromError(err) != certgen.KindNotFound {
		t.Fatalf("expected not found on status, got %v", err)
	}
	if err := tracker.Fail(ctx, "", nil); certgen.KindFromError(err) != certgen.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTracker_NotConfigured(t *testing.T) {
	var tracker *Tracker
	if _, err := tracker.Start(context.Background(), certgen.RunRecord{}); err == nil {
		t.Fatalf("expected error for nil tracker")
	}
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := CreateTables(context.Background(), db); err != nil {
		t.Fatalf("create tables: %v", err)
	}
	return db
}
