package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	paths []string
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, path string) error {
	f.paths = append(f.paths, path)
	return f.err
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "audit_logs_2026-01-31.txt", FileName(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)))
}

func TestRender_Empty(t *testing.T) {
	got := string(Render(nil, fixedNow))
	assert.Equal(t, "=== AUDIT LOG ===\nGenerated: 2026-04-09 14:30:15\n"+
		"==================================================\n\n", got)
}

func TestRender_Entry(t *testing.T) {
	e := models.AuditEntry{
		Timestamp: time.Date(2026, 4, 9, 8, 0, 0, 0, time.Local),
		Action:    models.ActionPurge, Kind: "trash", EntityID: "N/A",
		Detail: "3 items purged", Actor: "admin",
	}
	got := string(Render([]models.AuditEntry{e}, fixedNow))
	assert.Contains(t, got, "[2026-04-09 08:00:00] PURGE trash\n"+
		"  Type: trash | ID: N/A | Action: PURGE\n"+
		"  Details: 3 items purged\n"+
		"  User: admin\n"+
		separator+"\n")
}

func TestExporterWrite_OverwritesAndUploads(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs_audit")
	up := &fakeUploader{}
	exp := NewExporter(dir, 10, WithExportClock(clock), WithUploader(up))
	ctx := context.Background()

	path, err := exp.Write(ctx, []models.AuditEntry{{Action: models.ActionLoad, Kind: "database", Timestamp: fixedNow}})
	require.NoError(t, err)
	_, err = exp.Write(ctx, nil)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "LOAD database", "the day's file is replaced")
	assert.Equal(t, []string{path, path}, up.paths)
}

func TestExporterWrite_UploadFailureIsNotFatal(t *testing.T) {
	up := &fakeUploader{err: errors.New("bucket gone")}
	exp := NewExporter(t.TempDir(), 10, WithUploader(up))

	_, err := exp.Write(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, up.paths, 1)
}

type stalledUploader struct {
	err error
}

func (s *stalledUploader) Upload(ctx context.Context, _ string) error {
	<-ctx.Done()
	s.err = ctx.Err()
	return s.err
}

func TestExporterWrite_UploadHasItsOwnDeadline(t *testing.T) {
	up := &stalledUploader{}
	exp := NewExporter(t.TempDir(), 10, WithUploader(up), WithUploadTimeout(20*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		_, err := exp.Write(context.Background(), nil)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("export blocked on a stalled upload")
	}
	assert.ErrorIs(t, up.err, context.DeadlineExceeded)
}

func TestWithUploadTimeout_IgnoresNonPositive(t *testing.T) {
	assert.Equal(t, DefaultUploadTimeout, NewExporter("x", 0, WithUploadTimeout(0)).uploadTimeout)
	assert.Equal(t, time.Second, NewExporter("x", 0, WithUploadTimeout(time.Second)).uploadTimeout)
}

func TestNewExporter_DefaultLimit(t *testing.T) {
	assert.Equal(t, DefaultExportLimit, NewExporter("x", 0).Limit())
	assert.Equal(t, 5, NewExporter("x", 5).Limit())
}
