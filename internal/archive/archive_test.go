// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/osn-filter/internal/filter"
	"github.com/pdiddy/osn-filter/pkg/types"
)

func testArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(types.ArchiveConfig{DBPath: filepath.Join(t.TempDir(), "archive", "runs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(types.ArchiveConfig{})
	assert.Error(t, err)
}

func TestRecordAndReload(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	kept := []types.Note{
		{
			ID: "7", Lat: "10", Lon: "10", CreatedAt: "2015-04-15T00:00:00Z",
			Attrs:    map[string]string{"status": "open"},
			Comments: []types.Comment{{Action: "opened", Text: "pothole"}},
		},
		{ID: "3", Lat: "12", Lon: "11", CreatedAt: "2015-04-20T00:00:00Z"},
	}
	c := filter.Criteria{
		InitialCreation: filter.Present("2015-04-10"),
		BoundingBox:     filter.Present("0,0,20,20"),
	}

	run, err := a.Record(ctx, "notes.osn", c, 5, kept)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 5, run.Total)
	assert.Equal(t, 2, run.Kept)

	runs, err := a.Runs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "notes.osn", runs[0].Source)
	assert.Equal(t, "2015-04-10", runs[0].InitialCreation)
	assert.Empty(t, runs[0].FinalCreation)
	assert.Equal(t, "0,0,20,20", runs[0].BoundingBox)
	assert.False(t, runs[0].FilteredAt.IsZero())

	notes, err := a.Notes(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, kept, notes)
}

func TestRecordEmptyResult(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	run, err := a.Record(ctx, "notes.osn", filter.Criteria{}, 3, nil)
	require.NoError(t, err)
	assert.Zero(t, run.Kept)

	notes, err := a.Notes(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestRunsNewestFirstWithLimit(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	for _, src := range []string{"a.osn", "b.osn", "c.osn"} {
		_, err := a.Record(ctx, src, filter.Criteria{}, 1, nil)
		require.NoError(t, err)
	}

	runs, err := a.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c.osn", runs[0].Source)
	assert.Equal(t, "b.osn", runs[1].Source)
}

func TestNotesUnknownRun(t *testing.T) {
	a := testArchive(t)
	_, err := a.Notes(context.Background(), "does-not-exist")
	assert.ErrorContains(t, err, "not found")
}

func TestDeleteRemovesRunAndNotes(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	kept := []types.Note{{ID: "1", Lat: "1", Lon: "1", CreatedAt: "2015-01-01"}}
	run, err := a.Record(ctx, "notes.osn", filter.Criteria{}, 1, kept)
	require.NoError(t, err)

	require.NoError(t, a.Delete(ctx, run.ID))

	runs, err := a.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	var orphans int
	require.NoError(t, a.db.QueryRow(`SELECT count(*) FROM notes WHERE run_id = ?`, run.ID).Scan(&orphans))
	assert.Zero(t, orphans)
}

func TestCorruptRowsAreReported(t *testing.T) {
	a := testArchive(t)
	ctx := context.Background()

	kept := []types.Note{{ID: "1", Lat: "1", Lon: "1", CreatedAt: "2015-01-01"}}
	run, err := a.Record(ctx, "notes.osn", filter.Criteria{}, 1, kept)
	require.NoError(t, err)

	_, err = a.db.Exec(`UPDATE notes SET comments = '{broken' WHERE run_id = ?`, run.ID)
	require.NoError(t, err)
	_, err = a.Notes(ctx, run.ID)
	assert.ErrorContains(t, err, "decoding comments of note 1")

	_, err = a.db.Exec(`UPDATE runs SET filtered_at = 'yesterday' WHERE id = ?`, run.ID)
	require.NoError(t, err)
	_, err = a.Runs(ctx, 0)
	assert.ErrorContains(t, err, "filtered_at")
}
