// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/osn-filter/pkg/types"
)

func sampleNotes() []types.Note {
	return []types.Note{
		{
			ID: "1", Lat: "51.5", Lon: "-0.12", CreatedAt: "2015-04-01T10:00:00Z",
			Attrs:    map[string]string{"status": "open"},
			Comments: []types.Comment{{Action: "opened", User: "mapper", Text: "Missing footpath"}},
		},
		{ID: "2", Lat: "48.85", Lon: "2.35", CreatedAt: "2015-04-15T00:00:00Z"},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleNotes(), types.OutputJSON))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "51.5", got[0]["lat"])
	assert.Equal(t, "2015-04-01T10:00:00Z", got[0]["created_at"])
	assert.NotContains(t, got[1], "comments")
	assert.NotContains(t, got[1], "closed_at")
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleNotes(), types.OutputYAML))

	assert.Contains(t, buf.String(), "created_at:")

	var got []types.Note
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleNotes(), got)
}

func TestEmptyCollectionIsEmptyList(t *testing.T) {
	data, err := Marshal(nil, types.OutputJSON)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))

	data, err = Marshal([]types.Note{}, types.OutputYAML)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := Marshal(sampleNotes(), "csv")
	assert.ErrorContains(t, err, `unsupported format "csv"`)
}

func TestEmit(t *testing.T) {
	t.Run("stdout when no path", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Emit(types.OutputConfig{}, &buf, sampleNotes()))
		assert.True(t, json.Valid(buf.Bytes()))
	})

	t.Run("file when path set", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "notes.yaml")
		cfg := types.OutputConfig{Format: types.OutputYAML, Path: path}
		require.NoError(t, Emit(cfg, &buf, sampleNotes()))
		assert.Zero(t, buf.Len())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "lat: \"51.5\"")
	})

	t.Run("no file on bad format", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.out")
		err := Emit(types.OutputConfig{Format: "xml", Path: path}, nil, sampleNotes())
		require.Error(t, err)
		assert.NoFileExists(t, path)
	})
}
