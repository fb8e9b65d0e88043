package results

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/dimred/internal/fs"
	"github.com/YuminosukeSato/dimred/pkg/errors"
	"github.com/YuminosukeSato/dimred/pkg/log"
)

func TestMergeAndWriteDedupPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		policy  MergePolicy
		want    []Record
		wantErr bool
	}{
		{"keep first", KeepFirst, []Record{{"PCA", 1.0}}, false},
		{"keep last", KeepLast, []Record{{"PCA", 2.0}}, false},
		{"error on conflict", ErrorOnConflict, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "results.csv")
			require.NoError(t, os.WriteFile(path, []byte("Reducer,Time (seconds)\nPCA,1.0\n"), 0o644))

			store := NewStore(tt.policy, nil)
			got, err := store.MergeAndWrite([]Record{{"PCA", 2.0}}, path)
			if tt.wantErr {
				var storageErr *errors.StorageError
				require.True(t, errors.As(err, &storageErr), "got %v", err)

				// the table is left untouched
				data, readErr := os.ReadFile(path)
				require.NoError(t, readErr)
				assert.Equal(t, "Reducer,Time (seconds)\nPCA,1.0\n", string(data))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			onDisk, err := store.Read(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, onDisk)
		})
	}
}

func TestMergeKeepsFirstAppearanceOrder(t *testing.T) {
	existing := []Record{{"PCA", 1}, {"TriMap", 2}}
	batch := []Record{{"PaCMAP", 3}, {"PCA", 4}}

	got, err := Merge(existing, batch, KeepLast)
	require.NoError(t, err)
	assert.Equal(t, []Record{{"PCA", 4}, {"TriMap", 2}, {"PaCMAP", 3}}, got)
}

func TestMergeErrorOnConflictAcceptsIdenticalDuplicates(t *testing.T) {
	got, err := Merge([]Record{{"PCA", 1.5}}, []Record{{"PCA", 1.5}, {"UMAP", 2}}, ErrorOnConflict)
	require.NoError(t, err)
	assert.Equal(t, []Record{{"PCA", 1.5}, {"UMAP", 2}}, got)
}

func TestMergeAndWriteCreatesTable(t *testing.T) {
	logger, _ := log.NewTestLogger(log.LevelInfo)
	path := filepath.Join(t.TempDir(), "results.csv")
	store := NewStore(KeepLast, logger)

	_, err := store.MergeAndWrite([]Record{{"PCA", 0.125}}, path)
	require.NoError(t, err)
	_, err = store.MergeAndWrite([]Record{{"PCA", 0.125}, {"t-SNE", 12.5}}, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Reducer,Time (seconds)\nPCA,0.125\nt-SNE,12.5\n", string(data))
	assert.Equal(t, 2, logger.CountMessages("Saving results"))

	// no temporary file is left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"missing time column", "Reducer,Seconds\nPCA,1\n"},
		{"non-numeric time", "Reducer,Time (seconds)\nPCA,fast\n"},
		{"short row", "Reducer,Time (seconds)\nPCA\n"},
		{"NaN time", "Reducer,Time (seconds)\nPCA,NaN\n"},
		{"infinite time", "Reducer,Time (seconds)\nPCA,+Inf\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "results.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := NewStore(KeepLast, nil).Read(path)
			var storageErr *errors.StorageError
			require.True(t, errors.As(err, &storageErr), "got %v", err)
			assert.Equal(t, "parse results", storageErr.Op)
		})
	}
}

func TestDecodeIgnoresExtraColumns(t *testing.T) {
	got, err := Decode(strings.NewReader(",Time (seconds),Reducer\n0,1.5,UMAP\n"))
	require.NoError(t, err)
	assert.Equal(t, []Record{{"UMAP", 1.5}}, got)
}

func TestMergeAndWriteStorageFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	faulty := fs.NewFaultyFS(nil)
	faulty.FailWrites("results.csv")

	store := NewStore(KeepLast, nil)
	store.FS = faulty

	_, err := store.MergeAndWrite([]Record{{"PCA", 1}}, path)
	var storageErr *errors.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "write results", storageErr.Op)
	assert.Positive(t, faulty.Hits())
}

func TestParseMergePolicy(t *testing.T) {
	for _, p := range []MergePolicy{KeepLast, KeepFirst, ErrorOnConflict} {
		got, err := ParseMergePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParseMergePolicy("newest")
	assert.Error(t, err)
}

func TestMergeAndWriteRejectsNonFiniteTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	_, err := NewStore(KeepLast, nil).MergeAndWrite([]Record{{"PCA", math.NaN()}}, path)
	var storageErr *errors.StorageError
	require.True(t, errors.As(err, &storageErr), "got %v", err)
	assert.Equal(t, "merge results", storageErr.Op)
	var numErr *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &numErr))
	assert.NoFileExists(t, path)
}
