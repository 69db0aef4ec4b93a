package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/poetry-loader/internal/app/ingest"
	"github.com/heartmarshall/poetry-loader/internal/config"
	"github.com/heartmarshall/poetry-loader/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: "mysql"}, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysql")
}

func TestIngest_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "全唐诗")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	write("poet.tang.0.json", `[{"id":"p1","title":"靜夜思","author":"李白","paragraphs":["床前明月光，疑是地上霜。","舉頭望明月，低頭思故鄉。"],"tags":["思鄉"]}]`)
	write("poet.tang.1.json", `[{"id":"p2","title":"春曉","author":"孟浩然","paragraphs":["春眠不覺曉"],"tags":["思鄉","春天"]}]`)
	write("authors.tang.json", `[{"name":"李白"}]`)
	write("README.md", "# corpus")

	store, err := OpenStore(ctx, config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(tmp, "db", "poetry.db"),
	}, discardLogger())
	require.NoError(t, err)
	defer store.Close()

	cfg := ingest.Config{
		Dir:              dir,
		Exclude:          []string{"authors.tang.json", "README.md"},
		Normalizer:       "t2s",
		OpenCCConversion: "t2s",
		Workers:          1,
	}

	for i := 0; i < 2; i++ {
		report, err := Ingest(ctx, discardLogger(), store, cfg)
		require.NoError(t, err)
		assert.Equal(t, ExitOK, ExitCode(report, nil))
		require.Len(t, report.Units, 2, "excluded files are not units")
		assert.Equal(t, domain.StoreCounts{Poems: 2, Tags: 2, PoemTags: 3}, report.Totals, "run %d", i+1)
	}

	id, err := store.Poems.TagIDByName(ctx, "思乡")
	require.NoError(t, err, "tags are stored simplified")
	assert.NotZero(t, id)
}

func TestIngest_MissingDirectoryAborts(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(ctx, config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "poetry.db"),
	}, discardLogger())
	require.NoError(t, err)
	defer store.Close()

	report, err := Ingest(ctx, discardLogger(), store, ingest.Config{Dir: "/does/not/exist", Normalizer: "none", Workers: 1})
	require.Error(t, err)
	assert.Equal(t, ExitAborted, ExitCode(report, err))
}

func TestExitCode(t *testing.T) {
	failed := ingest.Report{Units: []ingest.UnitResult{{Unit: "a.json"}, {Unit: "b.json", Err: errors.New("bad")}}}
	ok := ingest.Report{Units: []ingest.UnitResult{{Unit: "a.json"}}}

	tests := []struct {
		name   string
		report ingest.Report
		err    error
		want   int
	}{
		{"all units ok", ok, nil, ExitOK},
		{"empty run", ingest.Report{}, nil, ExitOK},
		{"some units failed", failed, nil, ExitUnitsFailed},
		{"aborted", failed, domain.ErrStoreUnavailable, ExitAborted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.report, tt.err))
		})
	}
}
