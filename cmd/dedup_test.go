//go:build !windows

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/lndup/pkg/config"
	"github.com/autobrr/lndup/pkg/fsys"
	"github.com/autobrr/lndup/pkg/linkinfo"
)

func testOptions() *config.Options {
	return &config.Options{
		Threshold:   config.DefaultThreshold,
		Workers:     2,
		ScanWorkers: 2,
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func fileID(t *testing.T, path string) linkinfo.FileID {
	t.Helper()
	info, err := linkinfo.Lookup(path)
	require.NoError(t, err)
	return info.FileID
}

func TestRunDedup_LinksIdenticalFiles(t *testing.T) {
	dir := t.TempDir()
	same := bytes.Repeat([]byte{'x'}, 100)

	for _, name := range []string{"a", "b", "sub/c"} {
		writeFile(t, filepath.Join(dir, name), same)
	}
	writeFile(t, filepath.Join(dir, "d"), bytes.Repeat([]byte{'y'}, 100))

	// b already has two names so it is kept
	require.NoError(t, os.Link(filepath.Join(dir, "b"), filepath.Join(dir, "b2")))
	keep := fileID(t, filepath.Join(dir, "b"))
	other := fileID(t, filepath.Join(dir, "d"))

	run, err := runDedup([]string{dir}, testOptions(), fsys.NewOsFs())
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "b2", "sub/c"} {
		assert.Equal(t, keep, fileID(t, filepath.Join(dir, name)), name)
	}
	assert.Equal(t, other, fileID(t, filepath.Join(dir, "d")))

	data, err := os.ReadFile(filepath.Join(dir, "a"))
	require.NoError(t, err)
	assert.Equal(t, same, data)

	assert.EqualValues(t, 1, run.Execute.Todo.Src)
	assert.EqualValues(t, 2, run.Execute.Todo.Dst)
	assert.EqualValues(t, 200, run.Execute.Todo.Size)
	assert.Equal(t, run.Execute.Todo, run.Execute.Done)
	assert.Zero(t, run.Execute.Fail.Dst)

	t.Run("second_run_is_idempotent", func(t *testing.T) {
		run, err := runDedup([]string{dir}, testOptions(), fsys.NewOsFs())
		require.NoError(t, err)
		assert.Zero(t, run.Execute.Todo.Dst)
		assert.Zero(t, run.Execute.Done.Dst)
	})
}

func TestRunDedup_SkipsEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), nil)
	writeFile(t, filepath.Join(dir, "b"), nil)

	run, err := runDedup([]string{dir}, testOptions(), fsys.NewOsFs())
	require.NoError(t, err)

	assert.Zero(t, run.Probe.Select.N)
	assert.Zero(t, run.Execute.Todo.Dst)
	assert.NotEqual(t, fileID(t, filepath.Join(dir, "a")), fileID(t, filepath.Join(dir, "b")))
}

func TestRunDedup_DryRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a"), []byte("same content"))
	writeFile(t, filepath.Join(dir, "b"), []byte("same content"))

	opts := testOptions()
	opts.DryRun = true

	run, err := runDedup([]string{dir}, opts, fsys.NewOsFs())
	require.NoError(t, err)

	assert.EqualValues(t, 1, run.Execute.Todo.Dst)
	assert.Zero(t, run.Execute.Done.Dst)
	assert.NotEqual(t, fileID(t, filepath.Join(dir, "a")), fileID(t, filepath.Join(dir, "b")))
}

func TestRunDedup_FilterAndExclude(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"keep/a", "keep/b", "skip/c"} {
		writeFile(t, filepath.Join(dir, name), []byte("same content"))
	}
	writeFile(t, filepath.Join(dir, "keep/x.tmp"), []byte("same content"))

	opts := testOptions()
	opts.Filters = []string{`not (Name endsWith ".tmp")`}
	opts.Excludes = []string{`/skip$`}

	run, err := runDedup([]string{dir}, opts, fsys.NewOsFs())
	require.NoError(t, err)

	assert.EqualValues(t, 2, run.Probe.Select.N)
	assert.Equal(t, fileID(t, filepath.Join(dir, "keep/a")), fileID(t, filepath.Join(dir, "keep/b")))
	assert.NotEqual(t, fileID(t, filepath.Join(dir, "keep/a")), fileID(t, filepath.Join(dir, "skip/c")))
	assert.NotEqual(t, fileID(t, filepath.Join(dir, "keep/a")), fileID(t, filepath.Join(dir, "keep/x.tmp")))
}

func TestRunDedup_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts func(o *config.Options)
	}{
		{"bad_filter", func(o *config.Options) { o.Filters = []string{"Size >"} }},
		{"bad_exclude", func(o *config.Options) { o.Excludes = []string{"(unclosed"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.opts(opts)
			_, err := runDedup([]string{t.TempDir()}, opts, fsys.NewOsFs())
			assert.Error(t, err)
		})
	}
}

func TestRootCommand_RequiresPath(t *testing.T) {
	command := RootCommand()
	command.SetArgs([]string{})
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	assert.Error(t, command.Execute())
}

func TestRootCommand_HelpMentionsReservedNames(t *testing.T) {
	command := RootCommand()
	assert.Contains(t, command.Long, `"hasher" and "version" are reserved`)
}
