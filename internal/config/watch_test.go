package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pedalrc/pedalrc/internal/config"
)

func TestWatcherDeliversRegistryOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pedalrc.conf")
	require.NoError(t, os.WriteFile(path, []byte("1: A\n"), 0o644))

	w, err := config.NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("1: A\n2: B\n"), 0o644))

	select {
	case reg := <-w.Registry:
		require.Len(t, reg.Rules, 2)
	case err := <-w.Errors:
		t.Fatalf("unexpected reload error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatcherReportsParseErrorWithoutTearingDown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pedalrc.conf")
	require.NoError(t, os.WriteFile(path, []byte("1: A\n"), 0o644))

	w, err := config.NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("not a valid line\n"), 0o644))

	select {
	case <-w.Registry:
		t.Fatal("expected a parse error, not a registry")
	case err := <-w.Errors:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pedalrc.conf")
	require.NoError(t, os.WriteFile(path, []byte("1: A\n"), 0o644))

	w, err := config.NewWatcher(path)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("noise"), 0o644))

	select {
	case <-w.Registry:
		t.Fatal("unrelated file should not trigger a reload")
	case <-w.Errors:
		t.Fatal("unrelated file should not trigger an error")
	case <-time.After(300 * time.Millisecond):
	}
}
