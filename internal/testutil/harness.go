// Package testutil provides the harness and helper step types used by the
// integration tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/streamgridgo/internal/app"
	"github.com/vk/streamgridgo/internal/catalog"
	"github.com/vk/streamgridgo/internal/executor"
	"github.com/vk/streamgridgo/internal/steps"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	Result    *executor.Result
	App       *app.App
}

// Harness describes one integration run. Files are written relative to a
// temporary directory which becomes the transformation path.
type Harness struct {
	Files      map[string]string
	Overrides  []string
	BufferSize int
	// Modules are registered next to the core step types.
	Modules []catalog.Module
}

// RunIntegrationTest runs the harness with a background context.
func RunIntegrationTest(t *testing.T, h Harness) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, h)
}

// RunIntegrationTestWithContext writes the harness files and runs the app
// against them once.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, h Harness) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	for name, content := range h.Files {
		filePath := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	cfg := &app.Config{
		TransformationPath: dir,
		LogFormat:          "text",
		Overrides:          h.Overrides,
		BufferSize:         h.BufferSize,
	}
	modules := append(append([]catalog.Module(nil), steps.Core...), h.Modules...)
	testApp, logs := app.SetupAppTest(t, cfg, modules...)

	res, err := testApp.Run(ctx)
	return &HarnessResult{
		LogOutput: logs.String(),
		Err:       err,
		Result:    res,
		App:       testApp,
	}
}

// Testdata returns the absolute path of a file shipped with the csv_input
// step's tests. It resolves relative to a package directory under internal/.
func Testdata(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "steps", "csvinput", "testdata", name))
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)
	return path
}
