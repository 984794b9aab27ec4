package integration_tests

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/specialistvlad/prototype/internal/app"
	"github.com/specialistvlad/prototype/internal/testutil"
	"github.com/stretchr/testify/require"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	Root      string
	Output    string
	LogOutput string
	Err       error
}

// runIntegrationTest writes files to a temporary root, lets configure point
// the config at them, and runs the whole app.
func runIntegrationTest(t *testing.T, files map[string]string, configure func(root string, cfg *app.Config)) *HarnessResult {
	t.Helper()

	root := testutil.WriteFiles(t, files)
	cfg := app.Config{
		WorkerCount: 4,
		LogFormat:   "text",
		LogLevel:    "debug",
	}
	configure(root, &cfg)

	validated, err := app.NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logBuffer := &testutil.SafeBuffer{}
	runErr := app.NewApp(out, logBuffer, validated).Run(context.Background())

	if os.Getenv("PROTO_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		Root:      root,
		Output:    out.String(),
		LogOutput: logBuffer.String(),
		Err:       runErr,
	}
}
