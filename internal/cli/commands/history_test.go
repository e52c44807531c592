package commands

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/panelgen/internal/cli/testutil"
	"github.com/leapstack-labs/panelgen/internal/state"
)

func seedHistory(t *testing.T, project *testutil.TestProject) {
	t.Helper()
	ctx := context.Background()

	store, err := state.Open(ctx, project.Config.StatePath, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.RecordPanel(ctx, &state.Panel{
		Numbers:    []int{10, 11, 13, 14, 15, 16, 17, 18, 19},
		Source:     state.SourceNumbers,
		Annotated:  true,
		OutputPath: "/tmp/10-11-13-14-15-16-17-18-19.png",
	}))
	require.NoError(t, store.RecordPanel(ctx, &state.Panel{
		Numbers: []int{19, 18, 17, 16, 15, 14, 13, 11, 10},
		Source:  state.SourceCatalog,
	}))
	require.NoError(t, store.RecordDownload(ctx, &state.Download{Block: "600", Status: "downloaded", Bytes: 2048}))
	require.NoError(t, store.RecordDownload(ctx, &state.Download{Block: "601", Status: "failed", Reason: "unexpected status: 404"}))
}

func TestHistoryCommand_Empty(t *testing.T) {
	project := testutil.SetupTestProject(t)

	stdout, _, err := project.Execute(t, NewHistoryCommand())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No panels recorded yet.")

	stdout, _, err = project.Execute(t, NewHistoryCommand(), "--downloads")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No downloads recorded yet.")
}

func TestHistoryCommand_Panels(t *testing.T) {
	project := testutil.SetupTestProject(t)
	seedHistory(t, project)

	stdout, _, err := project.Execute(t, NewHistoryCommand())
	require.NoError(t, err)

	testutil.AssertNoANSI(t, stdout)
	assert.Contains(t, stdout, "# Panels (2)")
	assert.Contains(t, stdout, "| Created | Blocks | Source | Numbers | Saved To |")
	assert.Contains(t, stdout, "10-11-13-14-15-16-17-18-19")
	assert.Contains(t, stdout, "19-18-17-16-15-14-13-11-10")
}

func TestHistoryCommand_Limit(t *testing.T) {
	project := testutil.SetupTestProject(t)
	project.Config.OutputFormat = "json"
	seedHistory(t, project)

	stdout, _, err := project.Execute(t, NewHistoryCommand(), "--limit", "1")
	require.NoError(t, err)

	var out []panelRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 1)
	assert.Equal(t, []int{19, 18, 17, 16, 15, 14, 13, 11, 10}, out[0].Numbers)
	assert.Equal(t, state.SourceCatalog, out[0].Source)
	assert.NotEmpty(t, out[0].CreatedAt)
}

func TestHistoryCommand_Downloads(t *testing.T) {
	project := testutil.SetupTestProject(t)
	project.Config.OutputFormat = "json"
	seedHistory(t, project)

	stdout, _, err := project.Execute(t, NewHistoryCommand(), "--downloads")
	require.NoError(t, err)

	var out []downloadRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "601", out[0].Block)
	assert.Equal(t, "failed", out[0].Status)
	assert.Equal(t, "unexpected status: 404", out[0].Reason)
	assert.Equal(t, "600", out[1].Block)
	assert.Equal(t, int64(2048), out[1].Bytes)
}

func TestHistoryCommand_NoStatePath(t *testing.T) {
	project := testutil.SetupTestProject(t)
	project.Config.StatePath = ""

	for _, args := range [][]string{nil, {"--downloads"}} {
		var stdout string
		var err error
		require.NotPanics(t, func() {
			stdout, _, err = project.Execute(t, NewHistoryCommand(), args...)
		})
		require.NoError(t, err)
		assert.Contains(t, stdout, "History recording is disabled")
	}
}

func TestHistoryCommand_Disabled(t *testing.T) {
	project := testutil.SetupTestProject(t)
	project.Config.RecordHistory = false

	stdout, _, err := project.Execute(t, NewHistoryCommand())
	require.NoError(t, err)
	assert.Contains(t, stdout, "History recording is disabled")
	assert.NoFileExists(t, project.Config.StatePath)
}
