package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDownloadCommand(t *testing.T) {
	cmd := NewDownloadCommand()

	assert.Equal(t, "download", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"only-nfh", "from", "to", "dir", "skip-existing"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewGenerateCommand(t *testing.T) {
	cmd := NewGenerateCommand()

	assert.Equal(t, "generate", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"only-nfh", "no-numbers", "save", "dont-show", "from-numbers", "samples", "seed"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "1", cmd.Flags().Lookup("samples").DefValue)
}

func TestNewBlocksCommand(t *testing.T) {
	cmd := NewBlocksCommand()

	assert.Equal(t, "blocks", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("only-nfh"))
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"downloads", "limit"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "20", cmd.Flags().Lookup("limit").DefValue)
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")

	err := fmt.Errorf("wrapped: %w", &ExitError{Code: ExitFailure, Err: cause})
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "boom", exitErr.Error())

	silent := &ExitError{Code: ExitNonsense}
	assert.Equal(t, "exit status 69", silent.Error())
	assert.NoError(t, silent.Unwrap())
}
