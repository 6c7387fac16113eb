package cmd

import (
	"bytes"
	"errors"
	"testing"

	"steward/internal/project"
	"steward/internal/reconciler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "invalid descriptor maps to validation exit code",
			err:  &project.InvalidDescriptorError{Project: "myapp", Field: "PORT", Reason: "missing"},
			want: ExitCodeValidation,
		},
		{
			name: "unknown project maps to validation exit code",
			err:  &project.NotFoundError{Project: "ghost"},
			want: ExitCodeValidation,
		},
		{
			name: "wrapped validation error is still recognized",
			err:  errors.Join(errors.New("loading descriptor"), &project.NotFoundError{Project: "ghost"}),
			want: ExitCodeValidation,
		},
		{
			name: "host operation error maps to general error",
			err:  &reconciler.HostOperationError{Project: "myapp", Step: "installing unit", Err: errors.New("denied")},
			want: ExitCodeError,
		},
		{
			name: "plain error maps to general error",
			err:  errors.New("boom"),
			want: ExitCodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	defer SetVersion("")

	cmd := newVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "steward version 1.2.3\n", out.String())
}

func TestSetAndGetVersion(t *testing.T) {
	SetVersion("9.9.9")
	defer SetVersion("")
	assert.Equal(t, "9.9.9", GetVersion())
}
