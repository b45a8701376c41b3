package session

import (
	"bytes"
	"context"
	"go.uber.org/zap"
	"os/exec"
)

// Runner runs the cs tool with args, writing stdin to its standard input.
type Runner interface {
	Run(ctx context.Context, stdin []byte, args ...string) error
}

// ExecRunner runs the cs binary found at Path.
type ExecRunner struct {
	Path   string
	Logger *zap.Logger
}

func (r ExecRunner) Run(ctx context.Context, stdin []byte, args ...string) error {
	path := r.Path
	if path == "" {
		path = "cs"
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	out, err := cmd.CombinedOutput()
	logger.Debug("ran cs", zap.Strings("args", args), zap.ByteString("output", out), zap.Error(err))
	return err
}
