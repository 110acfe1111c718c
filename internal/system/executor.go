package system

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// osExecutor implements CommandExecutor using real OS operations.
type osExecutor struct{}

func (e *osExecutor) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	return exitResult(result, err)
}

func (e *osExecutor) RunStreaming(ctx context.Context, onLine func(line string), name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// nil Stdout is connected to the null device
	pipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	type drained struct {
		stderr string
		err    error
	}
	done := make(chan drained, 1)
	go func() {
		stderr, err := drainLines(pipe, onLine)
		done <- drained{stderr: stderr, err: err}
	}()

	// the pipe must be fully drained before Wait closes it
	out := <-done
	err = cmd.Wait()

	result := &Result{Stderr: []byte(out.stderr)}
	result, err = exitResult(result, err)
	if err == nil && out.err != nil {
		err = out.err
	}
	return result, err
}

// drainLines reads r to EOF, calling onLine for every line without its
// newline, and returns everything read. Lines have no length limit. On a
// read error the rest of r is discarded so the writer never blocks.
func drainLines(r io.Reader, onLine func(line string)) (string, error) {
	var all strings.Builder
	br := bufio.NewReader(r)
	for {
		chunk, err := br.ReadString('\n')
		if chunk != "" {
			all.WriteString(chunk)
			if onLine != nil {
				onLine(strings.TrimSuffix(strings.TrimSuffix(chunk, "\n"), "\r"))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			_, _ = io.Copy(io.Discard, r)
			return strings.TrimSuffix(all.String(), "\n"), err
		}
	}
	return strings.TrimSuffix(all.String(), "\n"), nil
}

func (e *osExecutor) ExecuteInteractive(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// exitResult folds a non-zero exit into the result and keeps every other
// failure as an error.
func exitResult(result *Result, err error) (*Result, error) {
	if err == nil {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return result, err
}
