// Package internalexec runs external commands and keeps their output for
// error reporting.
package internalexec

import (
	"bytes"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Result captures stdout/stderr emitted by a finished command.
type Result struct {
	Stdout string
	Stderr string
	// Combined holds both streams in the order they were written.
	Combined string
	ExitCode int
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Capture runs cmd and collects its output. Writers already attached to cmd
// keep receiving the output as it is produced; when none are attached the
// output is only captured.
func Capture(cmd *exec.Cmd) (Result, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	combined := &lockedBuffer{}

	cmd.Stdout = tee(cmd.Stdout, &stdoutBuf, combined)
	cmd.Stderr = tee(cmd.Stderr, &stderrBuf, combined)

	err := cmd.Run()

	result := Result{
		Stdout:   strings.TrimSpace(stdoutBuf.String()),
		Stderr:   strings.TrimSpace(stderrBuf.String()),
		Combined: strings.TrimSpace(combined.String()),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		result.ExitCode = -1
	}

	return result, err
}

func tee(live io.Writer, capture ...io.Writer) io.Writer {
	if live == nil {
		return io.MultiWriter(capture...)
	}
	return io.MultiWriter(append([]io.Writer{live}, capture...)...)
}
