package bridge

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/toolbridge/toolbridge/internal/log"
)

// RuntimeResult is the captured outcome of one container runtime invocation.
type RuntimeResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runtime invokes the container runtime CLI. Every call is a bounded,
// awaited subprocess with captured output.
type Runtime struct {
	bin     string
	timeout time.Duration
}

func NewRuntime() *Runtime {
	return &Runtime{
		bin:     RuntimeBin,
		timeout: 30 * time.Second,
	}
}

func (r *Runtime) run(ctx context.Context, args ...string) (*RuntimeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	log.Debugf("runtime: %s %s\n", r.bin, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, r.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &RuntimeResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("%s %s: exit %d: %s", r.bin, args[0], result.ExitCode, strings.TrimSpace(result.Stderr))
		}
		return nil, err
	}
	return result, nil
}

// Available probes the runtime with a version check.
func (r *Runtime) Available(ctx context.Context) error {
	_, err := r.run(ctx, "version", "--format", "{{.Server.Version}}")
	if err != nil {
		return &RuntimeUnavailableError{Err: err}
	}
	return nil
}

// StopContainer stops a running container by name.
func (r *Runtime) StopContainer(ctx context.Context, name string) error {
	_, err := r.run(ctx, "stop", name)
	return err
}

// RemoveContainer force-removes a container by name. Missing containers are
// not an error.
func (r *Runtime) RemoveContainer(ctx context.Context, name string) error {
	_, err := r.run(ctx, "rm", "-f", name)
	if err != nil && strings.Contains(err.Error(), "No such container") {
		return nil
	}
	return err
}

// ContainerLogs returns the last tail lines of a container's output.
func (r *Runtime) ContainerLogs(ctx context.Context, name string, tail int) (string, error) {
	result, err := r.run(ctx, "logs", "--tail", fmt.Sprintf("%d", tail), name)
	if err != nil {
		return "", err
	}
	// docker logs writes the container's stderr to our stderr
	return result.Stdout + result.Stderr, nil
}

// ContainerStatus returns the runtime's status string for a named container,
// or "" if no such container exists.
func (r *Runtime) ContainerStatus(ctx context.Context, name string) (string, error) {
	result, err := r.run(ctx, "ps", "-a", "--filter", "name="+name, "--format", "{{.Status}}")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}
