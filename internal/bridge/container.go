package bridge

import (
	"fmt"
	"sort"
)

// Origin is where a server's code comes from.
type Origin string

const (
	// OriginImage runs an already-containerized server image as-is.
	OriginImage Origin = "image"

	// OriginNpm installs the npm package at container start and runs it.
	OriginNpm Origin = "npm"
)

// Mode is the installation mode.
type Mode string

const (
	// ModeBridge servers are supervised by this process and their tools
	// proxied through the front server.
	ModeBridge Mode = "bridge"

	// ModeDirect servers are launched and owned by the external client.
	ModeDirect Mode = "direct"
)

const RuntimeBin = "docker"

// npm-origin servers run inside a minimal node image. The package is
// installed at container start (npx -y), not baked into an image.
const npmRuntimeImage = "node:22-slim"

// hardening flags for containers that run unsupervised for the life of
// the external client.
var hardeningArgs = []string{
	"--read-only",
	"--security-opt", "no-new-privileges",
	"--memory", "512m",
	"--cpu-shares", "512",
	"--pids-limit", "256",
	"--tmpfs", "/tmp",
}

// BuildContainerArgs returns the full argv for launching pkg inside a
// container, starting with the runtime binary. It never executes anything.
//
// Env flags are sorted by key and inserted right after the run token so the
// rest of the command line is stable regardless of map iteration order.
func BuildContainerArgs(pkg, containerName string, origin Origin, mode Mode, env map[string]string) []string {
	args := []string{RuntimeBin, "run"}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, env[k]))
	}

	args = append(args, "--rm", "-i")

	if containerName != "" {
		args = append(args, "--name", containerName)
	}

	if mode == ModeDirect {
		args = append(args, hardeningArgs...)
	}

	switch origin {
	case OriginImage:
		args = append(args, pkg)
	default:
		args = append(args, npmRuntimeImage, "npx", "-y", pkg)
	}

	return args
}

// SplitCommandArgs strips the leading runtime token from argv and returns the
// command+args split expected by the external client's config schema.
func SplitCommandArgs(argv []string) (string, []string) {
	if len(argv) == 0 {
		return "", nil
	}
	return argv[0], argv[1:]
}
