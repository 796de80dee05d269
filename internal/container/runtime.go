// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container finds a usable container engine and builds the command
// line that runs the converter image against host files.
package container

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Mount exposes a host directory inside the container at the same path,
// so file paths passed to the converter need no translation.
type Mount struct {
	Dir      string
	ReadOnly bool
}

func (m Mount) volume() string {
	v := m.Dir + ":" + m.Dir
	if m.ReadOnly {
		v += ":ro"
	}
	return v
}

// Runtime is a container engine on the host.
type Runtime interface {
	Name() string

	// Available reports whether the engine is installed and its daemon
	// (or service) answers.
	Available(ctx context.Context) bool

	// ImageExists returns nil if image is present locally.
	ImageExists(ctx context.Context, image string) error

	// RunArgs returns the program and argv for a one-shot, self-removing
	// container of image with mounts, passing args to the entrypoint. A
	// non-empty name is assigned to the container.
	RunArgs(name, image, entrypoint string, mounts []Mount, args []string) (string, []string)

	// Remove kills and removes the named container.
	Remove(ctx context.Context, name string) error
}

// engine describes one supported container CLI.
type engine struct {
	bin        string
	probe      []string
	imageProbe []string
}

// engines in order of preference.
var engines = []engine{
	{bin: "docker", probe: []string{"info"}, imageProbe: []string{"image", "inspect"}},
	{bin: "podman", probe: []string{"info"}, imageProbe: []string{"image", "exists"}},
}

// host runs commands on the machine. Tests substitute a fake.
type host interface {
	LookPath(file string) (string, error)
	Quiet(ctx context.Context, name string, args ...string) error
}

type osHost struct{}

func (osHost) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osHost) Quiet(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// cli is a Runtime backed by an engine's command-line tool.
type cli struct {
	engine
	host host
}

func (c cli) Name() string { return c.bin }

func (c cli) Available(ctx context.Context) bool {
	if _, err := c.host.LookPath(c.bin); err != nil {
		return false
	}
	return c.host.Quiet(ctx, c.bin, c.probe...) == nil
}

func (c cli) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string(nil), c.imageProbe...), image)
	if err := c.host.Quiet(ctx, c.bin, args...); err != nil {
		return fmt.Errorf("%s: image %s is not available locally: %w", c.bin, image, err)
	}
	return nil
}

func (c cli) RunArgs(name, image, entrypoint string, mounts []Mount, args []string) (string, []string) {
	argv := make([]string, 0, 6+2*len(mounts)+len(args))
	argv = append(argv, "run", "--rm")
	if name != "" {
		argv = append(argv, "--name", name)
	}
	for _, m := range mounts {
		argv = append(argv, "-v", m.volume())
	}
	if entrypoint != "" {
		argv = append(argv, "--entrypoint", entrypoint)
	}
	argv = append(argv, image)
	return c.bin, append(argv, args...)
}

func (c cli) Remove(ctx context.Context, name string) error {
	if err := c.host.Quiet(ctx, c.bin, "rm", "-f", name); err != nil {
		return fmt.Errorf("%s: removing container %s: %w", c.bin, name, err)
	}
	return nil
}

// DetectRuntime returns the first available engine, preferring docker over
// podman.
func DetectRuntime(ctx context.Context) (Runtime, error) {
	return detect(ctx, osHost{})
}

func detect(ctx context.Context, h host) (Runtime, error) {
	names := make([]string, 0, len(engines))
	for _, e := range engines {
		c := cli{engine: e, host: h}
		if c.Available(ctx) {
			return c, nil
		}
		names = append(names, e.bin)
	}
	return nil, fmt.Errorf("no container runtime available (tried %s)", strings.Join(names, ", "))
}

