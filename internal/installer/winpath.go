package installer

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// PathConverter translates staging-tree paths into the Windows path syntax
// the installer compiler expects.
type PathConverter interface {
	Name() string
	Convert(ctx context.Context, path string) (string, error)
}

// SelectPathConverter probes the translators in order: WSL, Cygwin, then
// pass-through when the process is already running under a Windows-native
// shell. Paths from any converter are normalized by NormalizePath before
// use.
func SelectPathConverter(logger hclog.Logger) (PathConverter, error) {
	if path, err := exec.LookPath("wslpath"); err == nil {
		return &toolConverter{name: "wslpath", path: path}, nil
	}
	if path, err := exec.LookPath("cygpath"); err == nil {
		return &toolConverter{name: "cygpath", path: path}, nil
	}
	if runtime.GOOS == "windows" {
		return &identityConverter{}, nil
	}
	return nil, fmt.Errorf("no path translator found: wslpath or cygpath is required outside a Windows shell")
}

type toolConverter struct {
	name string
	path string
}

func (c *toolConverter) Name() string { return c.name }

// Convert invokes the translator with -w ("to Windows form"). Both wslpath
// and cygpath share that flag.
func (c *toolConverter) Convert(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, c.path, "-w", path).Output()
	if err != nil {
		return "", fmt.Errorf("%s failed for %s: %w", c.name, path, err)
	}
	return NormalizePath(string(out)), nil
}

type identityConverter struct{}

func (c *identityConverter) Name() string { return "native" }

func (c *identityConverter) Convert(ctx context.Context, path string) (string, error) {
	return NormalizePath(path), nil
}

// NormalizePath is the single sanitize boundary for paths obtained from
// subprocess output: it strips stray CR/LF characters and rewrites every
// backslash to the forward-slash form accepted by both the installer
// compiler and the embedded runtime. It is idempotent.
func NormalizePath(path string) string {
	path = Sanitize(path)
	return strings.ReplaceAll(path, `\`, "/")
}

// Sanitize trims whitespace and strips carriage returns and newlines
// introduced by subprocess output capture.
func Sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return strings.TrimSpace(s)
}
