package icon

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Rasterizer renders an SVG file to a PNG at a fixed pixel size.
type Rasterizer interface {
	Name() string
	Render(ctx context.Context, svgPath, pngPath string, size int) error
}

// SelectRasterizer probes the known tools in order of preference and
// returns the first usable one. The legacy ImageMagick binary name is only
// accepted after confirming it is not shadowed by the unrelated Windows
// filesystem utility of the same name.
func SelectRasterizer(logger hclog.Logger) (Rasterizer, error) {
	if path, err := exec.LookPath("rsvg-convert"); err == nil {
		return &rsvgRasterizer{path: path}, nil
	}
	if path, err := exec.LookPath("inkscape"); err == nil {
		return &inkscapeRasterizer{path: path}, nil
	}
	if path, err := exec.LookPath("magick"); err == nil {
		return &magickRasterizer{path: path, name: "magick"}, nil
	}
	if path, err := exec.LookPath("convert"); err == nil {
		if isImageMagick(path) {
			return &magickRasterizer{path: path, name: "convert"}, nil
		}
		logger.Warn("found 'convert' on PATH but it is not ImageMagick, ignoring", "path", path)
	}
	return nil, fmt.Errorf("no SVG rasterizer found: install rsvg-convert, inkscape, or ImageMagick")
}

// isImageMagick runs the candidate binary and inspects its version output.
// On Windows, "convert" is a filesystem utility that must not be invoked on
// image files.
func isImageMagick(path string) bool {
	out, err := exec.Command(path, "-version").CombinedOutput()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "ImageMagick")
}

type rsvgRasterizer struct {
	path string
}

func (r *rsvgRasterizer) Name() string { return "rsvg-convert" }

func (r *rsvgRasterizer) Render(ctx context.Context, svgPath, pngPath string, size int) error {
	s := strconv.Itoa(size)
	return runTool(ctx, r.path, "-w", s, "-h", s, "-o", pngPath, svgPath)
}

type inkscapeRasterizer struct {
	path string
}

func (r *inkscapeRasterizer) Name() string { return "inkscape" }

func (r *inkscapeRasterizer) Render(ctx context.Context, svgPath, pngPath string, size int) error {
	s := strconv.Itoa(size)
	return runTool(ctx, r.path, "--export-type=png", "--export-width="+s, "--export-height="+s,
		"--export-filename="+pngPath, svgPath)
}

type magickRasterizer struct {
	path string
	name string
}

func (r *magickRasterizer) Name() string { return r.name }

func (r *magickRasterizer) Render(ctx context.Context, svgPath, pngPath string, size int) error {
	geometry := fmt.Sprintf("%dx%d", size, size)
	return runTool(ctx, r.path, "-background", "none", svgPath, "-resize", geometry, pngPath)
}

func runTool(ctx context.Context, path string, args ...string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(combined.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", path, err, msg)
		}
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
