// Package icon renders the application's vector icon at fixed resolutions
// and combines the frames into a single multi-resolution .ico container.
package icon

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/nfnt/resize"
	"github.com/tc-hib/winres"
)

// Sizes are the icon resolutions bundled into the container.
var Sizes = []int{16, 32, 48, 256}

// Generator rasterizes an SVG source and assembles the icon container.
type Generator struct {
	rasterizer Rasterizer
	logger     hclog.Logger
}

// NewGenerator probes for a usable SVG rasterizer. It fails with a clear
// message when none of the known tools is available.
func NewGenerator(logger hclog.Logger) (*Generator, error) {
	r, err := SelectRasterizer(logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("selected rasterizer", "tool", r.Name())
	return &Generator{rasterizer: r, logger: logger}, nil
}

// Generate renders svgPath at every size into workDir and writes the
// combined container to icoPath.
func (g *Generator) Generate(ctx context.Context, svgPath, workDir, icoPath string) error {
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("failed to create icon work directory: %w", err)
	}

	frames := make([]image.Image, 0, len(Sizes))
	for _, size := range Sizes {
		pngPath := filepath.Join(workDir, fmt.Sprintf("icon-%d.png", size))
		if err := g.rasterizer.Render(ctx, svgPath, pngPath, size); err != nil {
			return fmt.Errorf("failed to rasterize %dpx frame: %w", size, err)
		}
		frame, err := loadFrame(pngPath, size)
		if err != nil {
			return err
		}
		frames = append(frames, frame)
	}

	return AssembleICO(frames, icoPath)
}

// loadFrame decodes a rendered frame and normalizes it to size×size.
// Rasterizers that preserve the source aspect ratio can produce slightly
// off-square output.
func loadFrame(path string, size int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rendered frame: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != size || bounds.Dy() != size {
		img = resize.Resize(uint(size), uint(size), img, resize.Lanczos3)
	}
	return img, nil
}

// AssembleICO writes the frames into one .ico container.
func AssembleICO(frames []image.Image, icoPath string) error {
	ico, err := winres.NewIconFromImages(frames)
	if err != nil {
		return fmt.Errorf("failed to build icon container: %w", err)
	}

	out, err := os.Create(icoPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", icoPath, err)
	}
	defer out.Close()

	if err := ico.SaveICO(out); err != nil {
		return fmt.Errorf("failed to write %s: %w", icoPath, err)
	}
	return nil
}
