// Package replay renders the screenshots of a run as an animated GIF.
package replay

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"os"
	"sort"
	"time"

	"github.com/nfnt/resize"

	"github.com/v0xg/hatter/internal/executor"
)

// ErrNoFrames is returned when there is nothing to animate.
var ErrNoFrames = errors.New("no screenshots to render")

// Options configures GIF generation
type Options struct {
	FrameDelay time.Duration // time each screenshot stays on screen
	MaxWidth   uint
}

// DefaultOptions holds each frame for a second and a half at 800px wide.
func DefaultOptions() Options {
	return Options{FrameDelay: 1500 * time.Millisecond, MaxWidth: 800}
}

// Encode writes shots, in report order, to w as a looping GIF. Frames are
// scaled to the width and aspect ratio of the first one.
func Encode(w io.Writer, shots []executor.Screenshot, opts Options) error {
	if len(shots) == 0 {
		return ErrNoFrames
	}
	def := DefaultOptions()
	if opts.FrameDelay <= 0 {
		opts.FrameDelay = def.FrameDelay
	}
	if opts.MaxWidth == 0 {
		opts.MaxWidth = def.MaxWidth
	}

	frames := make([]image.Image, 0, len(shots))
	for _, s := range shots {
		img, err := s.Image()
		if err != nil {
			return err
		}
		frames = append(frames, img)
	}

	bounds := frames[0].Bounds()
	width := min(opts.MaxWidth, uint(bounds.Dx()))
	height := uint(float64(width) * float64(bounds.Dy()) / float64(bounds.Dx()))
	delay := max(int(opts.FrameDelay/(10*time.Millisecond)), 1)

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0, // Infinite loop
	}
	for i, frame := range frames {
		resized := resize.Resize(width, height, frame, resize.Lanczos3)

		paletted := image.NewPaletted(resized.Bounds(), palette(resized))
		draw.FloydSteinberg.Draw(paletted, resized.Bounds(), resized, image.Point{})

		g.Image[i] = paletted
		g.Delay[i] = delay
	}
	return gif.EncodeAll(w, g)
}

// WriteFile renders the report's screenshots to path and returns the file
// size.
func WriteFile(path string, report *executor.Report, opts Options) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	if err := Encode(f, report.Screenshots, opts); err != nil {
		return 0, err
	}
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// palette picks the 256 most frequent colours of a sample of img.
func palette(img image.Image) color.Palette {
	bounds := img.Bounds()
	counts := make(map[color.RGBA]int)

	const step = 4
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		for x := bounds.Min.X; x < bounds.Max.X; x += step {
			r, g, b, _ := img.At(x, y).RGBA()
			counts[color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255}]++
		}
	}

	colors := make([]color.RGBA, 0, len(counts))
	for c := range counts {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if counts[colors[i]] != counts[colors[j]] {
			return counts[colors[i]] > counts[colors[j]]
		}
		// stable across runs
		a, b := colors[i], colors[j]
		return uint32(a.R)<<16|uint32(a.G)<<8|uint32(a.B) < uint32(b.R)<<16|uint32(b.G)<<8|uint32(b.B)
	})

	p := make(color.Palette, 0, 256)
	for _, c := range colors {
		if len(p) == 256 {
			break
		}
		p = append(p, c)
	}
	// pad with grayscale
	for len(p) < 256 {
		gray := uint8(len(p))
		p = append(p, color.RGBA{gray, gray, gray, 255})
	}
	return p
}
