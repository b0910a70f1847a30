package camerascan

import (
	"image"
	"image/color"
	"strings"
	"sync"
)

// ramp maps luminance to glyphs, dark to light.
const ramp = " .:-=+*#%@"

// preview is a scan.FrameSink that keeps the latest frame as ASCII art.
type preview struct {
	cols, rows int

	mu   sync.Mutex
	art  string
	seen bool
}

func newPreview(cols, rows int) *preview {
	return &preview{cols: cols, rows: rows}
}

// ShowFrame is called from the capture goroutine.
func (p *preview) ShowFrame(img image.Image) {
	art := asciiArt(img, p.cols, p.rows)
	p.mu.Lock()
	p.art = art
	p.seen = true
	p.mu.Unlock()
}

func (p *preview) view() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.art, p.seen
}

func (p *preview) reset() {
	p.mu.Lock()
	p.art, p.seen = "", false
	p.mu.Unlock()
}

// asciiArt samples img on a cols×rows grid.
func asciiArt(img image.Image, cols, rows int) string {
	b := img.Bounds()
	if b.Empty() || cols <= 0 || rows <= 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow((cols + 1) * rows)
	for y := 0; y < rows; y++ {
		py := b.Min.Y + (2*y+1)*b.Dy()/(2*rows)
		for x := 0; x < cols; x++ {
			px := b.Min.X + (2*x+1)*b.Dx()/(2*cols)
			g := color.GrayModel.Convert(img.At(px, py)).(color.Gray)
			sb.WriteByte(ramp[int(g.Y)*(len(ramp)-1)/255])
		}
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
