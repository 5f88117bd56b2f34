package imaging

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// Preview renders a downscaled terminal preview of the image using half-block
// characters: each cell shows two vertically stacked pixels via foreground and
// background colors. Returns an empty string when the image cannot be decoded,
// since the preview is cosmetic and must never block a submission.
func (i *Image) Preview(maxWidth int) string {
	img, err := i.Decode()
	if err != nil {
		return ""
	}
	return renderHalfBlocks(img, maxWidth)
}

func renderHalfBlocks(img image.Image, maxWidth int) string {
	if maxWidth <= 0 {
		maxWidth = 40
	}

	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return ""
	}

	dstW := maxWidth
	if srcW < dstW {
		dstW = srcW
	}
	// Two pixels per terminal row; terminal cells are roughly twice as tall
	// as they are wide.
	dstH := srcH * dstW / srcW
	if dstH < 2 {
		dstH = 2
	}
	if dstH%2 != 0 {
		dstH++
	}

	scaled := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	var sb strings.Builder
	for y := 0; y < dstH; y += 2 {
		for x := 0; x < dstW; x++ {
			top := hexColor(scaled.RGBAAt(x, y).R, scaled.RGBAAt(x, y).G, scaled.RGBAAt(x, y).B)
			bottom := hexColor(scaled.RGBAAt(x, y+1).R, scaled.RGBAAt(x, y+1).G, scaled.RGBAAt(x, y+1).B)
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top)).
				Background(lipgloss.Color(bottom)).
				Render("▀")
			sb.WriteString(cell)
		}
		if y+2 < dstH {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

const hexDigits = "0123456789abcdef"

func hexColor(r, g, b uint8) string {
	out := [7]byte{'#'}
	for i, v := range [3]uint8{r, g, b} {
		out[1+i*2] = hexDigits[v>>4]
		out[2+i*2] = hexDigits[v&0x0f]
	}
	return string(out[:])
}
