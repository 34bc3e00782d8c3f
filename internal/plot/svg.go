package plot

import (
	"fmt"
	"os"
	"strings"
)

var markerColor = map[MarkerKind]string{
	CellMarker: "#ff0000",
	NodeMarker: "#0000ff",
	FaceMarker: "#cccc00",
}

// SVG renders the figure in a width × height document with 10% padding
// around the grid.
func (f *Figure) SVG(width, height int) string {
	minX, minY, maxX, maxY := f.Lo.X, f.Lo.Y, f.Hi.X, f.Hi.Y
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	// keep the aspect ratio
	scale := min(float64(width)/rangeX, float64(height)/rangeY)
	tx := func(p Point) (float64, float64) {
		return (p.X - minX) * scale, float64(height) - (p.Y-minY)*scale
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, width, height, width, height))
	if f.Title != "" {
		sb.WriteString(fmt.Sprintf(`<title>%s</title>
`, escape(f.Title)))
	}

	sb.WriteString(`<g stroke="#000000" stroke-width="0.5" fill-opacity="0.4">
`)
	for _, poly := range f.Polygons {
		r, g, b := f.Color(poly.Value)
		sb.WriteString(fmt.Sprintf(`<polygon data-cell="%d" fill="#%02x%02x%02x" points="`, poly.Cell, r, g, b))
		for i, p := range poly.Points {
			x, y := tx(p)
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(fmt.Sprintf("%.2f,%.2f", x, y))
		}
		sb.WriteString(`"/>
`)
	}
	sb.WriteString("</g>\n")

	if len(f.Fractures) > 0 {
		sb.WriteString(`<g stroke="#000000" stroke-width="4">
`)
		for _, s := range f.Fractures {
			x0, y0 := tx(s.A)
			x1, y1 := tx(s.B)
			sb.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>
`, x0, y0, x1, y1))
		}
		sb.WriteString("</g>\n")
	}

	if len(f.Arrows) > 0 {
		sb.WriteString(`<defs><marker id="head" markerWidth="6" markerHeight="6" refX="5" refY="3" orient="auto"><path d="M0,0 L6,3 L0,6 z" fill="#000000"/></marker></defs>
<g stroke="#000000" stroke-width="1" marker-end="url(#head)">
`)
		for _, s := range f.Arrows {
			x0, y0 := tx(s.A)
			x1, y1 := tx(s.B)
			sb.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f"/>
`, x0, y0, x1, y1))
		}
		sb.WriteString("</g>\n")
	}

	for _, m := range f.Markers {
		x, y := tx(m.At)
		color := markerColor[m.Kind]
		switch m.Kind {
		case CellMarker:
			sb.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="3" fill="%s"/>`, x, y, color))
		case NodeMarker:
			sb.WriteString(fmt.Sprintf(`<rect x="%.2f" y="%.2f" width="6" height="6" fill="%s"/>`, x-3, y-3, color))
		case FaceMarker:
			sb.WriteString(fmt.Sprintf(`<path d="M%.2f,%.2f l3,3 l-3,3 l-3,-3 z" fill="%s"/>`, x, y-3, color))
		}
		sb.WriteString(fmt.Sprintf(`<text x="%.2f" y="%.2f" font-size="10">%d</text>
`, x+4, y-4, m.Index))
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteSVG writes the figure to path.
func (f *Figure) WriteSVG(path string, width, height int) error {
	if err := os.WriteFile(path, []byte(f.SVG(width, height)), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
