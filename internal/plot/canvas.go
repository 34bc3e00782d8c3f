package plot

import (
	"strings"
)

// Braille patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille character grid with Width*2 × Height*4 sub-pixels.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set turns on the sub-pixel (x, y).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether sub-pixel (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// View is the visible window of a figure: a center and a zoom factor
// relative to the whole figure.
type View struct {
	CenterX, CenterY float64
	Zoom             float64
}

// FitView centers the whole figure.
func (f *Figure) FitView() View {
	return View{CenterX: (f.Lo.X + f.Hi.X) / 2, CenterY: (f.Lo.Y + f.Hi.Y) / 2, Zoom: 1}
}

// Render draws cell edges, fracture faces, normals and markers on c.
func (f *Figure) Render(c *Canvas, v View) {
	pw, ph := float64(c.Width*2), float64(c.Height*4)
	rx, ry := f.Hi.X-f.Lo.X, f.Hi.Y-f.Lo.Y
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	// braille cells are about twice as tall as wide, which evens out the
	// 2x4 sub-pixel layout
	scale := 0.9 * zoom * min((pw-1)/rx, (ph-1)/ry)
	tx := func(p Point) (int, int) {
		x := (p.X-v.CenterX)*scale + pw/2
		y := ph/2 - (p.Y-v.CenterY)*scale
		return int(x + 0.5), int(y + 0.5)
	}
	line := func(a, b Point) {
		x0, y0 := tx(a)
		x1, y1 := tx(b)
		c.DrawLine(x0, y0, x1, y1)
	}

	for _, poly := range f.Polygons {
		for i := range poly.Points {
			line(poly.Points[i], poly.Points[(i+1)%len(poly.Points)])
		}
	}
	for _, s := range f.Fractures {
		// thick line: draw with a one sub-pixel offset
		line(s.A, s.B)
		x0, y0 := tx(s.A)
		x1, y1 := tx(s.B)
		c.DrawLine(x0+1, y0, x1+1, y1)
		c.DrawLine(x0, y0+1, x1, y1+1)
	}
	for _, s := range f.Arrows {
		line(s.A, s.B)
	}
	for _, m := range f.Markers {
		x, y := tx(m.At)
		c.Set(x, y)
		c.Set(x+1, y)
		c.Set(x, y+1)
		c.Set(x+1, y+1)
	}
}
