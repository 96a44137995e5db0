package dom

import (
	"strconv"

	"golang.org/x/net/html"
)

// Rect is a viewport-relative bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CenterOn returns the page position that centers a box of the given size on
// target, with scroll being the current page scroll offset.
func CenterOn(target Rect, size Size, scroll Point) Point {
	cx := target.X + target.Width/2
	cy := target.Y + target.Height/2
	return Point{
		X: cx - size.Width/2 + scroll.X,
		Y: cy - size.Height/2 + scroll.Y,
	}
}

// SetPosition writes p as absolute left/top pixels into the style attribute.
func SetPosition(n *html.Node, p Point) {
	SetAttr(n, "style", "left: "+px(p.X)+"; top: "+px(p.Y)+";")
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}
