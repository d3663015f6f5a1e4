package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SVGCanvas records drawing calls as a standalone SVG document.
type SVGCanvas struct {
	width, height float64
	background    string
	body          bytes.Buffer
}

// NewSVGCanvas creates a canvas of the given pixel size.
func NewSVGCanvas(width, height float64) *SVGCanvas {
	return &SVGCanvas{width: width, height: height}
}

func (s *SVGCanvas) Size() (float64, float64) {
	return s.width, s.height
}

func (s *SVGCanvas) Clear(background string) {
	s.body.Reset()
	s.background = background
}

func (s *SVGCanvas) Line(x1, y1, x2, y2 float64, st Stroke) {
	fmt.Fprintf(&s.body, `<line x1="%s" y1="%s" x2="%s" y2="%s"%s/>`+"\n",
		num(x1), num(y1), num(x2), num(y2), strokeAttrs(st))
}

func (s *SVGCanvas) Circle(cx, cy, r float64, fill string, st Stroke) {
	if fill == "" {
		fill = "none"
	}
	fmt.Fprintf(&s.body, `<circle cx="%s" cy="%s" r="%s" fill="%s"%s/>`+"\n",
		num(cx), num(cy), num(math.Max(r, 0)), attr(fill), strokeAttrs(st))
}

func (s *SVGCanvas) Text(x, y float64, text string, st TextStyle) {
	if st.Background != "" {
		w, h := s.Measure(text, st.Size)
		const pad = 4.0
		bx := x - pad
		if st.Anchor == AnchorMiddle {
			bx -= w / 2
		}
		fmt.Fprintf(&s.body, `<rect x="%s" y="%s" width="%s" height="%s" rx="4" fill="%s" fill-opacity="0.9"/>`+"\n",
			num(bx), num(y-h/2-pad), num(w+2*pad), num(h+2*pad), attr(st.Background))
	}
	anchor := "start"
	if st.Anchor == AnchorMiddle {
		anchor = "middle"
	}
	fmt.Fprintf(&s.body, `<text x="%s" y="%s" dy=".35em" fill="%s" font-size="%s" font-weight="%d" text-anchor="%s">%s</text>`+"\n",
		num(x), num(y), attr(st.Color), num(st.Size), st.Weight, anchor, attr(text))
}

// Glyph draws the kind glyph centered in a node.
func (s *SVGCanvas) Glyph(x, y, size float64, glyph rune, color string) {
	if glyph == 0 || !(size > 0) {
		return
	}
	fmt.Fprintf(&s.body, `<text x="%s" y="%s" dy=".35em" fill="%s" font-size="%s" text-anchor="middle">%s</text>`+"\n",
		num(x), num(y), attr(color), num(size), attr(string(glyph)))
}

// Measure approximates text extents for a proportional sans-serif font.
func (s *SVGCanvas) Measure(text string, size float64) (float64, float64) {
	return float64(utf8.RuneCountInString(text)) * size * 0.6, size
}

// WriteTo writes the complete document.
func (s *SVGCanvas) WriteTo(w io.Writer) (int64, error) {
	var doc bytes.Buffer
	fmt.Fprintf(&doc, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" font-family="sans-serif">`+"\n",
		num(s.width), num(s.height), num(s.width), num(s.height))
	if s.background != "" {
		fmt.Fprintf(&doc, `<rect width="100%%" height="100%%" fill="%s"/>`+"\n", attr(s.background))
	}
	doc.Write(s.body.Bytes())
	doc.WriteString("</svg>\n")
	return doc.WriteTo(w)
}

// Bytes returns the complete document.
func (s *SVGCanvas) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = s.WriteTo(&buf)
	return buf.Bytes()
}

func strokeAttrs(st Stroke) string {
	if st.Color == "" {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, ` stroke="%s" stroke-width="%s"`, attr(st.Color), num(st.Width))
	if st.Opacity > 0 && st.Opacity < 1 {
		fmt.Fprintf(&b, ` stroke-opacity="%s"`, num(st.Opacity))
	}
	if len(st.Dash) > 0 {
		parts := make([]string, len(st.Dash))
		for i, d := range st.Dash {
			parts[i] = num(d)
		}
		fmt.Fprintf(&b, ` stroke-dasharray="%s"`, strings.Join(parts, ","))
	}
	return b.String()
}

func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func attr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
