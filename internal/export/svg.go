// Package export renders results as SVG images.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/trussim/internal/storage"
	"github.com/san-kum/trussim/internal/viz"
)

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height)

	dotRadius := scale * 0.4
	dw, dh := canvas.Dots()
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, dotRadius)
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Options controls ResultToSVG.
type Options struct {
	Width, Height int
	Layers        viz.Layer
	// StrainColors colors solved sticks red in tension and blue in compression.
	StrainColors bool
}

func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, Layers: viz.LayerSolved | viz.LayerRest, StrainColors: true}
}

// ResultToSVG draws rest geometry dashed and solved geometry solid. Stroke
// width grows with the square root of stick area.
func ResultToSVG(res *storage.Result, opts Options) string {
	v := viz.Fit(res, opts.Width, opts.Height)

	maxStrain, maxArea := 0.0, 0.0
	for _, s := range res.Sticks {
		maxStrain = math.Max(maxStrain, math.Abs(s.Strain))
		maxArea = math.Max(maxArea, s.Area)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, opts.Width, opts.Height, opts.Width, opts.Height)

	line := func(s storage.StickResult, rest bool) {
		if s.Nodes[0] >= len(res.Nodes) || s.Nodes[1] >= len(res.Nodes) {
			return
		}
		a, b := res.Nodes[s.Nodes[0]], res.Nodes[s.Nodes[1]]
		pa, pb := a.Solved, b.Solved
		if rest {
			pa, pb = a.Rest, b.Rest
		}
		x0, y0 := v.Project(pa)
		x1, y1 := v.Project(pb)

		width := 1.5
		if maxArea > 0 {
			width = 1 + 3*math.Sqrt(s.Area/maxArea)
		}
		if rest {
			fmt.Fprintf(&sb, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"#335577\" stroke-width=\"1\" stroke-dasharray=\"4 3\"/>\n",
				x0, y0, x1, y1)
			return
		}
		color := "#00ccff"
		if opts.StrainColors {
			color = strainColor(s.Strain, maxStrain)
		}
		fmt.Fprintf(&sb, "<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\" stroke=\"%s\" stroke-width=\"%.1f\"><title>stick %d strain %.4g force %.4g</title></line>\n",
			x0, y0, x1, y1, color, width, s.Index, s.Strain, s.Force)
	}

	if opts.Layers&viz.LayerRest != 0 {
		for _, s := range res.Sticks {
			line(s, true)
		}
	}
	if opts.Layers&viz.LayerSolved != 0 {
		for _, s := range res.Sticks {
			line(s, false)
		}
	}

	for _, n := range res.Nodes {
		x, y := v.Project(n.Solved)
		if n.Free {
			fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"3\" fill=\"#ffffff\"/>\n", x, y)
			continue
		}
		fmt.Fprintf(&sb, "<path d=\"M%d,%d l-6,9 h12 z\" fill=\"none\" stroke=\"#ffaa00\" stroke-width=\"1.5\"/>\n", x, y)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// strainColor blends from white towards red (tension) or blue (compression).
func strainColor(strain, maxStrain float64) string {
	if maxStrain == 0 || strain == 0 {
		return "#ffffff"
	}
	t := math.Min(math.Abs(strain)/maxStrain, 1)
	fade := int(255 * (1 - t))
	if strain > 0 {
		return fmt.Sprintf("#ff%02x%02x", fade, fade)
	}
	return fmt.Sprintf("#%02x%02xff", fade, fade)
}
