package color

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// RGBA is a material color, each component in [0, 1].
type RGBA [4]float64

// Colors with a fixed meaning in the 3D model.
var (
	White         = RGBA{1, 1, 1, 1}
	Grey          = RGBA{.5, .5, .5, 1}
	Ceiling       = RGBA{.3, .3, .3, 1}
	WellGreen     = RGBA{.42, .81, .44, 1}
	WellBlue      = RGBA{0, .7, 1, 1}
	WellYellow    = RGBA{.96, .87, .15, 1}
	StairBrown    = RGBA{.69, .59, .5, 1}
	LadderRed     = RGBA{.69, .25, .25, 1}
	SpiralOrange  = RGBA{.81, .62, .29, 1}
	ArchYellow    = RGBA{1, 1, .5, 1}
	DepthGreen    = RGBA{0, .6, 0, 1}
	Arrow         = RGBA{1, .5, 0, 1}
	CatFlapRed    = RGBA{1, 0, 0, .8}
	CatFlapWhite  = RGBA{1, 1, 1, .8}
	CatFlapLow    = RGBA{.85, .56, .16, .8}
	CatFlapFilled = RGBA{.66, .61, .63, .8}
	Annotation    = RGBA{.8, .8, .8, 1}
	StreetName    = RGBA{.6, .6, .6, 1}
)

var rgbPercentRE = regexp.MustCompile(`rgb\(([0-9.]+)%,\s*([0-9.]+)%,\s*([0-9.]+)%\)`)
var hexColorRE = regexp.MustCompile(`^#([[:xdigit:]]+)$`)

// Parse reads a "#rgb", "#rrggbb" or "rgb(r%,g%,b%)" color with the given
// opacity. Hex colors use ceil(len/3) digits per channel.
func Parse(s string, opacity float64) (RGBA, error) {
	s = strings.TrimSpace(s)
	if rgb := rgbPercentRE.FindStringSubmatch(s); rgb != nil {
		var c RGBA
		for i := 0; i < 3; i++ {
			v, _ := strconv.ParseFloat(rgb[i+1], 64)
			c[i] = v / 100
		}
		c[3] = opacity
		return c, nil
	}

	hex := hexColorRE.FindStringSubmatch(s)
	if hex == nil {
		return RGBA{}, fmt.Errorf("unknown color description %q", s)
	}
	digits := hex[1]
	n := (len(digits) + 2) / 3
	var c RGBA
	for i := 0; i < 3; i++ {
		if i*n >= len(digits) {
			break
		}
		end := i*n + n
		if end > len(digits) {
			end = len(digits)
		}
		channel := digits[i*n : end]
		v, err := strconv.ParseUint(channel, 16, 64)
		if err != nil {
			return RGBA{}, err
		}
		c[i] = float64(v) / (math.Pow(16, float64(len(channel))) - 1)
	}
	c[3] = opacity
	return c, nil
}

// Intensity is the RMS of the RGB components.
func (c RGBA) Intensity() float64 {
	return math.Sqrt((c[0]*c[0] + c[1]*c[1] + c[2]*c[2]) / 3)
}

// Readable replaces colors too dark to be read on a dark background by
// white.
func (c RGBA) Readable() RGBA {
	if c[0]*c[0]+c[1]*c[1]+c[2]*c[2] < 0.16 {
		return RGBA{1, 1, 1, c[3]}
	}
	return c
}

// Contrast shifts a color away from its intensity: dark colors are
// lightened by 0.4 (renormalized if a component exceeds 1), light ones are
// darkened by 0.4.
func (c RGBA) Contrast() RGBA {
	r := c
	if c.Intensity() <= 0.75 {
		max := 0.0
		for i := 0; i < 3; i++ {
			r[i] = c[i] + 0.4
			max = math.Max(max, r[i])
		}
		if max > 1 {
			for i := 0; i < 3; i++ {
				r[i] /= max
			}
		}
		return r
	}
	for i := 0; i < 3; i++ {
		r[i] = math.Max(c[i]-0.4, 0)
	}
	return r
}

// Hex formats the RGB part as "#rrggbb".
func (c RGBA) Hex() string {
	b := func(v float64) int {
		return int(math.Round(math.Min(math.Max(v, 0), 1) * 255))
	}
	return fmt.Sprintf("#%02x%02x%02x", b(c[0]), b(c[1]), b(c[2]))
}
