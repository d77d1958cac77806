// Package colormap converts depth samples into false colors.
//
// Valid samples are swept around the hue circle at full saturation and
// brightness; samples without data or outside the sensor's reliable range are
// replaced by fixed marker colors.
package colormap

import (
	"fmt"
	"math"
)

// HueMapMaxDepthMM is the calibration ceiling of the hue sweep in millimeters.
// Depths from the minimum reliable distance up to this value cover the full
// 0–360° hue circle; deeper samples wrap around. It is independent of the
// sensor's maximum reliable distance.
const HueMapMaxDepthMM = 1150

// RGB is an 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// String returns the color as #rrggbb.
func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Marker colors.
var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}

	// Highlight markers stand out against the hue sweep.
	HighlightNoData     = RGB{242, 239, 41}
	HighlightOutOfRange = RGB{255, 0, 25}
)

// Markers holds the two sentinel colors.
type Markers struct {
	NoData     RGB // depth == 0
	OutOfRange RGB // depth outside the reliable range
}

// ClassicMarkers returns black for missing data and white for unreliable depth.
func ClassicMarkers() Markers {
	return Markers{NoData: Black, OutOfRange: White}
}

// HighlightMarkers returns yellow for missing data and red for unreliable depth.
func HighlightMarkers() Markers {
	return Markers{NoData: HighlightNoData, OutOfRange: HighlightOutOfRange}
}

// MarkersByName returns a named marker palette ("classic" or "highlight").
func MarkersByName(name string) (Markers, bool) {
	switch name {
	case "classic", "":
		return ClassicMarkers(), true
	case "highlight":
		return HighlightMarkers(), true
	default:
		return Markers{}, false
	}
}

// Mapper maps depth samples to colors. The zero value is not useful; use New.
// Mapper is a value type with no mutable state and is safe for concurrent use.
type Mapper struct {
	Markers

	// HueMaxDepth is the depth in millimeters at which the hue sweep completes
	// one full turn.
	HueMaxDepth uint16
}

// New returns a Mapper with the classic markers and the default hue ceiling.
func New() Mapper {
	return Mapper{
		Markers:     ClassicMarkers(),
		HueMaxDepth: HueMapMaxDepthMM,
	}
}

// WithMarkers returns a copy of m using the given markers.
func (m Mapper) WithMarkers(markers Markers) Mapper {
	m.Markers = markers
	return m
}

// WithHueMaxDepth returns a copy of m using the given hue ceiling.
func (m Mapper) WithHueMaxDepth(mm uint16) Mapper {
	m.HueMaxDepth = mm
	return m
}

// Map returns the color for one depth sample.
//
// The sentinel rules are checked first: 0 yields the no-data marker, a depth
// outside [minReliable, maxReliable] yields the out-of-range marker. Any
// other depth is hue-mapped.
func (m Mapper) Map(depth, minReliable, maxReliable uint16) RGB {
	if depth == 0 {
		return m.NoData
	}
	if depth < minReliable || depth > maxReliable {
		return m.OutOfRange
	}
	if m.HueMaxDepth == minReliable {
		// the hue is undefined, which lands outside every sector
		return RGB{}
	}
	return HSVToRGB(m.Hue(depth, minReliable), 1, 1)
}

// Hue returns the unnormalized hue angle in degrees for depth.
// A degenerate calibration (HueMaxDepth == minReliable) yields 0 here, while
// Map renders such depths black.
func (m Mapper) Hue(depth, minReliable uint16) float64 {
	span := float64(m.HueMaxDepth) - float64(minReliable)
	h := (float64(depth) - float64(minReliable)) / span * 360
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return h
}

// HSVToRGB converts a hue in degrees, saturation and value in [0,1] to RGB
// using the six-sector algorithm.
//
// Sector 6 is treated as sector 0 and sector -1 as sector 5; hue
// normalization keeps h in [0,360) so neither is expected, but both are
// handled. Any other sector leaves the channels at zero.
func HSVToRGB(h, s, v float64) RGB {
	h = normalizeHue(h)

	var r, g, b float64
	switch {
	case v <= 0:
		r, g, b = 0, 0, 0
	case s <= 0:
		r, g, b = v, v, v
	default:
		hf := h / 60
		i := int(math.Floor(hf))
		r, g, b = sectorRGB(i, hf-float64(i), s, v)
	}

	return RGB{R: toByte(r), G: toByte(g), B: toByte(b)}
}

// sectorRGB returns the channels for hue sector i with fractional part f.
func sectorRGB(i int, f, s, v float64) (r, g, b float64) {
	pv := v * (1 - s)
	qv := v * (1 - s*f)
	tv := v * (1 - s*(1-f))

	switch i {
	// red dominant
	case 0, 6:
		return v, tv, pv
	// green dominant
	case 1:
		return qv, v, pv
	case 2:
		return pv, v, tv
	// blue dominant
	case 3:
		return pv, qv, v
	case 4:
		return tv, pv, v
	// red dominant
	case 5, -1:
		return v, pv, qv
	}
	return 0, 0, 0
}

// normalizeHue wraps h into [0,360). Non-finite input yields 0.
func normalizeHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	// -tiny + 360 rounds to 360
	if h >= 360 {
		h -= 360
	}
	return h
}

// toByte scales x from [0,1] to [0,255] by truncation and clamps the result.
func toByte(x float64) uint8 {
	if math.IsNaN(x) {
		return 0
	}
	j := x * 255
	switch {
	case j < 0:
		return 0
	case j > 255:
		return 255
	default:
		return uint8(int(j))
	}
}
