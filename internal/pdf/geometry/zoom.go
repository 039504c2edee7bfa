package geometry

import "math"

// Zoom limits and step used by the viewer controls.
const (
	MinScale  = 0.5
	MaxScale  = 3.0
	ScaleStep = 0.25
)

// ZoomIn returns the next scale step, clamped to MaxScale.
func ZoomIn(scale float64) float64 {
	return math.Min(scale+ScaleStep, MaxScale)
}

// ZoomOut returns the previous scale step, clamped to MinScale.
func ZoomOut(scale float64) float64 {
	return math.Max(scale-ScaleStep, MinScale)
}

// FitToWidth returns the scale at which a page of pageWidth points fills
// containerWidth pixels, clamped to the zoom limits. A non-positive page width
// leaves scale unchanged.
func FitToWidth(scale, containerWidth, pageWidth float64) float64 {
	if pageWidth <= 0 || containerWidth <= 0 {
		return scale
	}
	return math.Min(math.Max(containerWidth/pageWidth, MinScale), MaxScale)
}
