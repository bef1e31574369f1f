package marionette

import (
	"fmt"

	"github.com/tanema/gween/ease"
)

// Interpolation maps normalized actuator time t in [0, 1] onto an
// interpolation weight between the captured start value and the end value.
type Interpolation uint8

const (
	InterpolationStep         Interpolation = iota // jumps to the end value at t = 0.5
	InterpolationLinear                            // constant rate
	InterpolationCosine                            // half cosine wave, eases in and out
	InterpolationSmoothStep                        // 3t² - 2t³
	InterpolationAcceleration                      // starts slow, ends fast
	InterpolationDeceleration                      // starts fast, ends slow
	InterpolationInCubic
	InterpolationOutCubic
	InterpolationInOutCubic
	InterpolationOutBack
	InterpolationOutBounce
	InterpolationOutElastic
)

var interpolationNames = [...]string{
	InterpolationStep:         "Step",
	InterpolationLinear:       "Linear",
	InterpolationCosine:       "Cosine",
	InterpolationSmoothStep:   "SmoothStep",
	InterpolationAcceleration: "Acceleration",
	InterpolationDeceleration: "Deceleration",
	InterpolationInCubic:      "InCubic",
	InterpolationOutCubic:     "OutCubic",
	InterpolationInOutCubic:   "InOutCubic",
	InterpolationOutBack:      "OutBack",
	InterpolationOutBounce:    "OutBounce",
	InterpolationOutElastic:   "OutElastic",
}

// easeFuncs holds the gween curves. Apply computes Linear, Step and
// SmoothStep in float64; the camera scroll uses the Linear entry.
var easeFuncs = map[Interpolation]ease.TweenFunc{
	InterpolationLinear:       ease.Linear,
	InterpolationCosine:       ease.InOutSine,
	InterpolationAcceleration: ease.InQuad,
	InterpolationDeceleration: ease.OutQuad,
	InterpolationInCubic:      ease.InCubic,
	InterpolationOutCubic:     ease.OutCubic,
	InterpolationInOutCubic:   ease.InOutCubic,
	InterpolationOutBack:      ease.OutBack,
	InterpolationOutBounce:    ease.OutBounce,
	InterpolationOutElastic:   ease.OutElastic,
}

func (m Interpolation) String() string {
	if int(m) < len(interpolationNames) {
		return interpolationNames[m]
	}
	return fmt.Sprintf("Interpolation(%d)", uint8(m))
}

// ParseInterpolation returns the method with the given name.
func ParseInterpolation(name string) (Interpolation, bool) {
	for i, n := range interpolationNames {
		if n == name {
			return Interpolation(i), true
		}
	}
	return 0, false
}

// Apply maps t (clamped to [0, 1]) through the method. The result equals 0
// at t = 0 and 1 at t = 1; overshooting curves may leave [0, 1] in between.
func (m Interpolation) Apply(t float64) float64 {
	t = clamp01(t)
	switch m {
	case InterpolationLinear:
		return t
	case InterpolationStep:
		if t < 0.5 {
			return 0
		}
		return 1
	case InterpolationSmoothStep:
		return t * t * (3 - 2*t)
	}
	fn, ok := easeFuncs[m]
	if !ok {
		return t
	}
	return float64(fn(float32(t), 0, 1, 1))
}

// Interpolate blends a toward b by t mapped through m.
func (m Interpolation) Interpolate(a, b, t float64) float64 {
	w := m.Apply(t)
	return a + (b-a)*w
}

// InterpolateVec2 blends each component of a toward b by t mapped through m.
func (m Interpolation) InterpolateVec2(a, b Vec2, t float64) Vec2 {
	w := m.Apply(t)
	return Vec2{a.X + (b.X-a.X)*w, a.Y + (b.Y-a.Y)*w}
}
