package sim

import "math"

// Physics constants for the shared aircraft model. Tuned for a small
// single-engine aircraft; all units are SI.
const (
	massKg             = 1000.0  // airframe mass
	gravity            = 9.8     // m/s^2
	maxThrust          = 10000.0 // N at full throttle
	dragCoefficient    = 0.1
	liftCoefficient    = 10.0
	pitchRateMax       = 0.1745 // rad/s (10 deg/s)
	throttleChangeRate = 0.5    // throttle fraction per second
)

// Spawn state for a freshly registered aircraft: level flight at 100 m
// with 50 m/s of forward airspeed and the engine at idle.
const (
	SpawnX        = 0.0
	SpawnY        = 100.0
	SpawnVX       = 50.0
	SpawnVY       = 0.0
	SpawnTheta    = 0.0
	SpawnThrottle = 0.0
)

// Input is the latest control state reported by a client. Absent fields
// decode as false, so an empty frame means "hands off the controls".
type Input struct {
	PitchUp      bool `json:"pitch_up"`
	PitchDown    bool `json:"pitch_down"`
	ThrottleUp   bool `json:"throttle_up"`
	ThrottleDown bool `json:"throttle_down"`
}

// Aircraft is the pure physics state of one aircraft. It carries no
// identity and no connection awareness; the hub owns both.
type Aircraft struct {
	X        float64 // horizontal position, m
	Y        float64 // altitude, m
	VX       float64 // horizontal velocity, m/s
	VY       float64 // vertical velocity, m/s
	Theta    float64 // pitch angle, rad, clamped to [-pi/2, pi/2]
	Throttle float64 // throttle level in [0, 1]
}

// NewAircraft returns an aircraft at the spawn state.
func NewAircraft() Aircraft {
	return Aircraft{
		X:        SpawnX,
		Y:        SpawnY,
		VX:       SpawnVX,
		VY:       SpawnVY,
		Theta:    SpawnTheta,
		Throttle: SpawnThrottle,
	}
}

// Advance computes one physics step. It is a pure function of the current
// state, the current input, and the tick duration: the same arguments always
// produce the same next state. Opposing control inputs cancel.
func Advance(a Aircraft, in Input, dt float64) Aircraft {
	pitchRate := 0.0
	if in.PitchUp && !in.PitchDown {
		pitchRate = pitchRateMax
	} else if in.PitchDown && !in.PitchUp {
		pitchRate = -pitchRateMax
	}

	throttleChange := 0.0
	if in.ThrottleUp && !in.ThrottleDown {
		throttleChange = throttleChangeRate
	} else if in.ThrottleDown && !in.ThrottleUp {
		throttleChange = -throttleChangeRate
	}

	a.Throttle = clamp(a.Throttle+throttleChange*dt, 0, 1)
	a.Theta = clamp(a.Theta+pitchRate*dt, -math.Pi/2, math.Pi/2)

	speed := math.Hypot(a.VX, a.VY)
	thrust := maxThrust * a.Throttle

	var fx, fy float64
	if speed > 0.001 {
		// Angle of attack relative to the velocity direction drives lift;
		// drag opposes motion, lift acts perpendicular to it.
		phi := math.Atan2(a.VY, a.VX)
		alpha := a.Theta - phi
		lift := liftCoefficient * speed * speed * alpha
		drag := dragCoefficient * speed * speed

		fx = thrust*math.Cos(a.Theta) - drag*a.VX/speed - lift*(-a.VY/speed)
		fy = thrust*math.Sin(a.Theta) - drag*a.VY/speed + lift*(a.VX/speed) - massKg*gravity
	} else {
		fx = thrust * math.Cos(a.Theta)
		fy = thrust*math.Sin(a.Theta) - massKg*gravity
	}

	a.VX += fx / massKg * dt
	a.VY += fy / massKg * dt

	a.X += a.VX * dt
	a.Y += a.VY * dt

	return a
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
