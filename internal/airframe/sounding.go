package airframe

import "math"

// prandtlGlauert scales a subsonic slope for compressibility, clamped
// below the transonic region.
func prandtlGlauert(mach float64) float64 {
	m := math.Min(math.Abs(mach), 0.8)
	return 1 / math.Sqrt(1-m*m)
}

func linearLift(slope float64) LiftFunc {
	return func(alpha, mach float64) float64 {
		return slope * math.Sin(alpha) * prandtlGlauert(mach)
	}
}

func dragCurve(base float64) DragFunc {
	return func(mach float64) float64 {
		// transonic rise centred on Mach 1
		return base + 0.4*math.Exp(-math.Pow((mach-1)/0.15, 2))
	}
}

// Sounding returns a small fin-stabilized sounding rocket whose nose
// section sits slightly forward of the balance point when fully loaded.
func Sounding() *Rocket {
	return &Rocket{
		Name:           "sounding",
		Mass:           18.0,
		InertiaI:       6.5,
		InertiaZ:       0.05,
		Radius:         0.0635,
		DistPropellant: 0.55,
		PowerOnDrag:    dragCurve(0.38),
		PowerOffDrag:   dragCurve(0.45),
		Surfaces: []Surface{
			{Name: "nose", Lift: linearLift(2.0), PressureCenter: -0.95},
			{Name: "fins", Lift: linearLift(6.5), PressureCenter: 0.15},
			{Name: "canards", Lift: linearLift(1.2), PressureCenter: -0.7, Control: true},
		},
		PitchDamping: 0.5,
		Motor: Motor{
			Thrust:         1400,
			BurnTime:       3.2,
			PropellantMass: 4.2,
		},
	}
}
