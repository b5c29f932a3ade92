package airframe

import (
	"fmt"
	"math"

	"github.com/san-kum/flightctl/internal/dynamo"
)

// DragFunc returns a drag coefficient for a Mach number.
type DragFunc func(mach float64) float64

// LiftFunc returns a lift coefficient for an angle of attack in radians and
// a Mach number.
type LiftFunc func(alpha, mach float64) float64

// Surface is an aerodynamic surface. Lift coefficients are referenced to
// the rocket's frontal area.
type Surface struct {
	Name string
	Lift LiftFunc
	// PressureCenter is the distance of the surface's centre of pressure
	// aft of the dry centre of mass, m.
	PressureCenter float64
	// Control marks a deflectable fin set.
	Control bool
}

// Rocket holds mass, inertia and aerodynamic data. Longitudinal positions
// are measured aft of the centre of mass without propellant.
type Rocket struct {
	Name string

	Mass     float64 // dry mass, kg
	InertiaI float64 // transverse, dry, kg·m²
	InertiaZ float64 // axial, dry, kg·m²
	Radius   float64 // m

	// DistPropellant is the distance from the dry centre of mass to the
	// propellant's centre of mass, m.
	DistPropellant float64
	// CenterOfMass returns the shift of the loaded centre of mass for a
	// given propellant mass.
	CenterOfMass func(propellant float64) float64

	PowerOnDrag  DragFunc
	PowerOffDrag DragFunc
	Surfaces     []Surface

	// PitchDamping is the damping moment coefficient per unit of
	// q·A·d²/V.
	PitchDamping float64

	Motor Motor
}

// Area is the largest frontal cross section.
func (r *Rocket) Area() float64 { return math.Pi * r.Radius * r.Radius }

// DragCoefficient selects power-on or power-off drag from the motor state.
func (r *Rocket) DragCoefficient(mach, t float64) float64 {
	if r.Motor.State(t) == Burning {
		return r.PowerOnDrag(mach)
	}
	return r.PowerOffDrag(mach)
}

func (r *Rocket) MassAt(t float64) float64 {
	return r.Mass + r.Motor.Propellant(t)
}

// CGAt returns the loaded centre of mass position at t.
func (r *Rocket) CGAt(t float64) float64 {
	if r.CenterOfMass != nil {
		return r.CenterOfMass(r.Motor.Propellant(t))
	}
	p := r.Motor.Propellant(t)
	return p * r.DistPropellant / (r.Mass + p)
}

// InertiaAt adds the propellant as a point mass to the dry transverse
// inertia, taken about the loaded centre of mass.
func (r *Rocket) InertiaAt(t float64) float64 {
	p := r.Motor.Propellant(t)
	cg := r.CGAt(t)
	d := r.DistPropellant - cg
	return r.InertiaI + r.Mass*cg*cg + p*d*d
}

const liftStep = 1e-4

func surfaceSlope(s Surface, mach float64) float64 {
	return (s.Lift(liftStep, mach) - s.Lift(-liftStep, mach)) / (2 * liftStep)
}

// NormalSlope is the normal force coefficient slope at zero angle of
// attack, summed over all surfaces, per radian.
func (r *Rocket) NormalSlope(mach float64) float64 {
	total := 0.0
	for _, s := range r.Surfaces {
		total += surfaceSlope(s, mach)
	}
	return total
}

// PressureCenter is the slope-weighted centre of pressure of all surfaces.
func (r *Rocket) PressureCenter(mach float64) float64 {
	total, moment := 0.0, 0.0
	for _, s := range r.Surfaces {
		k := surfaceSlope(s, mach)
		total += k
		moment += k * s.PressureCenter
	}
	if total == 0 {
		return 0
	}
	return moment / total
}

// StaticMargin is the distance of the centre of pressure aft of the loaded
// centre of mass. Negative is statically unstable.
func (r *Rocket) StaticMargin(mach, t float64) float64 {
	return r.PressureCenter(mach) - r.CGAt(t)
}

func (r *Rocket) Validate() error {
	if !(r.Mass > 0) || !(r.InertiaI > 0) || !(r.Radius > 0) {
		return fmt.Errorf("rocket %q: mass=%g inertia=%g radius=%g: %w", r.Name, r.Mass, r.InertiaI, r.Radius, dynamo.ErrParameterBounds)
	}
	if r.PowerOnDrag == nil || r.PowerOffDrag == nil {
		return fmt.Errorf("rocket %q: missing drag data: %w", r.Name, dynamo.ErrParameterBounds)
	}
	for _, s := range r.Surfaces {
		if s.Lift == nil {
			return fmt.Errorf("rocket %q: surface %q has no lift data: %w", r.Name, s.Name, dynamo.ErrParameterBounds)
		}
	}
	if r.Motor.BurnTime <= 0 || r.Motor.PropellantMass < 0 {
		return fmt.Errorf("rocket %q: motor burn=%g propellant=%g: %w", r.Name, r.Motor.BurnTime, r.Motor.PropellantMass, dynamo.ErrParameterBounds)
	}
	return nil
}
