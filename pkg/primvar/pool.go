package primvar

import (
	"lathe/pkg/math"
)

// Pool is the keyframed point pool: one slot of primitive variables per
// motion time. Every slot carries the same variables in the same order;
// slot 0 is the shutter-open sample.
type Pool struct {
	Times []float64
	Slots [][]*Var
}

// NewPool creates a pool with a single slot at time zero.
func NewPool() *Pool {
	return &Pool{Times: []float64{0}, Slots: make([][]*Var, 1)}
}

// AddTime appends a motion slot and returns its index.
func (p *Pool) AddTime(time float64) int {
	p.Times = append(p.Times, time)
	p.Slots = append(p.Slots, nil)
	return len(p.Slots) - 1
}

// Count returns the number of motion slots.
func (p *Pool) Count() int {
	return len(p.Slots)
}

// Add appends a variable to the given slot.
func (p *Pool) Add(slot int, v *Var) {
	p.Slots[slot] = append(p.Slots[slot], v)
}

// Vars returns the variables of a slot.
func (p *Pool) Vars(slot int) []*Var {
	return p.Slots[slot]
}

// Find looks up a variable by name in a slot, nil if missing.
func (p *Pool) Find(slot int, name string) *Var {
	for _, v := range p.Slots[slot] {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// P returns the position variable of a slot, nil if missing.
func (p *Pool) P(slot int) *Var {
	return p.Find(slot, "P")
}

// Point reads entry i of a point-like variable as a Point3D. An hpoint is
// homogenised on the way out.
func (v *Var) Point(i int) math.Point3D {
	val := v.Value(i)
	if v.Type == TypeHPoint {
		w := val[3]
		if w == 0 {
			w = 1
		}
		return math.Point3D{X: val[0] / w, Y: val[1] / w, Z: val[2] / w}
	}
	return math.Point3D{X: val[0], Y: val[1], Z: val[2]}
}

// SetPoint writes a Point3D into entry i of a point-like variable.
func (v *Var) SetPoint(i int, pt math.Point3D) {
	val := v.Value(i)
	val[0], val[1], val[2] = pt.X, pt.Y, pt.Z
	if v.Type == TypeHPoint {
		val[3] = 1
	}
}
