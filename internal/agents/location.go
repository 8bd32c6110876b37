package agents

import "math"

// Location is a fixed point in the trading plane. It never changes once a
// person is created; trade matching prefers nearby counterparties.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another location.
func (l Location) Distance(other Location) float64 {
	dx := l.X - other.X
	dy := l.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}
