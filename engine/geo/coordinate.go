package geo

// Coordinate is a geographic point. The zero value (0,0) is the explicit
// "not resolved" sentinel, not a missing value; callers must branch on it.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Unresolved is the sentinel returned when no lookup strategy succeeded.
var Unresolved = Coordinate{}

// IsZero reports whether the coordinate is the unresolved sentinel.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}
