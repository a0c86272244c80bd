// Package ephemeris defines the boundary to the ephemeris engine: body
// identifiers, calculation and status flags, and the classified results the
// reporting layer consumes.
package ephemeris

import "fmt"

// BodyID identifies a celestial body or derived point.
type BodyID int

const (
	Sun                 BodyID = 0
	Moon                BodyID = 1
	Mercury             BodyID = 2
	Venus               BodyID = 3
	Mars                BodyID = 4
	Jupiter             BodyID = 5
	Saturn              BodyID = 6
	Uranus              BodyID = 7
	Neptune             BodyID = 8
	Pluto               BodyID = 9
	MeanNode            BodyID = 10
	TrueNode            BodyID = 11
	MeanApogee          BodyID = 12
	OscuApogee          BodyID = 13
	Earth               BodyID = 14
	Chiron              BodyID = 15
	Pholus              BodyID = 16
	Ceres               BodyID = 17
	Pallas              BodyID = 18
	Juno                BodyID = 19
	Vesta               BodyID = 20
	InterpolatedApogee  BodyID = 21
	InterpolatedPerigee BodyID = 22

	// NumBodies is one past the last major body id.
	NumBodies BodyID = 23

	// AsteroidOffset is added to a minor planet catalog number to form its id.
	AsteroidOffset BodyID = 10000
)

// Asteroid returns the body id of minor planet number n.
func Asteroid(n int) BodyID { return AsteroidOffset + BodyID(n) }

// IsAsteroid reports whether id addresses a numbered minor planet.
func (id BodyID) IsAsteroid() bool { return id > AsteroidOffset }

// Number returns the catalog number of an asteroid id, or the id itself.
func (id BodyID) Number() int {
	if id.IsAsteroid() {
		return int(id - AsteroidOffset)
	}
	return int(id)
}

// MajorBodies returns Sun through NumBodies-1, skipping Earth, which has no
// geocentric position.
func MajorBodies() []BodyID {
	ids := make([]BodyID, 0, NumBodies-1)
	for id := Sun; id < NumBodies; id++ {
		if id == Earth {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// NodeBodies returns Sun through Pluto for node and apsides batches. Earth is
// included only when includeEarth is set.
func NodeBodies(includeEarth bool) []BodyID {
	ids := make([]BodyID, 0, Pluto+2)
	for id := Sun; id <= Pluto; id++ {
		ids = append(ids, id)
	}
	if includeEarth {
		ids = append(ids, Earth)
	}
	return ids
}

// Flags is both the calculation flag set passed to the engine and the status
// the engine returns. A negative status means the call failed.
type Flags int

const (
	FlagJPL        Flags = 1
	FlagEphemeris  Flags = 2 // compressed ephemeris files
	FlagMoshier    Flags = 4 // analytical fallback
	FlagHelio      Flags = 8
	FlagSpeed      Flags = 256
	FlagEquatorial Flags = 2048
)

// DefaultFlags is the calculation flag set used for every request.
const DefaultFlags = FlagEphemeris | FlagSpeed

// NodeMethod selects how nodes and apsides are derived.
type NodeMethod int

const (
	NodeMean    NodeMethod = 1
	NodeOscu    NodeMethod = 2
	NodeOscuBar NodeMethod = 4
	NodeFocal   NodeMethod = 256
)

// Vector is one engine result: longitude, latitude, distance and their
// daily speeds.
type Vector [6]float64

func (v Vector) Long() float64      { return v[0] }
func (v Vector) Lat() float64       { return v[1] }
func (v Vector) Dist() float64      { return v[2] }
func (v Vector) SpeedLong() float64 { return v[3] }
func (v Vector) SpeedLat() float64  { return v[4] }
func (v Vector) SpeedDist() float64 { return v[5] }

// DateTime is a civil UT calendar date and time.
type DateTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

func (d DateTime) String() string {
	return fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ", d.Year, d.Month, d.Day, d.Hour, d.Minute, d.Second)
}

// Moment is a DateTime with its derived Julian days in universal (UT) and
// ephemeris (ET) time.
type Moment struct {
	DateTime
	UT float64
	ET float64
}

// BodyResult is the outcome of one position calculation.
type BodyResult struct {
	ID   BodyID
	Name string
	Outcome[Vector]
}

// NodeSet holds the four points derived by a nodes/apsides calculation.
type NodeSet struct {
	Ascending  Vector
	Descending Vector
	Perihelion Vector
	Aphelion   Vector
}

// NodeApsidesResult is the outcome of one nodes/apsides calculation.
type NodeApsidesResult struct {
	ID   BodyID
	Name string
	Outcome[NodeSet]
}

// HouseResult holds house cusps 1..12 (index 0 unused) and the two angles.
type HouseResult struct {
	System byte
	Cusps  [13]float64
	Asc    float64
	MC     float64
}
