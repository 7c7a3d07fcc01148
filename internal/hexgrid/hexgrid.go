// Package hexgrid implements the hierarchical grid oracle treated as a
// trusted external collaborator: cell validity, resolution, parent
// lookup, center, and boundary. The contract this package must
// satisfy is resolution(cellToParent(c, r)) = r for r <= resolution(c)
// and determinism, not geometric fidelity to true hexagons.
//
// Cell identifiers are geohash-style strings: each character narrows a
// lat/lon quadrant, so resolution is simply string length and the
// parent at resolution r is the r-character prefix. This mirrors the
// quadrant-halving scheme in the pack's own geohash implementation,
// generalized so that "resolution" and "parent" are first-class
// concepts rather than a flat precision.
package hexgrid

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// MaxRes is the finest resolution the oracle supports.
const MaxRes = 12

const base32Alphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// CellID is an opaque identifier for a region of the grid. Its string
// form is also its canonical sort key (code-point ascending).
type CellID string

// HierarchyError is returned when the oracle rejects a lookup: a parent
// is requested at a negative resolution or at one finer than the cell's
// own. Cell validity is not checked by ToParent; use Valid for that.
type HierarchyError struct {
	Cell   CellID
	Reason string
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("hierarchy error for cell %q: %s", string(e.Cell), e.Reason)
}

// Valid reports whether c is a well-formed cell at some resolution
// 0..MaxRes whose characters are drawn from the grid alphabet and whose
// implied center is a valid point on the sphere.
func Valid(c CellID) bool {
	s := string(c)
	if len(s) > MaxRes {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isAlphabetChar(s[i]) {
			return false
		}
	}
	lat, lon := center(s)
	if !validLatLng(lat, lon) {
		return false
	}
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// Resolution returns the resolution (depth) of c: its string length.
func Resolution(c CellID) int { return len(string(c)) }

// ToParent returns the ancestor of c at resolution r. It is an error to
// request a resolution finer than c's own.
func ToParent(c CellID, r int) (CellID, error) {
	s := string(c)
	if r < 0 || r > len(s) {
		return "", &HierarchyError{Cell: c, Reason: fmt.Sprintf("cannot take parent at resolution %d of cell at resolution %d", r, len(s))}
	}
	return CellID(s[:r]), nil
}

// Center returns the (lat, lng) in degrees of the cell's center point.
func Center(c CellID) (lat, lng float64) {
	return center(string(c))
}

// Boundary returns the four corners of the cell's bounding quadrant, in
// (lat, lng) degree pairs, starting at the south-west corner and
// proceeding clockwise (south-west, north-west, north-east, south-east).
func Boundary(c CellID) [][2]float64 {
	minLat, minLon, maxLat, maxLon := bounds(string(c))
	return [][2]float64{
		{minLat, minLon},
		{maxLat, minLon},
		{maxLat, maxLon},
		{minLat, maxLon},
	}
}

func isAlphabetChar(b byte) bool {
	for i := 0; i < len(base32Alphabet); i++ {
		if base32Alphabet[i] == b {
			return true
		}
	}
	return false
}

func indexOfAlphabet(b byte) int {
	for i := 0; i < len(base32Alphabet); i++ {
		if base32Alphabet[i] == b {
			return i
		}
	}
	return -1
}

// bounds decodes a cell string into its (minLat, minLon, maxLat, maxLon)
// quadrant, narrowing the whole-sphere range one 5-bit group per
// character, exactly as a geohash decoder does.
func bounds(cell string) (minLat, minLon, maxLat, maxLon float64) {
	latRange := [2]float64{-90.0, 90.0}
	lonRange := [2]float64{-180.0, 180.0}
	isLon := true
	for i := 0; i < len(cell); i++ {
		idx := indexOfAlphabet(cell[i])
		if idx == -1 {
			continue
		}
		for mask := 16; mask > 0; mask >>= 1 {
			if isLon {
				mid := (lonRange[0] + lonRange[1]) / 2
				if idx&mask != 0 {
					lonRange[0] = mid
				} else {
					lonRange[1] = mid
				}
			} else {
				mid := (latRange[0] + latRange[1]) / 2
				if idx&mask != 0 {
					latRange[0] = mid
				} else {
					latRange[1] = mid
				}
			}
			isLon = !isLon
		}
	}
	return latRange[0], lonRange[0], latRange[1], lonRange[1]
}

func center(cell string) (lat, lon float64) {
	minLat, minLon, maxLat, maxLon := bounds(cell)
	return (minLat + maxLat) / 2, (minLon + maxLon) / 2
}

// FromLatLng encodes a lat/lng point into a cell id at the requested
// resolution, the inverse of Center/Boundary.
func FromLatLng(lat, lon float64, res int) CellID {
	if res < 0 {
		res = 0
	}
	if res > MaxRes {
		res = MaxRes
	}
	latRange := [2]float64{-90.0, 90.0}
	lonRange := [2]float64{-180.0, 180.0}
	out := make([]byte, 0, res)
	bits, bit, ch := 0, 0, 0
	for len(out) < res {
		if bit%2 == 0 {
			mid := (lonRange[0] + lonRange[1]) / 2
			if lon > mid {
				ch |= 1 << uint(4-bits)
				lonRange[0] = mid
			} else {
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat > mid {
				ch |= 1 << uint(4-bits)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}
		bits++
		if bits == 5 {
			out = append(out, base32Alphabet[ch])
			bits, ch = 0, 0
		}
		bit++
	}
	return CellID(out)
}

// validLatLng reports whether the pair is a real point on the sphere,
// used by Valid for defense against NaN/Inf inputs reaching the oracle.
func validLatLng(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
