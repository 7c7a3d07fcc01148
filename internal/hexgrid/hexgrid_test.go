package hexgrid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromLatLngRoundTripsThroughCenter(t *testing.T) {
	c := FromLatLng(41.9, 12.49, 8)
	require.Equal(t, 8, Resolution(c))
	lat, lon := Center(c)
	require.InDelta(t, 41.9, lat, 1.0)
	require.InDelta(t, 12.49, lon, 1.0)
}

func TestToParentPreservesResolutionInvariant(t *testing.T) {
	c := FromLatLng(10, 20, 8)
	for r := 0; r <= 8; r++ {
		parent, err := ToParent(c, r)
		require.NoError(t, err)
		require.Equal(t, r, Resolution(parent))
	}
}

func TestToParentRejectsFinerResolution(t *testing.T) {
	c := FromLatLng(10, 20, 4)
	_, err := ToParent(c, 5)
	require.Error(t, err)
	var hErr *HierarchyError
	require.ErrorAs(t, err, &hErr)
}

func TestSiblingsShareParentPrefix(t *testing.T) {
	a := FromLatLng(10.001, 20.001, 8)
	b := FromLatLng(10.002, 20.002, 8)
	parentA, err := ToParent(a, 4)
	require.NoError(t, err)
	parentB, err := ToParent(b, 4)
	require.NoError(t, err)
	require.Equal(t, parentA, parentB)
}

func TestValidRejectsBadAlphabet(t *testing.T) {
	require.False(t, Valid(CellID("aaaaa")))
	require.False(t, Valid(CellID("!!!")))
	require.False(t, Valid(CellID("0123456789012")))
	require.True(t, Valid(FromLatLng(0, 0, 8)))
}

func TestBoundaryContainsCenter(t *testing.T) {
	c := FromLatLng(5, 5, 6)
	lat, lon := Center(c)
	corners := Boundary(c)
	minLat, minLon := corners[0][0], corners[0][1]
	maxLat, maxLon := corners[2][0], corners[2][1]
	require.GreaterOrEqual(t, lat, minLat)
	require.LessOrEqual(t, lat, maxLat)
	require.GreaterOrEqual(t, lon, minLon)
	require.LessOrEqual(t, lon, maxLon)
}
