package assoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultCostParams() CostParams {
	return CostParams{
		DistThreshold:   150,
		CenterThreshold: 80,
		AreaThreshold:   3,
		BodyRatio:       0.5,
	}
}

func TestCost_AcceptsCloseMatch(t *testing.T) {
	t.Parallel()
	track := Candidate{PixelX: 100, PixelY: 100, Width: 40, Height: 60}
	det := Candidate{PixelX: 105, PixelY: 98, Width: 42, Height: 58}

	cost, ok := Cost(track, det, defaultCostParams())
	assert.True(t, ok)
	assert.Greater(t, cost, float32(0))
	assert.Less(t, cost, float32(10))
}

func TestCost_GatesOnPixelDistance(t *testing.T) {
	t.Parallel()
	track := Candidate{PixelX: 0, PixelY: 0, Width: 40, Height: 60}
	det := Candidate{PixelX: 500, PixelY: 500, Width: 40, Height: 60}

	_, ok := Cost(track, det, defaultCostParams())
	assert.False(t, ok)
}

func TestCost_GatesOnAreaRatio(t *testing.T) {
	t.Parallel()
	track := Candidate{PixelX: 0, PixelY: 0, Width: 10, Height: 10}
	det := Candidate{PixelX: 1, PixelY: 1, Width: 400, Height: 400}

	_, ok := Cost(track, det, defaultCostParams())
	assert.False(t, ok)
}

func TestCost_BodyRatioZeroDisablesAspectTerm(t *testing.T) {
	t.Parallel()
	track := Candidate{PixelX: 0, PixelY: 0, Width: 10, Height: 100}
	det := Candidate{PixelX: 1, PixelY: 1, Width: 90, Height: 100}

	params := defaultCostParams()
	params.BodyRatio = 0
	withDisabled, ok := Cost(track, det, params)
	assert.True(t, ok)

	params.BodyRatio = 0.5
	withEnabled, ok := Cost(track, det, params)
	assert.True(t, ok)

	assert.Less(t, withDisabled, withEnabled)
}

func TestCost_WorldDistanceAddsButOnlyWhenBothCarryIt(t *testing.T) {
	t.Parallel()
	trackNoWorld := Candidate{PixelX: 0, PixelY: 0, Width: 10, Height: 10}
	detNoWorld := Candidate{PixelX: 1, PixelY: 1, Width: 10, Height: 10}
	pixelOnly, ok := Cost(trackNoWorld, detNoWorld, defaultCostParams())
	assert.True(t, ok)

	trackWorld := trackNoWorld
	trackWorld.HasWorld = true
	trackWorld.WorldX, trackWorld.WorldY, trackWorld.WorldZ = 0, 0, 0
	detWorld := detNoWorld
	detWorld.HasWorld = true
	detWorld.WorldX, detWorld.WorldY, detWorld.WorldZ = 1, 1, 1

	withWorld, ok := Cost(trackWorld, detWorld, defaultCostParams())
	assert.True(t, ok)
	assert.Greater(t, withWorld, pixelOnly)
}

func TestBuildCostMatrix_Shape(t *testing.T) {
	t.Parallel()
	tracks := []Candidate{
		{PixelX: 0, PixelY: 0, Width: 10, Height: 10},
		{PixelX: 200, PixelY: 200, Width: 10, Height: 10},
	}
	detections := []Candidate{
		{PixelX: 1, PixelY: 1, Width: 10, Height: 10},
	}

	matrix := BuildCostMatrix(detections, tracks, defaultCostParams())
	assert.Len(t, matrix, 1)
	assert.Len(t, matrix[0], 2)
	assert.Less(t, matrix[0][0], matrix[0][1])
}
