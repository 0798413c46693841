package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition_Less(t *testing.T) {
	assert.True(t, Position{Line: 1, Column: 9}.Less(Position{Line: 2, Column: 1}))
	assert.True(t, Position{Line: 3, Column: 4}.Less(Position{Line: 3, Column: 5}))
	assert.False(t, Position{Line: 3, Column: 5}.Less(Position{Line: 3, Column: 5}))
	assert.False(t, Position{Line: 4, Column: 1}.Less(Position{Line: 3, Column: 9}))
}

func TestFunctionData_LineCounts(t *testing.T) {
	fn := &FunctionData{
		Name:  "f",
		Lines: LineData{1: 4, 2: 0, 3: 1},
	}
	assert.False(t, fn.HasRegions())
	assert.Equal(t, 3, fn.TotalLines())
	assert.Equal(t, 2, fn.CoveredLines())
}

func TestFunctionData_RegionCounts(t *testing.T) {
	fn := &FunctionData{
		Name: "f",
		Regions: RegionData{
			{Start: Position{Line: 1, Column: 1}, End: Position{Line: 1, Column: 20}, Count: 2},
			{Start: Position{Line: 2, Column: 3}, End: Position{Line: 2, Column: 9}, Count: 0},
		},
	}
	assert.True(t, fn.HasRegions())
	assert.Equal(t, 2, fn.TotalLines())
	assert.Equal(t, 1, fn.CoveredLines())
}

func TestFunctionData_Empty(t *testing.T) {
	fn := &FunctionData{Name: "f"}
	assert.Zero(t, fn.TotalLines())
	assert.Zero(t, fn.CoveredLines())
}

func TestCoverageData_SortedAccessors(t *testing.T) {
	data := NewCoverageData()
	for _, path := range []string{"c.cc", "a.cc", "b.cc"} {
		data.Files[path] = NewFileData(path)
	}
	data.Files["a.cc"].Functions["z"] = &FunctionData{Name: "z"}
	data.Files["a.cc"].Functions["m"] = &FunctionData{Name: "m"}

	assert.Equal(t, []string{"a.cc", "b.cc", "c.cc"}, data.FilePaths())
	assert.Equal(t, []string{"m", "z"}, data.FunctionNames("a.cc"))
	assert.Nil(t, data.FunctionNames("missing.cc"))
}
