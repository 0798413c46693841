package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zjy-dev/covlens/internal/model"
)

func sampleData() *model.CoverageData {
	data := model.NewCoverageData()

	a := model.NewFileData("a.cc")
	a.Functions["f()"] = &model.FunctionData{
		Name:      "f()",
		StartLine: 1,
		EndLine:   5,
		Lines:     model.LineData{1: 4, 2: 0, 3: 4},
		Branches: []model.Branch{
			{Position: model.Position{Line: 2, Column: 6}, SteppedIn: 3, Skipped: 1},
			{Position: model.Position{Line: 3, Column: 6}, SteppedIn: 4, Skipped: 0},
		},
	}
	data.Files["a.cc"] = a

	b := model.NewFileData("b.cc")
	b.Functions["g()"] = &model.FunctionData{
		Name:      "g()",
		StartLine: 1,
		EndLine:   2,
		Lines:     model.LineData{1: 0},
	}
	data.Files["b.cc"] = b

	return data
}

func TestStats(t *testing.T) {
	s := Stats(sampleData())
	assert.Equal(t, 2, s.Files)
	assert.Equal(t, 2, s.Functions)
	assert.Equal(t, 4, s.TotalLines)
	assert.Equal(t, 2, s.CoveredLines)
	assert.Equal(t, 2, s.TotalBranches)
	assert.Equal(t, 1, s.FullyTakenBranches)
	assert.InDelta(t, 50.0, s.Percentage(), 0.001)
}

func TestStats_Empty(t *testing.T) {
	s := Stats(model.NewCoverageData())
	assert.Zero(t, s.Files)
	assert.Zero(t, s.Percentage())
}

func TestSummary_String(t *testing.T) {
	s := Stats(sampleData())
	out := s.String()
	assert.Contains(t, out, "files:     2")
	assert.Contains(t, out, "lines:     2/4 (50.0%)")
	assert.Contains(t, out, "branches:  1/2 fully exercised")
}
