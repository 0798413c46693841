// Package report derives summary statistics from the coverage model and
// cross-checks it against externally produced gcovr reports.
package report

import (
	"fmt"
	"strings"

	"github.com/zjy-dev/covlens/internal/model"
)

// Summary holds coverage statistics for display and decision making.
type Summary struct {
	Files              int
	Functions          int
	TotalLines         int
	CoveredLines       int
	TotalBranches      int
	FullyTakenBranches int
}

// Percentage returns the line coverage percentage (0-100).
func (s *Summary) Percentage() float64 {
	if s.TotalLines == 0 {
		return 0
	}
	return float64(s.CoveredLines) / float64(s.TotalLines) * 100
}

// String renders the summary in one line per metric.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "files:     %d\n", s.Files)
	fmt.Fprintf(&b, "functions: %d\n", s.Functions)
	fmt.Fprintf(&b, "lines:     %d/%d (%.1f%%)\n", s.CoveredLines, s.TotalLines, s.Percentage())
	fmt.Fprintf(&b, "branches:  %d/%d fully exercised", s.FullyTakenBranches, s.TotalBranches)
	return b.String()
}

// Stats computes the summary of a coverage model.
func Stats(data *model.CoverageData) *Summary {
	s := &Summary{}
	for _, path := range data.FilePaths() {
		s.Files++
		fd := data.Files[path]
		for _, fn := range fd.Functions {
			s.Functions++
			s.TotalLines += fn.TotalLines()
			s.CoveredLines += fn.CoveredLines()
			for _, br := range fn.Branches {
				s.TotalBranches++
				if br.SteppedIn > 0 && br.Skipped > 0 {
					s.FullyTakenBranches++
				}
			}
		}
	}
	return s
}
