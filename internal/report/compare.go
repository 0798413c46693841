package report

import (
	"fmt"

	"github.com/zjy-dev/covlens/internal/model"
)

// Mismatch is one disagreement between the assembled model and an external
// uncovered report.
type Mismatch struct {
	File     string
	Function string
	Detail   string
}

func (m *Mismatch) String() string {
	if m.Function == "" {
		return fmt.Sprintf("%s: %s", m.File, m.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", m.File, m.Function, m.Detail)
}

// Compare diffs the model against an external uncovered report and returns
// the disagreements. Comparison never fails; an empty slice means the two
// views agree.
func Compare(data *model.CoverageData, input *UncoveredInput) []Mismatch {
	if input == nil {
		return nil
	}

	var mismatches []Mismatch
	for _, file := range input.Files {
		fd := data.Files[file.FilePath]
		if fd == nil {
			mismatches = append(mismatches, Mismatch{
				File:   file.FilePath,
				Detail: "file has uncovered functions in the external report but is absent from the model",
			})
			continue
		}

		for _, extFn := range file.Functions {
			name := extFn.DemangledName
			if name == "" {
				name = extFn.FunctionName
			}
			fn := fd.Functions[name]
			if fn == nil {
				mismatches = append(mismatches, Mismatch{
					File:     file.FilePath,
					Function: name,
					Detail:   "function in the external report but not in the model",
				})
				continue
			}

			for _, line := range extFn.UncoveredLines {
				if count, ok := fn.Lines[line]; ok && count > 0 {
					mismatches = append(mismatches, Mismatch{
						File:     file.FilePath,
						Function: name,
						Detail:   fmt.Sprintf("line %d uncovered externally but executed %d times in the model", line, count),
					})
				}
			}
		}
	}
	return mismatches
}
