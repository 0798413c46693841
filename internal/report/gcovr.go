package report

import (
	"path/filepath"

	"github.com/zjy-dev/gcovr-json-util/v2/pkg/gcovr"
)

// UncoveredInput is an externally produced claim of uncovered code, used to
// cross-check the assembled model.
type UncoveredInput struct {
	Files []UncoveredFile
}

// UncoveredFile lists the uncovered functions of one source file.
type UncoveredFile struct {
	FilePath  string
	Functions []UncoveredFunction
}

// UncoveredFunction is one function the external report marks as (partially)
// uncovered. Line numbers are 1-indexed.
type UncoveredFunction struct {
	FunctionName   string
	DemangledName  string
	UncoveredLines []int
	TotalLines     int
	CoveredLines   int
}

// ConvertGcovrUncoveredReport converts gcovr-json-util's UncoveredReport to
// the generic UncoveredInput format.
//
// Parameters:
//   - report: The gcovr UncoveredReport to convert
//   - sourceParentPath: The base path to prepend to relative file paths
func ConvertGcovrUncoveredReport(report *gcovr.UncoveredReport, sourceParentPath string) *UncoveredInput {
	if report == nil {
		return &UncoveredInput{Files: []UncoveredFile{}}
	}

	input := &UncoveredInput{
		Files: make([]UncoveredFile, 0, len(report.Files)),
	}

	for _, gcovrFile := range report.Files {
		filePath := gcovrFile.FilePath
		if sourceParentPath != "" {
			filePath = filepath.Join(sourceParentPath, gcovrFile.FilePath)
		}

		uncoveredFile := UncoveredFile{
			FilePath:  filepath.ToSlash(filePath),
			Functions: make([]UncoveredFunction, 0, len(gcovrFile.UncoveredFunctions)),
		}

		for _, gcovrFunc := range gcovrFile.UncoveredFunctions {
			uncoveredFile.Functions = append(uncoveredFile.Functions, UncoveredFunction{
				FunctionName:   gcovrFunc.FunctionName,
				DemangledName:  gcovrFunc.DemangledName,
				UncoveredLines: gcovrFunc.UncoveredLineNumbers,
				TotalLines:     gcovrFunc.TotalLines,
				CoveredLines:   gcovrFunc.CoveredLines,
			})
		}

		input.Files = append(input.Files, uncoveredFile)
	}

	return input
}
