// Package model defines the normalized coverage data model produced by a
// generation run. The model is built once per run and replaced wholesale;
// consumers treat it as read-only.
package model

import "sort"

// UnboundedLine is the sentinel end line for functions whose extent is
// unknown. The legacy textual intermediate format (gcov < 8) reports only a
// start line.
const UnboundedLine = -1

// Position is a 1-based (line, column) source position.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Less reports whether p precedes q in source order.
func (p Position) Less(q Position) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Column < q.Column
}

// Branch records the outcome of one branch-bearing construct: how many times
// the controlling condition succeeded (SteppedIn) versus short-circuited or
// failed (Skipped). Position identifies the construct, usually the opening
// parenthesis of its controlling expression.
type Branch struct {
	Position  Position `json:"position"`
	SteppedIn int64    `json:"steppedIn"`
	Skipped   int64    `json:"skipped"`
}

// LineData maps 1-based line numbers to execution counts.
type LineData map[int]int64

// Region is a contiguous source span with a single execution count.
type Region struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
	Count int64    `json:"count"`
}

// RegionData is an ordered list of region records, used by front ends that
// report sub-line granularity instead of whole lines.
type RegionData []Region

// FunctionData holds the coverage of a single function. Exactly one of Lines
// and Regions is populated.
type FunctionData struct {
	Name      string     `json:"name"`
	StartLine int        `json:"startLine"`
	EndLine   int        `json:"endLine"`
	Lines     LineData   `json:"lines,omitempty"`
	Regions   RegionData `json:"regions,omitempty"`
	Branches  []Branch   `json:"branches,omitempty"`
}

// HasRegions reports whether the function carries region-granularity data.
func (f *FunctionData) HasRegions() bool {
	return f.Regions != nil
}

// TotalLines returns the number of instrumented lines (or regions) in the
// function.
func (f *FunctionData) TotalLines() int {
	if f.HasRegions() {
		return len(f.Regions)
	}
	return len(f.Lines)
}

// CoveredLines returns the number of instrumented lines (or regions) with a
// non-zero execution count.
func (f *FunctionData) CoveredLines() int {
	covered := 0
	if f.HasRegions() {
		for _, r := range f.Regions {
			if r.Count > 0 {
				covered++
			}
		}
		return covered
	}
	for _, count := range f.Lines {
		if count > 0 {
			covered++
		}
	}
	return covered
}

// FileData holds the coverage of every instrumented function in one source
// file. Path uses forward slashes regardless of platform.
type FileData struct {
	Path      string                   `json:"path"`
	Functions map[string]*FunctionData `json:"functions"`
}

// NewFileData creates an empty FileData for the given path.
func NewFileData(path string) *FileData {
	return &FileData{
		Path:      path,
		Functions: make(map[string]*FunctionData),
	}
}

// CoverageData is the root of the model: absolute file path -> file coverage.
type CoverageData struct {
	Files map[string]*FileData `json:"files"`
}

// NewCoverageData creates an empty CoverageData.
func NewCoverageData() *CoverageData {
	return &CoverageData{Files: make(map[string]*FileData)}
}

// FilePaths returns the covered file paths in sorted order.
func (c *CoverageData) FilePaths() []string {
	paths := make([]string, 0, len(c.Files))
	for path := range c.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// FunctionNames returns the function names of one file in sorted order, or
// nil if the file is not part of the model.
func (c *CoverageData) FunctionNames(path string) []string {
	fd, ok := c.Files[path]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(fd.Functions))
	for name := range fd.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
