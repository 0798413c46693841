package intermediate

import (
	"encoding/json"
	"fmt"
)

// JSONDoc is one gcov JSON intermediate document (one per translation unit).
// The decode is purely structural: unknown fields are ignored and records
// with missing mandatory fields are dropped, never errors.
type JSONDoc struct {
	FormatVersion           string     `json:"format_version"`
	GCCVersion              string     `json:"gcc_version"`
	CurrentWorkingDirectory string     `json:"current_working_directory"`
	DataFile                string     `json:"data_file"`
	Files                   []JSONFile `json:"files"`
}

// JSONFile is one source file entry of a JSON document.
type JSONFile struct {
	File      string         `json:"file"`
	Functions []JSONFunction `json:"functions"`
	Lines     []JSONLine     `json:"lines"`
}

// JSONFunction is one function entry. Name is the linkage (mangled) name,
// DemangledName the human-readable one.
type JSONFunction struct {
	Name           string `json:"name"`
	DemangledName  string `json:"demangled_name"`
	StartLine      int    `json:"start_line"`
	StartColumn    int    `json:"start_column"`
	EndLine        int    `json:"end_line"`
	EndColumn      int    `json:"end_column"`
	Blocks         int    `json:"blocks"`
	BlocksExecuted int    `json:"blocks_executed"`
	ExecutionCount int64  `json:"execution_count"`
}

// JSONLine is one line entry, owned by FunctionName.
type JSONLine struct {
	LineNumber      int          `json:"line_number"`
	Count           int64        `json:"count"`
	UnexecutedBlock bool         `json:"unexecuted_block"`
	FunctionName    string       `json:"function_name"`
	Branches        []JSONBranch `json:"branches"`
}

// JSONBranch is one raw branch record of a line. Fallthrough marks the edge
// gcov considers the natural continuation, Throw an exceptional edge.
type JSONBranch struct {
	Count       int64 `json:"count"`
	Fallthrough bool  `json:"fallthrough"`
	Throw       bool  `json:"throw"`
}

// DecodeJSONUnit decodes one JSON document and drops entries whose mandatory
// fields are absent (functions without a name, lines without a 1-based line
// number, files without a path).
func DecodeJSONUnit(data []byte) (*JSONDoc, error) {
	var doc JSONDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding gcov json unit: %w", err)
	}

	files := doc.Files[:0]
	for _, file := range doc.Files {
		if file.File == "" {
			continue
		}
		functions := file.Functions[:0]
		for _, fn := range file.Functions {
			if fn.Name == "" && fn.DemangledName == "" {
				continue
			}
			functions = append(functions, fn)
		}
		file.Functions = functions

		lines := file.Lines[:0]
		for _, ln := range file.Lines {
			if ln.LineNumber <= 0 {
				continue
			}
			lines = append(lines, ln)
		}
		file.Lines = lines

		files = append(files, file)
	}
	doc.Files = files
	return &doc, nil
}

// Key returns the name a function is filed under in the model: the demangled
// name when gcov provides one, the linkage name otherwise.
func (f *JSONFunction) Key() string {
	if f.DemangledName != "" {
		return f.DemangledName
	}
	return f.Name
}
