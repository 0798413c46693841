// Package reconcile groups the flat item stream of the textual parser into
// per-file, per-function line coverage.
package reconcile

import (
	"github.com/zjy-dev/covlens/internal/intermediate"
	"github.com/zjy-dev/covlens/internal/model"
)

// pending is one function opened by the current file context, in encounter
// order.
type pending struct {
	startLine int
	endLine   int
	name      string
	lines     model.LineData
}

// Items walks the flat record stream and builds the per-file function map.
// A File item opens a new context; records before the first File item are
// dropped. Line counts attach to the last pending function whose start line
// is at or before the counted line, which is the innermost function by
// declaration order. Textual branch records are not reconstructed here.
func Items(items []intermediate.Item) *model.CoverageData {
	data := model.NewCoverageData()

	var path string
	var funcs []*pending

	flush := func() {
		// Files without functions never enter the model. An empty path
		// means the reported path did not resolve to a project file.
		if path == "" || len(funcs) == 0 {
			return
		}
		fd, ok := data.Files[path]
		if !ok {
			fd = model.NewFileData(path)
			data.Files[path] = fd
		}
		for _, fn := range funcs {
			fd.Functions[fn.name] = &model.FunctionData{
				Name:      fn.name,
				StartLine: fn.startLine,
				EndLine:   fn.endLine,
				Lines:     fn.lines,
			}
		}
	}

	opened := false
	for _, item := range items {
		switch item.Kind {
		case intermediate.ItemFile:
			flush()
			path = item.Path
			funcs = nil
			opened = true
		case intermediate.ItemFunc:
			if !opened {
				continue
			}
			funcs = append(funcs, &pending{
				startLine: item.StartLine,
				endLine:   item.EndLine,
				name:      item.Name,
				lines:     make(model.LineData),
			})
		case intermediate.ItemLCount:
			if !opened {
				continue
			}
			// Reverse scan for the innermost enclosing function.
			for i := len(funcs) - 1; i >= 0; i-- {
				if funcs[i].startLine <= item.Line {
					funcs[i].lines[item.Line] = item.Count
					break
				}
			}
		case intermediate.ItemBranch:
			// Branch coverage is only reconstructed for the JSON form.
		}
	}
	flush()

	return data
}
