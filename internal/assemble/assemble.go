// Package assemble merges parsed coverage records and matched branch data
// into the final coverage model. JSON-form input is fanned out over parallel
// workers by file chunk; the textual form goes through the reconciler.
package assemble

import (
	"golang.org/x/sync/errgroup"

	"github.com/zjy-dev/covlens/internal/branches"
	"github.com/zjy-dev/covlens/internal/intermediate"
	"github.com/zjy-dev/covlens/internal/model"
	"github.com/zjy-dev/covlens/internal/reconcile"
	"github.com/zjy-dev/covlens/internal/source"
)

// FromText assembles the model from a textual-form item stream. The textual
// form carries no usable branch pairs, so the result is pure line coverage.
func FromText(items []intermediate.Item) *model.CoverageData {
	return reconcile.Items(items)
}

// JSONOptions configures JSON-form assembly.
type JSONOptions struct {
	// MapPath resolves tool-reported paths; files that do not resolve are
	// omitted. nil keeps reported paths as-is.
	MapPath intermediate.PathMapper

	// Locator supplies source constructs for branch matching. nil disables
	// branch matching entirely.
	Locator source.Locator

	// Flags gates which construct kinds emit direct branch records.
	Flags branches.Flags

	// Parallelism bounds the worker count; <= 0 means all CPUs.
	Parallelism int
}

// unitFile is one file entry with its resolved path, in input order.
type unitFile struct {
	path string
	file intermediate.JSONFile
}

// FromJSON assembles the model from decoded JSON documents. Files are
// partitioned into contiguous chunks, one worker per chunk, and the chunk
// results are joined in order; identical input yields identical content
// regardless of scheduling. Duplicate (file, function) keys across units
// resolve last-write-wins.
func FromJSON(docs []*intermediate.JSONDoc, opts JSONOptions) *model.CoverageData {
	var files []unitFile
	for _, doc := range docs {
		for _, file := range doc.Files {
			path := intermediate.NormalizePath(file.File)
			if opts.MapPath != nil {
				resolved, ok := opts.MapPath(path)
				if !ok {
					continue
				}
				path = intermediate.NormalizePath(resolved)
			}
			if len(file.Functions) == 0 && len(file.Lines) == 0 {
				continue
			}
			files = append(files, unitFile{path: path, file: file})
		}
	}
	if len(files) == 0 {
		return model.NewCoverageData()
	}

	bounds := intermediate.ChunkBounds(len(files), opts.Parallelism)
	fragments := make([]*model.CoverageData, len(bounds)-1)

	var g errgroup.Group
	for c := 0; c < len(bounds)-1; c++ {
		c := c
		lo, hi := bounds[c], bounds[c+1]
		g.Go(func() error {
			fragment := model.NewCoverageData()
			for _, uf := range files[lo:hi] {
				assembleFile(fragment, uf, &opts)
			}
			fragments[c] = fragment
			return nil
		})
	}
	// Workers never fail; per-record problems drop records silently.
	_ = g.Wait()

	out := model.NewCoverageData()
	for _, fragment := range fragments {
		for path, fd := range fragment.Files {
			existing, ok := out.Files[path]
			if !ok {
				out.Files[path] = fd
				continue
			}
			for name, fn := range fd.Functions {
				existing.Functions[name] = fn
			}
		}
	}
	return out
}

// assembleFile converts one file entry into function data and merges it into
// the fragment.
func assembleFile(fragment *model.CoverageData, uf unitFile, opts *JSONOptions) {
	byName := make(map[string]*model.FunctionData)
	ordered := make([]*model.FunctionData, 0, len(uf.file.Functions))
	for i := range uf.file.Functions {
		fn := &uf.file.Functions[i]
		fd := &model.FunctionData{
			Name:      fn.Key(),
			StartLine: fn.StartLine,
			EndLine:   fn.EndLine,
			Lines:     make(model.LineData),
		}
		byName[fn.Key()] = fd
		if fn.Name != "" {
			byName[fn.Name] = fd
		}
		ordered = append(ordered, fd)
	}

	for _, ln := range uf.file.Lines {
		owner := byName[ln.FunctionName]
		if owner == nil {
			owner = enclosing(ordered, ln.LineNumber)
		}
		if owner == nil {
			continue
		}
		owner.Lines[ln.LineNumber] = ln.Count

		if opts.Locator == nil || len(ln.Branches) == 0 {
			continue
		}
		records := make([]branches.Record, len(ln.Branches))
		for i, b := range ln.Branches {
			records[i] = branches.Record{Count: b.Count, Fallthrough: b.Fallthrough, Throwing: b.Throw}
		}
		constructs := opts.Locator.ConstructsOnLine(uf.path, ln.LineNumber)
		owner.Branches = append(owner.Branches, branches.MatchLine(records, constructs, opts.Flags)...)
	}

	if len(ordered) == 0 {
		return
	}
	fd, ok := fragment.Files[uf.path]
	if !ok {
		fd = model.NewFileData(uf.path)
		fragment.Files[uf.path] = fd
	}
	for _, fn := range ordered {
		fd.Functions[fn.Name] = fn
	}
}

// enclosing finds the innermost function whose range contains the line:
// the latest-starting function with startLine <= line and, when bounded,
// endLine >= line.
func enclosing(ordered []*model.FunctionData, line int) *model.FunctionData {
	for i := len(ordered) - 1; i >= 0; i-- {
		fn := ordered[i]
		if fn.StartLine > line {
			continue
		}
		if fn.EndLine != model.UnboundedLine && fn.EndLine < line {
			continue
		}
		return fn
	}
	return nil
}
