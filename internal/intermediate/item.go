// Package intermediate parses gcov intermediate output, both the textual
// format (two grammar variants, keyed by gcov major version) and the JSON
// format, into data the reconciler and assembler consume.
package intermediate

// ItemKind tags the variants of the flat record stream produced by the
// textual parser.
type ItemKind int

const (
	// ItemFile marks the start of records belonging to one source file.
	ItemFile ItemKind = iota
	// ItemFunc declares an instrumented function.
	ItemFunc
	// ItemLCount reports the execution count of one line.
	ItemLCount
	// ItemBranch reports the outcome of one branch on a line.
	ItemBranch
)

// BranchEvent is the outcome keyword of a textual branch record.
type BranchEvent int

const (
	BranchNotExec BranchEvent = iota
	BranchTaken
	BranchNotTaken
)

// Item is one record of the flat stream. Kind selects which fields are
// meaningful; the stream is transient and consumed by a single
// reconciliation pass.
type Item struct {
	Kind ItemKind

	// ItemFile
	Path string

	// ItemFunc
	Name      string
	StartLine int
	EndLine   int // model.UnboundedLine when the grammar carries no end line

	// ItemFunc, ItemLCount
	Count int64

	// ItemLCount, ItemBranch
	Line int

	// ItemBranch
	Event BranchEvent
}

// PathMapper translates a tool-reported path into a canonical local path.
// ok is false when the path cannot be resolved to a project file.
type PathMapper func(reported string) (resolved string, ok bool)
