package intermediate

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/zjy-dev/covlens/internal/model"
)

// legacyGrammarCutoff is the first gcov major version using the extended
// textual grammar (end line on function records, extra lcount field).
const legacyGrammarCutoff = 8

// TextParser parses one textual intermediate unit into a flat item stream.
// The grammar variant is fixed at construction from the gcov major version.
type TextParser struct {
	legacy  bool
	mapPath PathMapper
}

// NewTextParser creates a parser for output of the given gcov major version.
// mapPath may be nil, in which case reported paths are only slash-normalized.
func NewTextParser(major int, mapPath PathMapper) *TextParser {
	return &TextParser{
		legacy:  major < legacyGrammarCutoff,
		mapPath: mapPath,
	}
}

// Parse scans one compilation unit's output. A grammar mismatch fails the
// whole unit: the caller gets a descriptive error and no items, and decides
// whether other units continue.
func (p *TextParser) Parse(unit string) ([]Item, error) {
	var items []Item

	scanner := bufio.NewScanner(strings.NewReader(unit))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, payload, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("line %d: missing record separator in %q", lineNo, line)
		}

		switch key {
		case "version":
			// Generator version marker, not needed.
		case "file":
			items = append(items, Item{Kind: ItemFile, Path: p.resolvePath(payload)})
		case "function":
			item, err := p.parseFunction(payload)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			items = append(items, item)
		case "lcount":
			item, err := p.parseLCount(payload)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			items = append(items, item)
		case "branch":
			item, err := parseBranch(payload)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			items = append(items, item)
		default:
			return nil, fmt.Errorf("line %d: unknown record kind %q", lineNo, key)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning unit: %w", err)
	}

	return items, nil
}

// resolvePath normalizes a tool-reported path to forward slashes and maps it
// to a canonical local path. An unresolvable path yields "" and the file's
// records are dropped downstream.
func (p *TextParser) resolvePath(reported string) string {
	path := NormalizePath(strings.TrimSpace(reported))
	if p.mapPath == nil {
		return path
	}
	resolved, ok := p.mapPath(path)
	if !ok {
		return ""
	}
	return NormalizePath(resolved)
}

// NormalizePath rewrites a tool-reported path to forward slashes. Windows
// toolchains report backslashed paths even when the model is consumed
// elsewhere, so this cannot rely on the host separator.
func NormalizePath(path string) string {
	return strings.ReplaceAll(path, `\`, "/")
}

// parseFunction handles both grammar variants:
//
//	< 8:  function:<startLine>,<count>,<name>
//	>= 8: function:<startLine>,<endLine>,<count>,<name>
//
// The name is the final field and may itself contain commas (demangled C++).
func (p *TextParser) parseFunction(payload string) (Item, error) {
	numeric := 2
	if !p.legacy {
		numeric = 3
	}
	fields := strings.SplitN(payload, ",", numeric+1)
	if len(fields) != numeric+1 {
		return Item{}, fmt.Errorf("malformed function record %q", payload)
	}

	start, err := strconv.Atoi(fields[0])
	if err != nil {
		return Item{}, fmt.Errorf("function start line %q: %w", fields[0], err)
	}

	item := Item{Kind: ItemFunc, StartLine: start, EndLine: model.UnboundedLine}
	countField := fields[1]
	if !p.legacy {
		end, err := strconv.Atoi(fields[1])
		if err != nil {
			return Item{}, fmt.Errorf("function end line %q: %w", fields[1], err)
		}
		item.EndLine = end
		countField = fields[2]
	}

	count, err := strconv.ParseInt(countField, 10, 64)
	if err != nil {
		return Item{}, fmt.Errorf("function count %q: %w", countField, err)
	}
	item.Count = count
	item.Name = fields[numeric]
	return item, nil
}

// parseLCount handles both grammar variants:
//
//	< 8:  lcount:<line>,<count>
//	>= 8: lcount:<line>,<count>,<extra>   (extra field ignored)
func (p *TextParser) parseLCount(payload string) (Item, error) {
	fields := strings.Split(payload, ",")
	want := 2
	if !p.legacy {
		want = 3
	}
	if len(fields) != want {
		return Item{}, fmt.Errorf("malformed lcount record %q", payload)
	}

	line, err := strconv.Atoi(fields[0])
	if err != nil {
		return Item{}, fmt.Errorf("lcount line %q: %w", fields[0], err)
	}
	count, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Item{}, fmt.Errorf("lcount count %q: %w", fields[1], err)
	}
	return Item{Kind: ItemLCount, Line: line, Count: count}, nil
}

// parseBranch handles branch:<line>,<notexec|taken|nottaken>, shared by both
// grammar variants.
func parseBranch(payload string) (Item, error) {
	fields := strings.Split(payload, ",")
	if len(fields) != 2 {
		return Item{}, fmt.Errorf("malformed branch record %q", payload)
	}

	line, err := strconv.Atoi(fields[0])
	if err != nil {
		return Item{}, fmt.Errorf("branch line %q: %w", fields[0], err)
	}

	var event BranchEvent
	switch fields[1] {
	case "notexec":
		event = BranchNotExec
	case "taken":
		event = BranchTaken
	case "nottaken":
		event = BranchNotTaken
	default:
		return Item{}, fmt.Errorf("unknown branch event %q", fields[1])
	}
	return Item{Kind: ItemBranch, Line: line, Event: event}, nil
}
