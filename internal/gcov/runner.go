// Package gcov drives the gcov executable and collects its intermediate
// output, one raw payload per data file.
package gcov

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjy-dev/covlens/internal/exec"
	"github.com/zjy-dev/covlens/internal/logger"
)

// jsonFormatCutoff is the first gcov major version emitting the JSON
// intermediate format.
const jsonFormatCutoff = 9

// ErrToolFailed reports a non-zero gcov exit. The whole run fails; no
// partial coverage model is produced from the units read so far.
var ErrToolFailed = errors.New("gcov exited with non-zero status")

// Runner invokes gcov over .gcda data files.
type Runner struct {
	executor exec.Executor
	gcovPath string
	major    int
}

// NewRunner creates a runner for the given gcov executable and major
// version. The version selects both the invocation mode and, downstream,
// the textual grammar variant.
func NewRunner(executor exec.Executor, gcovPath string, major int) *Runner {
	return &Runner{executor: executor, gcovPath: gcovPath, major: major}
}

// JSONFormat reports whether the runner produces JSON units rather than
// textual intermediate units.
func (r *Runner) JSONFormat() bool {
	return r.major >= jsonFormatCutoff
}

// Run processes the data files and returns their raw unit payloads in input
// order, normally one per file. Transient .gcov artifacts are removed before
// returning. A non-zero exit from any invocation fails the whole run.
func (r *Runner) Run(workDir string, dataFiles []string) ([][]byte, error) {
	units := make([][]byte, 0, len(dataFiles))
	for _, dataFile := range dataFiles {
		produced, err := r.runOne(workDir, dataFile)
		if err != nil {
			return nil, err
		}
		units = append(units, produced...)
	}
	return units, nil
}

func (r *Runner) runOne(workDir, dataFile string) ([][]byte, error) {
	args := []string{"--branch-probabilities", "--branch-counts"}
	if r.JSONFormat() {
		args = append(args, "--json-format", "--stdout")
	} else {
		args = append(args, "--intermediate-format")
	}
	args = append(args, dataFile)

	logger.Debugf("gcov: running %s %s", r.gcovPath, strings.Join(args, " "))
	result, err := r.executor.Run(workDir, r.gcovPath, args...)
	if err != nil {
		return nil, fmt.Errorf("invoking gcov on %s: %w", dataFile, err)
	}
	if result.ExitCode != 0 {
		return nil, fmt.Errorf("%w (exit %d) on %s: %s",
			ErrToolFailed, result.ExitCode, dataFile, strings.TrimSpace(result.Stderr))
	}

	if r.JSONFormat() {
		if result.Stdout != "" {
			return [][]byte{[]byte(result.Stdout)}, nil
		}
		// Some gcov builds ignore --stdout and write .gcov.json.gz
		// artifacts instead, one document per artifact.
		return collectJSONArtifacts(workDir)
	}
	unit, err := collectTextArtifacts(workDir)
	if err != nil {
		return nil, err
	}
	return [][]byte{unit}, nil
}

// collectJSONArtifacts gathers gzipped JSON artifacts, one unit each,
// decompresses and removes them.
func collectJSONArtifacts(workDir string) ([][]byte, error) {
	matches, err := filepath.Glob(filepath.Join(workDir, "*.gcov.json.gz"))
	if err != nil {
		return nil, fmt.Errorf("globbing gcov json artifacts: %w", err)
	}

	var units [][]byte
	for _, artifact := range matches {
		content, err := readGzip(artifact)
		if err != nil {
			return nil, err
		}
		units = append(units, content)
		if err := os.Remove(artifact); err != nil {
			logger.Warnf("gcov: could not remove artifact %s: %v", artifact, err)
		}
	}
	return units, nil
}

func readGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening gcov json artifact %s: %w", path, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decompressing gcov json artifact %s: %w", path, err)
	}
	defer zr.Close()

	content, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("reading gcov json artifact %s: %w", path, err)
	}
	return content, nil
}

// collectTextArtifacts gathers the .gcov files one invocation wrote into the
// working directory, concatenates them into a single unit payload and
// removes them. Record grouping inside the payload is preserved; the parser
// keys on file markers, not artifact boundaries.
func collectTextArtifacts(workDir string) ([]byte, error) {
	matches, err := filepath.Glob(filepath.Join(workDir, "*.gcov"))
	if err != nil {
		return nil, fmt.Errorf("globbing gcov artifacts: %w", err)
	}

	var unit strings.Builder
	for _, artifact := range matches {
		content, err := os.ReadFile(artifact)
		if err != nil {
			return nil, fmt.Errorf("reading gcov artifact %s: %w", artifact, err)
		}
		unit.Write(content)
		if len(content) > 0 && content[len(content)-1] != '\n' {
			unit.WriteByte('\n')
		}
		if err := os.Remove(artifact); err != nil {
			logger.Warnf("gcov: could not remove artifact %s: %v", artifact, err)
		}
	}
	return []byte(unit.String()), nil
}

// FindDataFiles walks root and returns all .gcda files, sorted by path.
func FindDataFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && filepath.Ext(path) == ".gcda" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s for data files: %w", root, err)
	}
	return files, nil
}
