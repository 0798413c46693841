package intermediate

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/zjy-dev/covlens/internal/logger"
)

// UnitError records the parse failure of one compilation unit. Failed units
// contribute no records; the batch continues.
type UnitError struct {
	Unit int // index into the input unit list
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %d: %v", e.Unit, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// ChunkBounds splits n inputs into at most parallelism contiguous chunks and
// returns the half-open start offsets (len = chunk count + 1). The assembler
// shares the same partitioning for its file fan-out.
func ChunkBounds(n, parallelism int) []int {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > n {
		parallelism = n
	}
	if parallelism < 1 {
		parallelism = 1
	}

	bounds := make([]int, 0, parallelism+1)
	size := n / parallelism
	rest := n % parallelism
	offset := 0
	for i := 0; i < parallelism; i++ {
		bounds = append(bounds, offset)
		offset += size
		if i < rest {
			offset++
		}
	}
	return append(bounds, n)
}

// ParseTextUnits parses textual intermediate units on a pool of workers, one
// contiguous chunk of units per worker. Item order is preserved per chunk,
// which is all reconciliation needs since grouping keys on file markers.
// Units that fail to parse are reported in the returned error list and yield
// no items.
func ParseTextUnits(units []string, major int, mapPath PathMapper, parallelism int) ([]Item, []*UnitError) {
	if len(units) == 0 {
		return nil, nil
	}

	bounds := ChunkBounds(len(units), parallelism)
	chunkItems := make([][]Item, len(bounds)-1)
	chunkErrs := make([][]*UnitError, len(bounds)-1)

	var g errgroup.Group
	for c := 0; c < len(bounds)-1; c++ {
		c := c
		lo, hi := bounds[c], bounds[c+1]
		g.Go(func() error {
			parser := NewTextParser(major, mapPath)
			for u := lo; u < hi; u++ {
				items, err := parser.Parse(units[u])
				if err != nil {
					chunkErrs[c] = append(chunkErrs[c], &UnitError{Unit: u, Err: err})
					continue
				}
				chunkItems[c] = append(chunkItems[c], items...)
			}
			return nil
		})
	}
	// Workers never return errors; failures are collected per unit.
	_ = g.Wait()

	var items []Item
	var errs []*UnitError
	for c := range chunkItems {
		items = append(items, chunkItems[c]...)
		errs = append(errs, chunkErrs[c]...)
	}
	for _, err := range errs {
		logger.Warnf("intermediate: %v", err)
	}
	return items, errs
}

// DecodeJSONUnits decodes JSON documents on a pool of workers, mirroring the
// chunking of ParseTextUnits. Document order matches the input order; failed
// units are reported and skipped.
func DecodeJSONUnits(units [][]byte, parallelism int) ([]*JSONDoc, []*UnitError) {
	if len(units) == 0 {
		return nil, nil
	}

	docs := make([]*JSONDoc, len(units))
	bounds := ChunkBounds(len(units), parallelism)
	chunkErrs := make([][]*UnitError, len(bounds)-1)

	var g errgroup.Group
	for c := 0; c < len(bounds)-1; c++ {
		c := c
		lo, hi := bounds[c], bounds[c+1]
		g.Go(func() error {
			for u := lo; u < hi; u++ {
				doc, err := DecodeJSONUnit(units[u])
				if err != nil {
					chunkErrs[c] = append(chunkErrs[c], &UnitError{Unit: u, Err: err})
					continue
				}
				docs[u] = doc
			}
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]*JSONDoc, 0, len(docs))
	for _, doc := range docs {
		if doc != nil {
			kept = append(kept, doc)
		}
	}
	var errs []*UnitError
	for _, ce := range chunkErrs {
		errs = append(errs, ce...)
	}
	for _, err := range errs {
		logger.Warnf("intermediate: %v", err)
	}
	return kept, errs
}
