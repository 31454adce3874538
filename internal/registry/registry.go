// Package registry discovers completed test-case result directories under a
// test root and filters them by name pattern, exclusion list and test id.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"simbless/internal/caseid"
)

// ErrNoTestRoot is returned when the test root does not exist.
var ErrNoTestRoot = errors.New("test root not found")

// ErrNoCases is returned when the test root holds no case result directories.
var ErrNoCases = errors.New("no case results under test root")

// TestCase is one discovered candidate result.
type TestCase struct {
	ID  caseid.ID
	Dir string // Absolute-ish path to the result directory
}

// List enumerates candidate cases under testRoot, sorted by full case name.
//
// A directory is a candidate if its name parses as a case id. When testID is
// non-empty only cases carrying that id qualify. Non-empty include patterns
// restrict to cases whose full name matches at least one pattern; exclude
// patterns remove matches afterwards, so exclusion always wins. Patterns are
// regular expressions.
//
// List never mutates case data. The returned slice is a fresh snapshot on
// every call.
func List(testRoot, testID string, include, exclude []string) ([]TestCase, error) {
	incRes, err := compilePatterns(include)
	if err != nil {
		return nil, err
	}
	excRes, err := compilePatterns(exclude)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(testRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoTestRoot, testRoot)
		}
		return nil, fmt.Errorf("reading test root: %w", err)
	}

	var candidates []TestCase
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := caseid.Parse(entry.Name())
		if err != nil {
			continue // Not a case result directory
		}
		candidates = append(candidates, TestCase{
			ID:  id,
			Dir: filepath.Join(testRoot, entry.Name()),
		})
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCases, testRoot)
	}

	var cases []TestCase
	for _, tc := range candidates {
		if testID != "" && tc.ID.TestID != testID {
			continue
		}
		if len(incRes) > 0 && !matchesAny(incRes, tc.ID.Full()) {
			continue
		}
		if matchesAny(excRes, tc.ID.Full()) {
			continue
		}
		cases = append(cases, tc)
	}

	sort.Slice(cases, func(i, j int) bool {
		return cases[i].ID.Full() < cases[j].ID.Full()
	})

	return cases, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("bad case pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

func matchesAny(res []*regexp.Regexp, name string) bool {
	for _, re := range res {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
