package tolerance

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		in   string
		want Rule
	}{
		{"FLNT abs 1e-9", Rule{Pattern: "FLNT", Kind: Abs, Threshold: 1e-9}},
		{"T* rel 1e-12", Rule{Pattern: "T*", Kind: Rel, Threshold: 1e-12}},
		{"* abs 0", Rule{Pattern: "*", Kind: Abs, Threshold: 0}},
	}

	for _, tt := range tests {
		got, err := ParseRule(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseRuleErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"FLNT abs",
		"FLNT near 1e-9",
		"FLNT abs notanumber",
		"FLNT abs -1",
	} {
		_, err := ParseRule(in)
		assert.Error(t, err, "expected error for %q", in)
	}
}

func TestParseRulesSkipsCommentsAndBlanks(t *testing.T) {
	rs, err := ParseRules([]string{
		"# per-field bands",
		"",
		"TS rel 1e-10",
		"  FLNT abs 1e-6  ",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Len())
}

func TestCheck(t *testing.T) {
	rs, err := ParseRules([]string{
		"TS rel 1e-10",
		"F* abs 1e-6",
	})
	require.NoError(t, err)

	tests := []struct {
		name       string
		field      string
		absDev     float64
		relDev     float64
		wantMag    float64
		wantWithin bool
	}{
		{"rel rule within", "TS", 5.0, 1e-11, 1e-11, true},
		{"rel rule breached", "TS", 0.1, 1e-9, 1e-9, false},
		{"glob abs rule within", "FLNT", 1e-7, 0.5, 1e-7, true},
		{"glob abs rule breached", "FSNS", 1e-3, 0.0, 1e-3, false},
		{"no rule demands exact equality", "PRECT", 1e-16, 1e-16, 1e-16, false},
		{"no rule identical passes", "PRECT", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mag, within := rs.Check(tt.field, tt.absDev, tt.relDev)
			assert.Equal(t, tt.wantMag, mag)
			assert.Equal(t, tt.wantWithin, within)
		})
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	rs, err := ParseRules([]string{
		"TS abs 0",
		"T* abs 100",
	})
	require.NoError(t, err)

	_, within := rs.Check("TS", 1, 1)
	assert.False(t, within, "specific zero-tolerance rule should win over the glob")

	_, within = rs.Check("TREFHT", 1, 1)
	assert.True(t, within)
}

// Property: patterns without * only match exact strings, and "prefix*"
// matches exactly the strings starting with that prefix.
func TestGlobProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	genName := gen.RegexMatch("[A-Z]{1,8}")

	properties.Property("no wildcard means exact match", prop.ForAll(
		func(pattern, value string) bool {
			return MatchGlob(pattern, value) == (pattern == value)
		},
		genName, genName,
	))

	properties.Property("prefix* matches prefixed strings", prop.ForAll(
		func(prefix, suffix string) bool {
			return MatchGlob(prefix+"*", prefix+suffix)
		},
		genName, genName,
	))

	properties.Property("prefix* rejects other prefixes", prop.ForAll(
		func(prefix, value string) bool {
			if strings.HasPrefix(value, prefix) {
				return true
			}
			return !MatchGlob(prefix+"*", value)
		},
		genName, genName,
	))

	properties.TestingRun(t)
}
