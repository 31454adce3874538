package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// FileName is the snapshot file inside a case or baseline directory.
const FileName = "output_snapshot.json"

// ErrNoSnapshot is returned when a directory holds no output snapshot.
var ErrNoSnapshot = errors.New("output snapshot not found")

// ErrCorrupt is returned when a snapshot's recorded hash does not match its
// field data, or the file cannot be parsed.
var ErrCorrupt = errors.New("output snapshot corrupt")

// Load reads and verifies the snapshot recorded in dir.
// A missing file returns ErrNoSnapshot; unparsable data or a hash mismatch
// returns ErrCorrupt.
func Load(dir string) (OutputSnapshot, error) {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return OutputSnapshot{}, fmt.Errorf("%w: %s", ErrNoSnapshot, dir)
		}
		return OutputSnapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap OutputSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return OutputSnapshot{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}

	if snap.Hash != "" && snap.Hash != ComputeHash(snap.Fields) {
		return OutputSnapshot{}, fmt.Errorf("%w: %s: hash mismatch", ErrCorrupt, path)
	}

	return snap, nil
}

// Save writes a snapshot into dir, recording the content hash.
func Save(dir string, fields map[string][]float64) error {
	snap := OutputSnapshot{
		Fields: fields,
		Hash:   ComputeHash(fields),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// ComputeHash hashes field data in canonical form: keys sorted, values
// rendered with strconv's shortest round-trip formatting. Two snapshots with
// equal hashes are bit-for-bit identical.
func ComputeHash(fields map[string][]float64) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		for _, v := range fields[name] {
			h.Write([]byte(strconv.FormatFloat(v, 'g', -1, 64)))
			h.Write([]byte{','})
		}
		h.Write([]byte{'\n'})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}
