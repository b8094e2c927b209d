package trajectory

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
)

// DatasetFile is the fixed relative path of the aggregated dataset within
// a built output root.
const DatasetFile = "trajectories.json"

// Load reads and decodes the aggregated dataset from disk. The dataset is
// read exactly once per session; any failure here is terminal for the
// caller, which should surface the error rather than render partially.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// LoadFS reads the dataset from an fs.FS, for embedded or test filesystems.
func LoadFS(fsys fs.FS, name string) (*Dataset, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// Decode decodes a dataset document from r.
func Decode(r io.Reader) (*Dataset, error) {
	ds := &Dataset{}
	if err := json.NewDecoder(r).Decode(ds); err != nil {
		return nil, fmt.Errorf("parsing dataset: %w", err)
	}
	return ds, nil
}

// Users returns the distinct task users, case-sensitive, sorted
// lexicographically. Tasks without a user contribute the UnknownUser
// sentinel.
func (d *Dataset) Users() []string {
	seen := make(map[string]bool, len(d.Tasks))
	users := make([]string, 0, len(d.Tasks))
	for i := range d.Tasks {
		owner := d.Tasks[i].Owner()
		if seen[owner] {
			continue
		}
		seen[owner] = true
		users = append(users, owner)
	}
	sort.Strings(users)
	return users
}

// TaskBySlug returns the task with the given slug, or nil.
func (d *Dataset) TaskBySlug(slug string) *Task {
	for i := range d.Tasks {
		if d.Tasks[i].Slug == slug {
			return &d.Tasks[i]
		}
	}
	return nil
}
