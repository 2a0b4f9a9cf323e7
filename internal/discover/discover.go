// Package discover enumerates candidate log files under an archive root,
// selecting them by suffix and by time-prefix filters.
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// Accept decides whether a candidate path is selected for the given
// time-prefix filters. Implementations must be safe for concurrent use.
type Accept func(path string, prefixes []string) bool

// Substring selects paths containing any of the prefixes anywhere in the
// full path. Used for the aggregated log population.
func Substring(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

// NativeTimestamp selects native log filenames, which are shaped
// <id>_<id>_<timestamp>_<seq>.gz: the filename is split on '_' and the
// third field is tested against each prefix.
func NativeTimestamp(path string, prefixes []string) bool {
	parts := strings.Split(filepath.Base(path), "_")
	if len(parts) < 3 {
		return false
	}
	for _, p := range prefixes {
		if strings.HasPrefix(parts[2], p) {
			return true
		}
	}
	return false
}

// Find walks root and returns, in sorted order, every file ending with
// suffix that accept selects for the given prefixes. An empty prefix set
// selects every matching file.
func Find(root, suffix string, prefixes []string, accept Accept) ([]string, error) {
	var (
		mu    sync.Mutex
		files []string
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, suffix) {
			return nil
		}
		if len(prefixes) > 0 && !accept(path, prefixes) {
			return nil
		}
		mu.Lock()
		files = append(files, path)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
