package convert

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover walks inputRoot and returns every file whose extension equals
// SourceExt, ignoring case. The result is fully materialized and sorted so
// queued tasks start in a deterministic order. Any walk failure aborts the
// whole scan with a *DiscoveryError; an empty result is not an error.
func Discover(inputRoot string) ([]string, error) {
	info, err := os.Stat(inputRoot)
	if err != nil {
		return nil, &DiscoveryError{Root: inputRoot, Err: err}
	}
	if !info.IsDir() {
		return nil, &DiscoveryError{Root: inputRoot, Err: fmt.Errorf("not a directory")}
	}

	var files []string
	err = filepath.WalkDir(inputRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &DiscoveryError{Root: inputRoot, Err: err}
	}
	sort.Strings(files)
	return files, nil
}
