package convert

import (
	"path/filepath"
	"strings"
)

const (
	// SourceExt is matched case-insensitively during discovery.
	SourceExt = ".heic"
	// TargetExt replaces the source extension on every output path.
	TargetExt = ".jpg"
)

// MapPath returns the destination for src: the path of src relative to
// inputRoot, re-rooted under outputRoot, with the extension replaced by
// TargetExt. It has no side effects.
//
//	MapPath("/in/2023/a.HEIC", "/in", "/out") == "/out/2023/a.jpg"
func MapPath(src, inputRoot, outputRoot string) (string, error) {
	rel, err := filepath.Rel(inputRoot, src)
	if err != nil || !isLocal(rel) {
		return "", &PathError{Source: src, Root: inputRoot}
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + TargetExt
	return filepath.Join(outputRoot, rel), nil
}

// isLocal reports whether rel names something strictly below its base.
func isLocal(rel string) bool {
	if rel == "." || rel == ".." || filepath.IsAbs(rel) {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
