package convert

import "fmt"

// DiscoveryError means the input tree could not be walked completely.
// It is fatal to a run.
type DiscoveryError struct {
	Root string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Root, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

func (e *DiscoveryError) Kind() string { return "discovery error" }

// PathError is returned when a source path does not live under the input root.
type PathError struct {
	Source string
	Root   string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s is not under input root %s", e.Source, e.Root)
}

func (e *PathError) Kind() string { return "path error" }

// CodecError wraps a decode or encode failure for one file.
type CodecError struct {
	Op     string // "decode" or "encode"
	Source string
	Err    error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

func (e *CodecError) Kind() string { return "codec error" }

// FilesystemError wraps a directory creation or file write failure.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

func (e *FilesystemError) Kind() string { return "filesystem error" }

// ResourceError is returned when the host is below the configured free
// memory or free disk thresholds.
type ResourceError struct {
	Err error
}

func (e *ResourceError) Error() string { return e.Err.Error() }

func (e *ResourceError) Unwrap() error { return e.Err }

func (e *ResourceError) Kind() string { return "resource error" }
