// scanner.go - pluggable enumeration of recording files
package diskmanager

// FileScanner enumerates recording files with parsed camera and timestamp
// metadata. The retention policies only see this interface, so the default
// filesystem walk can be swapped for a recording-index backed implementation.
type FileScanner interface {
	ScanFiles(baseDir string, allowedExts []string, db Interface, debug bool) ([]FileInfo, error)
}

// walkScanner is the default FileScanner, backed by filepath.Walk.
type walkScanner struct{}

func (walkScanner) ScanFiles(baseDir string, allowedExts []string, db Interface, debug bool) ([]FileInfo, error) {
	return GetVideoFiles(baseDir, allowedExts, db, debug)
}

// scanner is the scanner used by the cleanup policies in this package.
var scanner FileScanner = walkScanner{}

// SetFileScanner replaces the scanner used by the cleanup policies. Passing
// nil restores the filesystem walk default.
func SetFileScanner(s FileScanner) {
	if s == nil {
		s = walkScanner{}
	}
	scanner = s
}
