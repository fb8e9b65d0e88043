package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FaultyFS is a FileSystem wrapper that fails writes to matching files.
type FaultyFS struct {
	FS  FileSystem
	Err error

	mu    sync.Mutex
	rules []string // base-name substrings whose writes fail
	hits  int
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{
		FS:  fsys,
		Err: fmt.Errorf("injected fault error"),
	}
}

// FailWrites makes every write-mode open and rename whose target base name
// contains pattern fail with f.Err.
func (f *FaultyFS) FailWrites(pattern string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, pattern)
}

// Hits returns how many operations were failed.
func (f *FaultyFS) Hits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

func (f *FaultyFS) match(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	base := filepath.Base(name)
	for _, rule := range f.rules {
		if strings.Contains(base, rule) {
			f.hits++
			return true
		}
	}
	return false
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 && f.match(name) {
		return nil, f.Err
	}
	return f.FS.OpenFile(name, flag, perm)
}

func (f *FaultyFS) Rename(oldpath, newpath string) error {
	if f.match(newpath) {
		return f.Err
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultyFS) Remove(name string) error              { return f.FS.Remove(name) }
func (f *FaultyFS) Stat(name string) (os.FileInfo, error) { return f.FS.Stat(name) }
func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}
func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) { return f.FS.ReadDir(name) }
