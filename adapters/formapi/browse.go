package formapi

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-certgen/certgen"
)

const (
	browseFiles = "file"
	browseDirs  = "dir"
)

// listDirectory lists dir for a picker. Directories are always listed;
// files only in file mode, filtered by ext when set. Hidden entries are
// skipped. A file path lists its parent directory.
func listDirectory(dir, mode, ext string) (BrowseResponse, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return BrowseResponse{}, certgen.NewError(certgen.KindValidation, fmt.Sprintf("invalid path %q", dir), err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return BrowseResponse{}, certgen.NewError(certgen.KindNotFound, fmt.Sprintf("path %q not found", abs), err)
		}
		return BrowseResponse{}, certgen.NewError(certgen.KindStorage, fmt.Sprintf("stat %q", abs), err)
	}
	if !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return BrowseResponse{}, certgen.NewError(certgen.KindStorage, fmt.Sprintf("read directory %q", abs), err)
	}

	ext = normalizeExt(ext)
	out := BrowseResponse{Path: abs, Entries: make([]BrowseEntry, 0, len(entries))}
	if parent := filepath.Dir(abs); parent != abs {
		out.Parent = parent
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		isDir := entry.IsDir()
		if !isDir && entry.Type()&fs.ModeSymlink != 0 {
			if target, err := os.Stat(filepath.Join(abs, name)); err == nil {
				isDir = target.IsDir()
			}
		}
		if !isDir {
			if mode != browseFiles {
				continue
			}
			if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
				continue
			}
		}
		out.Entries = append(out.Entries, BrowseEntry{Name: name, Path: filepath.Join(abs, name), Dir: isDir})
	}

	sort.SliceStable(out.Entries, func(i, j int) bool {
		if out.Entries[i].Dir != out.Entries[j].Dir {
			return out.Entries[i].Dir
		}
		return strings.ToLower(out.Entries[i].Name) < strings.ToLower(out.Entries[j].Name)
	})
	return out, nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
