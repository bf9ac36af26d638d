package scanner

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/amosWeiskopf/freshsmith/pkg/utils"
)

// Walker yields candidate page files under a root directory
type Walker interface {
	Walk(root string) ([]string, error)
}

// FSWalker walks the local file system for .html files
type FSWalker struct{}

// Walk returns every .html file below root in lexical order
func (FSWalker) Walk(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error accessing path '%s' during walk: %w", p, err)
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".html") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// URLPath maps a built file to the URL it is served at: index.html maps to
// its directory with a trailing slash, other files lose the .html suffix.
func URLPath(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("relative path for %s: %w", file, err)
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside %s", file, root)
	}

	if strings.EqualFold(path.Base(rel), "index.html") {
		dir := path.Dir(rel)
		if dir == "." {
			return "/", nil
		}
		return "/" + dir + "/", nil
	}

	if ext := path.Ext(rel); strings.EqualFold(ext, ".html") {
		rel = rel[:len(rel)-len(ext)]
	}
	return "/" + rel, nil
}

// Included reports whether a URL path is an article page: below a content
// prefix without being the prefix itself, and not below an ignored prefix.
func Included(urlPath string, contentPrefixes, ignorePrefixes []string) bool {
	matched := false
	for _, p := range contentPrefixes {
		if strings.HasPrefix(urlPath, p) && urlPath != p {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	return !utils.HasAnyPrefix(urlPath, ignorePrefixes)
}
