package archive

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
)

// Extract writes the regular files of an archive under dest and returns
// their paths, sorted.
//
// When every entry sits below one common top-level directory that
// directory is dropped, so documents end up directly in dest. Absolute
// names and names that climb out of dest are rejected before anything is
// written.
func Extract(data []byte, kind Kind, dest string) ([]string, error) {
	var names []string
	if err := Iterate(data, kind, func(e Entry, _ io.Reader) (bool, error) {
		name, err := cleanName(e.Name)
		if err != nil {
			return true, err
		}
		names = append(names, name)
		return false, nil
	}); err != nil {
		return nil, err
	}
	root := commonRoot(names)

	if err := os.MkdirAll(dest, 0755); err != nil {
		return nil, errors.NewIO("create", dest, err)
	}

	var written []string
	err := Iterate(data, kind, func(e Entry, r io.Reader) (bool, error) {
		name, err := cleanName(e.Name)
		if err != nil {
			return true, err
		}
		name = strings.TrimPrefix(name, root)
		if name == "" {
			return false, nil
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return true, errors.NewIO("create", filepath.Dir(target), err)
		}
		f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return true, errors.NewIO("create", target, err)
		}
		_, err = io.Copy(f, r)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return true, errors.NewIO("write", target, err)
		}
		written = append(written, target)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(written)
	return written, nil
}

// cleanName normalizes an entry name to a relative slash path.
func cleanName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) || hasVolume(name) {
		return "", &errors.ValidationError{Field: "archive entry", Value: name, Message: "absolute path " + name}
	}
	clean := path.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", &errors.ValidationError{Field: "archive entry", Value: name, Message: "path escapes destination: " + name}
	}
	if clean == "." {
		return "", nil
	}
	return clean, nil
}

func hasVolume(name string) bool {
	return len(name) >= 2 && name[1] == ':'
}

// commonRoot returns "dir/" when every name is below the same top-level
// directory, else "".
func commonRoot(names []string) string {
	var root string
	for _, n := range names {
		i := strings.Index(n, "/")
		if i < 0 {
			return ""
		}
		if root == "" {
			root = n[:i+1]
		} else if n[:i+1] != root {
			return ""
		}
	}
	return root
}
