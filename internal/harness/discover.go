package harness

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// NoScenariosError is returned when a directory holds no matching scenario
// files.
type NoScenariosError struct {
	Dir    string
	Filter string
}

// Error implements the error interface.
func (e *NoScenariosError) Error() string {
	if e.Filter != "" {
		return fmt.Sprintf("no scenario files matching %q in %s", e.Filter, e.Dir)
	}
	return fmt.Sprintf("no scenario files in %s", e.Dir)
}

// DiscoverScenarios lists the .yaml and .yml files directly in dir, sorted
// by name. A non-empty filter is a glob matched against the file name
// without its extension.
func DiscoverScenarios(fsys afero.Fs, dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
		}
	}

	infos, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}

	var paths []string
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		name := info.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(name, ext)); !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, name))
	}

	if len(paths) == 0 {
		return nil, &NoScenariosError{Dir: dir, Filter: filter}
	}
	slices.Sort(paths)
	return paths, nil
}
