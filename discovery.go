package replate

import (
	"io/fs"
	"path/filepath"
)

// templateExtensions are the file extensions picked up by ParseDir
var templateExtensions = map[string]bool{
	".html":    true,
	".tmpl":    true,
	".replate": true,
}

// discoverTemplateFiles walks fsys and returns the paths of template files
func discoverTemplateFiles(fsys fs.FS) ([]string, error) {
	var files []string

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() && templateExtensions[filepath.Ext(path)] {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
