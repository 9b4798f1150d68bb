package handlers

import (
	"io/fs"
	"net/http"
)

// outfitFS serves regular files only; directories are reported as missing
// so the file server answers 404 instead of listing them.
type outfitFS struct {
	fs http.FileSystem
}

func (o outfitFS) Open(name string) (http.File, error) {
	f, err := o.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

// OutfitFiles serves the posted outfit images stored in dir.
func OutfitFiles(dir string) http.Handler {
	return http.FileServer(outfitFS{fs: http.Dir(dir)})
}
