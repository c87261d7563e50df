package publish

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ferrors "git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
)

// ImageKind is the image type declared to the destination.
type ImageKind string

const (
	KindPNG  ImageKind = "png"
	KindJPEG ImageKind = "jpeg"
)

// AssetImage is an image file uploaded alongside the stylesheet.
type AssetImage struct {
	// Name is the file's base name without extension; stylesheets refer to
	// uploaded images by this name.
	Name     string
	FilePath string
	Kind     ImageKind
}

// Classify returns KindPNG when the extension is exactly "png" and KindJPEG
// for everything else, including files with no extension.
func Classify(fileName string) ImageKind {
	if strings.TrimPrefix(extension(fileName), ".") == "png" {
		return KindPNG
	}
	return KindJPEG
}

// DiscoverAssets lists the regular files directly inside dir, sorted by file
// name. Subdirectories are not descended into. A missing directory, or an
// empty dir argument, yields no assets.
func DiscoverAssets(dir string) ([]AssetImage, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, ferrors.FileSystemError("failed to read asset directory").
			WithCause(err).
			WithContext("path", dir).
			Build()
	}

	assets := make([]AssetImage, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		assets = append(assets, AssetImage{
			Name:     strings.TrimSuffix(name, extension(name)),
			FilePath: filepath.Join(dir, name),
			Kind:     Classify(name),
		})
	}
	sort.Slice(assets, func(i, j int) bool {
		return filepath.Base(assets[i].FilePath) < filepath.Base(assets[j].FilePath)
	})
	return assets, nil
}

// extension is filepath.Ext except that a leading dot does not start an
// extension: ".gitkeep" has none, ".logo.png" has ".png".
func extension(name string) string {
	base := filepath.Base(name)
	if strings.LastIndex(base, ".") <= 0 {
		return ""
	}
	return filepath.Ext(base)
}
