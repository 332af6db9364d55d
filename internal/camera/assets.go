package camera

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Asset file names inside the face data directory
const (
	DetectorFile = "haarcascade_frontalface_alt.xml"
	ModelFile    = "trainer.yml"
	RegistryFile = "face_list.txt"
)

// Assets locates the files a recognition call depends on
type Assets struct {
	Detector string
	Model    string
	Registry string
}

// AssetsIn returns the standard asset layout under dir
func AssetsIn(dir string) Assets {
	return Assets{
		Detector: filepath.Join(dir, DetectorFile),
		Model:    filepath.Join(dir, ModelFile),
		Registry: filepath.Join(dir, RegistryFile),
	}
}

// Check verifies every asset exists
func (a Assets) Check() error {
	for _, item := range []struct{ kind, path string }{
		{"face detector", a.Detector},
		{"trained model", a.Model},
		{"identity registry", a.Registry},
	} {
		if err := requireFile(item.kind, item.path); err != nil {
			return err
		}
	}
	return nil
}

func requireFile(kind, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s not found: %s", ErrMissingAsset, kind, path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", kind, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory: %s", ErrMissingAsset, kind, path)
	}
	return nil
}
