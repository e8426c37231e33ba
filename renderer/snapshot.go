package renderer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// SnapshotPath names a snapshot file in dir after t.
func SnapshotPath(dir string, t time.Time) string {
	return filepath.Join(dir, "gobulge-"+t.Format("20060102-150405.000")+".png")
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return f.Close()
}
