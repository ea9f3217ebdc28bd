// site/write.go
package site

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrUnsafeDestination is returned when cleaning the destination would
// remove the source.
var ErrUnsafeDestination = errors.New("destination would overwrite the source")

// Write replaces the destination with the rendered pages, the static files
// and the assets directory.
func (s *Site) Write(ctx context.Context) error {
	dest := s.Settings.Destination
	if err := s.cleanDestination(); err != nil {
		return err
	}

	for _, p := range s.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dest, filepath.FromSlash(p.OutPath)), strings.NewReader(p.Output)); err != nil {
			return s.errorf("write %s: %w", p.OutPath, err)
		}
	}

	for _, p := range s.Static {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.copyFile(p, dest); err != nil {
			return err
		}
	}

	assets := cleanDir(s.Settings.AssetsDir)
	copied := 0
	err := s.walk(ctx, assets, func(p string, d fs.DirEntry) error {
		if d.IsDir() || skipName(d.Name()) {
			return nil
		}
		copied++
		return s.copyFile(p, dest)
	})
	if err != nil {
		return err
	}

	s.Logger.Debug("site written",
		zap.String("destination", dest),
		zap.Int("pages", len(s.Pages)),
		zap.Int("static", len(s.Static)),
		zap.Int("assets", copied))
	return nil
}

func (s *Site) cleanDestination() error {
	src, err := filepath.Abs(s.Settings.Source)
	if err != nil {
		return s.errorf("source: %w", err)
	}
	dst, err := filepath.Abs(s.Settings.Destination)
	if err != nil {
		return s.errorf("destination: %w", err)
	}
	if dst == src || strings.HasPrefix(src, dst+string(filepath.Separator)) {
		return s.errorf("%w: %s", ErrUnsafeDestination, s.Settings.Destination)
	}
	if err := os.RemoveAll(dst); err != nil {
		return s.errorf("clean destination: %w", err)
	}
	return os.MkdirAll(dst, 0o755)
}

// copyFile copies the source file p to the same relative path under dest.
func (s *Site) copyFile(p, dest string) error {
	f, err := s.fsys.Open(p)
	if err != nil {
		return s.errorf("copy %s: %w", p, err)
	}
	defer f.Close()
	if err := writeFile(filepath.Join(dest, filepath.FromSlash(p)), f); err != nil {
		return s.errorf("copy %s: %w", p, err)
	}
	return nil
}

func writeFile(name string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
