package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

type FilePublisher struct {
	fs  afero.Fs
	dir string
}

func NewFilePublisher(fs afero.Fs, dir string) *FilePublisher {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = "."
	}
	return &FilePublisher{fs: fs, dir: dir}
}

func (p *FilePublisher) Dir() string {
	return p.dir
}

func (p *FilePublisher) Publish(ctx context.Context, artifacts []Artifact) error {
	if err := p.fs.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", p.dir, err)
	}

	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.replace(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// replace writes the artifact next to its destination and renames it over the old file.
func (p *FilePublisher) replace(ctx context.Context, a Artifact) error {
	logger := zerolog.Ctx(ctx)
	target := filepath.Join(p.dir, a.Name)

	tmp, err := afero.TempFile(p.fs, p.dir, "."+a.Name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", a.Name, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		if err := p.fs.Remove(tmpName); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("file", tmpName).Msg("failed to remove temp file")
		}
	}

	if _, err := tmp.Write(a.Data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", a.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", a.Name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", a.Name, err)
	}
	if err := p.fs.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions on %s: %w", a.Name, err)
	}
	if err := p.fs.Rename(tmpName, target); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}

	logger.Debug().Str("file", target).Int("bytes", len(a.Data)).Msg("artifact published")
	return nil
}
