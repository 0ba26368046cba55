package staging

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"TalkIdeas/internal/domain"
)

// copyPreservingMetadata copies src into dir/name keeping mode and
// modification time. The data lands under a hidden temp name first, so a
// failed copy never leaves a file that looks staged.
func copyPreservingMetadata(src, dir, name string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s is not a regular file", src)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create staging dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".stage_*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	size, err := io.Copy(tmp, in)
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		return 0, err
	}
	if err := os.Chtimes(tmpName, info.ModTime(), info.ModTime()); err != nil {
		return 0, err
	}

	// Link fails when dst exists, unlike Rename which would replace it.
	dst := filepath.Join(dir, name)
	if err := os.Link(tmpName, dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, domain.ErrDuplicateStaging
		}
		return 0, err
	}
	return size, nil
}

// ListStaged returns the staged audio files in dir, sorted by filename.
func ListStaged(dir string, rules Rules) ([]StagedFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read staging dir: %w", err)
	}

	files := make([]StagedFile, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || IsTemp(name) || !rules.HasSupportedExtension(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		files = append(files, StagedFile{
			Path:         filepath.Join(dir, name),
			Filename:     name,
			Size:         info.Size(),
			DiscoveredAt: info.ModTime(),
		})
	}
	// os.ReadDir already sorts by filename.
	return files, nil
}
