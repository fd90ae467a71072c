package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"ckpthub/pkg/ignore"
	"ckpthub/pkg/logger"
)

// SampleSize is the number of leading bytes kept from every file. The hub
// uses the sample to decide between a regular and an LFS upload.
const SampleSize = 512

// ErrNotDirectory is returned when the checkpoint root is missing or is a file
var ErrNotDirectory = errors.New("checkpoint path is not a directory")

// File is one file of a checkpoint folder
type File struct {
	RelPath string `json:"path"`
	AbsPath string `json:"-"`
	Size    int64  `json:"size"`
	SHA256  string `json:"sha256"`
	Sample  []byte `json:"-"`
}

// Folder is a scanned checkpoint directory
type Folder struct {
	Root  string
	Files []File
}

// TotalSize returns the sum of all file sizes
func (f *Folder) TotalSize() int64 {
	var total int64
	for _, file := range f.Files {
		total += file.Size
	}
	return total
}

// Paths returns the relative paths of all files
func (f *Folder) Paths() []string {
	paths := make([]string, len(f.Files))
	for i, file := range f.Files {
		paths[i] = file.RelPath
	}
	return paths
}

// Scan walks root and collects every regular file the matcher allows,
// sorted by relative path. Symlinks to regular files count as files;
// symlinked directories are not descended into. A nil matcher keeps everything.
func Scan(root string, m *ignore.Matcher) (*Folder, error) {
	return ScanWithLogger(root, m, logger.GetLogger())
}

// ScanWithLogger is Scan with an explicit logger
func ScanWithLogger(root string, m *ignore.Matcher, log logger.Logger) (*Folder, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
		}
		return nil, fmt.Errorf("failed to stat checkpoint folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve checkpoint folder: %w", err)
	}

	if m == nil {
		m = ignore.New(nil, nil)
	}

	folder := &Folder{Root: absRoot}
	skipped := 0

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			// links to regular files are uploaded with the target's content
			target, err := os.Stat(path)
			if err != nil || !target.Mode().IsRegular() {
				log.DebugWithFields("Skipping symlink", map[string]interface{}{
					"path": path,
				})
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !m.Allowed(rel) {
			skipped++
			return nil
		}

		file, err := describe(path, rel)
		if err != nil {
			return err
		}
		folder.Files = append(folder.Files, *file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan checkpoint folder: %w", err)
	}

	sort.Slice(folder.Files, func(i, j int) bool {
		return folder.Files[i].RelPath < folder.Files[j].RelPath
	})

	log.DebugWithFields("Checkpoint folder scanned", map[string]interface{}{
		"root":    absRoot,
		"files":   len(folder.Files),
		"skipped": skipped,
		"bytes":   folder.TotalSize(),
	})

	return folder, nil
}

// describe hashes a file and keeps its leading sample in a single pass
func describe(path, rel string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", rel, err)
	}
	defer f.Close()

	h := sha256.New()
	sample := make([]byte, SampleSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}
	sample = sample[:n]
	h.Write(sample)

	rest, err := io.Copy(h, f)
	if err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", rel, err)
	}

	return &File{
		RelPath: rel,
		AbsPath: path,
		Size:    int64(n) + rest,
		SHA256:  hex.EncodeToString(h.Sum(nil)),
		Sample:  sample,
	}, nil
}
