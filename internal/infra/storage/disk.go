package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	domain "github.com/innerantelope/predictive-maintenance/internal/domain/analyses"
)

const maxNameAttempts = 5

// Disk stores uploads as flat files in a single directory.
type Disk struct {
	dir string
	now func() time.Time
}

// NewDisk prepares dir (created if absent) for uploads.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Disk{dir: dir, now: time.Now}, nil
}

func (d *Disk) Dir() string { return d.dir }

// Save implements domain.FileStore. Names are claimed with O_EXCL, so two
// concurrent uploads never share a file even if their names collide.
func (d *Disk) Save(ctx context.Context, meta domain.UploadMeta, r io.Reader, limit int64) (domain.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoredFile{}, err
	}

	f, name, err := d.create(SafeExt(meta.OriginalName))
	if err != nil {
		return domain.StoredFile{}, err
	}
	p := filepath.Join(d.dir, name)

	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if err == nil && n > limit {
		err = domain.ErrFileTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		// partial files never outlive a failed upload
		_ = os.Remove(p)
		return domain.StoredFile{}, err
	}

	return domain.StoredFile{
		Name:         name,
		Path:         p,
		OriginalName: meta.OriginalName,
		ContentType:  meta.ContentType,
		Size:         n,
	}, nil
}

func (d *Disk) create(ext string) (*os.File, string, error) {
	var lastErr error
	for i := 0; i < maxNameAttempts; i++ {
		name := GenerateName(d.now(), ext)
		f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create upload file: %w", err)
		}
		lastErr = err
	}
	return nil, "", fmt.Errorf("allocate upload filename: %w", lastErr)
}

// Remove deletes a stored file. Missing files are not an error.
func (d *Disk) Remove(ctx context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("invalid upload name %q", name)
	}
	err := os.Remove(filepath.Join(d.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Check verifies that the upload dir accepts new files.
func (d *Disk) Check(ctx context.Context) error {
	f, err := os.CreateTemp(d.dir, ".ready-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
