package services

import (
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

const (
	MaxUploadSize  = 5 << 20
	MediaURLPrefix = "/media/"

	MediaAreaBlog           = "blog"
	MediaAreaAuthentication = "authentication"
)

var ErrUploadTooLarge = fmt.Errorf("upload exceeds %d bytes", MaxUploadSize)

// Upload is an uploaded file read fully into memory.
type Upload struct {
	Filename string
	Data     []byte
}

func UploadFromFileHeader(fh *multipart.FileHeader) (*Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return ReadUpload(fh.Filename, f)
}

func ReadUpload(filename string, r io.Reader) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, ErrUploadTooLarge
	}
	return &Upload{Filename: filename, Data: data}, nil
}

// MediaStore keeps uploaded images under root as
// <area>/<prefix>_<id>.<ext>, relative paths being what rows store.
type MediaStore struct {
	root string
}

func NewMediaStore(root string) *MediaStore {
	return &MediaStore{root: root}
}

func (m *MediaStore) Root() string {
	return m.root
}

// ValidateImage returns a message suitable for a form field, or "".
func (m *MediaStore) ValidateImage(up *Upload) string {
	if up == nil || len(up.Data) == 0 {
		return "The submitted file is empty."
	}
	if len(up.Data) > MaxUploadSize {
		return "The submitted file is too large."
	}
	mtype := mimetype.Detect(up.Data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	}
	return ""
}

func (m *MediaStore) extension(up *Upload) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(up.Filename), "."))
	if ext == "" {
		ext = strings.TrimPrefix(mimetype.Detect(up.Data).Extension(), ".")
	}
	return ext
}

// Save writes the upload and returns its relative path.
func (m *MediaStore) Save(area, prefix string, id uint, up *Upload) (string, error) {
	if msg := m.ValidateImage(up); msg != "" {
		return "", fmt.Errorf("save media: %s", msg)
	}
	rel := path.Join(area, fmt.Sprintf("%s_%d.%s", prefix, id, m.extension(up)))
	full := filepath.Join(m.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, up.Data, 0o644); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored file; a missing file is not an error.
func (m *MediaStore) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	full := filepath.Join(m.root, filepath.FromSlash(path.Clean("/" + rel)))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (m *MediaStore) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return MediaURLPrefix + rel
}

func (m *MediaStore) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(m.root, filepath.FromSlash(rel)))
	return err == nil
}

// SweepOrphans deletes stored files no row refers to any more and returns
// how many were removed. Files modified after cutoff are left alone, since
// an upload is written before its row points at it.
func (m *MediaStore) SweepOrphans(referenced []string, cutoff time.Time) (int, error) {
	keep := make(map[string]struct{}, len(referenced))
	for _, rel := range referenced {
		keep[path.Clean(rel)] = struct{}{}
	}

	removed := 0
	err := filepath.WalkDir(m.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(m.root, p)
		if err != nil {
			return err
		}
		if _, ok := keep[filepath.ToSlash(rel)]; ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(p); err != nil {
			log.Warn().Err(err).Str("file", rel).Msg("failed to remove orphaned media")
			return nil
		}
		removed++
		return nil
	})
	return removed, err
}
