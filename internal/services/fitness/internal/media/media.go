package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gunheehan/FitnessPT-api/internal/pkg/serr"
)

var extensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
}

// Store validates uploaded images and keeps them on the local filesystem.
type Store struct {
	root      string
	serveRoot string
	maxWidth  int
	maxHeight int
}

type Config struct {
	Root      string
	ServeRoot string
	MaxWidth  int
	MaxHeight int
}

func NewStore(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}

	serveRoot := cfg.ServeRoot
	if !strings.HasSuffix(serveRoot, "/") {
		serveRoot += "/"
	}

	return &Store{
		root:      cfg.Root,
		serveRoot: serveRoot,
		maxWidth:  cfg.MaxWidth,
		maxHeight: cfg.MaxHeight,
	}, nil
}

// Root is the directory files are written to.
func (s *Store) Root() string {
	return s.root
}

// Upload validates and saves the image, returning the URL it is served from.
// The size limit is enforced by the caller wrapping img in http.MaxBytesReader.
func (s *Store) Upload(img io.Reader) (string, error) {
	var buff bytes.Buffer
	tee := io.TeeReader(img, &buff)

	cfg, format, err := image.DecodeConfig(tee)
	if err != nil {
		if tooLarge(err) {
			return "", serr.NewServiceError(err, http.StatusRequestEntityTooLarge, "image size exceeded")
		}
		return "", serr.NewServiceError(err, http.StatusBadRequest, "unsupported image format")
	}

	ext, ok := extensions[format]
	if !ok {
		return "", serr.NewServiceError(nil, http.StatusBadRequest, "unsupported image format").With("format", format)
	}
	if cfg.Width > s.maxWidth || cfg.Height > s.maxHeight {
		return "", serr.NewServiceError(nil, http.StatusBadRequest, "image dimensions exceeded").
			With("width", cfg.Width).
			With("height", cfg.Height)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.root, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.MultiReader(&buff, img)); err != nil {
		_ = os.Remove(path)
		if tooLarge(err) {
			return "", serr.NewServiceError(err, http.StatusRequestEntityTooLarge, "image size exceeded")
		}
		return "", fmt.Errorf("save media file: %w", err)
	}

	slog.Info("media uploaded", "file", name, "format", format, "width", cfg.Width, "height", cfg.Height)
	return s.serveRoot + name, nil
}

func tooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
