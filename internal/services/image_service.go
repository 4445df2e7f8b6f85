package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docentlabs/go-docent-backend/internal/domain"
	"github.com/docentlabs/go-docent-backend/internal/repo"
)

// ImageRepo is the persistence contract for uploaded screenshots.
type ImageRepo interface {
	CreateImage(ctx context.Context, db *gorm.DB, depotPath, contentType string, size int64, metadata datatypes.JSON) (*domain.Image, error)
	GetImage(ctx context.Context, db *gorm.DB, id string) (*domain.Image, error)
}

// ImageService stores uploaded screenshots in the depot directory and keeps
// the lookup row alongside. The depot path in the row is relative so the
// depot can move between deployments.
type ImageService struct {
	DB    *gorm.DB
	Repo  ImageRepo
	Depot string
}

// NewImageService constructs an ImageService rooted at depot.
func NewImageService(db *gorm.DB, r ImageRepo, depot string) *ImageService {
	return &ImageService{DB: db, Repo: r, Depot: depot}
}

// Save writes the uploaded bytes to the depot and records the row.
// filename is only consulted for its extension.
func (s *ImageService) Save(ctx context.Context, src io.Reader, filename, contentType string) (*domain.Image, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" && contentType != "" {
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}

	// Shard by month so the depot directory stays listable.
	rel := filepath.Join(time.Now().UTC().Format("2006-01"), fmt.Sprintf("%d%s", time.Now().UnixNano(), ext))
	abs := filepath.Join(s.Depot, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("image depot: %w", err)
	}

	f, err := os.Create(abs)
	if err != nil {
		return nil, fmt.Errorf("image depot: %w", err)
	}
	size, err := io.Copy(f, src)
	cerr := f.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(abs)
		return nil, fmt.Errorf("image write: %w", err)
	}

	img, err := s.Repo.CreateImage(ctx, s.DB, rel, contentType, size, nil)
	if err != nil {
		os.Remove(abs)
		return nil, err
	}
	return img, nil
}

// Get fetches image metadata, mapping missing rows to ErrImageNotFound.
func (s *ImageService) Get(ctx context.Context, id string) (*domain.Image, error) {
	img, err := s.Repo.GetImage(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}
	return img, nil
}
