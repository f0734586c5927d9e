package product

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"

	"thriftshop/internal/domain"
	productrepo "thriftshop/internal/repository/product"
	"thriftshop/internal/storage"
)

var (
	ErrNameRequired = fmt.Errorf("product name is required")
	ErrBadPrice     = fmt.Errorf("product price must not be negative")
)

// Input carries a create or update request before normalization. Colors may
// arrive as plain strings or as {name, value} swatches; both forms are
// accepted and normalized to domain.Color.
type Input struct {
	Name        string
	Description string
	PriceCents  int64
	Image       string
	Images      []string
	Sizes       []string
	Colors      []ColorInput
}

type ColorInput struct {
	Name  string
	Value string
}

type Service struct {
	repo   productrepo.Repository
	images storage.ImageStore
}

func New(repo productrepo.Repository, images storage.ImageStore) *Service {
	return &Service{repo: repo, images: images}
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.Product, error) {
	ri, err := normalize(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, ri)
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.Product, error) {
	ri, err := normalize(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, ri)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// UploadImage stores one image file and returns its public URL. The stored
// object name is randomized so repeated uploads of the same filename never
// overwrite each other.
func (s *Service) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	ext := strings.ToLower(path.Ext(filename))
	contentType := mime.TypeByExtension(ext)
	object := fmt.Sprintf("products/%s%s", uuid.NewString(), ext)
	url, err := s.images.Upload(ctx, object, contentType, r)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

func normalize(in Input) (productrepo.CreateInput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return productrepo.CreateInput{}, ErrNameRequired
	}
	if in.PriceCents < 0 {
		return productrepo.CreateInput{}, ErrBadPrice
	}
	colors := make([]domain.Color, 0, len(in.Colors))
	for _, c := range in.Colors {
		cn := strings.TrimSpace(c.Name)
		if cn == "" {
			continue
		}
		colors = append(colors, domain.Color{Name: cn, Value: strings.TrimSpace(c.Value)})
	}
	image := strings.TrimSpace(in.Image)
	images := compactStrings(in.Images)
	if image == "" && len(images) > 0 {
		image = images[0]
	}
	return productrepo.CreateInput{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		Image:       image,
		Images:      images,
		Sizes:       compactStrings(in.Sizes),
		Colors:      colors,
	}, nil
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
