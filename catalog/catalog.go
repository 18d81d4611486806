package catalog

import (
	"context"
	"regexp"
	"strings"
	"vital_geo/model"
)

// API is the part of the backend client the catalog reads from.
type API interface {
	ListProducts(ctx context.Context, productType model.ProductType, featured *bool) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)
	PaymentSettings(ctx context.Context) (model.PaymentSettings, error)
	BackendBaseURL() string
}

// Filter narrows a listing. Type and Featured are applied by the backend,
// the rest locally. An empty Category or "All" matches everything.
type Filter struct {
	Type     model.ProductType `json:"productType,omitempty" validate:"omitempty,oneof=Gemstone Shilajit"`
	Featured *bool             `json:"featured,omitempty"`
	Category string            `json:"category,omitempty"`
	MinPrice *float64          `json:"minPrice,omitempty" validate:"omitempty,gte=0"`
	MaxPrice *float64          `json:"maxPrice,omitempty" validate:"omitempty,gte=0"`
}

func (f Filter) match(p model.Product) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, "All") && !strings.EqualFold(f.Category, p.Category) {
		return false
	}
	if f.MinPrice == nil && f.MaxPrice == nil {
		return true
	}
	if p.Price == nil {
		return false
	}
	if f.MinPrice != nil && *p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && *p.Price > *f.MaxPrice {
		return false
	}
	return true
}

type Catalog struct {
	api API
}

func New(api API) *Catalog {
	return &Catalog{api: api}
}

func (c *Catalog) List(ctx context.Context, filter Filter) ([]model.Product, error) {
	products, err := c.api.ListProducts(ctx, filter.Type, filter.Featured)
	if err != nil {
		return nil, err
	}
	matched := make([]model.Product, 0, len(products))
	for _, p := range products {
		if filter.match(p) {
			p.Image = c.ImageURL(p.Image)
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (model.Product, error) {
	p, err := c.api.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	p.Image = c.ImageURL(p.Image)
	return p, nil
}

func (c *Catalog) PaymentSettings(ctx context.Context) (model.PaymentSettings, error) {
	settings, err := c.api.PaymentSettings(ctx)
	if err != nil {
		return model.PaymentSettings{}, err
	}
	settings.QRCode = c.ImageURL(settings.QRCode)
	return settings, nil
}

func (c *Catalog) ImageURL(ref string) string {
	return ResolveImageURL(c.api.BackendBaseURL(), ref)
}

var hostPattern = regexp.MustCompile(`^https?://[^/]+`)

// ResolveImageURL turns an image reference from the backend into an
// absolute URL served by base. Absolute URLs pass through unless they point
// at a local development backend; "/path" is joined to base; a bare
// filename lives under /uploads/products/.
func ResolveImageURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	base = strings.TrimRight(base, "/")

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		if strings.Contains(ref, "localhost:3000") || strings.Contains(ref, "127.0.0.1:3000") {
			return hostPattern.ReplaceAllLiteralString(ref, secureBase(base))
		}
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return base + ref
	}
	return base + "/uploads/products/" + ref
}

// secureBase upgrades a non-local backend to https.
func secureBase(base string) string {
	if isLocal(base) {
		return base
	}
	return strings.Replace(base, "http://", "https://", 1)
}

func isLocal(base string) bool {
	return strings.Contains(base, "localhost") || strings.Contains(base, "127.0.0.1")
}
