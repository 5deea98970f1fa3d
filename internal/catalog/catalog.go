package catalog

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"print-packager/internal/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyCatalog  = errors.New("catalog has no ratios")
	ErrDuplicateName = errors.New("duplicate name in catalog")
	ErrInvalidRatio  = errors.New("invalid ratio")
	ErrRatioNotFound = errors.New("ratio not found")
)

// Catalog is the ordered list of crop ratios a batch iterates.
type Catalog struct {
	Ratios []domain.CropRatio `yaml:"ratios" json:"ratios" validate:"required,min=1,dive"`
}

// Default is the built-in print catalog.
func Default() *Catalog {
	in := func(name string, w, h float64) domain.Size {
		return domain.Size{Name: name, Width: w, Height: h, Unit: domain.UnitInch}
	}
	mm := func(name string, w, h float64) domain.Size {
		return domain.Size{Name: name, Width: w, Height: h, Unit: domain.UnitMillimeter}
	}

	return &Catalog{
		Ratios: []domain.CropRatio{
			{Name: "2:3 Portrait", Ratio: 2.0 / 3, Sizes: []domain.Size{
				in("4x6 in", 4, 6), in("12x18 in", 12, 18), in("20x30 in", 20, 30), in("24x36 in", 24, 36),
			}},
			{Name: "3:4 Portrait", Ratio: 3.0 / 4, Sizes: []domain.Size{
				in("9x12 in", 9, 12), in("18x24 in", 18, 24),
			}},
			{Name: "4:5 Portrait", Ratio: 4.0 / 5, Sizes: []domain.Size{
				in("8x10 in", 8, 10), in("16x20 in", 16, 20),
			}},
			{Name: "11x14 Standard", Ratio: 11.0 / 14, Sizes: []domain.Size{
				in("11x14 in", 11, 14),
			}},
			{Name: "A-Series International", Ratio: 210.0 / 297, Sizes: []domain.Size{
				mm("A4", 210, 297), mm("A3", 297, 420),
			}},
			{Name: "Special Fine Art", Ratio: 13.0 / 19, Sizes: []domain.Size{
				in("13x19 in (Super B)", 13, 19),
			}},
		},
	}
}

type fileRatio struct {
	Name  string        `yaml:"name"`
	Ratio string        `yaml:"ratio"`
	Sizes []domain.Size `yaml:"sizes"`
}

type file struct {
	Ratios []fileRatio `yaml:"ratios"`
}

// Load reads a YAML catalog. Ratios may be written as "2:3", "2/3" or a
// decimal.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{Ratios: make([]domain.CropRatio, 0, len(f.Ratios))}
	for _, r := range f.Ratios {
		ratio, err := ParseRatio(r.Ratio)
		if err != nil {
			return nil, fmt.Errorf("ratio %q: %w", r.Name, err)
		}
		c.Ratios = append(c.Ratios, domain.CropRatio{Name: r.Name, Ratio: ratio, Sizes: r.Sizes})
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	return c, nil
}

func ParseRatio(s string) (float64, error) {
	s = strings.TrimSpace(s)
	sep := strings.IndexAny(s, ":/")
	if sep < 0 {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
		}
		return v, nil
	}

	w, err1 := strconv.ParseFloat(strings.TrimSpace(s[:sep]), 64)
	h, err2 := strconv.ParseFloat(strings.TrimSpace(s[sep+1:]), 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRatio, s)
	}
	return w / h, nil
}

// Validate checks field constraints and that ratio names, and size names
// within a ratio, are unique so DPI override keys stay unambiguous.
func (c *Catalog) Validate() error {
	if c == nil || len(c.Ratios) == 0 {
		return ErrEmptyCatalog
	}

	if err := validator.New().Struct(c); err != nil {
		return err
	}

	ratios := make(map[string]struct{}, len(c.Ratios))
	for _, r := range c.Ratios {
		if _, ok := ratios[r.Name]; ok {
			return fmt.Errorf("%w: ratio %q", ErrDuplicateName, r.Name)
		}
		ratios[r.Name] = struct{}{}

		sizes := make(map[string]struct{}, len(r.Sizes))
		for _, s := range r.Sizes {
			if _, ok := sizes[s.Name]; ok {
				return fmt.Errorf("%w: size %q in %q", ErrDuplicateName, s.Name, r.Name)
			}
			sizes[s.Name] = struct{}{}
		}
	}

	return nil
}

// TotalSizes is the number of batch items, counted once per size.
func (c *Catalog) TotalSizes() int {
	total := 0
	for _, r := range c.Ratios {
		total += len(r.Sizes)
	}
	return total
}

func (c *Catalog) Find(name string) (domain.CropRatio, error) {
	for _, r := range c.Ratios {
		if r.Name == name {
			return r, nil
		}
	}
	return domain.CropRatio{}, fmt.Errorf("%w: %q", ErrRatioNotFound, name)
}

// SizeKeys lists every DPI override key the catalog accepts.
func (c *Catalog) SizeKeys() []string {
	keys := make([]string, 0, c.TotalSizes())
	for _, r := range c.Ratios {
		for _, s := range r.Sizes {
			keys = append(keys, domain.SizeKey(r.Name, s.Name))
		}
	}
	return keys
}
