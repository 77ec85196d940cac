// Package seed loads a starter catalog of courses, settings and testimonials.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/service"
)

//go:embed catalog.json
var defaultCatalog []byte

const fetchTimeout = 30 * time.Second

// Catalog is the seed document.
type Catalog struct {
	Courses      []service.CourseInput      `json:"courses"`
	Settings     map[string]json.RawMessage `json:"settings"`
	Testimonials []service.TestimonialInput `json:"testimonials"`
}

// Result counts what Apply wrote and what it left alone.
type Result struct {
	Courses      int `json:"courses"`
	Settings     int `json:"settings"`
	Testimonials int `json:"testimonials"`
	Skipped      int `json:"skipped"`
}

// SettingsWriter is the part of the settings store seeding uses.
type SettingsWriter interface {
	GetAll(ctx context.Context) (map[string]json.RawMessage, error)
	Upsert(ctx context.Context, key string, value json.RawMessage, description *string) (*model.SiteSetting, error)
}

// Seeder applies catalogs through the regular services so validation and slug rules hold.
type Seeder struct {
	courses      service.CourseService
	settings     SettingsWriter
	testimonials service.TestimonialService
}

// NewSeeder creates a seeder.
func NewSeeder(courses service.CourseService, settings SettingsWriter, testimonials service.TestimonialService) *Seeder {
	return &Seeder{courses: courses, settings: settings, testimonials: testimonials}
}

// Default returns the built-in starter catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a catalog document.
func Parse(raw []byte) (Catalog, error) {
	var cat Catalog
	if err := json.Unmarshal(raw, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return cat, nil
}

// Load reads a catalog from an http(s) URL or a local file. An empty source
// yields the built-in catalog.
func Load(ctx context.Context, source string) (Catalog, error) {
	if source == "" {
		return Default()
	}
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		raw, err := os.ReadFile(source)
		if err != nil {
			return Catalog{}, fmt.Errorf("read catalog: %w", err)
		}
		return Parse(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return Catalog{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Catalog{}, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Catalog{}, fmt.Errorf("catalog source returned status: %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Apply writes the catalog. It is safe to run repeatedly: courses whose slug
// exists, settings already present and identical testimonials are skipped.
func (s *Seeder) Apply(ctx context.Context, cat Catalog) (Result, error) {
	var res Result

	for _, in := range cat.Courses {
		if _, err := s.courses.Create(ctx, in); err != nil {
			if errors.Is(err, apperrors.ErrSlugTaken) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("seed course %q: %w", in.Title, err)
		}
		res.Courses++
	}

	if len(cat.Settings) > 0 {
		existing, err := s.settings.GetAll(ctx)
		if err != nil {
			return res, fmt.Errorf("load settings: %w", err)
		}
		for key, value := range cat.Settings {
			if _, ok := existing[key]; ok {
				res.Skipped++
				continue
			}
			if _, err := s.settings.Upsert(ctx, key, value, nil); err != nil {
				return res, fmt.Errorf("seed setting %q: %w", key, err)
			}
			res.Settings++
		}
	}

	if len(cat.Testimonials) > 0 {
		current, err := s.testimonials.List(ctx)
		if err != nil {
			return res, fmt.Errorf("load testimonials: %w", err)
		}
		seen := make(map[string]bool, len(current))
		for _, t := range current {
			seen[t.Name+"\x00"+t.Content] = true
		}
		for _, in := range cat.Testimonials {
			if seen[in.Name+"\x00"+in.Content] {
				res.Skipped++
				continue
			}
			if _, err := s.testimonials.Create(ctx, in); err != nil {
				return res, fmt.Errorf("seed testimonial %q: %w", in.Name, err)
			}
			seen[in.Name+"\x00"+in.Content] = true
			res.Testimonials++
		}
	}

	log.Printf("seed: %d courses, %d settings, %d testimonials written, %d skipped",
		res.Courses, res.Settings, res.Testimonials, res.Skipped)
	return res, nil
}
