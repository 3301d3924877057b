// Package providers wraps the brand settings and holiday store with an
// in-process cache. Every settings/holiday write in the service flows
// through this type, which owns invalidation; nothing else writes those
// tables, so staleness is bounded by the write paths themselves rather
// than a TTL.
package providers

import (
	"sync"

	"meal-order-service/models"
	"meal-order-service/repositories"
)

type Provider struct {
	repo     repositories.SettingsRepository
	defaults models.BrandSettings

	mu       sync.RWMutex
	settings map[int]models.BrandSettings
	holidays map[int][]models.Holiday
}

func New(repo repositories.SettingsRepository, defaults models.BrandSettings) *Provider {
	return &Provider{
		repo:     repo,
		defaults: defaults,
		settings: make(map[int]models.BrandSettings),
		holidays: make(map[int][]models.Holiday),
	}
}

// BrandSettings returns the brand's ordering rules, creating defaults on
// first access. A cache hit and a miss produce the same shape.
func (p *Provider) BrandSettings(brandID int) (models.BrandSettings, error) {
	p.mu.RLock()
	s, ok := p.settings[brandID]
	p.mu.RUnlock()
	if ok {
		return s, nil
	}

	s, err := p.repo.GetOrCreateSettings(brandID, p.defaults)
	if err != nil {
		return models.BrandSettings{}, err
	}

	p.mu.Lock()
	p.settings[brandID] = s
	p.mu.Unlock()
	return s, nil
}

// Holidays returns the brand's active holidays.
func (p *Provider) Holidays(brandID int) ([]models.Holiday, error) {
	p.mu.RLock()
	hs, ok := p.holidays[brandID]
	p.mu.RUnlock()
	if ok {
		return hs, nil
	}

	hs, err := p.repo.ActiveHolidays(brandID)
	if err != nil {
		return nil, err
	}
	if hs == nil {
		hs = []models.Holiday{}
	}

	p.mu.Lock()
	p.holidays[brandID] = hs
	p.mu.Unlock()
	return hs, nil
}

func (p *Provider) UpdateSettings(settings models.BrandSettings) error {
	if err := p.repo.UpdateSettings(settings); err != nil {
		return err
	}
	p.invalidate(settings.BrandID)
	return nil
}

func (p *Provider) CreateHoliday(h *models.Holiday) error {
	if err := p.repo.CreateHoliday(h); err != nil {
		return err
	}
	p.invalidate(h.BrandID)
	return nil
}

func (p *Provider) DeleteHoliday(id int) error {
	brandID, err := p.repo.DeleteHoliday(id)
	if err != nil {
		return err
	}
	p.invalidate(brandID)
	return nil
}

func (p *Provider) invalidate(brandID int) {
	p.mu.Lock()
	delete(p.settings, brandID)
	delete(p.holidays, brandID)
	p.mu.Unlock()
}
