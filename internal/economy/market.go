// Package economy provides the skill market: per-skill price book with
// supply/demand tracking and bounded price resolution.
package economy

import (
	"math/rand"
	"sort"
)

// Entry is the market state for a single skill.
type Entry struct {
	SkillID string  `json:"skill_id"`
	Price   float64 `json:"price"`
	Supply  int     `json:"supply"` // active providers this step
	Demand  int     `json:"demand"` // declared needs this step
}

// Market coordinates pricing for all skills in the simulation. Prices move
// with per-step demand pressure and stay inside [MinPrice, MaxPrice] at
// every observation point.
type Market struct {
	Entries  map[string]*Entry `json:"entries"`
	MinPrice float64           `json:"min_price"`
	MaxPrice float64           `json:"max_price"`
}

// volatility is the amplitude of the random per-step price jitter.
const volatility = 0.05

// NewMarket creates a market with the given price bounds and no skills.
func NewMarket(minPrice, maxPrice float64) *Market {
	return &Market{
		Entries:  make(map[string]*Entry),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
	}
}

// AddSkill registers a skill at its base price, clamped into bounds.
func (m *Market) AddSkill(skillID string, basePrice float64) {
	e := &Entry{SkillID: skillID, Price: basePrice}
	m.clamp(e)
	m.Entries[skillID] = e
}

// Price returns the current price for a skill and whether it is listed.
func (m *Market) Price(skillID string) (float64, bool) {
	e, ok := m.Entries[skillID]
	if !ok {
		return 0, false
	}
	return e.Price, true
}

// ResetCounts zeroes supply and demand before a new step.
func (m *Market) ResetCounts() {
	for _, e := range m.Entries {
		e.Supply = 0
		e.Demand = 0
	}
}

// IncrementSupply records one active provider for the skill.
func (m *Market) IncrementSupply(skillID string) {
	if e, ok := m.Entries[skillID]; ok {
		e.Supply++
	}
}

// IncrementDemand records one declared need for the skill.
func (m *Market) IncrementDemand(skillID string) {
	if e, ok := m.Entries[skillID]; ok {
		e.Demand++
	}
}

// UpdatePrices resolves new prices from this step's supply/demand pressure
// plus a small random jitter, then clamps into bounds. Iteration is in
// sorted skill order so a seeded rng yields identical prices run to run.
func (m *Market) UpdatePrices(rng *rand.Rand) {
	for _, id := range m.sortedSkillIDs() {
		e := m.Entries[id]

		supply := e.Supply
		if supply < 1 {
			supply = 1
		}
		pressure := float64(e.Demand) / float64(supply)

		// Dampened move toward the pressure-implied price.
		jitter := 1.0 + (rng.Float64()*2-1)*volatility
		e.Price *= (0.9 + 0.1*pressure) * jitter
		m.clamp(e)
	}
}

// saleBump is the relative price increase applied when a skill trades.
const saleBump = 1.01

// RecordSale nudges a skill's price up after a matched trade and clamps the
// result back into bounds.
func (m *Market) RecordSale(skillID string) {
	if e, ok := m.Entries[skillID]; ok {
		e.Price *= saleBump
		m.clamp(e)
	}
}

// AveragePrice is the mean listed price, or 0 for an empty market.
func (m *Market) AveragePrice() float64 {
	if len(m.Entries) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range m.Entries {
		sum += e.Price
	}
	return sum / float64(len(m.Entries))
}

// PriceRange returns the lowest and highest listed prices, or zeros for an
// empty market.
func (m *Market) PriceRange() (min, max float64) {
	first := true
	for _, e := range m.Entries {
		if first {
			min, max = e.Price, e.Price
			first = false
			continue
		}
		if e.Price < min {
			min = e.Price
		}
		if e.Price > max {
			max = e.Price
		}
	}
	return min, max
}

func (m *Market) clamp(e *Entry) {
	if e.Price < m.MinPrice {
		e.Price = m.MinPrice
	}
	if e.Price > m.MaxPrice {
		e.Price = m.MaxPrice
	}
}

func (m *Market) sortedSkillIDs() []string {
	ids := make([]string, 0, len(m.Entries))
	for id := range m.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
