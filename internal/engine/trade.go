package engine

import (
	"log/slog"
	"math/rand"

	"github.com/talgya/agora/internal/agents"
	"github.com/talgya/agora/internal/metrics"
)

// maxNeedsPerStep bounds how many skills one entity can want in a step.
const maxNeedsPerStep = 3

// decide is the read-only phase: every active entity declares which skills
// it needs this step, feeding the market's demand counters. Supply counters
// are refreshed from active providers at the same time.
func (e *Engine) decide(rng *rand.Rand) [][]string {
	e.market.ResetCounts()

	for _, p := range e.entities {
		if !p.Active {
			continue
		}
		for _, s := range p.Skills {
			e.market.IncrementSupply(s.ID)
		}
	}

	needs := make([][]string, len(e.entities))
	for i, p := range e.entities {
		if !p.Active {
			continue
		}

		candidates := make([]string, 0, len(e.skillIDs))
		for _, id := range e.skillIDs {
			if !p.HasSkill(id) {
				candidates = append(candidates, id)
			}
		}
		rng.Shuffle(len(candidates), func(a, b int) {
			candidates[a], candidates[b] = candidates[b], candidates[a]
		})

		want := 1 + rng.Intn(maxNeedsPerStep)
		if want > len(candidates) {
			want = len(candidates)
		}
		needs[i] = candidates[:want]
		for _, id := range needs[i] {
			e.market.IncrementDemand(id)
		}
	}
	return needs
}

// match pairs each declared need with the nearest active provider and
// applies the resulting trades. Matching policy, fixed for the run:
// nearest-location-first, ties broken by lowest provider id. Returns the
// number of matched trades and their summed prices.
func (e *Engine) match(needs [][]string) (trades int, volume float64) {
	providers := make(map[string][]int, len(e.skillIDs))
	for idx, p := range e.entities {
		if !p.Active {
			continue
		}
		for _, s := range p.Skills {
			providers[s.ID] = append(providers[s.ID], idx)
		}
	}

	stepTaxes := 0.0
	for buyerIdx, wanted := range needs {
		buyer := e.entities[buyerIdx]
		if !buyer.Active {
			continue
		}

		for _, skillID := range wanted {
			price, ok := e.market.Price(skillID)
			if !ok {
				continue
			}

			sellerIdx, found := e.nearestProvider(providers[skillID], buyerIdx)
			if !found {
				// No eligible counterparty is a normal no-trade outcome.
				continue
			}
			seller := e.entities[sellerIdx]

			if !buyer.WillingToPay(price) || !buyer.CanAfford(price) {
				continue
			}

			fee := price * e.cfg.TransactionFee
			tax := (price - fee) * e.cfg.TaxRate

			sellerID, buyerID := seller.ID, buyer.ID
			if !buyer.RecordTransaction(e.step, skillID, agents.Buy, price, &sellerID) {
				continue
			}
			seller.RecordTransaction(e.step, skillID, agents.Sell, price, &buyerID)

			// Fee and tax come out of the seller's gross credit, so the
			// net effect of a sale is price - fee - tax.
			seller.Money -= fee + tax
			e.feesCollected += fee
			e.taxesCollected += tax
			stepTaxes += tax
			metrics.FeesCollected.Add(fee)
			metrics.TaxesCollected.Add(tax)

			e.market.RecordSale(skillID)
			trades++
			volume += price

			slog.Debug("trade executed",
				"step", e.step,
				"skill", skillID,
				"buyer", buyerID,
				"seller", sellerID,
				"price", price,
			)
		}
	}

	if e.cfg.TaxRedistribution && stepTaxes > 0 {
		e.redistribute(stepTaxes)
	}
	return trades, volume
}

// nearestProvider picks the closest active provider to the buyer. Providers
// are scanned in arena order, so distance ties resolve to the lowest id.
func (e *Engine) nearestProvider(candidates []int, buyerIdx int) (int, bool) {
	buyer := e.entities[buyerIdx]
	best := -1
	bestDist := 0.0
	for _, idx := range candidates {
		if idx == buyerIdx || !e.entities[idx].Active {
			continue
		}
		d := buyer.Location.Distance(e.entities[idx].Location)
		if best == -1 || d < bestDist {
			best = idx
			bestDist = d
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// redistribute splits this step's collected taxes equally among active
// entities.
func (e *Engine) redistribute(amount float64) {
	active := e.ActiveCount()
	if active == 0 {
		return
	}
	share := amount / float64(active)
	for _, p := range e.entities {
		if p.Active {
			p.Money += share
		}
	}
}
