package engine

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/agora/internal/agents"
	"github.com/talgya/agora/internal/economy"
)

// planeSize is the side length of the square trading plane.
const planeSize = 100.0

// populate builds the entity arena and the market from config and seed.
// Generation is fully deterministic: the same seed yields the same
// population, skill assignment, and locations.
func (e *Engine) populate() {
	rng := rand.New(rand.NewSource(e.cfg.Seed))

	skills := agents.GenerateSkills(e.cfg.SkillCount, e.cfg.BaseSkillPrice)
	e.skillIDs = make([]string, len(skills))
	e.market = economy.NewMarket(e.cfg.MinSkillPrice, e.cfg.MaxSkillPrice)
	for i, s := range skills {
		e.skillIDs[i] = s.ID
		e.market.AddSkill(s.ID, s.Price)
	}

	noise := opensimplex.New(e.cfg.Seed)
	e.entities = make([]*agents.Person, 0, e.cfg.EntityCount)
	for i := 0; i < e.cfg.EntityCount; i++ {
		own := skills[i%len(skills)]
		strategy := agents.Strategy(rng.Intn(agents.NumStrategies))
		loc := placeOnPlane(rng, noise)
		e.entities = append(e.entities, agents.NewPerson(
			agents.PersonID(i),
			e.cfg.InitialMoney,
			[]agents.Skill{own},
			strategy,
			loc,
		))
	}

	e.state = StatePopulated
}

// placeOnPlane samples a location from a simplex-noise density field, so
// entities cluster into natural neighborhoods instead of spreading
// uniformly. Rejection sampling keeps the draw deterministic under rng.
func placeOnPlane(rng *rand.Rand, noise opensimplex.Noise) agents.Location {
	for {
		x := rng.Float64() * planeSize
		y := rng.Float64() * planeSize
		// Noise in [-1,1] mapped to an acceptance density in [0.25, 1].
		density := 0.25 + 0.75*(noise.Eval2(x*0.05, y*0.05)+1)/2
		if rng.Float64() < density {
			return agents.Location{X: x, Y: y}
		}
	}
}
