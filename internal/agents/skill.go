package agents

import "strconv"

// Skill is a tradeable capability with a market price. Prices move with
// supply and demand but are always clamped into the configured bounds.
type Skill struct {
	ID    string  `json:"id"`
	Price float64 `json:"price"`
}

// NewSkill creates a skill at its base price.
func NewSkill(id string, price float64) Skill {
	return Skill{ID: id, Price: price}
}

// ClampPrice forces the price into [min, max].
func (s *Skill) ClampPrice(min, max float64) {
	if s.Price < min {
		s.Price = min
	}
	if s.Price > max {
		s.Price = max
	}
}

// skillNames seeds readable skill identifiers before falling back to
// generated ones.
var skillNames = []string{
	"Programming", "Accounting", "Writing", "GraphicDesign", "DataAnalysis",
	"Marketing", "Sales", "Engineering", "Consulting", "Teaching",
	"Plumbing", "Electrical", "Carpentry", "Cooking", "Gardening",
	"Translation", "LegalAdvice", "Healthcare", "FitnessTraining", "MusicProduction",
}

// GenerateSkills returns count skills with unique ids, all at basePrice.
// Names come from the predefined list first, then "SkillN".
func GenerateSkills(count int, basePrice float64) []Skill {
	skills := make([]Skill, 0, count)
	for i := 0; i < count; i++ {
		name := ""
		if i < len(skillNames) {
			name = skillNames[i]
		} else {
			name = "Skill" + strconv.Itoa(i)
		}
		skills = append(skills, NewSkill(name, basePrice))
	}
	return skills
}
