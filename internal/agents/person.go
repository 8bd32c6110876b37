// Package agents provides the person data model: money, skills, trading
// strategy, location, and the per-person transaction ledger.
package agents

// PersonID is a unique identifier for a person, stable for the whole run.
type PersonID uint64

// TransactionKind marks which side of a trade a ledger entry records.
type TransactionKind uint8

const (
	Buy TransactionKind = iota
	Sell
)

// String returns the kind name for logs and serialized output.
func (k TransactionKind) String() string {
	if k == Buy {
		return "buy"
	}
	return "sell"
}

// Transaction is one immutable ledger entry. Entries are appended, never
// edited or removed; the ledger is the single source of truth for the
// statistics layer.
type Transaction struct {
	Step         int             `json:"step"`
	SkillID      string          `json:"skill_id"`
	Kind         TransactionKind `json:"kind"`
	Amount       float64         `json:"amount"`
	Counterparty *PersonID       `json:"counterparty,omitempty"`
}

// Person is the core entity of the simulation: an economic agent with money,
// tradeable skills, a behavioral strategy, and a fixed location. Persons are
// deactivated rather than removed so their history survives the run.
type Person struct {
	ID       PersonID `json:"id"`
	Money    float64  `json:"money"`
	Skills   []Skill  `json:"skills"`
	Strategy Strategy `json:"strategy"`
	Location Location `json:"location"`
	Active   bool     `json:"active"`

	// Transactions is append-only; RecordTransaction is the sole writer.
	Transactions []Transaction `json:"transactions"`
}

// NewPerson creates an active person with an empty ledger.
func NewPerson(id PersonID, money float64, skills []Skill, strategy Strategy, loc Location) *Person {
	return &Person{
		ID:       id,
		Money:    money,
		Skills:   skills,
		Strategy: strategy,
		Location: loc,
		Active:   true,
	}
}

// RecordTransaction appends a ledger entry and applies its balance effect:
// debit on Buy, credit on Sell. Under the strict-balance policy a debit that
// would push money negative is skipped entirely: no entry is logged and the
// balance is untouched. Returns whether the transaction was applied.
func (p *Person) RecordTransaction(step int, skillID string, kind TransactionKind, amount float64, counterparty *PersonID) bool {
	if kind == Buy && p.Money < amount {
		return false
	}

	switch kind {
	case Buy:
		p.Money -= amount
	case Sell:
		p.Money += amount
	}

	p.Transactions = append(p.Transactions, Transaction{
		Step:         step,
		SkillID:      skillID,
		Kind:         kind,
		Amount:       amount,
		Counterparty: counterparty,
	})
	return true
}

// CanAfford reports whether the person can pay amount without going negative.
func (p *Person) CanAfford(amount float64) bool {
	return p.Money >= amount
}

// WillingToPay reports whether the person's strategy considers amount worth
// spending. Willingness scales with the strategy multiplier but never
// overrides the strict-balance check at execution time.
func (p *Person) WillingToPay(amount float64) bool {
	return p.Money*p.Strategy.SpendingMultiplier() >= amount
}

// HasSkill reports whether the person already provides the skill.
func (p *Person) HasSkill(skillID string) bool {
	for _, s := range p.Skills {
		if s.ID == skillID {
			return true
		}
	}
	return false
}

// Wealth is money plus the market value of owned skills. The broader
// inequality metric runs over this rather than raw balances.
func (p *Person) Wealth() float64 {
	w := p.Money
	for _, s := range p.Skills {
		w += s.Price
	}
	return w
}

// Deactivate marks the person as out of the simulation while preserving its
// ledger and arena slot.
func (p *Person) Deactivate() {
	p.Active = false
}
