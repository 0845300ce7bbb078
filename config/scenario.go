package config

import (
	"os"
	"time"

	"github.com/orbitlen/core/core"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ActionSetPrice pushes a quote into a feed. It is the only step that does not
// map onto a ledger instruction.
const ActionSetPrice = "set_price"

type (
	// Scenario is a scripted run: banks, opening prices, funded wallets and the
	// steps to play against them.
	Scenario struct {
		Start   int64             `yaml:"start"`
		Banks   []BankSpec        `yaml:"banks"`
		Prices  map[string]string `yaml:"prices"`
		Wallets []Wallet          `yaml:"wallets"`
		Steps   []Step            `yaml:"steps"`
	}

	Wallet struct {
		Authority string `yaml:"authority"`
		Mint      string `yaml:"mint"`
		Amount    string `yaml:"amount"`
	}

	Step struct {
		// Advance moves the clock forward before the step runs.
		Advance time.Duration `yaml:"advance"`
		Action  string        `yaml:"action"`
		Actor   string        `yaml:"actor"`
		Mint    string        `yaml:"mint"`
		Amount  string        `yaml:"amount"`

		// liquidate
		Liquidatee    string `yaml:"liquidatee"`
		LiabilityMint string `yaml:"liability_mint"`

		// set_price
		Feed  string `yaml:"feed"`
		Price string `yaml:"price"`

		// ExpectError lets a step fail without aborting the run.
		ExpectError bool `yaml:"expect_error"`
	}
)

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, errors.Wrap(err, "parse scenario")
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	cfg := Config{Banks: s.Banks}
	if err := cfg.Validate(); err != nil {
		return err
	}

	for feed, price := range s.Prices {
		if _, err := parsePositive(price); err != nil {
			return errors.Wrapf(err, "prices[%s]", feed)
		}
	}
	for i, w := range s.Wallets {
		if w.Authority == "" || w.Mint == "" {
			return errors.Errorf("wallets[%d]: authority and mint are required", i)
		}
		if _, err := parsePositive(w.Amount); err != nil {
			return errors.Wrapf(err, "wallets[%d].amount", i)
		}
	}
	for i := range s.Steps {
		if err := s.Steps[i].Validate(); err != nil {
			return errors.Wrapf(err, "steps[%d]", i)
		}
	}
	return nil
}

func (s *Step) Validate() error {
	if s.Advance < 0 {
		return errors.Errorf("advance %s is negative", s.Advance)
	}

	if s.Action == ActionSetPrice {
		if s.Feed == "" {
			return errors.New("set_price needs a feed")
		}
		_, err := parsePositive(s.Price)
		return errors.Wrap(err, "price")
	}

	action, ok := core.ParseActionType(s.Action)
	if !ok {
		return errors.Errorf("unknown action %q", s.Action)
	}
	if action != core.ActionAccrueBankInterest && s.Actor == "" {
		return errors.Errorf("%s needs an actor", action)
	}
	if action != core.ActionLiquidate && s.Mint == "" {
		return errors.Errorf("%s needs a mint", action)
	}

	switch action {
	case core.ActionSupply, core.ActionBorrow, core.ActionRepay, core.ActionWithdraw:
		_, err := parsePositive(s.Amount)
		return errors.Wrap(err, "amount")
	case core.ActionLiquidate:
		if s.Liquidatee == "" || s.Mint == "" || s.LiabilityMint == "" {
			return errors.New("liquidate needs liquidatee, mint and liability_mint")
		}
		_, err := parsePositive(s.Amount)
		return errors.Wrap(err, "amount")
	}
	return nil
}

// ActionType resolves the ledger instruction of the step.
func (s *Step) ActionType() (core.ActionType, bool) {
	return core.ParseActionType(s.Action)
}

func (s *Step) AmountDecimal() decimal.Decimal {
	amount, _ := decimal.NewFromString(s.Amount)
	return amount
}

func parsePositive(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(core.InvalidAmount, "%q: %v", value, err)
	}
	if !amount.IsPositive() {
		return decimal.Zero, errors.Wrapf(core.InvalidAmount, "%s", amount)
	}
	return amount, nil
}
