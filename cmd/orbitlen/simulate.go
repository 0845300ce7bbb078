package main

import (
	"context"
	"sort"
	"time"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/orbitlen/core/config"
	"github.com/orbitlen/core/core"
	"github.com/orbitlen/core/engine"
	"github.com/orbitlen/core/oracle"
	"github.com/orbitlen/core/store/memory"
	"github.com/orbitlen/core/store/sqlstore"
	"github.com/orbitlen/core/vault"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type (
	stepResult struct {
		Index  int    `json:"index"`
		Time   int64  `json:"time"`
		Action string `json:"action"`
		Actor  string `json:"actor,omitempty"`
		Amount string `json:"amount,omitempty"`
		Error  string `json:"error,omitempty"`
	}

	simulationReport struct {
		Time     int64                    `json:"time"`
		Steps    []stepResult             `json:"steps"`
		Banks    []*engine.BankView       `json:"banks"`
		Accounts []*engine.AccountSummary `json:"accounts"`
		Tokens   []vault.TokenAccount     `json:"tokens"`
	}

	simulation struct {
		clk    *clock.Mock
		ledger *vault.Ledger
		prices *oracle.PriceBook
		engine *engine.Engine
		banks  map[string]uuid.UUID
	}
)

func simulateCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Runs a scenario against a fresh pool and prints the final state",
		Args:  cobra.ExactArgs(1),
		RunE:  simulateFunc,
	}
	c.Flags().String("db", "", "sqlite database to persist into; in-memory when empty")
	return c
}

func simulateFunc(c *cobra.Command, args []string) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	scenario, err := config.LoadScenario(args[0])
	if err != nil {
		return err
	}
	log, err := newLogger(c.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return err
	}

	dbPath, err := c.Flags().GetString("db")
	if err != nil {
		return err
	}
	if dbPath == "" {
		dbPath = cfg.Database.SQLitePath
	}

	var st engine.Store = memory.New()
	if dbPath != "" {
		sqlStore, err := sqlstore.Open(dbPath)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		st = sqlStore
	}

	clk := clock.NewMock()
	prices := oracle.New(clk, oracle.WithWindow(cfg.Oracle.Window), oracle.WithMaxAge(cfg.Oracle.MaxAge))
	report, err := runScenario(c.Context(), scenario, st, clk, prices, engine.WithLogger(log))
	if err != nil {
		return err
	}
	return writeJSON(c.OutOrStdout(), report)
}

// runScenario plays scenario on st. The clock starts at scenario.Start and
// only moves when a step advances it.
func runScenario(ctx context.Context, scenario *config.Scenario, st engine.Store, clk *clock.Mock, prices *oracle.PriceBook, opts ...engine.Option) (*simulationReport, error) {
	clk.Add(time.Unix(scenario.Start, 0).Sub(clk.Now()))

	ledger := vault.New(clk)
	sim := &simulation{
		clk:    clk,
		ledger: ledger,
		prices: prices,
		engine: engine.New(st, ledger, prices, append(opts, engine.WithClock(clk))...),
		banks:  make(map[string]uuid.UUID, len(scenario.Banks)),
	}

	if err := sim.setup(ctx, scenario); err != nil {
		return nil, err
	}

	report := &simulationReport{Steps: make([]stepResult, 0, len(scenario.Steps))}
	for i := range scenario.Steps {
		step := &scenario.Steps[i]
		clk.Add(step.Advance)

		amount, err := sim.run(ctx, step)
		result := stepResult{
			Index:  i,
			Time:   clk.Now().Unix(),
			Action: step.Action,
			Actor:  step.Actor,
		}
		if !amount.IsZero() {
			result.Amount = amount.String()
		}
		switch {
		case err != nil && !step.ExpectError:
			return nil, errors.Wrapf(err, "steps[%d] %s", i, step.Action)
		case err == nil && step.ExpectError:
			return nil, errors.Errorf("steps[%d] %s: expected an error", i, step.Action)
		case err != nil:
			result.Error = err.Error()
		}
		report.Steps = append(report.Steps, result)
	}

	var err error
	report.Time = clk.Now().Unix()
	if report.Banks, err = sim.engine.Banks(ctx); err != nil {
		return nil, err
	}
	if report.Accounts, err = sim.engine.Accounts(ctx); err != nil {
		return nil, err
	}
	report.Tokens = ledger.Accounts()
	return report, nil
}

// setup opens the banks, quotes the opening prices, funds the wallets and
// creates an account for every authority the scenario names.
func (s *simulation) setup(ctx context.Context, scenario *config.Scenario) error {
	for i := range scenario.Banks {
		b := &scenario.Banks[i]
		bankConfig, err := b.BankConfig()
		if err != nil {
			return err
		}
		bank, err := s.engine.CreateBank(ctx, b.Mint, b.Decimals, bankConfig)
		if err != nil {
			return err
		}
		s.banks[b.Mint] = bank.Id
	}

	feeds := make([]string, 0, len(scenario.Prices))
	for feed := range scenario.Prices {
		feeds = append(feeds, feed)
	}
	sort.Strings(feeds)
	for _, feed := range feeds {
		if err := s.prices.Set(feed, decimal.RequireFromString(scenario.Prices[feed])); err != nil {
			return err
		}
	}

	var authorities []string
	seen := make(map[string]bool)
	addAuthority := func(authority string) {
		if authority != "" && !seen[authority] {
			seen[authority] = true
			authorities = append(authorities, authority)
		}
	}

	for _, w := range scenario.Wallets {
		addAuthority(w.Authority)
		wallet, err := s.ledger.OpenWallet(w.Authority, w.Mint)
		if err != nil {
			return err
		}
		if err := s.ledger.Mint(wallet, decimal.RequireFromString(w.Amount)); err != nil {
			return err
		}
	}
	for _, step := range scenario.Steps {
		addAuthority(step.Actor)
		addAuthority(step.Liquidatee)
	}

	for _, authority := range authorities {
		if _, err := s.engine.CreateAccount(ctx, authority); err != nil {
			return err
		}
	}
	return nil
}

func (s *simulation) bank(mint string) (uuid.UUID, error) {
	id, ok := s.banks[mint]
	if !ok {
		return uuid.Nil, errors.Wrapf(core.BankAccountNotFound, "mint %s", mint)
	}
	return id, nil
}

// run executes one step and returns the amount it settled, if any.
func (s *simulation) run(ctx context.Context, step *config.Step) (decimal.Decimal, error) {
	if step.Action == config.ActionSetPrice {
		return decimal.Zero, s.prices.Set(step.Feed, decimal.RequireFromString(step.Price))
	}

	action, _ := step.ActionType()
	bankId, err := s.bank(step.Mint)
	if err != nil {
		return decimal.Zero, err
	}
	amount := step.AmountDecimal()

	switch action {
	case core.ActionSupply:
		return amount, s.engine.Deposit(ctx, step.Actor, bankId, amount)
	case core.ActionBorrow:
		return amount, s.engine.Borrow(ctx, step.Actor, bankId, amount)
	case core.ActionRepay:
		return amount, s.engine.Repay(ctx, step.Actor, bankId, amount)
	case core.ActionWithdraw:
		return amount, s.engine.Withdraw(ctx, step.Actor, bankId, amount)
	case core.ActionRepayAll:
		return s.engine.RepayAll(ctx, step.Actor, bankId)
	case core.ActionWithdrawAll:
		return s.engine.WithdrawAll(ctx, step.Actor, bankId)
	case core.ActionCloseBalance:
		return decimal.Zero, s.engine.CloseBalance(ctx, step.Actor, bankId)
	case core.ActionAccrueBankInterest:
		_, err := s.engine.AccrueBankInterest(ctx, bankId)
		return decimal.Zero, err
	case core.ActionLiquidate:
		liabilityBankId, err := s.bank(step.LiabilityMint)
		if err != nil {
			return decimal.Zero, err
		}
		result, err := s.engine.Liquidate(ctx, step.Actor, step.Liquidatee, bankId, liabilityBankId, amount)
		if err != nil {
			return decimal.Zero, err
		}
		return result.LiabilityAmount, nil
	default:
		return decimal.Zero, errors.Errorf("unsupported action %s", action)
	}
}
