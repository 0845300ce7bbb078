package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/orbitlen/core/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const configFlag = "config"

func rootCommand() *cobra.Command {
	c := &cobra.Command{
		Use:           "orbitlen",
		Short:         "Lending pool ledger tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.PersistentFlags().String(configFlag, "orbitlen.yaml", "path to the YAML config")
	c.AddCommand(ratesCommand(), simulateCommand())
	return c
}

// loadConfig reads and validates the file named by --config.
func loadConfig(c *cobra.Command) (*config.Config, error) {
	path, err := c.Flags().GetString(configFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) (*zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return &logger, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
