package cli

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/roach88/strictflux/internal/config"
)

// ConfigView is the effective configuration as printed by the config
// command. Keys match the config file format.
type ConfigView struct {
	Debug   DebugView   `json:"debug" yaml:"debug" toml:"debug"`
	Journal JournalView `json:"journal" yaml:"journal" toml:"journal"`
}

// DebugView is the debug section of ConfigView.
type DebugView struct {
	All           bool     `json:"all" yaml:"all" toml:"all"`
	Types         []string `json:"types" yaml:"types" toml:"types"`
	Sources       []string `json:"sources" yaml:"sources" toml:"sources"`
	Unused        bool     `json:"unused" yaml:"unused" toml:"unused"`
	UnusedTimeout string   `json:"unused_timeout" yaml:"unused_timeout" toml:"unused_timeout"`
}

// JournalView is the journal section of ConfigView.
type JournalView struct {
	Path string `json:"path" yaml:"path" toml:"path"`
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the --config file and
STRICTFLUX_* environment variables have been merged.

Text output is TOML and can be saved as a config file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(rootOpts, cmd)
		},
	}
	return cmd
}

func runConfig(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(opts.ConfigPath); err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
	}
	view := newConfigView(cfg)

	if formatter.Structured() {
		return formatter.Success(view)
	}

	enc := toml.NewEncoder(formatter.Writer)
	enc.SetIndentTables(true)
	if err := enc.Encode(view); err != nil {
		return WrapExitError(ExitCommandError, "failed to encode configuration", err)
	}
	return nil
}

func newConfigView(cfg *config.Config) ConfigView {
	types := cfg.Debug.Types
	if types == nil {
		types = []string{}
	}
	sources := cfg.Debug.Sources
	if sources == nil {
		sources = []string{}
	}
	return ConfigView{
		Debug: DebugView{
			All:           cfg.Debug.All,
			Types:         types,
			Sources:       sources,
			Unused:        cfg.Debug.Unused,
			UnusedTimeout: cfg.Debug.UnusedTimeout.String(),
		},
		Journal: JournalView{Path: cfg.Journal.Path},
	}
}
