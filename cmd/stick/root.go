package main

import (
	"github.com/born-ml/stick/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   levelValue
	legacy     bool
}

// load builds the configuration: the YAML file (or defaults), the legacy
// limits switch, environment overrides, then --log-level.
func (o *rootOptions) load() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	if o.legacy {
		cfg.Limits = config.LegacyLimits()
	}
	cfg, err := config.FromEnv(cfg)
	if err != nil {
		return nil, err
	}
	if o.logLevel.set {
		cfg.LogLevel = o.logLevel.level
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "stick [command] (flags)",
		Short: "stick inspects and produces stickified tensors.",
		Long: `stick inspects and produces stickified tensors. Use it to:

- print the transformed descriptor and buffer size of a logical tensor (describe)
- locate the byte offset of an element in a stickified buffer (offset)
- convert values to and from DLFLOAT16 (convert, limits)
- write and inspect .stk tensor containers (pack, dump)
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	fs := cmd.PersistentFlags()
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.Var(&opts.logLevel, "log-level", "log level (off, fatal, error, warn, info, debug, trace)")
	fs.BoolVar(&opts.legacy, "legacy-limits", false, "use the limits of the previous hardware generation")

	cmd.AddCommand(
		makeDescribeCommand(opts),
		makeOffsetCommand(opts),
		makeConvertCommand(),
		makeLimitsCommand(),
		makePackCommand(opts),
		makeDumpCommand(opts),
		makeVersionCommand(),
	)
	return cmd
}
