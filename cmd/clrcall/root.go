package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hostbridge/clr-host/bridge"
	"github.com/hostbridge/clr-host/hostlib"
	"github.com/hostbridge/clr-host/runtime"
	"github.com/hostbridge/clr-host/wasmhost"
)

var (
	flagVerbose  bool
	flagToolConf string
	toolConf     *ToolConfig
)

// NewRootCmd creates the root command for the clrcall CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clrcall",
		Short: "Locate a managed runtime and call into bridged objects",
		Long: `clrcall drives the runtime hosting bridge from the command line:
locate the installed host library, start a runtime from a configuration
file, and create and invoke bridged objects over the boundary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			toolConf, err = loadToolConfig(flagToolConf)
			if err != nil {
				return err
			}
			return setupLogging()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable diagnostic logging")
	cmd.PersistentFlags().StringVar(&flagToolConf, "tool-config", "", "Path to clrcall.yaml (default: ./clrcall.yaml)")

	cmd.AddCommand(newLocateCmd())
	cmd.AddCommand(newCallCmd())
	cmd.AddCommand(newTypesCmd())
	return cmd
}

func setupLogging() error {
	level := zapcore.WarnLevel
	if flagVerbose {
		level = zapcore.DebugLevel
	} else if toolConf.LogLevel != "" {
		if err := level.Set(toolConf.LogLevel); err != nil {
			return err
		}
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return err
	}

	runtime.SetLogger(logger)
	bridge.SetLogger(logger)
	hostlib.SetLogger(logger)
	wasmhost.SetLogger(logger)
	return nil
}
