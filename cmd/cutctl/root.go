package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cutforge/cutforge-agent/internal/config"
)

type commandContext struct {
	addrFlag  *string
	tokenFlag *string
}

// client resolves the agent address and token. The token comes from the
// flag, the environment, or the file the agent writes on startup.
func (ctx *commandContext) client() (*Client, error) {
	token := strings.TrimSpace(*ctx.tokenFlag)
	if token == "" {
		token = strings.TrimSpace(os.Getenv(config.EnvAPIToken))
	}
	if token == "" {
		cfg, err := config.New()
		if err == nil {
			if raw, err := os.ReadFile(cfg.TokenPath()); err == nil {
				token = strings.TrimSpace(string(raw))
			}
		}
	}
	if token == "" {
		return nil, errors.New("no API token: pass --token, set " + config.EnvAPIToken + ", or start the agent once to write its token file")
	}

	return NewClient(*ctx.addrFlag, token), nil
}

func newRootCommand() *cobra.Command {
	var addrFlag string
	var tokenFlag string

	ctx := &commandContext{addrFlag: &addrFlag, tokenFlag: &tokenFlag}

	rootCmd := &cobra.Command{
		Use:           "cutctl",
		Short:         "Control the Cutforge export agent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr",
		fmt.Sprintf("http://127.0.0.1:%d", config.DefaultPort), "Agent API address")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "",
		"API token (default: agent token file)")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newEstimateCommand(ctx))
	rootCmd.AddCommand(newValidateCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
