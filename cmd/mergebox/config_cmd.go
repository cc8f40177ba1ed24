package main

import (
	"fmt"
	"io"

	"github.com/mergebox/mergebox/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newConfigCmd())
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if save, _ := cmd.Flags().GetBool("save"); save {
				if err := cfg.Save(cfg.Path); err != nil {
					return fmt.Errorf("save config: %w", err)
				}
			}

			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
	cmd.Flags().Bool("save", false, "Write the resolved configuration to the config file")
	return cmd
}

func printConfig(w io.Writer, cfg *config.Config) {
	timeout := "none"
	if cfg.RequestTimeout > 0 {
		timeout = cfg.RequestTimeout.String()
	}

	rows := [][2]string{
		{"Config", cfg.Path},
		{"Server", cfg.ServerURL},
		{"Downloads", cfg.DownloadDir},
		{"Timeout", timeout},
		{"Alerts", cfg.AlertTimeout.String()},
		{"Log", cfg.LogFile},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s%s\n", gray.Render(fmt.Sprintf("%-10s", row[0])), green.Render(row[1]))
	}
}
