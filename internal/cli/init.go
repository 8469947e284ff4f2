package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/nexus/internal/local"
	"github.com/mesh-intelligence/nexus/pkg/nexus"
	"github.com/mesh-intelligence/nexus/pkg/types"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config and seed the local store",
		Long: "Create the configuration directory and config.yaml if missing, then\n" +
			"open the store so the seed loader fills every empty table.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	cfg, configDir, err := a.loadConfig()
	if err != nil {
		return err
	}
	wrote, err := writeConfigIfMissing(configDir, cfg.WithDefaults())
	if err != nil {
		return err
	}
	if wrote {
		a.log.Info("wrote default config")
	}

	client, err := nexus.New(cfg, nexus.WithLogger(a.log), nexus.WithContext(cmd.Context()))
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer client.Close()

	w := cmd.OutOrStdout()
	if cfg.UseHosted() {
		fmt.Fprintf(w, "Nexus configured for hosted backend %s\n", cfg.Hosted.URL)
		return nil
	}
	fmt.Fprintf(w, "Nexus initialized\nconfig: %s\nstore:  %s %s\n", configDir, cfg.Store.Backend, cfg.Store.DataDir)
	return nil
}

func (a *app) newReseedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reseed",
		Short: "Drop the mock data tables and seed them again",
		Long: "Clear every mock data table and rerun the seed loader, as a schema\n" +
			"version change would. Accounts and profiles are kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(client types.Client) error {
				backend, ok := client.(*local.Backend)
				if !ok {
					return usagef("reseed applies to the local store only")
				}
				ctx := cmd.Context()
				if err := backend.Seeder().Reset(ctx); err != nil {
					return fmt.Errorf("reset store: %w", err)
				}
				if err := backend.Seeder().Run(ctx); err != nil {
					return fmt.Errorf("seed store: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Store reseeded")
				return nil
			})
		},
	}
}
