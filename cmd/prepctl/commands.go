package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"prepcoach/application/commands"
	"prepcoach/application/ports"
	"prepcoach/domain/core/valueobjects"
	"prepcoach/infrastructure/config"
	"prepcoach/infrastructure/di"
	"prepcoach/infrastructure/seed"
)

const operatorID = "prepctl"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "prepctl",
		Short:         "Operate the prepcoach backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newSeedCmd(), newVisibilityCmd(), newTokenCmd())
	return root
}

func newSeedCmd() *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load catalogue data",
	}

	var dryRun bool
	journeysCmd := &cobra.Command{
		Use:   "journeys <file>",
		Short: "Create or extend journeys from a YAML catalogue",
		Long: `Reads a YAML catalogue and creates missing journeys, nodes and edges.

Existing nodes are never modified, so the command can be re-run safely.
With --dry-run the file is only parsed and summarised.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogue, err := seed.ParseFile(args[0])
			if err != nil {
				return err
			}
			if dryRun {
				for _, j := range catalogue.Journeys {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d nodes\t%d edges\n", j.ID, j.Kind, len(j.Nodes), len(j.Edges))
				}
				return nil
			}

			return withContainer(cmd, func(c *di.Container) error {
				res, err := c.Seeder.Apply(cmd.Context(), catalogue, operatorID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %d, updated %d, nodes %d, edges %d, visibility %d\n",
					res.Created, res.Updated, res.Nodes, res.Edges, res.Settings)
				return nil
			})
		},
	}
	journeysCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and list the catalogue without writing")
	seedCmd.AddCommand(journeysCmd)
	return seedCmd
}

func newVisibilityCmd() *cobra.Command {
	visibilityCmd := &cobra.Command{
		Use:   "visibility",
		Short: "Manage admin visibility settings",
	}

	var hidden bool
	var parentType, parentID string
	setCmd := &cobra.Command{
		Use:   "set <journey|milestone|objective> <id>",
		Short: "Make an entity public, or hidden with --hidden",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := commands.VisibilityUpdate{
				EntityType: valueobjects.EntityType(args[0]),
				EntityID:   args[1],
				IsPublic:   !hidden,
				ParentType: valueobjects.EntityType(parentType),
				ParentID:   parentID,
			}
			return withContainer(cmd, func(c *di.Container) error {
				result, err := c.CommandBus.Send(cmd.Context(), commands.SetVisibilityCommand{
					Actor:  ports.Actor{UserID: operatorID, IsAdmin: true},
					Update: update,
				})
				if err != nil {
					return err
				}
				res := result.(*commands.VisibilityResult)
				for _, s := range res.Settings {
					fmt.Fprintf(cmd.OutOrStdout(), "%s/%s public=%t\n", s.EntityType, s.EntityID, s.IsPublic)
				}
				return nil
			})
		},
	}
	setCmd.Flags().BoolVar(&hidden, "hidden", false, "hide the entity from non-admins")
	setCmd.Flags().StringVar(&parentType, "parent-type", "", "entity type of the parent")
	setCmd.Flags().StringVar(&parentID, "parent-id", "", "id of the parent")
	visibilityCmd.AddCommand(setCmd)
	return visibilityCmd
}

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Bearer tokens for local testing",
	}

	var email string
	var roles []string
	issueCmd := &cobra.Command{
		Use:   "issue <user id>",
		Short: "Issue a token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			generator, err := di.ProvideJWTGenerator(cfg)
			if err != nil {
				return err
			}
			if email == "" {
				email = args[0] + "@localhost"
			}
			token, err := generator.GenerateToken(args[0], email, roles)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&email, "email", "", "email claim")
	issueCmd.Flags().StringSliceVar(&roles, "role", nil, "role claim, repeatable")
	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}

// withContainer wires the application from the environment for one command
func withContainer(cmd *cobra.Command, fn func(c *di.Container) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer cleanup()
	defer func() { _ = container.Logger.Sync() }()

	if cfg.StorageBackend == config.StorageMemory {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning: STORAGE_BACKEND=memory, changes are discarded on exit")
	}
	return fn(container)
}
