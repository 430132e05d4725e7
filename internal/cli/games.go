package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/dobble/internal/config"
	"github.com/roach88/dobble/internal/gateway"
)

// GamesOptions holds flags for the games command.
type GamesOptions struct {
	*RootOptions
	EnvFile string
	APIURL  string
}

// NewGamesCommand creates the games command.
func NewGamesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GamesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "games",
		Short: "List games on the server",
		Long: `Fetch the lobby listing once and print it.

Exit codes:
  0 - Listing printed
  1 - The server call failed
  2 - Command error (bad config, etc.)

Examples:
  dobble games
  dobble games --api http://localhost:8080 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGames(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.EnvFile, "env-file", ".env", "file to seed DOBBLE_* variables from")
	cmd.Flags().StringVar(&opts.APIURL, "api", "", "game server base url (DOBBLE_API_URL)")

	return cmd
}

func runGames(opts *GamesOptions, cmd *cobra.Command) error {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if cmd.Flags().Changed("api") {
		cfg.APIURL = opts.APIURL
		if err := cfg.Validate(); err != nil {
			return WrapExitError(ExitCommandError, "invalid configuration", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
	defer cancel()

	games, err := gateway.NewClient(cfg.APIURL).ListGames(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list games", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return out.Success(gameList(games))
}
