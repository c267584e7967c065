package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DazzleML/ghtraf/internal/config"
	"github.com/DazzleML/ghtraf/internal/gh"
	"github.com/DazzleML/ghtraf/internal/tracker"
)

// ErrRepoFlagRequired is returned when init is invoked without --owner/--repo.
var ErrRepoFlagRequired = errors.New("both --owner and --repo are required")

// NewInitCommand creates the init subcommand.
func NewInitCommand() *cobra.Command {
	var (
		owner       string
		repo        string
		withArchive bool
		configPath  string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Provision gists and write the initial config",
		Long: `Create the state gist (seeded with an empty accumulation document and
placeholder badges), optionally an archive gist, and write a config
file pointing at them. Requires a token with the gist scope.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if owner == "" || repo == "" {
				return ErrRepoFlagRequired
			}

			token, err := config.Token()
			if err != nil {
				return err
			}

			client := gh.NewClient(token)

			result, err := tracker.Init(cmd.Context(), client, tracker.InitOptions{
				Owner:       owner,
				Repo:        repo,
				WithArchive: withArchive,
				DryRun:      dryRun,
			})
			if err != nil {
				return err
			}

			if dryRun {
				color.Yellow("dry run: would track %s/%s from %s; no gists created",
					owner, repo, result.Document.TrackingStart)

				return nil
			}

			cfg := &config.Config{
				Repo:  config.RepoConfig{Owner: owner, Name: repo},
				Gists: config.GistConfig{State: result.StateGist, Archive: result.ArchiveGist},
				Engine: config.EngineConfig{
					WindowDays: 14,
					RetainDays: 31,
				},
				Logging: config.LoggingConfig{Level: "info", Format: "text"},
			}

			if err := config.Write(cfg, configPath); err != nil {
				return err
			}

			color.Green("state gist: %s", result.StateGist)

			if result.ArchiveGist != "" {
				color.Green("archive gist: %s", result.ArchiveGist)
			}

			color.Green("config written to %s", configPath)
			fmt.Fprintln(os.Stdout, "run `ghtraf collect` to record the first snapshot")

			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "repository owner")
	cmd.Flags().StringVar(&repo, "repo", "", "repository name")
	cmd.Flags().BoolVar(&withArchive, "with-archive", false, "also create a gist for monthly archives")
	cmd.Flags().StringVar(&configPath, "config-out", "ghtraf.yaml", "path for the generated config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve the repository without creating gists")

	return cmd
}
