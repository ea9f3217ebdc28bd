// internal/cli/cli.go

// Package cli implements the termsite command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/termsite/app"
	"github.com/dalemusser/termsite/config"
	"github.com/dalemusser/termsite/internal/sitegen"
	"github.com/dalemusser/termsite/pantry/version"
	"github.com/spf13/cobra"
)

// Run executes the command line in args and returns the process exit code.
func Run(binName string, args []string) int {
	return run(context.Background(), binName, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, binName string, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(binName)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", binName, err)
		return 1
	}
	return 0
}

func newRootCmd(binName string) *cobra.Command {
	root := &cobra.Command{
		Use:   binName,
		Short: "Build terminal-styled static sites",
		Long: binName + ` renders a site of pages and layouts into a static directory.
Pages can color and wrap text like a terminal, and the JavaScript under
_assets/javascripts is published through an import map so page
controllers load on demand.

Settings come from config.yaml, ` + config.EnvPrefix + `_* environment variables,
and the flags below (highest wins).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newBuildCmd(),
		newServeCmd(),
		newImportMapCmd(),
		newDeployCmd(),
		newNewCmd(),
		newVersionCmd(),
	)
	return root
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the site into the destination directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.Setup(cmd.Flags())
			if err != nil {
				return err
			}
			defer a.Logger.Sync()
			if err := a.Build(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "built %d pages into %s\n", len(a.Site.Pages), a.Config.Build.Destination)
			return nil
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Build the site and serve it over HTTP (--watch to rebuild on changes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.Setup(cmd.Flags())
			if err != nil {
				return err
			}
			defer a.Logger.Sync()
			return a.Serve(cmd.Context())
		},
	}
}

func newImportMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "importmap",
		Short: "Print the site's import map as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.Setup(cmd.Flags())
			if err != nil {
				return err
			}
			defer a.Logger.Sync()
			m, err := a.ImportMap(cmd.Context())
			if err != nil {
				return err
			}
			b, err := m.JSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

func newDeployCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Build the site and publish it to deploy_dir or deploy_bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.Setup(cmd.Flags())
			if err != nil {
				return err
			}
			defer a.Logger.Sync()
			res, err := a.Deploy(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			verb := ""
			if dryRun {
				verb = "would "
			}
			for _, k := range res.Uploaded {
				fmt.Fprintf(out, "  %supload %s\n", verb, k)
			}
			for _, k := range res.Deleted {
				fmt.Fprintf(out, "  %sdelete %s\n", verb, k)
			}
			fmt.Fprintf(out, "%d uploaded, %d unchanged, %d deleted\n", len(res.Uploaded), len(res.Skipped), len(res.Deleted))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would change without writing")
	return cmd
}

func newNewCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "new <dir>",
		Short: "Create a starter site in dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := sitegen.Scaffold(args[0], title)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, f := range files {
				fmt.Fprintf(out, "  create %s\n", f)
			}
			fmt.Fprintf(out, "\nNext:\n  cd %s\n  %s serve\n", args[0], cmd.Root().Name())
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Site title (defaults to the directory name)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.Root().Name(), version.String())
		},
	}
}
