// Package cli builds the cloudrole command tree and dispatches to commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NielsdaWheelz/cloudrole/internal/commands"
	"github.com/NielsdaWheelz/cloudrole/internal/config"
	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/fs"
	"github.com/NielsdaWheelz/cloudrole/internal/logging"
	"github.com/NielsdaWheelz/cloudrole/internal/paths"
	"github.com/NielsdaWheelz/cloudrole/internal/project"
	"github.com/NielsdaWheelz/cloudrole/internal/version"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	path       string
	logLevel   string
	configFile string

	stderr io.Writer
}

// Run parses arguments and dispatches to the matching subcommand.
// Returns an error if the command fails; the caller should print the error and exit.
// Usage errors carry E_USAGE.
func Run(args []string, stdout, stderr io.Writer) error {
	g := &globals{stderr: stderr}
	root := newRootCmd(g)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return nil
	}
	if _, ok := errors.AsCodedError(err); ok {
		return err
	}
	return errors.Wrap(errors.EUsage, err.Error(), err)
}

func newRootCmd(g *globals) *cobra.Command {
	root := &cobra.Command{
		Use:   "cloudrole",
		Short: "Manage the roles and role features of a cloud service project",
		Long: `cloudrole keeps a cloud service project consistent: the service definition,
the cloud and local settings documents, and each role's scaffold folder.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New(errors.EUsage, "no command specified")
		},
	}
	root.SetVersionTemplate("cloudrole {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&g.path, "path", "", "project directory (default: current directory)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&g.configFile, "config", "", "config file (default: config.yaml in the user config directory)")

	root.AddCommand(
		newNewCmd(g),
		newAddRoleCmd(g),
		newEnableCmd(g),
		newShowCmd(g),
		newFeaturesCmd(),
		newVersionCmd(),
	)
	return root
}

func newNewCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "new <service>",
		Short: "Create a project directory with empty service documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, env, err := g.env()
			if err != nil {
				return err
			}
			return commands.New(cmd.Context(), env, parent, commands.NewOpts{ServiceName: args[0]}, cmd.OutOrStdout())
		},
	}
}

func newAddRoleCmd(g *globals) *cobra.Command {
	var opts commands.AddRoleOpts
	cmd := &cobra.Command{
		Use:   "add-role <web|worker|cache-worker> <name>",
		Short: "Add a role to the definition, both settings documents and its scaffold",
		Long: "Add a role to the definition, every settings document and a scaffold folder.\n" +
			"Kinds: " + kindList() + ". A cache-worker is a worker role hosting the cache module.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath, env, err := g.env()
			if err != nil {
				return err
			}
			opts.Kind, opts.Name = args[0], args[1]
			return commands.AddRole(cmd.Context(), env, projectPath, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&opts.Instances, "instances", 0, "instance count (default: roles.default_instances)")
	cmd.Flags().StringVar(&opts.VMSize, "vm-size", "", "vm size (default: roles.default_vm_size)")
	return cmd
}

func newEnableCmd(g *globals) *cobra.Command {
	var opts commands.EnableOpts
	cmd := &cobra.Command{
		Use:   "enable <feature> --role <consumer> --provider <provider>",
		Short: "Enable a feature on a consumer role backed by a provider role",
		Example: `  cloudrole enable memcache --role WebRole --provider CacheRole
  cloudrole enable memcache --role WebRole --provider CacheRole --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath, env, err := g.env()
			if err != nil {
				return err
			}
			opts.Feature = args[0]
			return commands.Enable(cmd.Context(), env, projectPath, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.Role, "role", "", "consumer role")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "provider role")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "validate only; write nothing")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("provider")
	return cmd
}

func newShowCmd(g *globals) *cobra.Command {
	var opts commands.ShowOpts
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show roles, endpoints, settings and enabled features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectPath, env, err := g.env()
			if err != nil {
				return err
			}
			return commands.Show(cmd.Context(), env, projectPath, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output machine-readable JSON")
	return cmd
}

func newFeaturesCmd() *cobra.Command {
	var opts commands.FeaturesOpts
	cmd := &cobra.Command{
		Use:   "features",
		Short: "List the features that can be enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Features(opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output machine-readable JSON")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cloudrole version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cloudrole %s\n", version.Version)
		},
	}
}

// env resolves the project directory, loads the config and builds the
// logger. The user config is skipped when the home directory is unknown.
func (g *globals) env() (string, commands.Env, error) {
	dir := g.path
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", commands.Env{}, errors.Wrap(errors.EInternal, "failed to get working directory", err)
		}
		dir = cwd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", commands.Env{}, errors.Wrap(errors.EUsage, "invalid --path", err)
	}

	fsys := fs.NewRealFS()
	projectConfig := filepath.Join(dir, project.ConfigFileName)
	var cfg config.Config
	if g.configFile != "" {
		cfg, err = config.LoadFile(fsys, g.configFile, projectConfig)
	} else {
		cfg, err = config.Load(fsys, userConfigPath(), projectConfig)
	}
	if err != nil {
		return "", commands.Env{}, err
	}

	level := cfg.Log.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger, err := logging.New(logging.Options{Level: level, Format: cfg.Log.Format, Writer: g.stderr})
	if err != nil {
		return "", commands.Env{}, errors.Wrap(errors.EUsage, err.Error(), err)
	}

	return dir, commands.Env{FS: fsys, Config: cfg, Logger: logger}, nil
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(paths.ConfigDir(osEnv{}, home), config.UserFileName)
}

func kindList() string {
	kinds := make([]string, len(project.Kinds))
	for i, k := range project.Kinds {
		kinds[i] = string(k)
	}
	return strings.Join(kinds, ", ")
}

// osEnv implements paths.Env using os.Getenv.
type osEnv struct{}

func (osEnv) Get(key string) string { return os.Getenv(key) }
