// Package cli implements the copctl commands.
package cli

import (
	"fmt"

	"github.com/coscon/cop-sdk-go/client"
	"github.com/coscon/cop-sdk-go/config"
	"github.com/coscon/cop-sdk-go/logging"
	"github.com/coscon/cop-sdk-go/namespace"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	// ConfigFile is the YAML settings file.
	ConfigFile string

	// EnvFile is a .env file loaded before reading COP_* variables.
	EnvFile string

	// Debug forces debug logging of every request.
	Debug bool
}

// AddFlags registers the root flags on cmd.
func (o *RootOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&o.ConfigFile, "config", "c", "",
		"path to the YAML settings file")
	_ = cmd.MarkPersistentFlagFilename("config", "yaml", "yml")

	cmd.PersistentFlags().StringVar(&o.EnvFile, "env-file", "",
		"path to a .env file with COP_* variables")

	cmd.PersistentFlags().BoolVar(&o.Debug, "debug", false,
		"log every request and response")
}

// app carries what PersistentPreRunE resolved for the running command.
type app struct {
	opts     RootOptions
	settings config.Settings
	logger   zerolog.Logger
}

// load reads the settings and sets up logging.
func (a *app) load() error {
	s, err := config.Load(
		config.WithConfigFile(a.opts.ConfigFile),
		config.WithEnvFile(a.opts.EnvFile),
	)
	if err != nil {
		return err
	}

	if a.opts.Debug {
		s.Debug = true
		s.Log.Level = "debug"
	}

	a.settings = s
	a.logger = logging.New(s.Log).With().Str("component", "copctl").Logger()

	return nil
}

// client builds a client from the loaded settings. The caller must close it.
func (a *app) client() (*client.Client, error) {
	c, err := client.NewFromSettings(a.settings, client.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	if err := c.Build(); err != nil {
		return nil, err
	}

	return c, nil
}

// lookup resolves name against the namespaces known to c.
func lookup(c *client.Client, name string) (namespace.Namespace, error) {
	ns, ok := c.Namespaces().Lookup(name)
	if !ok {
		return namespace.Namespace{}, fmt.Errorf("unknown namespace %q", name)
	}

	return ns, nil
}

// New returns the copctl root command.
func New() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:               "copctl",
		Short:             "Signed calls against the COP API gateway.",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	a.opts.AddFlags(cmd)

	cmd.AddCommand(newGetCommand(a))
	cmd.AddCommand(newPostCommand(a))
	cmd.AddCommand(newNamespacesCommand(a))
	cmd.AddCommand(newGatewayCommand(a))

	return cmd
}
