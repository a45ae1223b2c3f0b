// Package cli implements the iga-forms command, it manages request form assignments and translation overrides.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/forgerock/iga-go-client/pkg/client"
	"github.com/forgerock/iga-go-client/pkg/governance"
)

const (
	flagFQDN        = "fqdn"
	flagAccessToken = "access-token"
	flagIGABaseURL  = "iga-base-url"
	flagIDMBaseURL  = "idm-base-url"
	flagEnvFile     = "env-file"
	flagDebug       = "debug"
	flagHTTP2       = "http2"
)

// Option customizes the command, it is used in tests.
type Option func(a *app)

// WithClient sets the HTTP client used by all requests.
func WithClient(c *client.Client) Option {
	return func(a *app) {
		a.client = c
	}
}

// WithLogger replaces the logger created from the --debug flag.
func WithLogger(l *zap.Logger) Option {
	return func(a *app) {
		a.logger = l
	}
}

// app holds state shared by all commands.
type app struct {
	config *viper.Viper
	stdout io.Writer
	client *client.Client
	logger *zap.Logger
	api    *governance.API
}

// NewCommand creates the root "iga-forms" command.
func NewCommand(stdout, stderr io.Writer, opts ...Option) *cobra.Command {
	a := &app{config: viper.New(), stdout: stdout}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:           "iga-forms",
		Short:         "Manage request form assignments and translation overrides",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.String(flagFQDN, "", "tenant host, env FQDN")
	flags.String(flagAccessToken, "", "access token, env ACCESS_TOKEN, raw token or JSON with the access_token field")
	flags.String(flagIGABaseURL, "", `governance API base URL, env IGA_BASE_URL, default "https://{fqdn}/iga"`)
	flags.String(flagIDMBaseURL, "", `IDM API base URL, env IDM_BASE_URL, default "https://{fqdn}/openidm"`)
	flags.StringSlice(flagEnvFile, []string{".env"}, "env files to load, missing files are ignored")
	flags.Bool(flagDebug, false, "log HTTP requests")
	flags.Bool(flagHTTP2, false, "force HTTP/2, for tenants behind a proxy that supports HTTP/2 only")
	bindFlags(a.config, flags)

	root.AddCommand(
		a.assignCommand(),
		a.unassignCommand(),
		a.getCommand(),
		a.usageCommand(),
		a.overridesCommand(),
	)
	return root
}

// bindFlags binds flags to the config, each flag can also be set by the env variable, e.g. "iga-base-url" by IGA_BASE_URL.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	flags.VisitAll(func(flag *pflag.Flag) {
		if err := v.BindPFlag(flag.Name, flag); err != nil {
			panic(err)
		}
	})
}

func (a *app) init(cmd *cobra.Command) error {
	if err := governance.LoadEnvFiles(a.config.GetStringSlice(flagEnvFile)...); err != nil {
		return err
	}

	if a.logger == nil {
		logger, err := newLogger(a.config.GetBool(flagDebug))
		if err != nil {
			return fmt.Errorf("cannot create logger: %w", err)
		}
		a.logger = logger
	}

	host := a.config.GetString(flagFQDN)
	if host == "" {
		return fmt.Errorf(`tenant host is not set, use the --%s flag or the %s env variable`, flagFQDN, governance.EnvFQDN)
	}

	opts := []governance.APIOption{governance.WithLogger(a.logger)}
	c := a.newClient()
	opts = append(opts, governance.WithClient(&c))
	if cmd.Flags().Changed(flagAccessToken) {
		token, err := governance.ParseToken(a.config.GetString(flagAccessToken))
		if err != nil {
			return fmt.Errorf("--%s flag %w", flagAccessToken, err)
		}
		opts = append(opts, governance.WithTokenSource(oauth2.StaticTokenSource(token)))
	} else {
		// The env variable is read each time a request is sent
		opts = append(opts, governance.WithTokenSource(governance.EnvTokenSource(governance.EnvAccessToken)))
	}
	if v := a.config.GetString(flagIGABaseURL); v != "" {
		opts = append(opts, governance.WithIGABaseURL(v))
	}
	if v := a.config.GetString(flagIDMBaseURL); v != "" {
		opts = append(opts, governance.WithIDMBaseURL(v))
	}

	a.api = governance.NewAPI(host, opts...)
	return nil
}

func (a *app) newClient() client.Client {
	c := client.New()
	if a.client != nil {
		c = *a.client
	}
	if a.config.GetBool(flagHTTP2) {
		c = c.WithTransport(client.HTTP2Transport())
	}
	return c
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
