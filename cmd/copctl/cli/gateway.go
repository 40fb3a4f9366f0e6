package cli

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coscon/cop-sdk-go/copsig"
	"github.com/coscon/cop-sdk-go/gateway"
	"github.com/spf13/cobra"
)

type gatewayOptions struct {
	Addr    string
	Secrets map[string]string
	MaxSkew time.Duration
	TLSCert string
	TLSKey  string
}

func newGatewayCommand(a *app) *cobra.Command {
	o := &gatewayOptions{}

	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run a local COP gateway that verifies and echoes signed requests.",
		Long: `Run a local COP gateway for development.

Every request must be signed with one of the configured api keys. Keys are
taken from the credentials of the settings file and from --secret. Verified
requests are answered with an envelope describing the request.`,
		Example: `  copctl gateway --addr 127.0.0.1:8080 --secret local-key=local-secret`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secrets := make(map[string]string, len(a.settings.Credentials)+len(o.Secrets))
			for _, cred := range a.settings.Credentials {
				secrets[cred.APIKey] = cred.Secret
			}

			for key, secret := range o.Secrets {
				secrets[key] = secret
			}

			if len(secrets) == 0 {
				return errors.New("no api keys configured, use --secret or settings credentials")
			}

			handler, err := gateway.New(gateway.Config{
				Secrets: copsig.StaticSecrets(secrets),
				MaxSkew: o.MaxSkew,
				Logger:  a.logger,
			}, gateway.EchoHandler())
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", o.Addr)
			if err != nil {
				return fmt.Errorf("unable to listen on %s: %w", o.Addr, err)
			}

			if o.TLSCert != "" || o.TLSKey != "" {
				cert, err := tls.LoadX509KeyPair(o.TLSCert, o.TLSKey)
				if err != nil {
					_ = ln.Close()
					return fmt.Errorf("unable to load tls key pair: %w", err)
				}

				ln = tls.NewListener(ln, &tls.Config{
					Certificates: []tls.Certificate{cert},
					MinVersion:   tls.VersionTLS12,
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return gateway.Serve(ctx, ln, handler, a.logger)
		},
	}

	cmd.Flags().StringVar(&o.Addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringToStringVar(&o.Secrets, "secret", nil, "api key and secret as KEY=SECRET, may be repeated")
	cmd.Flags().DurationVar(&o.MaxSkew, "max-skew", 5*time.Minute, "accepted clock skew of X-Coscon-Date, 0 disables the check")
	cmd.Flags().StringVar(&o.TLSCert, "tls-cert", "", "TLS certificate file")
	cmd.Flags().StringVar(&o.TLSKey, "tls-key", "", "TLS private key file")

	cmd.MarkFlagsRequiredTogether("tls-cert", "tls-key")

	return cmd
}
