package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/warehouse-monitor/pkg/jwt"
)

// TokenOptions flags del comando token.
type TokenOptions struct {
	*RootOptions
	Subject string
	Scope   string
	TTL     int // minutos
}

// NewTokenCommand crea el comando token.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "token",
		Short:         "Emite un JWT para la API de lectura (usa JWT_SECRET)",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueToken(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Subject, "subject", "", "sujeto del token")
	cmd.Flags().StringVar(&opts.Scope, "scope", jwt.ScopeReader, "scope (reader|admin)")
	cmd.Flags().IntVar(&opts.TTL, "ttl", rootOpts.Config.JWT.Expiration, "vigencia en minutos")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func issueToken(cmd *cobra.Command, opts *TokenOptions) error {
	if opts.Scope != jwt.ScopeReader && opts.Scope != jwt.ScopeAdmin {
		return fmt.Errorf("scope %q inválido (reader|admin)", opts.Scope)
	}
	cfg := opts.Config.JWT
	tok, err := jwt.Generate(cfg.Secret, opts.Subject, opts.Scope, cfg.Issuer, opts.TTL)
	if err != nil {
		return err
	}
	out := struct {
		Token     string    `json:"token"`
		Scope     string    `json:"scope"`
		ExpiresAt time.Time `json:"expires_at"`
	}{tok, opts.Scope, opts.now().Add(time.Duration(opts.TTL) * time.Minute).UTC()}
	return write(cmd.OutOrStdout(), opts.Format, out, tok)
}

func contextWithTimeout(cmd *cobra.Command, d time.Duration) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, d)
}
