package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/auth"
	"github.com/fjod/athometyre/internal/domain"
	"github.com/spf13/cobra"
)

type tokenOptions struct {
	role   string
	ttl    time.Duration
	secret string
}

func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Mint a bearer token for a user",
		Long: `Mint an HS256 bearer token accepted by the storefront API.

The secret defaults to JWT_SECRET from the environment.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.role, "role", string(domain.RoleCustomer), "CUSTOMER, DEALER or ADMIN")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&opts.secret, "secret", "", "signing secret (default $JWT_SECRET)")

	return cmd
}

type issuedToken struct {
	UserID    int64       `json:"userId"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
	Token     string      `json:"token"`
}

func runToken(rootOpts *RootOptions, opts *tokenOptions, arg string, cmd *cobra.Command) error {
	userID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || userID <= 0 {
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid user id %q", arg)}
	}
	role := domain.Role(strings.ToUpper(opts.role))
	if !role.Valid() {
		return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid role %q", opts.role)}
	}
	if opts.ttl <= 0 {
		return &ExitError{Code: ExitCommandError, Message: "--ttl must be positive"}
	}
	secret := opts.secret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	tokens, err := auth.NewTokens(secret)
	if err != nil {
		return &ExitError{Code: ExitCommandError, Message: "no signing secret", Err: err}
	}
	signed, err := tokens.Issue(userID, role, opts.ttl)
	if err != nil {
		return err
	}

	res := issuedToken{UserID: userID, Role: role, ExpiresAt: time.Now().Add(opts.ttl).UTC(), Token: signed}
	return rootOpts.emit(cmd, "ok", res, func(w io.Writer) {
		fmt.Fprintln(w, signed)
	})
}
