package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/qanoonbot/qanoonchat/internal/api"
)

type credentialOptions struct {
	email    string
	password string
}

// NewLoginCmd creates the login command
func NewLoginCmd(deps *Dependencies) *cobra.Command {
	var opts credentialOptions

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Check your Qanoon account credentials",
		Long: `Sign in to the Qanoon backend with your email and password.
The password is prompted for when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, deps, opts, func(ctx context.Context, client api.ChatClientInterface, email, password string) (string, error) {
				return client.Login(ctx, email, password)
			})
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "Account email")
	cmd.Flags().StringVar(&opts.password, "password", "", "Account password")

	return cmd
}

// NewSignupCmd creates the account registration command
func NewSignupCmd(deps *Dependencies) *cobra.Command {
	var opts credentialOptions

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a Qanoon account",
		Long: `Register a new account on the Qanoon backend.
The password is prompted for when --password is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, deps, opts, func(ctx context.Context, client api.ChatClientInterface, email, password string) (string, error) {
				return client.Register(ctx, email, password)
			})
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "Account email")
	cmd.Flags().StringVar(&opts.password, "password", "", "Account password")

	return cmd
}

type authFunc func(ctx context.Context, client api.ChatClientInterface, email, password string) (string, error)

func runAuth(cmd *cobra.Command, deps *Dependencies, opts credentialOptions, auth authFunc) error {
	in := bufio.NewReader(cmd.InOrStdin())
	errOut := cmd.ErrOrStderr()

	email := strings.TrimSpace(opts.email)
	if email == "" {
		fmt.Fprint(errOut, "Email: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		return errors.New("email is required")
	}

	password := opts.password
	if password == "" {
		fmt.Fprint(errOut, "Password: ")
		p, err := readPassword(cmd.InOrStdin(), in)
		fmt.Fprintln(errOut)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = p
	}

	a, err := deps.setup(true)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	message, err := auth(ctx, a.client, email, password)
	line := api.AuthMessage(message, err)
	if err != nil {
		a.logger.Warn("authentication failed", zap.String("email", email), zap.Error(err))
		return errors.New(line)
	}

	fmt.Fprintln(cmd.OutOrStdout(), line)
	return nil
}

// readPassword reads without echo from a terminal, or one line otherwise
func readPassword(r io.Reader, buffered *bufio.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		data, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line, err := buffered.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
