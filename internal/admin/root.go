// Package admin implements the operator command line: applying migrations,
// creating accounts and printing password reset links.
package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/server/config"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Backend is what the commands need from an opened server.
type Backend interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	ResetLinkByEmail(ctx context.Context, email string) (string, error)
}

// Opener builds a Backend from cfg. Opening applies pending migrations.
// The returned func releases it.
type Opener func(ctx context.Context, cfg *config.Config) (Backend, func() error, error)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

func NewRootCmd(open Opener) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "clouddrive-admin",
		Short:         "Operator tooling for clouddrive",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to JSON config file")

	withBackend := func(cmd *cobra.Command, fn func(Backend) error) error {
		b, closeFn, err := open(cmd.Context(), config.LoadWithoutFlags(configPath))
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(b)
	}

	root.AddCommand(
		newMigrateCmd(withBackend),
		newRegisterCmd(withBackend),
		newResetLinkCmd(withBackend),
		newSecretCmd(),
	)
	return root
}

type backendRunner func(cmd *cobra.Command, fn func(Backend) error) error

func newMigrateCmd(run backendRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(Backend) error {
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func newRegisterCmd(run backendRunner) *cobra.Command {
	var in services.RegisterInput
	var dob string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; the password is read from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := time.Parse("2006-01-02", dob)
			if err != nil {
				return fmt.Errorf("--dob must be YYYY-MM-DD: %w", err)
			}
			in.DateOfBirth = d

			reader := bufio.NewReader(cmd.InOrStdin())
			pw, err := readSecret(cmd, reader, "Password: ")
			if err != nil {
				return err
			}
			confirm, err := readSecret(cmd, reader, "Confirm password: ")
			if err != nil {
				return err
			}
			if pw != confirm {
				return errors.New("passwords do not match")
			}
			in.Password = pw

			return run(cmd, func(b Backend) error {
				u, err := b.Register(cmd.Context(), in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered %s (id %d)\n", u.UserName, u.ID)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.UserName, "username", "", "username (7-15 letters, digits, _ or .)")
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&dob, "dob", "", "date of birth, YYYY-MM-DD")
	f.StringVar(&in.PhoneNumber, "phone", "", "10 digit phone number")
	for _, name := range []string{"username", "email", "dob", "phone"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newResetLinkCmd(run backendRunner) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-link",
		Short: "Print a password reset link for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(b Backend) error {
				link, err := b.ResetLinkByEmail(cmd.Context(), email)
				if err != nil {
					return fmt.Errorf("reset link for %s: %w", email, err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), link)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// secretBytes is the entropy of a generated signing key.
const secretBytes = 32

func newSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "secret",
		Short: "Print a random value suitable for the token signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := common.MakeRandHexString(secretBytes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

// readSecret reads without echo from a terminal, or a line from the
// command's input otherwise.
func readSecret(cmd *cobra.Command, reader *bufio.Reader, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && isTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		defer common.WipeByteArray(pw)
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(pw), err
	}

	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
