package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/iudanet/logindash/internal/server"
	"github.com/iudanet/logindash/internal/validation"
)

type createUserOptions struct {
	username string
	email    string
}

func newCreateUserCmd(opts *rootOptions) *cobra.Command {
	userOpts := &createUserOptions{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create a user account. The password is prompted for on a terminal
or read as the first line of standard input otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreateUser(cmd, opts, userOpts)
		},
	}

	cmd.Flags().StringVar(&userOpts.username, "username", "", "username (required)")
	cmd.Flags().StringVar(&userOpts.email, "email", "", "email address (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runCreateUser(cmd *cobra.Command, opts *rootOptions, userOpts *createUserOptions) error {
	cfg, logger, err := loadRuntime(cmd, opts)
	if err != nil {
		return err
	}

	password, err := readPassword(cmd)
	if err != nil {
		return oops.Code("PASSWORD_INPUT_FAILED").Wrap(err)
	}

	ctx := cmd.Context()

	app, err := server.NewApp(ctx, cfg, logger, Version)
	if err != nil {
		return oops.Code("APP_INIT_FAILED").With("operation", "create application").Wrap(err)
	}
	defer app.Close()

	if err := app.InitSchema(ctx, 0); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}

	user, err := app.Auth().Register(ctx, validation.RegisterRequest{
		Username: userOpts.username,
		Email:    userOpts.email,
		Password: password,
	})
	if err != nil {
		return err
	}

	cmd.Printf("User %s created (id %s)\n", user.Username, user.ID)
	return nil
}

// readPassword запрашивает пароль без эха на терминале,
// иначе читает первую строку ввода
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		first, err := promptPassword(cmd, f, "Password: ")
		if err != nil {
			return "", err
		}
		second, err := promptPassword(cmd, f, "Repeat password: ")
		if err != nil {
			return "", err
		}
		if first != second {
			return "", errors.New("passwords do not match")
		}
		return first, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func promptPassword(cmd *cobra.Command, f *os.File, prompt string) (string, error) {
	cmd.Print(prompt)
	pwBytes, err := term.ReadPassword(int(f.Fd()))
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pwBytes), nil
}
