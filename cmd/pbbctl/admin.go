package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pesafrisma19/pbbkemang/internal/auth"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
	"github.com/spf13/cobra"
)

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
	}
	cmd.AddCommand(newAdminCreateCmd(a), newAdminListCmd(a), newAdminHashCmd(a))
	return cmd
}

// accounts builds an auth service without a session store.
func (a *app) accounts(cmd *cobra.Command) (auth.Service, repository.AdminRepository, error) {
	db, err := a.open(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	admins := repository.NewAdminRepository(db)
	return auth.NewService(admins, nil, a.cfg.Auth, a.log.Named("auth")), admins, nil
}

func newAdminCreateCmd(a *app) *cobra.Command {
	var phone, name, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				pw, err := readPassword(a.in)
				if err != nil {
					return err
				}
				password = pw
			}

			svc, _, err := a.accounts(cmd)
			if err != nil {
				return err
			}
			admin, err := svc.CreateAdmin(cmd.Context(), phone, models.OptionalString(name), password)
			if err != nil {
				if errors.Is(err, repository.ErrDuplicateUnique) {
					return fmt.Errorf("phone %s is already registered", phone)
				}
				return err
			}
			fmt.Fprintf(a.out, "Admin %s created (%s)\n", admin.Phone, admin.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "WhatsApp number used to log in (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func newAdminListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, admins, err := a.accounts(cmd)
			if err != nil {
				return err
			}
			list, err := admins.List(cmd.Context())
			if err != nil {
				return err
			}
			return printAdmins(a.out, list)
		},
	}
}

func newAdminHashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-passwords",
		Short: "Replace plaintext admin passwords with bcrypt hashes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := a.accounts(cmd)
			if err != nil {
				return err
			}
			report, err := svc.RehashPlaintext(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "hashed: %d, already hashed: %d, failed: %d\n", report.Hashed, report.Skipped, len(report.Failed))
			for _, phone := range report.Failed {
				fmt.Fprintf(a.out, "  - %s\n", phone)
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d passwords could not be hashed", len(report.Failed))
			}
			return nil
		},
	}
}

// readPassword reads one line from r without its line ending.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password must not be empty")
	}
	return pw, nil
}

func printAdmins(w io.Writer, admins []models.Admin) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PHONE\tNAME\tHASHED\tCREATED")
	for _, admin := range admins {
		name := "-"
		if admin.Name != nil {
			name = *admin.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", admin.Phone, name, auth.IsHash(admin.PasswordHash), admin.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}
