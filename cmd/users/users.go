package users

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-extras/cobraflags"
	"github.com/sethvargo/go-password/password"
	"github.com/spf13/cobra"

	"movietrack/config"
	"movietrack/internal/app"
	"movietrack/models"
	"movietrack/services/admin"
)

const (
	searchFlag   = "search"
	statusFlag   = "status"
	roleFlag     = "role"
	emailFlag    = "email"
	nameFlag     = "name"
	passwordFlag = "password"
)

var listFlags = map[string]cobraflags.Flag{
	searchFlag: &cobraflags.StringFlag{
		Name:  searchFlag,
		Value: "",
		Usage: "Only users whose name or email contains this text",
	},
	statusFlag: &cobraflags.StringFlag{
		Name:  statusFlag,
		Value: "",
		Usage: "Filter by status (active, banned)",
	},
	roleFlag: &cobraflags.StringFlag{
		Name:  roleFlag,
		Value: "",
		Usage: "Filter by role (user, admin)",
	},
}

var promoteFlags = map[string]cobraflags.Flag{
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "",
		Usage: "Email of the account to promote (required)",
	},
}

var createAdminFlags = map[string]cobraflags.Flag{
	emailFlag: &cobraflags.StringFlag{
		Name:  emailFlag,
		Value: "",
		Usage: "Email of the new admin (required)",
	},
	nameFlag: &cobraflags.StringFlag{
		Name:  nameFlag,
		Value: "",
		Usage: "Display name of the new admin (required)",
	},
	passwordFlag: &cobraflags.StringFlag{
		Name:  passwordFlag,
		Value: "",
		Usage: "Password for the new admin. Generated and printed when empty",
	},
}

// NewUsersCommand returns the account maintenance commands.
func NewUsersCommand(opts *config.LoadOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect and manage user accounts",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(*opts, func(a *app.App) error {
				return listUsers(cmd.Context(), cmd.OutOrStdout(), a.Admin, admin.UserListQuery{
					Search: listFlags[searchFlag].GetString(),
					Status: models.UserStatus(listFlags[statusFlag].GetString()),
					Role:   models.Role(listFlags[roleFlag].GetString()),
				})
			})
		},
	}
	cobraflags.RegisterMap(listCmd, listFlags)

	promoteCmd := &cobra.Command{
		Use:   "promote",
		Short: "Grant the admin role to an existing account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email := strings.TrimSpace(promoteFlags[emailFlag].GetString())
			if email == "" {
				return fmt.Errorf("--%s is required", emailFlag)
			}
			return withApp(*opts, func(a *app.App) error {
				user, err := a.Auth.Promote(cmd.Context(), email)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) is now an admin\n", user.Email, user.ID)
				return nil
			})
		},
	}
	cobraflags.RegisterMap(promoteCmd, promoteFlags)

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a new admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := models.SignupRequest{
				Name:     createAdminFlags[nameFlag].GetString(),
				Email:    createAdminFlags[emailFlag].GetString(),
				Password: createAdminFlags[passwordFlag].GetString(),
			}
			generated := false
			if req.Password == "" {
				pw, err := password.Generate(20, 4, 2, false, false)
				if err != nil {
					return fmt.Errorf("generate password: %w", err)
				}
				req.Password = pw
				generated = true
			}
			return withApp(*opts, func(a *app.App) error {
				user, err := a.Auth.CreateAdmin(cmd.Context(), req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "created admin %s (%s)\n", user.Email, user.ID)
				if generated {
					fmt.Fprintf(out, "password: %s\n", req.Password)
				}
				return nil
			})
		},
	}
	cobraflags.RegisterMap(createAdminCmd, createAdminFlags)

	cmd.AddCommand(listCmd, promoteCmd, createAdminCmd)
	return cmd
}

func withApp(opts config.LoadOptions, fn func(a *app.App) error) error {
	settings, err := config.Load(opts)
	if err != nil {
		return err
	}
	instance, err := app.New(settings)
	if err != nil {
		return err
	}
	defer instance.Close()
	return fn(instance)
}

type userLister interface {
	ListUsers(ctx context.Context, q admin.UserListQuery) (*admin.UserPage, error)
}

func listUsers(ctx context.Context, out io.Writer, svc userLister, q admin.UserListQuery) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tSTATUS\tMOVIES\tCREATED")

	total := 0
	for page := 1; ; page++ {
		q.Page, q.Limit = page, 100
		result, err := svc.ListUsers(ctx, q)
		if err != nil {
			return err
		}
		for _, u := range result.Users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				u.ID, u.Email, u.Name, u.Role, u.Status, u.MovieCount, u.CreatedAt.Format("2006-01-02"))
		}
		total = result.Total
		if page >= result.TotalPages {
			break
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d user(s)\n", total)
	return nil
}
