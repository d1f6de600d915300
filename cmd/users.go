package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"room-reservation/internal/identity"
	"room-reservation/internal/importer"
	"room-reservation/internal/storage"
)

var (
	createUserSuperuser bool
	createUserGroup     string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
	Long:  `List, create and bulk-import user accounts.`,
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Run: func(cmd *cobra.Command, args []string) {
		listUsers(context.Background())
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create <email> <full name> <password>",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		createUser(context.Background(), args[0], args[1], args[2])
	},
}

var importUsersCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import users from a CSV file",
	Long: `Imports users from a CSV file with email, full_name and group columns.
Existing accounts are left untouched. Imported accounts have no password
and cannot log in until one is set.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		importUsers(context.Background(), args[0])
	},
}

func listUsers(ctx context.Context) {
	users, err := provider.ListUsers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list users: %v\n", err)
		os.Exit(1)
	}

	if len(users) == 0 {
		fmt.Println("No users found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tSUPERUSER\tGROUP")
	fmt.Fprintln(w, "--\t-----\t----\t---------\t-----")

	for _, user := range users {
		group := "-"
		if user.GroupID != nil {
			if g, err := provider.GetGroup(ctx, *user.GroupID); err == nil {
				group = g.Name
			} else {
				group = fmt.Sprintf("#%d", *user.GroupID)
			}
		}
		super := ""
		if user.IsSuperuser {
			super = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", user.ID, user.Email, user.FullName, super, group)
	}

	w.Flush()
	fmt.Printf("\nTotal users: %d\n", len(users))
}

func createUser(ctx context.Context, email, fullName, password string) {
	if _, err := provider.GetUserByEmail(ctx, email); err == nil {
		fmt.Fprintf(os.Stderr, "A user with email %s already exists\n", email)
		os.Exit(1)
	} else if !errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Failed to check for existing user: %v\n", err)
		os.Exit(1)
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	user := &storage.User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		IsSuperuser:  createUserSuperuser,
	}

	if createUserGroup != "" {
		group, err := provider.GetGroupByName(ctx, createUserGroup)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Group %q not found: %v\n", createUserGroup, err)
			os.Exit(1)
		}
		user.GroupID = &group.ID
	}

	if err := provider.CreateUser(ctx, user); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created user %s (id %d)\n", user.Email, user.ID)
}

func importUsers(ctx context.Context, path string) {
	records, err := importer.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		os.Exit(1)
	}

	created, err := importer.Import(ctx, provider, records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %d of %d users\n", created, len(records))
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(listUsersCmd)
	usersCmd.AddCommand(createUserCmd)
	usersCmd.AddCommand(importUsersCmd)

	createUserCmd.Flags().BoolVar(&createUserSuperuser, "superuser", false, "grant superuser privileges")
	createUserCmd.Flags().StringVar(&createUserGroup, "group", "", "assign the user to an existing group")
}
