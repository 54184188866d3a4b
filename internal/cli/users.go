package cli

import (
	"bufio"
	"fmt"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/martijn/usersapi/internal/core/domain"
	"github.com/martijn/usersapi/internal/core/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	addFirstName string
	addLastName  string
	addEmail     string
	addHobby     []string
	deleteYes    bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long:  "Manage user records directly in the configured store",
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		password, err := promptNewPassword("Enter password: ", "Confirm password: ")
		if err != nil {
			return err
		}

		user, err := services.UserService.CreateUser(cmd.Context(), service.NewUserInput{
			FirstName: addFirstName,
			LastName:  addLastName,
			Email:     addEmail,
			Password:  password,
			Hobby:     addHobby,
		})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User '%s' created with id %s\n", user.Email, user.ID)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		user, err := services.UserService.GetUser(cmd.Context(), id)
		if err != nil {
			return err
		}

		if !deleteYes {
			fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete user '%s'? (yes/no): ", user.Email)
			confirm, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(confirm) != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
				return nil
			}
		}

		if _, err := services.UserService.DeleteUser(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "User '%s' deleted successfully\n", user.Email)
		return nil
	},
}

var usersUpdatePasswordCmd = &cobra.Command{
	Use:   "update-password <id>",
	Short: "Update user password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		user, err := services.UserService.GetUser(cmd.Context(), id)
		if err != nil {
			return err
		}

		password, err := promptNewPassword("Enter new password: ", "Confirm new password: ")
		if err != nil {
			return err
		}

		if services.UserService.VerifyPassword(user, password) {
			return fmt.Errorf("new password must differ from the current one")
		}

		if _, err := services.UserService.UpdateUser(cmd.Context(), id, domain.UserPatch{Password: &password}); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Password updated for user '%s'\n", user.Email)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		users, err := services.UserService.ListUsers(cmd.Context())
		if err != nil {
			return err
		}

		if len(users) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No users found")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tNAME\tHOBBY\tCREATED AT")
		for _, user := range users {
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\n",
				user.ID,
				user.Email,
				user.FirstName,
				user.LastName,
				strings.Join(user.Hobby, ","),
				user.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

// promptNewPassword reads a password twice without echo
func promptNewPassword(prompt, confirmPrompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Print(confirmPrompt)
	confirmPassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if string(password) != string(confirmPassword) {
		return "", fmt.Errorf("passwords do not match")
	}

	if err := domain.ValidatePassword(string(password)); err != nil {
		return "", err
	}

	return string(password), nil
}

func init() {
	usersAddCmd.Flags().StringVar(&addFirstName, "first-name", "", "first name (required)")
	usersAddCmd.Flags().StringVar(&addLastName, "last-name", "", "last name (required)")
	usersAddCmd.Flags().StringVar(&addEmail, "email", "", "email address (required)")
	usersAddCmd.Flags().StringSliceVar(&addHobby, "hobby", nil, "hobby, repeatable")
	_ = usersAddCmd.MarkFlagRequired("first-name")
	_ = usersAddCmd.MarkFlagRequired("last-name")
	_ = usersAddCmd.MarkFlagRequired("email")

	usersDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")

	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	usersCmd.AddCommand(usersUpdatePasswordCmd)
	usersCmd.AddCommand(usersListCmd)
}
