package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/balkashynov/taskboard/internal/auth"
	"github.com/balkashynov/taskboard/internal/db"
)

var stdin = bufio.NewReader(os.Stdin)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in and save an access token",
	Long: `Exchange your email and password for an access token.

The token is saved in ~/.taskboard/taskboard.db for the current API URL.
The password is read from the terminal, or from TASKBOARD_PASSWORD when set.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := ""
		if len(args) == 1 {
			email = args[0]
		}
		if email == "" {
			var err error
			if email, err = prompt("Email: "); err != nil {
				return err
			}
		}
		password := os.Getenv("TASKBOARD_PASSWORD")
		if password == "" {
			var err error
			if password, err = promptSecret("Password: "); err != nil {
				return err
			}
		}

		token, err := client.Login(cmd.Context(), email, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if _, err := db.SaveCredential(client.BaseURL(), email, token); err != nil {
			return err
		}

		user, err := client.Me(cmd.Context())
		if err != nil {
			return err
		}
		name := user.Email
		if user.FullName != "" {
			name = fmt.Sprintf("%s <%s>", user.FullName, user.Email)
		}
		fmt.Printf("✅ Logged in as %s\n", name)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := db.DeleteCredential(client.BaseURL())
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println("Not logged in.")
			return nil
		}
		fmt.Println("👋 Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := client.Me(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", user.Email, user.ID)
		if user.FullName != "" {
			fmt.Printf("Name: %s\n", user.FullName)
		}
		fmt.Printf("API:  %s\n", client.BaseURL())

		cred, err := db.GetCredential(client.BaseURL())
		if err == nil {
			if exp, ok := auth.ExpiresAt(cred.Token); ok {
				fmt.Printf("Token expires: %s\n", exp.Local().Format(time.RFC1123))
			}
		}
		return nil
	},
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads without echo on a terminal and falls back to a plain
// line when stdin is piped.
func promptSecret(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(label)
	}
	fmt.Print(label)
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(secret), nil
}

// confirm asks a y/N question
func confirm(question string) bool {
	answer, err := prompt(question + " [y/N]: ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
