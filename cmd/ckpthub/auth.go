package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ckpthub/pkg/auth"
	"ckpthub/pkg/config"
	"ckpthub/pkg/hub"
	"ckpthub/pkg/logger"
	"ckpthub/pkg/ui"
)

var (
	loginEndpoint string
	loginNoVerify bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage hub access tokens",
	Long: `Manage stored hub access tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (HF_TOKEN, read only)

Never share your tokens or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a hub access token",
	Long: `Store a hub access token in the system keychain or an encrypted file.

The token is checked against the hub before it is saved unless
--no-verify is given. The name defaults to the hub user name.`,
	Example: `  # Interactive login
  ckpthub auth login

  # Store a token under a name
  ckpthub auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <name>",
	Short: "Remove a stored token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tokens",
	Long:  `List all stored tokens with the secret part masked.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who the current token belongs to",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(statusCmd)

	loginCmd.Flags().StringVar(&loginEndpoint, "endpoint", "", "hub endpoint the token belongs to")
	loginCmd.Flags().BoolVar(&loginNoVerify, "no-verify", false, "store the token without checking it")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{"endpoint": loginEndpoint})
	if err != nil {
		return err
	}
	printer := newPrinter(cfg)

	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)
	auth.ShowTokenGuide(os.Stdout, cfg.Hub.Endpoint)

	fmt.Print("🔐 Access token (hidden): ")
	token, err := readPassword(reader)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}
	fmt.Println()
	if token == "" {
		return errors.New("token is required")
	}

	if !loginNoVerify {
		user, err := whoAmI(cmd.Context(), cfg, token)
		if err != nil {
			return fmt.Errorf("token rejected by %s: %w", cfg.Hub.Endpoint, err)
		}
		printer.Success(fmt.Sprintf("Token belongs to %s", user.Name))
		if name == "" {
			name = user.Name
		}
	}
	if name == "" {
		fmt.Print("Name for this token: ")
		input, _ := reader.ReadString('\n')
		name = strings.TrimSpace(input)
	}
	if name == "" {
		return errors.New("a name is required when the token is not verified")
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\n⚠️  '%s' already exists. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	cred := &auth.Credential{
		Name:     name,
		Token:    token,
		Endpoint: cfg.Hub.Endpoint,
	}
	if err := manager.Store(cred); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	printer.Success(fmt.Sprintf("Token saved: %s", name))
	fmt.Println("\n📖 Use it with:")
	fmt.Printf("   $ ckpthub upload <local-dir> <repo-id> --account %s\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	printer := newPrinter(nil)
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	printer.Success("Token removed: " + args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	printer := newPrinter(nil)
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	creds, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}
	if len(creds) == 0 {
		printer.Info("No stored tokens", "Use 'ckpthub auth login' to add one")
		return nil
	}

	printer.Highlight("Stored Tokens")
	printer.Println("")
	for i, cred := range creds {
		printCredential(printer, i+1, auth.SanitizeCredential(cred))
	}
	return nil
}

func printCredential(p *ui.Printer, n int, cred *auth.Credential) {
	p.Printf("%d. Name: %s\n", n, cred.Name)
	p.Printf("   Token: %s\n", cred.Token)
	if cred.Endpoint != "" {
		p.Printf("   Endpoint: %s\n", cred.Endpoint)
	}
	if !cred.LastModified.IsZero() {
		p.Printf("   Last Modified: %s\n", cred.LastModified.Format("2006-01-02 15:04:05"))
	}
	p.Println("")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}
	printer := newPrinter(cfg)

	token := resolveToken(cfg, logger.GetLogger())
	if token == "" {
		printer.Warning("Not logged in. Run 'ckpthub auth login' or set HF_TOKEN.")
		return nil
	}

	user, err := whoAmI(cmd.Context(), cfg, token)
	if err != nil {
		return fmt.Errorf("failed to check token: %w", err)
	}

	printer.Info("Endpoint", cfg.Hub.Endpoint)
	printer.Info("User", user.Name)
	if user.FullName != "" {
		printer.Info("Full name", user.FullName)
	}
	if len(user.Orgs) > 0 {
		orgs := make([]string, 0, len(user.Orgs))
		for _, org := range user.Orgs {
			orgs = append(orgs, org.Name)
		}
		printer.Info("Organizations", strings.Join(orgs, ", "))
	}
	printer.Info("Token", auth.MaskToken(token))
	return nil
}

func whoAmI(ctx context.Context, cfg *config.Config, token string) (*hub.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := hub.NewClient(hub.Options{
		Endpoint:   cfg.Hub.Endpoint,
		Token:      token,
		MaxRetries: cfg.Hub.MaxRetries,
		Logger:     logger.GetLogger(),
	})
	return client.WhoAmI(ctx)
}

// readPassword reads a secret without echo when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		bytePassword, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytePassword)), nil
	}

	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
