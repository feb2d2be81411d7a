package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"igharvest/pkg/auth"
	"igharvest/pkg/logger"
	"igharvest/pkg/session"
	"igharvest/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored Instagram sessions",
	Long: `Manage browser sessions stored for reuse with --account.

Sessions are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation (IGHARVEST_PASSPHRASE)
  - Environment variables IGHARVEST_COOKIES or IGHARVEST_SESSION_ID (read only)

Never share stored sessions: they give full access to the account.`,
}

var loginCmd = &cobra.Command{
	Use:   "login <account>",
	Short: "Log in through the browser and store the session",
	Long: `Open Chrome on the Instagram login page, wait until you have logged in,
and store the resulting session cookies under <account>.`,
	Example: `  igharvest auth login me`,
	Args:    cobra.ExactArgs(1),
	RunE:    runLogin,
}

var importCmd = &cobra.Command{
	Use:   "import <account>",
	Short: "Store a session copied from another browser",
	Long: `Store a session from the Cookie header of a logged-in browser tab.
The value is read without echo.`,
	Example: `  igharvest auth import me`,
	Args:    cobra.ExactArgs(1),
	RunE:    runImport,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <account>",
	Short: "Remove a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions with masked cookie values",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(importCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	account := strings.TrimSpace(args[0])
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	log := logger.GetLogger()

	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}

	br, err := launchBrowser(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer br.Close()

	gate := newGate(ui.NewNotifier(cfg.Notifications.Enabled), log)
	if err := waitForBrowserLogin(cmd.Context(), br, gate, cfg); err != nil {
		return err
	}

	bag, err := session.Bridge(cmd.Context(), br.HomeCookies(cfg.Browser.HomeSettle))
	if err != nil {
		return err
	}
	if err := manager.SaveSession(account, bag); err != nil {
		return err
	}

	ui.PrintSuccess("Session stored: " + account)
	fmt.Fprintf(ui.Output, "\nUse it with:\n  igharvest harvest <hashtag> --account %s\n", account)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	account := strings.TrimSpace(args[0])
	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}

	if existing, _ := manager.Retrieve(account); existing != nil {
		if !confirm(fmt.Sprintf("Session '%s' already exists. Replace it? (y/N): ", account)) {
			return nil
		}
	}

	auth.ShowQuickImportGuide(ui.Output)
	var bag session.CredentialBag
	for bag == nil {
		fmt.Fprint(ui.Output, "\nCookie header value: ")
		line, err := readSecret()
		if err != nil {
			return fmt.Errorf("reading cookie header: %w", err)
		}
		if strings.EqualFold(strings.TrimSpace(line), "help") {
			auth.ShowCookieImportGuide(ui.Output)
			continue
		}

		parsed, err := session.ParseHeader(line)
		if err != nil || parsed.Get("sessionid") == "" {
			ui.PrintError("That value has no sessionid cookie")
			if !confirm("Try again? (Y/n): ") {
				return nil
			}
			continue
		}
		bag = parsed
	}

	if err := manager.SaveSession(account, bag); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Session stored: %s (%d cookies)", account, len(bag)))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess("Session removed: " + args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager("")
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}

	sessions, err := manager.List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		ui.PrintInfo("No stored sessions", "Use 'igharvest auth login <account>' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Sessions")
	fmt.Fprintln(ui.Output)
	for i, s := range sessions {
		masked := auth.Sanitize(s)
		fmt.Fprintf(ui.Output, "%d. Account: %s\n", i+1, masked.Account)
		for _, name := range masked.Cookies.Names() {
			fmt.Fprintf(ui.Output, "   %s: %s\n", name, masked.Cookies.Get(name))
		}
		fmt.Fprintf(ui.Output, "   Last Modified: %s\n\n", masked.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

var stdin = bufio.NewReader(os.Stdin)

// confirm asks a yes/no question; the default is the capital letter in prompt
func confirm(prompt string) bool {
	fmt.Fprint(ui.Output, prompt)
	input, _ := stdin.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(input))
	if answer == "" {
		return strings.Contains(prompt, "Y/n")
	}
	return strings.HasPrefix(answer, "y")
}

// readSecret reads a line from stdin without echoing when stdin is a terminal
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(ui.Output)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := stdin.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
