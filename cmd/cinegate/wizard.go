package main

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var numericPattern = regexp.MustCompile(`^-?\d+$`)

// configInitCmd interactively builds a .env file with the settings the bot
// needs to start.
func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a .env file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("output")

			if _, err := os.Stat(out); err == nil {
				return fmt.Errorf("%s already exists, move it aside first", out)
			}

			var (
				apiID       string
				apiHash     string
				botToken    string
				adminID     string
				databaseURL string
				source      string
				channels    string
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("API ID").
						Description("Application ID from my.telegram.org").
						Validate(requireNumeric).
						Value(&apiID),
					huh.NewInput().
						Title("API hash").
						Validate(requireNonEmpty).
						Value(&apiHash),
					huh.NewInput().
						Title("Bot token").
						Description("From @BotFather, formatted <bot_id>:<hash>").
						EchoMode(huh.EchoModePassword).
						Validate(requireNonEmpty).
						Value(&botToken),
				),
				huh.NewGroup(
					huh.NewInput().
						Title("Admin user ID").
						Description("Numeric Telegram ID allowed to register movies").
						Validate(requireNumeric).
						Value(&adminID),
					huh.NewInput().
						Title("Database URL").
						Description("postgres:// URL or a SQLite file path").
						Placeholder("cinegate.db").
						Validate(requireNonEmpty).
						Value(&databaseURL),
					huh.NewInput().
						Title("Source channel").
						Description("@username or numeric ID of the upload channel").
						Validate(requireNonEmpty).
						Value(&source),
					huh.NewInput().
						Title("Gate channels").
						Description("Comma-separated channels users must join (empty = defaults)").
						Value(&channels),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}

			var sb strings.Builder
			writeVar := func(name, value string) {
				if value != "" {
					fmt.Fprintf(&sb, "%s=%s\n", name, value)
				}
			}
			writeVar("API_ID", apiID)
			writeVar("API_HASH", apiHash)
			writeVar("BOT_TOKEN", botToken)
			writeVar("ADMIN_ID", adminID)
			writeVar("DATABASE_URL", databaseURL)
			writeVar("SOURCE_CHANNEL", source)
			writeVar("CHANNELS", channels)

			if err := os.WriteFile(out, []byte(sb.String()), 0o600); err != nil {
				return err
			}
			fmt.Printf("Wrote %s. Review it, then run: cinegate start\n", out)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", ".env", "Path of the file to write")
	return cmd
}

func requireNonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

func requireNumeric(s string) error {
	if !numericPattern.MatchString(s) {
		return fmt.Errorf("must be a number")
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return fmt.Errorf("must fit in 64 bits")
	}
	return nil
}
