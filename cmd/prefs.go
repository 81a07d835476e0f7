package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/folio/internal/i18n"
	"github.com/conneroisu/folio/internal/prefs"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Read and change the stored locale and theme",
	Long: `Read and change the persisted reader preferences. The preview server
watches the same storage, so changes made here reach open browsers.

Examples:
  folio prefs get                  # Active locale and theme
  folio prefs set-locale en        # Switch to English
  folio prefs set-theme ocean-blue # Pick a theme
  folio prefs toggle-dark          # Flip between light and dark
  folio prefs themes               # The theme catalog
  folio prefs reset                # Forget both choices`,
}

var prefsFormat string

var prefsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the active locale and theme",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPreferences(cmd, func(p *prefs.Preferences) error {
			return outputPreferences(cmd.OutOrStdout(), p)
		})
	},
}

var prefsSetLocaleCmd = &cobra.Command{
	Use:       "set-locale <locale>",
	Short:     "Persist the locale (zh or en)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(i18n.ZH), string(i18n.EN)},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPreferences(cmd, func(p *prefs.Preferences) error {
			locale := i18n.Locale(args[0])
			if l, ok := i18n.ParseLocale(args[0]); ok {
				locale = l
			}
			if err := p.Locale.SetLocale(cmd.Context(), locale); err != nil {
				return err
			}
			return outputPreferences(cmd.OutOrStdout(), p)
		})
	},
}

var prefsSetThemeCmd = &cobra.Command{
	Use:   "set-theme <theme>",
	Short: "Persist the theme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPreferences(cmd, func(p *prefs.Preferences) error {
			if err := p.Theme.SetTheme(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("%w (want one of: %s)", err, prefs.ThemeIDs())
			}
			return outputPreferences(cmd.OutOrStdout(), p)
		})
	},
}

var prefsToggleDarkCmd = &cobra.Command{
	Use:   "toggle-dark",
	Short: "Switch between the light and dark counterpart of the theme",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPreferences(cmd, func(p *prefs.Preferences) error {
			if err := p.Theme.ToggleDark(cmd.Context()); err != nil {
				return err
			}
			return outputPreferences(cmd.OutOrStdout(), p)
		})
	},
}

var prefsThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List the available themes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if strings.EqualFold(prefsFormat, "json") {
			return outputJSON(w, prefs.Themes())
		}
		for _, t := range prefs.Themes() {
			brightness := "light"
			if t.IsDark {
				brightness = "dark"
			}
			fmt.Fprintf(w, "%s %-14s %-14s %s\n", t.Emoji, t.ID, t.Name, brightness)
		}
		return nil
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the stored locale and theme",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices(cmd)
		if err != nil {
			return err
		}
		storage, err := prefs.NewStorage(svc.cfg.Preferences, svc.logger)
		if err != nil {
			return err
		}
		if closer, ok := storage.(io.Closer); ok {
			defer closer.Close()
		}
		for _, key := range []string{svc.cfg.Preferences.LocaleKey, svc.cfg.Preferences.ThemeKey} {
			if err := storage.Delete(key); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Preferences reset")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsGetCmd, prefsSetLocaleCmd, prefsSetThemeCmd, prefsToggleDarkCmd, prefsThemesCmd, prefsResetCmd)

	prefsCmd.PersistentFlags().StringVarP(&prefsFormat, "format", "f", "text", "Output format (text, json)")
	AddFlagValidation(prefsCmd, "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"text", "json"})
	})
}

// withPreferences opens the stores, runs fn and closes them.
func withPreferences(cmd *cobra.Command, fn func(*prefs.Preferences) error) error {
	svc, err := newServices(cmd)
	if err != nil {
		return err
	}
	p, err := svc.Preferences(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(p)
}

// PreferencesView is the JSON shape of the prefs commands.
type PreferencesView struct {
	Locale i18n.Locale `json:"locale"`
	Theme  prefs.Theme `json:"theme"`
	IsDark bool        `json:"isDark"`
}

func outputPreferences(w io.Writer, p *prefs.Preferences) error {
	theme := p.Theme.Theme()
	view := PreferencesView{Locale: p.Locale.Locale(), Theme: theme, IsDark: theme.IsDark}
	if strings.EqualFold(prefsFormat, "json") {
		return outputJSON(w, view)
	}
	fmt.Fprintf(w, "locale: %s\n", view.Locale)
	fmt.Fprintf(w, "theme:  %s %s (%s)\n", theme.Emoji, theme.ID, theme.Name)
	fmt.Fprintf(w, "dark:   %t\n", view.IsDark)
	return nil
}
