package cmd

import (
	"fmt"

	"spark-client/pkg/screens"
	"spark-client/pkg/session"

	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:       "theme [SYSTEM|LIGHT|DARK]",
	Short:     "Show or change the theme",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(session.ThemeSystem), string(session.ThemeLight), string(session.ThemeDark)},
	RunE: withRuntime(func(cmd *cobra.Command, rt *runtime, args []string) error {
		s := screens.NewSettings(rt.session, rt.app)
		if len(args) == 1 {
			theme, err := session.ParseTheme(args[0])
			if err != nil {
				return err
			}
			if err := s.SetTheme(cmd.Context(), theme); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.Theme())
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
