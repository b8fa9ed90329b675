package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mythosai/mythos/internal/app"
	"github.com/mythosai/mythos/internal/config"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the saved lessons, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Display one saved lesson",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved lessons",
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

// withApp loads configuration, wires the application and runs fn against it.
func withApp(cmd *cobra.Command, fn func(*app.App) error) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := app.Setup(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("closing storage", "error", closeErr)
		}
	}()

	return fn(a)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		items := a.History.List()
		if len(items) == 0 {
			fmt.Println("No saved lessons.")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%s  %s  [%s/%s]  %s\n",
				item.ID,
				item.SavedAt.Format("2006-01-02 15:04"),
				item.Genre,
				item.Media,
				item.Title)
		}
		return nil
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(a *app.App) error {
		item, err := a.History.Get(args[0])
		if err != nil {
			return fmt.Errorf("lesson %q: %w", args[0], err)
		}
		return printLesson(item)
	})
}

func runHistoryClear(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(a *app.App) error {
		if err := a.History.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clearing history: %w", err)
		}
		fmt.Println("History cleared.")
		return nil
	})
}
