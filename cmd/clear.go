package cmd

import (
	"context"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ledger"
	"github.com/spigell/cv-screener/internal/store"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the briefs, analyses and ledger entries of one opening",
	Run: func(cmd *cobra.Command, _ []string) {
		clearOpening(cmd)
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	clearCmd.Flags().StringP("opening", "o", "", "opening id to clear")
	clearCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	clearCmd.MarkFlagRequired("opening")
}

func clearOpening(cmd *cobra.Command) {
	ctx := context.Background()

	a := newApplication()
	defer a.Close()

	id, _ := cmd.Flags().GetString("opening")
	opening, err := a.store.Opening(id)
	if err != nil {
		a.logger.Fatal("finding opening", zap.Error(err))
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		confirm := promptui.Prompt{
			Label:     fmt.Sprintf("Delete every analysis of %q (%s)", opening.Title, opening.ID),
			IsConfirm: true,
		}
		if _, err := confirm.Run(); err != nil {
			a.logger.Info("exiting", zap.String("reason", "clear not confirmed"))
			return
		}
	}

	l, err := a.ledger(ctx)
	if err != nil {
		a.logger.Fatal("building ledger", zap.Error(err))
	}

	forgotten, cleared, err := clearResults(ctx, l, a.store, opening.ID)
	if err != nil {
		a.logger.Fatal("clearing opening", zap.Error(err))
	}

	a.logger.Info("opening cleared",
		zap.String("opening_id", opening.ID),
		zap.Int("briefs", cleared.Briefs),
		zap.Int("analysis", cleared.Analysis),
		zap.Int("files", cleared.Files),
		zap.Int("ledger_entries", forgotten),
	)
}

// clearResults forgets the ledger entries before deleting results. If it stops
// halfway the documents get screened again instead of being skipped forever.
func clearResults(ctx context.Context, l ledger.Ledger, s *store.Store, openingID string) (int, store.Cleared, error) {
	forgotten, err := l.Forget(ctx, openingID)
	if err != nil {
		return forgotten, store.Cleared{}, fmt.Errorf("clearing ledger: %w", err)
	}

	cleared, err := s.ClearOpening(openingID)
	if err != nil {
		return forgotten, cleared, fmt.Errorf("clearing results: %w", err)
	}
	return forgotten, cleared, nil
}
