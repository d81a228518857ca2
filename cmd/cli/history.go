package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sevigo/codescribe/internal/wire"
)

var historyCmd = &cobra.Command{
	Use:   "history [owner/repo] [pr-number]",
	Short: "Show the most recent comment the bot posted on a pull request.",
	Args:  cobra.ExactArgs(2),
	Run: func(_ *cobra.Command, args []string) {
		repoFullName := args[0]
		prNumber, err := strconv.Atoi(args[1])
		if err != nil {
			slog.Error("pr-number must be an integer", "got", args[1])
			return
		}

		store, cleanup, err := wire.InitializeHistoryStore()
		if err != nil {
			slog.Error("failed to initialize history store", "error", err)
			return
		}
		defer cleanup()

		review, err := store.GetLatestReviewForPR(context.Background(), repoFullName, prNumber)
		if err != nil {
			slog.Error("failed to look up review history", "repo", repoFullName, "pr", prNumber, "error", err)
			return
		}

		fmt.Printf("[%s] %s#%d at %s\n\n%s\n",
			review.Kind, review.RepoFullName, review.PRNumber,
			review.CreatedAt.Format("2006-01-02 15:04:05"), review.Body)
	},
}
