package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recent quizzes and scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		s, err := requireStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		quizzes, err := s.QuizRepo().Recent(ctx, store.DefaultQuizLimit)
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}
		results, err := s.ResultRepo().Recent(ctx, store.DefaultResultLimit)
		if err != nil {
			return fmt.Errorf("list results: %w", err)
		}

		if len(quizzes) == 0 && len(results) == 0 {
			fmt.Println("No quizzes saved yet.")
			return nil
		}

		fmt.Println("Recent Quizzes")
		fmt.Println(strings.Repeat("─", 72))
		for _, q := range quizzes {
			fmt.Printf("%-36s  %-24s  %-6s  %2d questions\n",
				q.ID, truncate(q.Topic, 24), q.Difficulty, len(q.Questions))
		}

		if len(results) == 0 {
			return nil
		}

		fmt.Println()
		fmt.Println("Recent Results")
		fmt.Println(strings.Repeat("─", 72))
		var correct, total int
		for _, r := range results {
			topic := r.QuizTopic
			if topic == "" {
				topic = "(deleted quiz)"
			}
			fmt.Printf("%-19s  %-24s  %-6s  %2d/%-2d\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(topic, 24), r.QuizDifficulty, r.Score.Correct, r.Score.Total)
			correct += r.Score.Correct
			total += r.Score.Total
		}
		fmt.Println(strings.Repeat("─", 72))
		if total > 0 {
			fmt.Printf("Overall: %d/%d correct (%.0f%%)\n", correct, total, 100*float64(correct)/float64(total))
		}
		return nil
	},
}
