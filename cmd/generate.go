package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizgen/internal/quiz"
	"github.com/abhisek/quizgen/internal/quizgen"
	"github.com/abhisek/quizgen/internal/store"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a quiz from the terminal",
	Long: `Run the generation pipeline once and print the quiz as JSON.

With --play the quiz is answered interactively instead and scored at the
end. When a database is configured the quiz and the result are saved.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("topic", "", "Quiz topic (required)")
	generateCmd.Flags().String("difficulty", string(quiz.DifficultyMedium), "Difficulty: Easy, Medium or Hard")
	generateCmd.Flags().Int("count", 0, "Number of questions (clamped to the configured bounds)")
	generateCmd.Flags().Bool("no-retrieval", false, "Skip Wikipedia grounding")
	generateCmd.Flags().Bool("fresh", false, "Ignore any cached quiz for this topic")
	generateCmd.Flags().Bool("play", false, "Answer the quiz interactively")
	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	difficultyVal, _ := cmd.Flags().GetString("difficulty")
	count, _ := cmd.Flags().GetInt("count")
	noRetrieval, _ := cmd.Flags().GetBool("no-retrieval")
	fresh, _ := cmd.Flags().GetBool("fresh")
	play, _ := cmd.Flags().GetBool("play")

	difficulty, err := quiz.ParseDifficulty(difficultyVal)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	ctx := context.Background()

	var events store.EventRepo
	s, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if s != nil {
		defer s.Close()
		events = s.EventRepo()
	}

	p, err := buildPipeline(ctx, cfg, logger, events)
	if err != nil {
		return err
	}
	defer p.Close()

	out, err := p.generator.Generate(ctx, quizgen.Input{
		Topic:        topic,
		Difficulty:   difficulty,
		UseRetrieval: !noRetrieval,
		NumQuestions: count,
		ForceFresh:   fresh,
	})
	if err != nil {
		return err
	}

	var quizID string
	if s != nil {
		quizID, err = s.QuizRepo().Save(ctx, out.Quiz)
		if err != nil {
			return fmt.Errorf("save quiz: %w", err)
		}
	}

	if !play {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out.Quiz)
	}

	w := cmd.OutOrStdout()
	title := out.Quiz.Topic
	if out.AssumedTitle != "" {
		title = out.AssumedTitle
	}
	fmt.Fprintf(w, "Quiz: %s (%s)", title, out.Quiz.Difficulty)
	if out.CacheHit {
		fmt.Fprint(w, " [cached]")
	}
	if out.Ambiguous {
		fmt.Fprint(w, " [ambiguous topic]")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	answers := playQuiz(out.Quiz, cmd.InOrStdin(), w)
	score := out.Quiz.Score(answers)
	fmt.Fprintf(w, "── Summary: %d/%d correct ──\n", score.Correct, score.Total)

	if quizID != "" {
		res, err := s.ResultRepo().Create(ctx, quizID, answers)
		if err != nil {
			return fmt.Errorf("save result: %w", err)
		}
		fmt.Fprintf(w, "Saved result %s\n", res.ID)
	}
	return nil
}

// playQuiz asks each question on w and reads answers from r. Blank or
// unreadable answers count as unanswered.
func playQuiz(q quiz.Quiz, r io.Reader, w io.Writer) []int {
	scanner := bufio.NewScanner(r)
	answers := quiz.NormalizeAnswers(nil, len(q.Questions))

	for i, question := range q.Questions {
		fmt.Fprintf(w, "── Question %d/%d ──\n", i+1, len(q.Questions))
		fmt.Fprintln(w, question.Question)
		for j, opt := range question.Options {
			fmt.Fprintf(w, "  %d) %s\n", j+1, opt)
		}

		fmt.Fprint(w, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(w, "\n(input closed)")
			break
		}
		choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil || choice < 1 || choice > len(question.Options) {
			fmt.Fprintf(w, "(skipped)\n\n")
			continue
		}
		answers[i] = choice - 1

		if answers[i] == question.AnswerIndex {
			fmt.Fprintln(w, "\033[32m✓ Correct!\033[0m")
		} else {
			fmt.Fprintf(w, "\033[31m✗ Wrong.\033[0m Answer: %s\n", question.Options[question.AnswerIndex])
		}
		if question.Explanation != "" {
			fmt.Fprintf(w, "Explanation: %s\n", question.Explanation)
		}
		fmt.Fprintln(w)
	}
	return answers
}
