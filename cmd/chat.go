package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat <resume>",
	Short: "Ask career questions with your resume as context",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		chat(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolP("search", "s", false, "search postings first so the top matches are part of the context")
}

func chat(cmd *cobra.Command, resumePath string) {
	ctx := context.Background()

	logger, config := bootstrap()
	defer flushMetrics(logger, config)

	search, _ := cmd.Flags().GetBool("search")

	orch, err := newOrchestrator(ctx, config, logger, search)
	if err != nil {
		logger.Fatal("preparing the pipeline", zap.Error(err))
	}

	assistant := newAssistant(ctx, config.Assistant, logger)
	if assistant == nil {
		logger.Fatal("no assistant provider is configured",
			zap.String("hint", "set OPENAI_API_KEY or GEMINI_API_KEY, or the assistant section in the configuration file"),
		)
	}

	session := loadResume(ctx, orch, resumePath, logger)

	if search {
		if _, err := orch.Search(ctx, session); err != nil {
			logger.Warn("search failed, chatting with the resume only", zap.Error(err))
		}
	}

	question := promptui.Prompt{Label: "Question (empty to exit)"}
	for {
		q, err := question.Run()
		if err != nil {
			if !errors.Is(err, promptui.ErrInterrupt) && !errors.Is(err, promptui.ErrEOF) {
				logger.Error("reading question", zap.Error(err))
			}
			return
		}

		q = strings.TrimSpace(q)
		if q == "" || strings.EqualFold(q, "exit") {
			return
		}

		answer, err := orch.Ask(ctx, session, assistant, q)
		if err != nil {
			logger.Error("assistant failed", zap.Error(err))
			continue
		}
		fmt.Println(answer)
	}
}
