package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var skillsCmd = &cobra.Command{
	Use:   "skills <resume>",
	Short: "Print the skills detected in a resume",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()

		logger, config := bootstrap()

		orch, err := newOrchestrator(ctx, config, logger, false)
		if err != nil {
			logger.Fatal("preparing the pipeline", zap.Error(err))
		}

		list := orch.SkillList(loadResume(ctx, orch, args[0], logger))

		if len(list) == 0 {
			logger.Info("no known skills found", zap.Int("vocabulary_size", len(orch.Vocabulary)))
			return
		}

		pretty, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(pretty))
	},
}

func init() {
	rootCmd.AddCommand(skillsCmd)
}
