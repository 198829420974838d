package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/careermatch/internal/ai"
	"github.com/spigell/careermatch/internal/clustering"
	"github.com/spigell/careermatch/internal/filtering"
	applog "github.com/spigell/careermatch/internal/logger"
	"github.com/spigell/careermatch/internal/matching"
	"github.com/spigell/careermatch/internal/pipeline"
	"github.com/spigell/careermatch/internal/posting"
	"github.com/spigell/careermatch/internal/report"
)

const (
	PromptTopMatches          = "Show top matches"
	PromptCluster             = "Cluster postings"
	PromptReportByCompany     = "Report by company"
	PromptHTMLReport          = "Write HTML report"
	PromptPostingsToFile      = "Dump postings to file"
	PromptAppendToExcludeFile = "Append all postings to exclude file"
	PromptAsk                 = "Ask the assistant"
	PromptExit                = "Exit"

	topMatches = 10
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "What next?",
	Items: []string{
		PromptTopMatches, PromptCluster, PromptReportByCompany, PromptHTMLReport,
		PromptPostingsToFile, PromptAppendToExcludeFile, PromptAsk, PromptExit,
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <resume>",
	Short: "Search postings for a resume, rank and cluster them",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		match(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().BoolP("auto", "y", false, "search, cluster and write the HTML report without prompts")
	matchCmd.Flags().Int("k", 0, "number of clusters (default is clustering.k from the config)")
	matchCmd.Flags().StringP("postings", "p", "", "rank postings from a JSON file instead of searching")
	matchCmd.Flags().BoolP("do-not-exclude-seen", "f", false, "keep postings listed in the exclude file")
}

// state is what the menu actions share for one run.
type state struct {
	orch      *pipeline.Orchestrator
	session   *pipeline.Session
	assistant ai.Responder
	config    *Config
	logger    *zap.Logger
	k         int
}

func match(cmd *cobra.Command, resumePath string) {
	ctx := context.Background()

	logger, config := bootstrap()
	defer flushMetrics(logger, config)

	logger.Info("starting the careermatch", zap.String("version", version))

	postingsFile, _ := cmd.Flags().GetString("postings")

	orch, err := newOrchestrator(ctx, config, logger, postingsFile == "")
	if err != nil {
		logger.Fatal("preparing the pipeline", zap.Error(err))
	}

	if keep, _ := cmd.Flags().GetBool("do-not-exclude-seen"); keep {
		filtering.DisableByName(orch.Filters, "exclude_file", "disabled by --do-not-exclude-seen")
	}
	logger.Debug("filters", zap.Any("steps", filtering.Describe(orch.Filters)))

	st := &state{
		orch:      orch,
		session:   loadResume(ctx, orch, resumePath, logger),
		assistant: newAssistant(ctx, config.Assistant, logger),
		config:    config,
		logger:    logger,
		k:         config.Clustering.K,
	}
	if k, _ := cmd.Flags().GetInt("k"); k > 0 {
		st.k = k
	}

	result, err := st.rank(ctx, postingsFile)
	if err != nil {
		logger.Error("ranking postings", zap.Error(err))
		return
	}

	if result.Outcome == matching.NoPostings {
		logger.Info("exiting", zap.String("reason", "no postings found"))
		return
	}

	if auto, _ := cmd.Flags().GetBool("auto"); auto {
		st.cluster(ctx, st.k)
		if err := st.writeReport(); err != nil {
			logger.Error("writing report", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Info("exiting", zap.Error(err))
			return
		}

		if err := st.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func (st *state) rank(ctx context.Context, postingsFile string) (matching.Result, error) {
	logger := applog.WithSession(st.logger, st.session.ID)
	logger.Info("resume skills", zap.Strings("skills", st.orch.SkillList(st.session)))

	if postingsFile != "" {
		found, err := readPostingsFile(postingsFile)
		if err != nil {
			return matching.Result{}, fmt.Errorf("reading postings: %w", err)
		}
		logger.Info("postings loaded from file", zap.String("filename", postingsFile), zap.Int("count", found.Len()))
		return st.orch.RankPostings(ctx, st.session, found)
	}

	logger.Info("starting the search")
	return st.orch.Search(ctx, st.session)
}

func (st *state) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptTopMatches:
		st.printTop()
		return nil
	case PromptCluster:
		k, err := askK(st.k)
		if err != nil {
			return err
		}
		st.k = k
		st.cluster(ctx, k)
		return nil
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(posting.ReportByCompany(st.session.Ranking.Postings), "", "  ")
		st.logger.Info(string(pretty), zap.Int("posting_count", len(st.session.Ranking.Postings)))
		return nil
	case PromptHTMLReport:
		return st.writeReport()
	case PromptPostingsToFile:
		filename, err := posting.DumpToTmpFile("careermatch_postings_*.json", st.dumpable())
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		st.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return st.appendToExcludeFile()
	case PromptAsk:
		return st.ask(ctx)
	case PromptExit:
		st.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (st *state) printTop() {
	for i, item := range st.session.Top(topMatches) {
		score := "n/a"
		if item.Scored {
			score = fmt.Sprintf("%.4f", item.Score)
		}
		fmt.Printf("%2d. [%s] %s / %s / %s\n", i+1, score, item.Title, item.Company, item.ApplyLink)
	}
	if gap := st.session.Ranking.Gap; len(gap) > 0 {
		fmt.Printf("Skills worth adding: %v\n", gap)
	}
}

// cluster logs and swallows clustering failures; the ranking stays usable.
func (st *state) cluster(ctx context.Context, k int) {
	result, err := st.orch.Cluster(ctx, st.session, k)
	switch {
	case errors.Is(err, clustering.ErrNoContent):
		st.logger.Warn("no posting content to cluster")
		return
	case err != nil:
		st.logger.Warn("clustering failed, showing ranked postings only", zap.Error(err))
		return
	case result.Outcome == clustering.Skipped:
		st.logger.Info("clustering skipped",
			zap.String("reason", "fewer postings than clusters"),
			zap.Int("posting_count", len(result.Ranked)),
			zap.Int("k", k),
		)
		return
	}

	for id, group := range clustering.Groups(result.Postings) {
		titles := make([]string, 0, len(group))
		for _, item := range group {
			titles = append(titles, item.Title)
		}
		st.logger.Info("cluster", zap.Int("cluster_id", id), zap.Strings("titles", titles))
	}
}

func (st *state) writeReport() error {
	r := report.Build(st.session, st.orch.SkillList(st.session), time.Now())

	filename, err := report.WriteTmpHTML(r)
	if err != nil {
		return err
	}
	st.logger.Info("report written", zap.String("filename", filename))
	return nil
}

// dumpable prefers clustered postings so the dump carries coordinates.
func (st *state) dumpable() any {
	if st.session.Clustering != nil {
		return st.session.Clustering.Postings
	}
	return st.session.Ranking.Postings
}

func (st *state) appendToExcludeFile() error {
	path := st.config.Search.ExcludeFile
	if path == "" {
		return errors.New("search.exclude-file is not configured")
	}

	added, err := filtering.AppendToFile(path, st.session.Postings.Items, time.Now())
	if err != nil {
		return err
	}
	st.logger.Info("appended to exclude file", zap.String("filename", path), zap.Int("added", added))
	return nil
}

func (st *state) ask(ctx context.Context) error {
	question, err := (&promptui.Prompt{Label: "Question"}).Run()
	if err != nil {
		return err
	}

	answer, err := st.orch.Ask(ctx, st.session, st.assistant, question)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func askK(current int) (int, error) {
	p := promptui.Prompt{
		Label:   "Number of clusters",
		Default: strconv.Itoa(current),
		Validate: func(s string) error {
			k, err := strconv.Atoi(s)
			if err != nil || k <= 0 {
				return errors.New("enter a positive number")
			}
			return nil
		},
	}

	value, err := p.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}
