package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rcliao/convoq/internal/analysis"
	"github.com/rcliao/convoq/internal/coach"
	"github.com/rcliao/convoq/internal/model"
	"github.com/rcliao/convoq/internal/sentiment"
	"github.com/rcliao/convoq/internal/store"
	"github.com/rcliao/convoq/internal/timestamp"
	"github.com/rcliao/convoq/internal/toxicity"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze a chat transcript",
		Long: "Analyze an exported chat transcript and store the result as a new version of ns/key.\n" +
			"The transcript is read from the file argument or piped via stdin.",
		Args: cobra.MaximumNArgs(1),
		Run:  runAnalyze,
	}

	cmd.Flags().StringP("ns", "n", "default", "Namespace")
	cmd.Flags().StringP("key", "k", "", "Conversation key (required unless --no-save)")
	cmd.Flags().String("date-format", "auto", "Date format hint: auto, mm/dd/yyyy, dd/mm/yyyy, mm/dd/yy, dd/mm/yy")
	cmd.Flags().Float64("gap-hours", 6, "Silence in hours after which a message starts a new conversation")
	cmd.Flags().Bool("fast", false, "Skip toxicity, conflict scan and trend; store as pending_deep")
	cmd.Flags().Bool("no-save", false, "Do not store the analysis")
	cmd.Flags().Bool("coach", false, "Ask the coach for a narrative (needs OPENAI_API_KEY)")
	cmd.Flags().Bool("no-judge", false, "Do not send flagged conflict windows to the LLM judge")
	cmd.Flags().String("toxicity", "", "Toxicity provider: local, huggingface, off (default: $CONVOQ_TOXICITY_PROVIDER or local)")

	RootCmd.AddCommand(cmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	key, _ := cmd.Flags().GetString("key")
	dateFormat, _ := cmd.Flags().GetString("date-format")
	gapHours, _ := cmd.Flags().GetFloat64("gap-hours")
	fast, _ := cmd.Flags().GetBool("fast")
	noSave, _ := cmd.Flags().GetBool("no-save")
	withCoach, _ := cmd.Flags().GetBool("coach")
	provider, _ := cmd.Flags().GetString("toxicity")
	noJudge, _ := cmd.Flags().GetBool("no-judge")

	if !noSave && key == "" {
		exitErr("analyze", fmt.Errorf("--key is required unless --no-save"))
	}
	hint, err := timestamp.ParseDateFormat(dateFormat)
	if err != nil {
		exitErr("analyze", err)
	}
	if gapHours <= 0 {
		exitErr("analyze", fmt.Errorf("--gap-hours must be positive"))
	}

	text, err := readTranscript(args)
	if err != nil {
		exitErr("read transcript", err)
	}

	logger := newLogger()

	var detector *toxicity.Detector
	if provider != "" {
		detector, err = toxicity.NewForProvider(provider, toxicity.WithLogger(logger))
	} else {
		detector, err = toxicity.NewFromEnv(toxicity.WithLogger(logger))
	}
	if err != nil {
		exitErr("toxicity", err)
	}

	opts := []analysis.Option{
		analysis.WithDateFormat(hint),
		analysis.WithSilenceThreshold(time.Duration(gapHours * float64(time.Hour))),
		analysis.WithFast(fast),
		analysis.WithSentiment(sentiment.NewVader()),
		analysis.WithLogger(logger),
	}
	if detector != nil {
		opts = append(opts, analysis.WithToxicity(detector))
	}
	if !noJudge {
		if j := coach.NewJudgeFromEnv(); j != nil {
			opts = append(opts, analysis.WithJudge(j))
		}
	}
	if withCoach {
		if n := coach.NewFromEnv(); n != nil {
			opts = append(opts, analysis.WithNarrator(n))
		}
	}

	var s *store.SQLiteStore
	if key != "" {
		s, err = openStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer s.Close()
		opts = append(opts, analysis.WithHistory(s))
	}

	p := analysis.New(opts...)
	ctx := cmd.Context()

	report, err := p.Analyze(ctx, text)
	if err != nil {
		exitErr("analyze", err)
	}
	if key != "" {
		if err := p.AttachTrend(ctx, report, ns, key); err != nil {
			exitErr("trend", err)
		}
	}
	if withCoach {
		p.Narrate(ctx, report)
	}

	if noSave {
		printOut(report, func(w io.Writer) { writeReport(w, report) })
		return
	}

	a, err := s.Put(ctx, store.PutParams{NS: ns, Key: key, Report: report})
	if err != nil {
		exitErr("save analysis", err)
	}
	logger.Debug("analysis stored", "id", a.ID, "ns", ns, "key", key, "version", a.Version)

	printOut(a, func(w io.Writer) { writeStored(w, a) })
}

func writeStored(w io.Writer, a *model.Analysis) {
	fmt.Fprintf(w, "%s/%s v%d (%s)\n\n", a.NS, a.Key, a.Version, a.ID)
	if a.Report != nil {
		writeReport(w, a.Report)
	}
}
