package cli

import (
	"io"

	"github.com/rcliao/convoq/internal/model"
	"github.com/rcliao/convoq/internal/store"
	"github.com/rcliao/convoq/internal/trend"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Evaluate the trend of a stored conversation",
		Long:  "Compare the latest stored analysis of ns/key against the analyses before it.",
		Run:   runTrend,
	}

	cmd.Flags().StringP("ns", "n", "default", "Namespace")
	cmd.Flags().StringP("key", "k", "", "Conversation key (required)")

	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runTrend(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	key, _ := cmd.Flags().GetString("key")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	snaps, err := s.Recent(cmd.Context(), ns, key, trend.MaxHistory+1)
	if err != nil {
		exitErr("trend", err)
	}
	if len(snaps) == 0 {
		exitErr("trend", store.ErrNotFound)
	}

	t := evaluateStored(snaps)
	printOut(t, func(w io.Writer) { writeTrend(w, &t) })
}

// evaluateStored treats the newest complete snapshot as current and the
// rest as its history. Pending fast-pass snapshots never count as current.
func evaluateStored(snaps []model.Snapshot) model.Trend {
	for len(snaps) > 0 && !snaps[0].Complete() {
		snaps = snaps[1:]
	}
	if len(snaps) == 0 {
		return model.Trend{
			Decision:      trend.NotEnoughData,
			DecisionColor: trend.ColorGray,
			Reasons:       []string{trend.ReasonMoreData},
		}
	}
	return trend.Evaluate(snaps[0], snaps[1:])
}
