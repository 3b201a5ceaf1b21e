package cli

import (
	"fmt"
	"io"

	"github.com/rcliao/convoq/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}

	printOut(stats, func(w io.Writer) { writeStats(w, stats) })
}

func writeStats(w io.Writer, st *store.Stats) {
	fmt.Fprintf(w, "Database:  %s (%d bytes)\n", st.DBPath, st.DBSizeBytes)
	fmt.Fprintf(w, "Analyses:  %d active, %d total, %d pending deep\n", st.ActiveAnalyses, st.TotalAnalyses, st.PendingAnalyses)
	fmt.Fprintf(w, "Avg health: %.2f\n", st.AvgHealthScore)
	fmt.Fprintln(w, "Personas:")
	writeCounts(w, st.Personas)
	fmt.Fprintln(w, "Namespaces:")
	for _, ns := range st.Namespaces {
		fmt.Fprintf(w, "  %s: %d analyses, %d keys\n", ns.NS, ns.Count, ns.Keys)
	}
}
