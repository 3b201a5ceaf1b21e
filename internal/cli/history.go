package cli

import (
	"io"

	"github.com/rcliao/convoq/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored analyses of a conversation",
		Run:   runHistory,
	}

	cmd.Flags().StringP("ns", "n", "default", "Namespace")
	cmd.Flags().StringP("key", "k", "", "Conversation key (required)")
	cmd.Flags().Bool("latest", false, "Return only the latest version with its full report")
	cmd.Flags().Int("version", 0, "Specific version number")

	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	key, _ := cmd.Flags().GetString("key")
	latest, _ := cmd.Flags().GetBool("latest")
	version, _ := cmd.Flags().GetInt("version")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	analyses, err := s.Get(cmd.Context(), store.GetParams{
		NS:      ns,
		Key:     key,
		History: !latest && version == 0,
		Version: version,
	})
	if err != nil {
		exitErr("history", err)
	}

	if len(analyses) == 1 && (latest || version > 0) {
		a := analyses[0]
		printOut(a, func(w io.Writer) { writeStored(w, &a) })
		return
	}
	printOut(analyses, func(w io.Writer) { writeAnalyses(w, analyses) })
}
