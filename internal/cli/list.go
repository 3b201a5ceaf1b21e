package cli

import (
	"fmt"
	"io"

	"github.com/rcliao/convoq/internal/model"
	"github.com/rcliao/convoq/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List analyzed conversations",
		Run:   runList,
	}

	cmd.Flags().StringP("ns", "n", "", "Filter by namespace")
	cmd.Flags().String("persona", "", "Filter by persona label")
	cmd.Flags().String("status", "", "Filter by status: complete, pending_deep")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("keys-only", false, "Only output ns/key pairs")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")
	persona, _ := cmd.Flags().GetString("persona")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	keysOnly, _ := cmd.Flags().GetBool("keys-only")

	if status != "" && !model.ValidStatuses[status] {
		exitErr("list", fmt.Errorf("invalid status %q", status))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	analyses, err := s.List(cmd.Context(), store.ListParams{
		NS:      ns,
		Persona: persona,
		Status:  status,
		Limit:   limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if keysOnly {
		for _, a := range analyses {
			fmt.Printf("%s/%s\n", a.NS, a.Key)
		}
		return
	}

	if analyses == nil {
		analyses = []model.Analysis{}
	}
	printOut(analyses, func(w io.Writer) { writeAnalyses(w, analyses) })
}
