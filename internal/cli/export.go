package cli

import (
	"encoding/json"
	"fmt"

	"github.com/rcliao/convoq/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export analyses as JSON",
		Long:  "Export every live analysis version with its full report as a JSON array. Filter by namespace with -n.",
		Run:   runExport,
	}

	cmd.Flags().StringP("ns", "n", "", "Filter by namespace")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	ns, _ := cmd.Flags().GetString("ns")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	analyses, err := s.ExportAll(cmd.Context(), ns)
	if err != nil {
		exitErr("export", err)
	}
	if analyses == nil {
		analyses = []model.Analysis{}
	}

	b, _ := json.MarshalIndent(analyses, "", "  ")
	fmt.Println(string(b))
}
