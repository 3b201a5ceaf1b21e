package cli

import (
	"io"

	"github.com/rcliao/convoq/internal/parser"
	"github.com/rcliao/convoq/internal/timestamp"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a transcript into messages",
		Long:  "Parse an exported chat transcript and print the reconstructed messages. Nothing is stored.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runParse,
	}

	cmd.Flags().String("date-format", "auto", "Date format hint; when set, timestamps are normalized to YYYY-MM-DD HH:MM:SS")

	RootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) {
	dateFormat, _ := cmd.Flags().GetString("date-format")

	hint, err := timestamp.ParseDateFormat(dateFormat)
	if err != nil {
		exitErr("parse", err)
	}
	text, err := readTranscript(args)
	if err != nil {
		exitErr("read transcript", err)
	}

	msgs := parser.Parse(text, parser.Options{DateFormat: hint})
	newLogger().Debug("parsed transcript", "messages", len(msgs))

	printOut(msgs, func(w io.Writer) { writeMessages(w, msgs) })
}
