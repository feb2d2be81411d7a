package main

import (
	"github.com/spf13/cobra"
	"igharvest/pkg/report"
	"igharvest/pkg/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report <report.json>",
	Short: "Summarize the report of an earlier run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rep, err := report.Load(args[0])
		if err != nil {
			return err
		}

		ui.PrintInfo("Run", rep.RunID)
		ui.PrintInfo("Hashtag", "#"+rep.Topic)
		ui.PrintInfo("Started", rep.StartedAt.Local().Format("2006-01-02 15:04:05"))
		if rep.Duration != "" {
			ui.PrintInfo("Duration", rep.Duration)
		}
		ui.PrintInfo("Summary", rep.Summary())
		if rep.Error != "" {
			ui.PrintError("Error", rep.Error)
		}
		for _, s := range rep.Skipped {
			ui.PrintWarning("Skipped "+s.Stage+" "+s.Key, s.ErrorType)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
