package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/openstack-infra/afsmon/pkg/report"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a table of fileserver statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, cfg, _, err := collectOnce(cmd.Context())
		if err != nil {
			return err
		}
		sink := report.NewTable(os.Stdout, cfg.QuotaWarnPercent)
		if err := sink.Report(result); err != nil {
			return err
		}
		return failureErr(result)
	},
}
