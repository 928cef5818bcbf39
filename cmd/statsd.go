package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openstack-infra/afsmon/pkg/report"
)

var statsdCmd = &cobra.Command{
	Use:   "statsd",
	Short: "Push fileserver statistics to a statsd collector",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, cfg, log, err := collectOnce(cmd.Context())
		if err != nil {
			return err
		}
		sink, err := report.NewStatsd(cfg.Statsd.Address(), cfg.Statsd.Prefix, log)
		if err != nil {
			return err
		}
		defer sink.Close()
		if err := sink.Report(result); err != nil {
			return err
		}
		return failureErr(result)
	},
}
