// Package cmd implements the afsmon command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openstack-infra/afsmon/pkg/afs"
	"github.com/openstack-infra/afsmon/pkg/collect"
	"github.com/openstack-infra/afsmon/pkg/config"
	"github.com/openstack-infra/afsmon/pkg/invoke"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "afsmon",
	Short:         "Monitor the fileservers of an AFS cell",
	Long:          "afsmon queries the fileservers of an AFS cell with the OpenAFS\nadministration tools and reports thread, partition, and volume statistics.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath,
		"path to config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"enable debug logging")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(statsdCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if debug || cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
		log.Debug("Debugging enabled")
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// collectOnce loads the config, resolves the target fileservers, and runs
// one collection pass.
func collectOnce(ctx context.Context) (afs.CollectionResult, config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return afs.CollectionResult{}, cfg, nil, err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := invoke.NewExecRunner(log)
	collector := collect.New(collect.Config{
		Cell:          cfg.Cell,
		FileServers:   cfg.FileServers,
		Timeout:       cfg.Timeout.Std(),
		MaxConcurrent: cfg.MaxConcurrent,
	}, runner, log)

	hosts := append([]string(nil), cfg.FileServers...)
	if cfg.Cell != "" {
		discovered, err := collector.DiscoverFileServers(ctx)
		if err != nil {
			log.WithError(err).Warn("Fileserver discovery failed")
		} else {
			log.WithField("fileservers", discovered).Debug("Discovered cell fileservers")
			hosts = mergeHosts(discovered, hosts)
		}
	}
	if len(hosts) == 0 {
		return afs.CollectionResult{}, cfg, log, fmt.Errorf("no fileservers found for cell %q", cfg.Cell)
	}

	collector = collect.New(collect.Config{
		Cell:          cfg.Cell,
		FileServers:   hosts,
		Timeout:       cfg.Timeout.Std(),
		MaxConcurrent: cfg.MaxConcurrent,
	}, runner, log)

	return collector.Collect(ctx), cfg, log, nil
}

// mergeHosts joins discovered and configured fileservers, dropping
// duplicates while keeping order.
func mergeHosts(discovered, configured []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range append(discovered, configured...) {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

// failureErr maps a snapshot with failed targets onto a non-zero exit.
func failureErr(result afs.CollectionResult) error {
	if result.OK() {
		return nil
	}
	failed := 0
	for _, t := range result.Targets {
		if !t.Outcome.OK() {
			failed++
		}
	}
	return fmt.Errorf("collection failed for %d of %d fileservers", failed, len(result.Targets))
}
