// dnsctl is a small command-line front end for the managed-DNS client SDK.
package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuriy-kovalchuk/yk-dns-client/clouddns"
	"github.com/yuriy-kovalchuk/yk-dns-client/internal/config"
)

var Version = "dev"

type app struct {
	configPath string
	verbose    bool
	log        logr.Logger
	svc        *clouddns.Service
}

// init builds the logger and the DNS service from the config file. Called
// from every command's PreRunE so flag parsing has already happened.
func (a *app) init() error {
	zc := zap.NewProductionConfig()
	if a.verbose {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zl, err := zc.Build()
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	a.log = zapr.NewLogger(zl)

	var cfg *config.Config
	if a.configPath != "" {
		cfg, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	policy, err := cfg.RetryPolicy()
	if err != nil {
		return err
	}
	a.svc, err = clouddns.NewService(a.log.WithName("clouddns"), clouddns.Options{
		Endpoint: cfg.Endpoint,
		Project:  cfg.Project,
		Token:    cfg.Token,
		Retry:    &policy,
	})
	return err
}

// zone resolves the named zone, failing loudly when it does not exist.
func (a *app) zone(cmd *cobra.Command, name string) (*clouddns.Zone, error) {
	z, err := a.svc.Zone(cmd.Context(), name)
	if err != nil {
		return nil, err
	}
	if z == nil {
		return nil, fmt.Errorf("zone %q not found", name)
	}
	return z, nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "dnsctl",
		Short:         "Manage zones and records of a managed DNS service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the client config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newZonesCmd(a))
	root.AddCommand(newZoneCmd(a))
	root.AddCommand(newRecordsCmd(a))
	root.AddCommand(newRecordCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
