package main

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"github.com/spf13/cobra"

	"github.com/yuriy-kovalchuk/yk-dns-client/clouddns"
)

// warnUnknownType flags a probable typo without rejecting the record; the
// record type is an opaque tag to the backend, not a closed enum.
func warnUnknownType(a *app, rtype string) {
	if _, ok := dns.StringToType[strings.ToUpper(rtype)]; !ok {
		a.log.Info("unrecognized record type, submitting anyway", "type", rtype)
	}
}

func printChange(ch *clouddns.Change) {
	if ch == nil {
		fmt.Println("no change needed")
		return
	}
	fmt.Printf("change %s: %s (+%d/-%d)\n", ch.ID, ch.Status, len(ch.Additions), len(ch.Deletions))
}

func newRecordsCmd(a *app) *cobra.Command {
	var (
		name  string
		rtype string
		max   int
	)
	cmd := &cobra.Command{
		Use:   "records ZONE",
		Short: "List a zone's record sets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(cmd, args[0])
			if err != nil {
				return err
			}
			list, err := z.Records(cmd.Context(), name, rtype, max)
			if err != nil {
				return err
			}
			for rec, err := range list.All(cmd.Context(), 0) {
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\t%d\t%s\n", rec.Name, rec.Type, rec.TTL, strings.Join(rec.Data, " "))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "filter by record name (relative names are qualified against the zone)")
	cmd.Flags().StringVar(&rtype, "type", "", "filter by record type (requires --name)")
	cmd.Flags().IntVar(&max, "max", 0, "page size (0 = backend default)")
	return cmd
}

func newRecordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Add, remove, or replace records",
	}

	var skipSOA bool
	cmd.PersistentFlags().BoolVar(&skipSOA, "skip-soa", false, "do not advance the zone's SOA serial")

	opts := func() *clouddns.UpdateOptions {
		return &clouddns.UpdateOptions{SkipSOA: skipSOA}
	}

	var addTTL int64
	add := &cobra.Command{
		Use:   "add ZONE NAME TYPE DATA...",
		Short: "Add a record set",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(cmd, args[0])
			if err != nil {
				return err
			}
			warnUnknownType(a, args[2])
			ch, err := z.AddRecord(cmd.Context(), args[1], args[2], addTTL, args[3:], opts())
			if err != nil {
				return err
			}
			printChange(ch)
			return nil
		},
	}
	add.Flags().Int64Var(&addTTL, "ttl", 300, "record TTL in seconds")

	remove := &cobra.Command{
		Use:   "remove ZONE NAME TYPE",
		Short: "Remove every record at (name, type)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(cmd, args[0])
			if err != nil {
				return err
			}
			ch, err := z.RemoveRecords(cmd.Context(), args[1], args[2], opts())
			if err != nil {
				return err
			}
			printChange(ch)
			return nil
		},
	}

	var replaceTTL int64
	replace := &cobra.Command{
		Use:   "replace ZONE NAME TYPE DATA...",
		Short: "Replace whatever lives at (name, type) with one record",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(cmd, args[0])
			if err != nil {
				return err
			}
			warnUnknownType(a, args[2])
			ch, err := z.ReplaceRecord(cmd.Context(), args[1], args[2], replaceTTL, args[3:], opts())
			if err != nil {
				return err
			}
			printChange(ch)
			return nil
		},
	}
	replace.Flags().Int64Var(&replaceTTL, "ttl", 300, "record TTL in seconds")

	cmd.AddCommand(add, remove, replace)
	return cmd
}
