package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newZonesCmd(a *app) *cobra.Command {
	var max int
	cmd := &cobra.Command{
		Use:   "zones",
		Short: "List managed zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.svc.Zones(cmd.Context(), max)
			if err != nil {
				return err
			}
			for zone, err := range list.All(cmd.Context(), 0) {
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\t%s\n", zone.Name, zone.DNS, strings.Join(zone.NameServers, ","))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&max, "max", 0, "page size (0 = backend default)")
	return cmd
}

func newZoneCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zone",
		Short: "Inspect and manage a single zone",
	}

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Show one managed zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(cmd, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("name:         %s\n", z.Name)
			fmt.Printf("dns:          %s\n", z.DNS)
			fmt.Printf("id:           %s\n", z.ID)
			fmt.Printf("name servers: %s\n", strings.Join(z.NameServers, ", "))
			if !z.Created.IsZero() {
				fmt.Printf("created:      %s\n", z.Created.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}

	var description string
	create := &cobra.Command{
		Use:   "create NAME DNSNAME",
		Short: "Create a managed zone (DNSNAME must end in a dot)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.svc.CreateZone(cmd.Context(), args[0], args[1], description)
			if err != nil {
				return err
			}
			fmt.Printf("created zone %s (%s)\n", z.Name, z.DNS)
			return nil
		},
	}
	create.Flags().StringVar(&description, "description", "", "zone description")

	var force bool
	del := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a managed zone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.svc.DeleteZone(cmd.Context(), args[0], force); err != nil {
				return err
			}
			fmt.Printf("deleted zone %s\n", args[0])
			return nil
		},
	}
	del.Flags().BoolVar(&force, "force", false, "remove the zone's records first")

	changes := &cobra.Command{
		Use:   "changes NAME",
		Short: "List a zone's changes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			z, err := a.zone(cmd, args[0])
			if err != nil {
				return err
			}
			list, err := z.Changes(cmd.Context(), "descending", 0)
			if err != nil {
				return err
			}
			for ch, err := range list.All(cmd.Context(), 0) {
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\t+%d/-%d\n", ch.ID, ch.Status, len(ch.Additions), len(ch.Deletions))
			}
			return nil
		},
	}

	cmd.AddCommand(get, create, del, changes)
	return cmd
}
