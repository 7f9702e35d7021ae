package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

type created struct {
	Kind   string            `json:"kind"`
	Name   string            `json:"name,omitempty"`
	Handle southbound.Handle `json:"sw_if_index"`
}

func (a *App) printCreated(cmd *cobra.Command, c created) error {
	return a.render(cmd.OutOrStdout(), c, func(w io.Writer) error {
		if c.Name != "" {
			_, err := fmt.Fprintf(w, "Created %s %s (sw_if_index %s)\n", c.Kind, c.Name, c.Handle)
			return err
		}
		_, err := fmt.Fprintf(w, "Created %s (sw_if_index %s)\n", c.Kind, c.Handle)
		return err
	})
}

func (a *App) interfacesCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "interfaces",
		Aliases: []string{"intf"},
		Short:   "List engine interfaces",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				list, err := collectInterfaces(ctx, sb, name)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), list, func(w io.Writer) error {
					rows := make([][]string, 0, len(list))
					for _, d := range list {
						rows = append(rows, []string{
							d.Handle.String(),
							d.Name,
							interfaceKind(d),
							upDown(d.AdminUp),
							upDown(d.LinkUp),
							strconv.FormatUint(uint64(d.MTU), 10),
							d.MAC.String(),
						})
					}
					return table(w, []string{"IDX", "NAME", "TYPE", "ADMIN", "LINK", "MTU", "MAC"}, rows)
				})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "show only the named interface")
	return cmd
}

func collectInterfaces(ctx context.Context, sb southbound.Southbound, name string) ([]southbound.InterfaceDetails, error) {
	if name != "" {
		iface, ok, err := sb.FindInterface(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("interface %s not found", name)
		}
		return []southbound.InterfaceDetails{iface}, nil
	}

	var list []southbound.InterfaceDetails
	for d, err := range sb.ListInterfaces(ctx) {
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, nil
}

func interfaceKind(d southbound.InterfaceDetails) string {
	if d.IsSubinterface() {
		return fmt.Sprintf("vlan %d on %s", d.OuterVlanID, d.SupHandle)
	}
	if d.DevType == "" {
		return "-"
	}
	return d.DevType
}
