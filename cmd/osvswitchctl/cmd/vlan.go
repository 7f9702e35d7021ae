package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

func (a *App) vlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vlan",
		Short: "Manage VLAN sub-interfaces",
	}

	create := &cobra.Command{
		Use:   "create PARENT VLAN",
		Short: "Create a dot1q sub-interface of PARENT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			vlan, err := strconv.ParseUint(args[1], 10, 16)
			if err != nil {
				return fmt.Errorf("%w: vlan %q", southbound.ErrInvalidArgument, args[1])
			}
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				parent, err := resolveHandle(ctx, sb, args[0])
				if err != nil {
					return err
				}
				h, err := sb.CreateVLANSubInterface(ctx, parent, uint16(vlan))
				if err != nil {
					return err
				}
				return a.printCreated(cmd, created{Kind: "vlan", Name: fmt.Sprintf("%s.%d", args[0], vlan), Handle: h})
			})
		},
	}

	cmd.AddCommand(create)
	return cmd
}
