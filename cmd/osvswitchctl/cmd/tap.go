package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

func (a *App) tapCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tap",
		Short: "Manage tap interfaces",
	}

	var mac string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a tap interface with the given host-side name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				h, err := sb.CreateTap(ctx, args[0], mac)
				if err != nil {
					return err
				}
				return a.printCreated(cmd, created{Kind: "tap", Name: args[0], Handle: h})
			})
		},
	}
	create.Flags().StringVar(&mac, "mac", "", "engine-side MAC address (aa:bb:cc:dd:ee:ff)")

	del := &cobra.Command{
		Use:   "delete INTERFACE",
		Short: "Delete a tap interface by name or sw_if_index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				h, err := resolveHandle(ctx, sb, args[0])
				if err != nil {
					return err
				}
				if err := sb.DeleteTap(ctx, h); err != nil {
					return err
				}
				return a.printDeleted(cmd, "tap", h)
			})
		},
	}

	cmd.AddCommand(create, del)
	return cmd
}

func (a *App) printDeleted(cmd *cobra.Command, kind string, h southbound.Handle) error {
	v := map[string]any{"kind": kind, "sw_if_index": h, "deleted": true}
	return a.render(cmd.OutOrStdout(), v, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "Deleted %s (sw_if_index %s)\n", kind, h)
		return err
	})
}
