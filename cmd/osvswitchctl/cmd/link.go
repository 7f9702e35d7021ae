package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

func (a *App) linkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Change interface link state",
	}

	up := &cobra.Command{
		Use:   "up INTERFACE...",
		Short: "Set interfaces administratively up",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				handles, err := resolveHandles(ctx, sb, args)
				if err != nil {
					return err
				}
				if err := sb.SetLinkUp(ctx, handles...); err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), map[string]any{"up": handles}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Set %d interface(s) up\n", len(handles))
					return err
				})
			})
		},
	}

	cmd.AddCommand(up)
	return cmd
}
