package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

func (a *App) vhostCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vhost",
		Aliases: []string{"vhost-user"},
		Short:   "Manage vhost-user interfaces",
	}

	var (
		mac    string
		client bool
	)
	create := &cobra.Command{
		Use:   "create SOCKET",
		Short: "Create a vhost-user interface on the given socket path",
		Long: "Create a vhost-user interface. By default the engine listens on SOCKET and the\n" +
			"socket is handed over to the configured owner; with --client the engine\n" +
			"connects to a socket the peer already listens on.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				h, err := sb.CreateVhostUser(ctx, args[0], mac, !client)
				if err != nil {
					return err
				}
				return a.printCreated(cmd, created{Kind: "vhost-user", Name: args[0], Handle: h})
			})
		},
	}
	create.Flags().StringVar(&mac, "mac", "", "engine-side MAC address (aa:bb:cc:dd:ee:ff)")
	create.Flags().BoolVar(&client, "client", false, "connect to an existing socket instead of listening")

	del := &cobra.Command{
		Use:   "delete INTERFACE",
		Short: "Delete a vhost-user interface by name or sw_if_index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				h, err := resolveHandle(ctx, sb, args[0])
				if err != nil {
					return err
				}
				if err := sb.DeleteVhostUser(ctx, h); err != nil {
					return err
				}
				return a.printDeleted(cmd, "vhost-user", h)
			})
		},
	}

	cmd.AddCommand(create, del)
	return cmd
}
