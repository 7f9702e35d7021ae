package cmd

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

func (a *App) vxlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vxlan",
		Short: "Manage VXLAN tunnels",
	}

	var (
		src, dst, mcastIf string
		vni, vrf          uint32
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a VXLAN tunnel interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tun := southbound.VXLANTunnel{
				Src:         net.ParseIP(src),
				Dst:         net.ParseIP(dst),
				VNI:         vni,
				VrfID:       vrf,
				McastHandle: southbound.InvalidHandle,
			}
			if tun.Src == nil || tun.Dst == nil {
				return fmt.Errorf("%w: --src and --dst must be IP addresses", southbound.ErrInvalidArgument)
			}
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				if mcastIf != "" {
					h, err := resolveHandle(ctx, sb, mcastIf)
					if err != nil {
						return err
					}
					tun.McastHandle = h
				}
				h, err := sb.CreateVXLANTunnel(ctx, tun)
				if err != nil {
					return err
				}
				return a.printCreated(cmd, created{Kind: "vxlan", Name: fmt.Sprintf("vni %d", vni), Handle: h})
			})
		},
	}
	flags := create.Flags()
	flags.StringVar(&src, "src", "", "local tunnel endpoint")
	flags.StringVar(&dst, "dst", "", "remote endpoint or multicast group")
	flags.Uint32Var(&vni, "vni", 0, "VXLAN network identifier")
	flags.Uint32Var(&vrf, "vrf", 0, "encapsulation VRF")
	flags.StringVar(&mcastIf, "mcast-if", "", "interface used to reach a multicast --dst")
	create.MarkFlagRequired("src")
	create.MarkFlagRequired("dst")
	create.MarkFlagRequired("vni")

	cmd.AddCommand(create)
	return cmd
}
