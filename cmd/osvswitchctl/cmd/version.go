package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
	"github.com/veesix-networks/osvswitch/pkg/version"
)

type versionInfo struct {
	Client string `json:"client"`
	Engine string `json:"engine"`
}

func (a *App) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show client and engine versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				v, err := sb.GetVersion(ctx)
				if err != nil {
					return err
				}
				info := versionInfo{Client: version.Full(), Engine: v}
				return a.render(cmd.OutOrStdout(), info, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "osvswitchctl %s\nengine %s\n", info.Client, info.Engine)
					return err
				})
			})
		},
	}
}
