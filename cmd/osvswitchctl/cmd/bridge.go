package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/osvswitch/pkg/southbound"
)

type bridgeResult struct {
	ID uint32 `json:"bd_id"`
}

func (a *App) bridgeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bridge",
		Aliases: []string{"bd"},
		Short:   "Manage bridge domains",
	}

	printBridge := func(cmd *cobra.Command, verb string, id uint32) error {
		return a.render(cmd.OutOrStdout(), bridgeResult{ID: id}, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "%s bridge domain %d\n", verb, id)
			return err
		})
	}

	create := &cobra.Command{
		Use:   "create ID",
		Short: "Create a bridge domain with an explicit ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUint32(args[0], "bridge domain")
			if err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				id, err := sb.CreateBridgeDomain(ctx, id)
				if err != nil {
					return err
				}
				return printBridge(cmd, "Created", id)
			})
		},
	}

	allocate := &cobra.Command{
		Use:   "allocate",
		Short: "Create a bridge domain with the next ID from the session counter",
		Long: `Create a bridge domain with the next ID from the session counter.

The counter starts at bridging.domain_id_seed for every new session, so each
one-shot invocation tries the seed first and only moves past it on success.
If that ID already exists on the engine, raise bridging.domain_id_seed or
use "bridge create ID".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				id, err := sb.AllocateBridgeDomain(ctx)
				if err != nil {
					return allocateHint(err)
				}
				return printBridge(cmd, "Allocated", id)
			})
		},
	}

	add := &cobra.Command{
		Use:   "add ID INTERFACE...",
		Short: "Attach interfaces to a bridge domain in order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUint32(args[0], "bridge domain")
			if err != nil {
				return err
			}
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				handles, err := resolveHandles(ctx, sb, args[1:])
				if err != nil {
					return err
				}
				if err := sb.AddToBridge(ctx, id, handles...); err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), map[string]any{"bd_id": id, "attached": handles}, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Attached %d interface(s) to bridge domain %d\n", len(handles), id)
					return err
				})
			})
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List bridge domains and their members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withEngine(cmd, func(ctx context.Context, sb southbound.Southbound) error {
				bds, err := sb.ListBridgeDomains(ctx)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), bds, func(w io.Writer) error {
					rows := make([][]string, 0, len(bds))
					for _, bd := range bds {
						members := make([]string, 0, len(bd.Members))
						for _, m := range bd.Members {
							members = append(members, m.Handle.String())
						}
						rows = append(rows, []string{
							strconv.FormatUint(uint64(bd.ID), 10),
							onOff(bd.Flood),
							onOff(bd.Learn),
							onOff(bd.ARPTerm),
							strings.Join(members, ","),
						})
					}
					return table(w, []string{"BD", "FLOOD", "LEARN", "ARP-TERM", "MEMBERS"}, rows)
				})
			})
		},
	}

	cmd.AddCommand(create, allocate, add, list)
	return cmd
}

// allocateHint points the operator at the seed when the engine refused the
// counter's ID.
func allocateHint(err error) error {
	var cmdErr *southbound.CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}
	return fmt.Errorf("%w (the allocator restarts at bridging.domain_id_seed each session; raise it or use \"bridge create ID\")", err)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
