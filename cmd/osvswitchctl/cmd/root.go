// Package cmd implements the osvswitchctl commands.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/veesix-networks/osvswitch/internal/engine"
	"github.com/veesix-networks/osvswitch/pkg/config"
	"github.com/veesix-networks/osvswitch/pkg/logger"
	"github.com/veesix-networks/osvswitch/pkg/southbound"
	"github.com/veesix-networks/osvswitch/pkg/version"
)

const defaultConfigPath = "/etc/osvswitch/osvswitch.yaml"

// DialFunc opens an engine connection for the app.
type DialFunc func(ctx context.Context, a *App) (southbound.Southbound, error)

// App holds the state shared by every command of one invocation, or of a
// whole shell session.
type App struct {
	cfgFile string
	socket  string
	output  string
	timeout time.Duration
	debug   bool

	dial       DialFunc
	engine     southbound.Southbound
	persistent bool
	inShell    bool
}

func NewApp() *App {
	return &App{
		cfgFile: defaultConfigPath,
		output:  string(FormatText),
		timeout: 10 * time.Second,
		dial:    dialFromConfig,
	}
}

// Execute runs osvswitchctl with the process arguments.
func Execute() error {
	a := NewApp()
	defer a.Close()
	return a.Command().Execute()
}

// Command builds a fresh command tree bound to a. Flag defaults are taken
// from the app's current values so shell lines inherit the startup flags.
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:           "osvswitchctl",
		Short:         "Drive the osvswitch forwarding engine",
		Long:          "osvswitchctl talks to the engine binary API to manage interfaces, bridge domains and tunnels.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: a.inShell,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logger.LogLevelWarn
			if a.debug {
				level = logger.LogLevelDebug
			}
			logger.Configure("text", level, nil)
			logger.SetOutput(cmd.ErrOrStderr())
			_, err := parseFormat(a.output)
			return err
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("osvswitchctl version {{.Version}}\ncommit: %s\nbuilt: %s\n", version.Commit, version.Date))

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", a.cfgFile, "config file path")
	pf.StringVar(&a.socket, "socket", a.socket, "engine API socket (overrides config)")
	pf.StringVarP(&a.output, "output", "o", a.output, "output format (text, json)")
	pf.DurationVar(&a.timeout, "timeout", a.timeout, "overall deadline for the command")
	pf.BoolVar(&a.debug, "debug", a.debug, "log engine traffic to stderr")

	root.AddCommand(
		a.versionCommand(),
		a.interfacesCommand(),
		a.tapCommand(),
		a.vhostCommand(),
		a.vlanCommand(),
		a.bridgeCommand(),
		a.linkCommand(),
		a.vxlanCommand(),
		a.shellCommand(),
	)
	return root
}

// Close releases a connection kept open for a shell session.
func (a *App) Close() error {
	if a.engine == nil {
		return nil
	}
	err := a.engine.Disconnect()
	a.engine = nil
	return err
}

func (a *App) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.cfgFile)
	if errors.Is(err, fs.ErrNotExist) && a.cfgFile == defaultConfigPath {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	if a.socket != "" {
		cfg.Engine.APISocket = a.socket
	}
	return cfg, nil
}

func dialFromConfig(ctx context.Context, a *App) (southbound.Southbound, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	noEvents := false
	s, err := engine.Connect(ctx, cfg, engine.Params{
		ClientTag: cfg.Engine.ClientTag + "-ctl",
		Events:    &noEvents,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// withEngine runs fn against a connected engine under the command deadline.
// Outside a shell the connection is closed when fn returns.
func (a *App) withEngine(cmd *cobra.Command, fn func(ctx context.Context, sb southbound.Southbound) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	if a.engine == nil {
		sb, err := a.dial(ctx, a)
		if err != nil {
			return fmt.Errorf("connect to engine: %w", err)
		}
		a.engine = sb
	}
	if !a.persistent {
		defer a.Close()
	}

	return fn(ctx, a.engine)
}

// resolveHandle accepts either a numeric sw_if_index or an interface name.
func resolveHandle(ctx context.Context, sb southbound.Southbound, arg string) (southbound.Handle, error) {
	if n, err := strconv.ParseUint(arg, 10, 32); err == nil {
		h := southbound.Handle(n)
		if !h.Valid() {
			return southbound.InvalidHandle, fmt.Errorf("%w: %s is not a usable interface index", southbound.ErrInvalidArgument, arg)
		}
		return h, nil
	}
	iface, ok, err := sb.FindInterface(ctx, arg)
	if err != nil {
		return southbound.InvalidHandle, err
	}
	if !ok {
		return southbound.InvalidHandle, fmt.Errorf("interface %s not found", arg)
	}
	return iface.Handle, nil
}

func resolveHandles(ctx context.Context, sb southbound.Southbound, args []string) ([]southbound.Handle, error) {
	handles := make([]southbound.Handle, 0, len(args))
	for _, arg := range args {
		h, err := resolveHandle(ctx, sb, arg)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func parseUint32(s, what string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", southbound.ErrInvalidArgument, what, s)
	}
	return uint32(n), nil
}
