package main

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/arko-chat/pwashell/internal/devserver"
	"github.com/arko-chat/pwashell/internal/navigation"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge to a browser over WebSocket for development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(cmd, flags)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = e.store.Snapshot().DevServer.Addr
			}

			prefs := e.openPreferences()
			if prefs != nil {
				defer prefs.Close()
			}
			dispatcher, _ := e.dispatcher("devserver", navigation.BrowserOpener{}, prefs)

			pairing, err := devserver.NewPairing(e.logger)
			if err != nil {
				return fmt.Errorf("failed to set up pairing: %w", err)
			}
			srv, err := devserver.New(devserver.Options{
				Config:     e.store,
				Dispatcher: dispatcher,
				Pairing:    pairing,
				Logger:     e.logger,
			})
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			e.logger.Info("dev server starting", "addr", "http://"+ln.Addr().String(), "code", pairing.Code())
			fmt.Fprintf(cmd.OutOrStdout(), "Open http://%s and pair with code %s\n", ln.Addr(), pairing.Code())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Serve(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: devServer.addr from config)")
	return cmd
}
