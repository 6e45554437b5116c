/*
Copyright 2024.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"speechgate.dev/cmd/admin"
	"speechgate.dev/cmd/gateway"
	"speechgate.dev/config"
	"speechgate.dev/pkg/bootkit"
	"speechgate.dev/pkg/metrics"
)

type options struct {
	configPath   string
	listenerAddr string
	adminAddr    string
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "speechgate",
		Short:         "OpenAI compatible /audio/speech gateway in front of MiniMax t2a_v2",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			err := godotenv.Overload()
			if err != nil {
				slog.Debug("no .env file loaded, skipping", "error", err)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to the configuration file, defaults and SPEECHGATE_* environment variables are used when empty")
	cmd.Flags().StringVar(&opts.listenerAddr, "gateway-listener-address", "", "The address the gateway listener binds to, overrides gateway.listenerAddress.")
	cmd.Flags().StringVar(&opts.adminAddr, "admin-listener-address", "", "The address the admin listener binds to, overrides admin.listenerAddress.")

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return err
	}

	if cmd.Flags().Changed("gateway-listener-address") {
		cfg.Gateway.ListenerAddress = opts.listenerAddr
	}

	if cmd.Flags().Changed("admin-listener-address") {
		cfg.Admin.ListenerAddress = opts.adminAddr
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	app := bootkit.New(bootkit.StartTimeout(time.Second * 10)) //nolint:mnd
	registry := metrics.NewRegistry()

	app.Add(func(ctx context.Context, lifeCycle bootkit.LifeCycle) error {
		return gateway.StartGateway(ctx, lifeCycle, cfg)
	})
	app.Add(func(ctx context.Context, lifeCycle bootkit.LifeCycle) error {
		return admin.NewAdminServer(ctx, cfg, registry, cfg.Admin.ListenerAddress, lifeCycle)
	})

	app.Start()

	return nil
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		slog.Error("speechgate exited with error", "error", err)
		os.Exit(1)
	}
}
