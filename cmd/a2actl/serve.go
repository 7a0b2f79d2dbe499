package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/agent"
	"github.com/agent-protocol/a2a-go/pkg/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "serves a built-in echo agent over HTTP (placeholder host for custom handlers)",
		ArgsUsage: "<agent-name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "host to bind to"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "port to bind to"},
			&cli.StringSliceFlag{Name: "allow-origins", Usage: "CORS origins to allow (default *)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return usageError("serve requires an agent name")
			}
			name := c.Args().First()
			host := c.String("host")
			port := c.Int("port")
			addr := fmt.Sprintf("%s:%d", host, port)

			card := a2a.AgentCard{
				Name:    name,
				URL:     fmt.Sprintf("http://%s", addr),
				Version: "0.1.0",
				Capabilities: map[string]bool{
					a2a.CapabilityStreaming: true,
				},
			}
			h := agent.FromMessageHandler(agent.Func(func(ctx context.Context, msg a2a.Message) (a2a.Message, error) {
				return a2a.NewTextMessage(a2a.RoleAgent, "Echo: "+msg.Content.Text), nil
			}))

			origins := c.StringSlice("allow-origins")
			if len(origins) == 0 {
				origins = []string{"*"}
			}
			a := server.NewAgent(card, h, server.WithCORSOrigins(origins))

			slog.Info("serving agent", "name", name, "addr", addr)
			if err := http.ListenAndServe(addr, a); err != nil {
				return networkError(err)
			}
			return nil
		},
	}
}
