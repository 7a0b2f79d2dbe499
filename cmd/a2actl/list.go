package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/registry"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "lists the agents currently registered at a discovery registry",
		ArgsUsage: "<registry-url>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return usageError("list requires a registry url")
			}
			regURL := c.Args().Get(0)

			d := registry.NewDiscoveryClient(a2a.AgentCard{}, []string{regURL})
			cards, err := d.Discover(c.Context)
			if err != nil {
				return networkError(err)
			}
			if len(cards) == 0 {
				fmt.Println("no agents registered")
				return nil
			}
			for _, card := range cards {
				fmt.Printf("%-24s %-40s %s\n", card.Name, card.URL, card.Description)
			}
			return nil
		},
	}
}
