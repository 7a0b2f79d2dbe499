package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/a2a-go/pkg/network"
	"github.com/agent-protocol/a2a-go/pkg/workflow"
)

func callCommand() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "runs a saved JSON flow file against a saved agent network",
		ArgsUsage: "<flow-file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "network", Usage: "path to a saved network file (pkg/network.Network.Save layout)"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return usageError("call requires a flow file path")
			}
			flowPath := c.Args().Get(0)

			net := network.New()
			if netPath := c.String("network"); netPath != "" {
				if err := net.Load(netPath); err != nil {
					return usageError("loading network file: %v", err)
				}
			}

			flow, initial, err := workflow.LoadFile(flowPath, net)
			if err != nil {
				return usageError("loading flow file: %v", err)
			}

			result, err := flow.RunText(c.Context, initial)
			if err != nil {
				return remoteError(err)
			}
			fmt.Println(result)
			return nil
		},
	}
}
