package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/a2a-go/pkg/client"
)

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "sends one text task to a remote agent and prints the reply",
		ArgsUsage: "<url> <text>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return usageError("send requires a url and text")
			}
			url := c.Args().Get(0)
			text := c.Args().Get(1)

			cl := client.New(url, nil)
			reply, err := cl.Ask(c.Context, text)
			if err != nil {
				return remoteError(err)
			}
			fmt.Println(reply)
			return nil
		},
	}
}
