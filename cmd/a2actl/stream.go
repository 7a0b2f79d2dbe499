package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
	"github.com/agent-protocol/a2a-go/pkg/client"
)

func streamCommand() *cli.Command {
	return &cli.Command{
		Name:      "stream",
		Usage:     "sends one text task to a remote agent and prints streamed chunks as they arrive",
		ArgsUsage: "<url> <text>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return usageError("stream requires a url and text")
			}
			url := c.Args().Get(0)
			text := c.Args().Get(1)

			cl := client.New(url, nil)
			t := a2a.NewTask(a2a.NewTextMessage(a2a.RoleUser, text))
			chunks, err := cl.StreamResponse(c.Context, t)
			if err != nil {
				return networkError(err)
			}
			for ch := range chunks {
				switch {
				case ch.Err != nil:
					return remoteError(ch.Err)
				case ch.Task != nil:
					fmt.Printf("[task %s] state=%s\n", ch.Task.ID, ch.Task.Status.State)
					if len(ch.Task.Artifacts) > 0 {
						fmt.Println(ch.Task.Artifacts[0].Text())
					}
				case ch.Text != "":
					fmt.Println(ch.Text)
				}
			}
			return nil
		},
	}
}
