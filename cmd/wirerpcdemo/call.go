package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/posener/complete"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/caller"
	"github.com/boxcast/wirerpc/client"
	"github.com/boxcast/wirerpc/conn"
	"github.com/boxcast/wirerpc/registrar"
	"github.com/mitchellh/cli"
)

// CallCommand connects to a running "serve" instance and issues one Echo
// call, printing the reply (or the controller's failure message).
type CallCommand struct {
	UI cli.Ui
}

func (c *CallCommand) Help() string {
	return strings.TrimSpace(`
Usage: wirerpcdemo call [options] <message>

  Connects to a running "wirerpcdemo serve" instance and issues one Echo
  call, printing the reply.

Options:

  -addr=127.0.0.1   Server address
  -port=9191        Server port
  -timeout=5s       Connect/call timeout
`)
}

func (c *CallCommand) Synopsis() string { return "Call the demo Echo service once" }

func (c *CallCommand) AutocompleteFlags() complete.Flags {
	return complete.Flags{
		"-addr":    complete.PredictAnything,
		"-port":    complete.PredictAnything,
		"-timeout": complete.PredictAnything,
	}
}

func (c *CallCommand) AutocompleteArgs() complete.Predictor { return complete.PredictNothing }

func (c *CallCommand) Run(args []string) int {
	var addr, port string
	var timeout time.Duration
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	fs.StringVar(&addr, "addr", "127.0.0.1", "server address")
	fs.StringVar(&port, "port", "9191", "server port")
	fs.DurationVar(&timeout, "timeout", 5*time.Second, "connect/call timeout")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	rest := fs.Args()
	if len(rest) != 1 {
		c.UI.Error("expected exactly one <message> argument")
		return 1
	}
	message := rest[0]

	rpcClient := client.New(wirerpc.DefaultConfig(), conn.NewTemplate())
	defer rpcClient.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := rpcClient.Connect(ctx, addr, port); err != nil {
		c.UI.Error(color.RedString("connect failed: %v", err))
		return 1
	}
	defer rpcClient.Disconnect()

	method := registrar.FullMethodName(echoServiceName, echoMethodName)
	ctrl := &caller.Controller{}
	done := make(chan struct{})
	var reply string

	caller.Call(rpcClient.Connection(), ctrl, method, echoResponseName, []byte(message),
		func(content []byte) error {
			reply = string(content)
			return nil
		},
		func() { close(done) },
	)

	select {
	case <-done:
	case <-time.After(timeout):
		c.UI.Error(color.RedString("call timed out"))
		return 1
	}

	if ctrl.Failed() {
		c.UI.Error(color.RedString("call failed: %s", ctrl.FailedMessage()))
		return 1
	}
	c.UI.Output(color.GreenString("reply: %s", reply))
	return 0
}
