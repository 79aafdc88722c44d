package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/posener/complete"
	"github.com/ryanuber/columnize"

	"github.com/boxcast/wirerpc"
	"github.com/boxcast/wirerpc/conn"
	"github.com/boxcast/wirerpc/registrar"
	"github.com/boxcast/wirerpc/server"
	"github.com/mitchellh/cli"
)

// ServeCommand runs a Server hosting the demo Echo service until
// interrupted, printing a columnized snapshot of the live connection ids
// once a second.
type ServeCommand struct {
	UI cli.Ui
}

func (c *ServeCommand) Help() string {
	return strings.TrimSpace(`
Usage: wirerpcdemo serve [options]

  Runs the demo Echo service until interrupted (Ctrl-C).

Options:

  -addr=127.0.0.1   Address to listen on
  -port=9191        Port to listen on
  -workers=4        Worker pool size
`)
}

func (c *ServeCommand) Synopsis() string { return "Run the demo Echo service" }

func (c *ServeCommand) AutocompleteFlags() complete.Flags {
	return complete.Flags{
		"-addr":    complete.PredictAnything,
		"-port":    complete.PredictAnything,
		"-workers": complete.PredictAnything,
	}
}

func (c *ServeCommand) AutocompleteArgs() complete.Predictor { return complete.PredictNothing }

func (c *ServeCommand) Run(args []string) int {
	var addr, port string
	var workers int
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&addr, "addr", "127.0.0.1", "address to listen on")
	fs.StringVar(&port, "port", "9191", "port to listen on")
	fs.IntVar(&workers, "workers", 4, "worker pool size")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := wirerpc.DefaultConfig()
	cfg.WorkerThreads = workers

	tmpl := conn.NewTemplate()
	if ok, err := registrar.Register(tmpl, echoServiceDesc()); !ok {
		c.UI.Error(fmt.Sprintf("register %s: %v", echoServiceName, err))
		return 1
	}

	srv := server.New(cfg)
	if err := srv.Listen(addr, port, tmpl); err != nil {
		c.UI.Error(fmt.Sprintf("listen %s:%s: %v", addr, port, err))
		return 1
	}
	defer srv.Stop()

	c.UI.Info(fmt.Sprintf("wirerpcdemo: serving %s on %s:%s", echoServiceName, addr, port))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			c.UI.Info("wirerpcdemo: shutting down")
			return 0
		case <-ticker.C:
			c.UI.Output(statsTable(srv.Connections()))
		}
	}
}

// statsTable renders the live connection ids as a columnize table, the demo
// binary's one use of tabular CLI output.
func statsTable(ids []string) string {
	rows := []string{"CONNECTION ID"}
	if len(ids) == 0 {
		rows = append(rows, "(none)")
	}
	rows = append(rows, ids...)
	return columnize.SimpleFormat(rows)
}
