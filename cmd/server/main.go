package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v3"

	"flight-sim/server/internal/app"
)

func main() {
	cmd := &cli.Command{
		Name:  "flight-sim-server",
		Usage: "run the multiplayer flight simulation server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "ip",
				Usage: "address to bind the listener to",
				Value: "0.0.0.0",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "port to listen on",
				Value: 8080,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			addr := net.JoinHostPort(cmd.String("ip"), strconv.Itoa(int(cmd.Int("port"))))
			return app.Run(ctx, app.Config{Addr: addr, Logger: log.Default()})
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}
