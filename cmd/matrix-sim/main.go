package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"

	fx "github.com/robotalks/keymatrix/pkg/framework"
	"github.com/robotalks/keymatrix/pkg/sim"
)

var (
	tcpAddr    = ":7001"
	wsAddr     = ""
	wsPath     = "/"
	bootloader bool

	server = &sim.Server{Interval: sim.DefaultInterval}
	device = sim.NewDevice(1)
)

func init() {
	flag.StringVar(&tcpAddr, "tcp", tcpAddr, "TCP listen address, empty to disable.")
	flag.StringVar(&wsAddr, "ws", wsAddr, "WebSocket listen address, empty to disable.")
	flag.StringVar(&wsPath, "ws-path", wsPath, "WebSocket path.")
	flag.BoolVar(&bootloader, "bootloader", bootloader, "Act as the bootloader instead of streaming telemetry.")
	flag.IntVar(&device.Noise, "noise", device.Noise, "Maximum garbage bytes before each frame.")
	flag.IntVar(&device.CorruptEvery, "corrupt", device.CorruptEvery, "Corrupt the checksum of every Nth frame, 0 disables.")
	flag.BoolVar(&device.Animate, "animate", device.Animate, "Walk keys and ramp ADC values.")
	flag.DurationVar(&server.Interval, "interval", server.Interval, "Interval between device outputs.")
}

func main() {
	flag.Parse()
	if tcpAddr == "" && wsAddr == "" {
		log.Fatalln("at least one of -tcp and -ws is required")
	}
	if bootloader {
		device.Mode = sim.ModeBootloader
	}
	server.Device = device

	runner := fx.NewRunner().HandleSignals()
	if tcpAddr != "" {
		runner.Go(fx.NamedRun("tcp", fx.RunnableFunc(func(ctx context.Context) error {
			return server.ListenTCP(ctx, tcpAddr)
		})))
	}
	if wsAddr != "" {
		runner.Go(fx.NamedRun("ws", fx.RunnableFunc(func(ctx context.Context) error {
			return server.ListenWebSocket(ctx, wsAddr, wsPath)
		})))
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
