package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/keymatrix/pkg/boot"
	fx "github.com/robotalks/keymatrix/pkg/framework"
	"github.com/robotalks/keymatrix/pkg/link"
)

var (
	linkURL = "serial:///dev/ttyUSB0"
	useCRC  bool
	quiet   bool

	uploader = boot.NewUploader()
)

func init() {
	if val := os.Getenv("KEYMATRIX_LINK"); val != "" {
		linkURL = val
	}
	flag.StringVar(&linkURL, "link", linkURL, "Bootloader link URL (serial://, tcp://, ws://)")
	flag.BoolVar(&useCRC, "crc", useCRC, "Send CRC32 of the image before the end frame")
	flag.BoolVar(&quiet, "q", quiet, "Don't print progress")
	flag.IntVar(&uploader.Retries, "retries", uploader.Retries, "Retries of a failed frame write")
	flag.DurationVar(&uploader.Pacing, "pacing", uploader.Pacing, "Delay between frames")
	flag.DurationVar(&uploader.Backoff, "backoff", uploader.Backoff, "Delay before retrying a frame write")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [OPTIONS] FIRMWARE-FILE\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	img, err := boot.LoadImage(flag.Arg(0))
	if err != nil {
		log.Fatalln(err)
	}
	rw, err := link.Open(linkURL)
	if err != nil {
		log.Fatalf("open link %s error: %v", linkURL, err)
	}
	defer rw.Close()

	if !quiet {
		uploader.Progress = func(sent, total int) {
			fmt.Printf("\r%s: %d/%d bytes", img.Name, sent, total)
			if sent == total {
				fmt.Println()
			}
		}
	}

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.RunnableFunc(func(ctx context.Context) error {
		return uploader.Upload(ctx, rw, img, useCRC)
	}))
	if err := runner.Wait(); err != nil {
		log.Fatalf("upload %s %s: %v", img.Name, uploader.State(), err)
	}
	if uploader.State() != boot.StateComplete {
		log.Fatalf("upload %s %s", img.Name, uploader.State())
	}
	if !quiet {
		fmt.Printf("%s: %d bytes, crc32=%08x, %s\n", img.Name, img.Size(), img.CRC32(), uploader.State())
	}
}
