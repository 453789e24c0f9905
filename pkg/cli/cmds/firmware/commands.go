package firmware

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/keymatrix/pkg/boot"
	"github.com/robotalks/keymatrix/pkg/cli/sh"
)

// ParseUploadArgs parses FILE [crc] [PACING].
func ParseUploadArgs(args []string) (path string, useCRC bool, pacing time.Duration, err error) {
	if len(args) == 0 {
		return "", false, 0, fmt.Errorf("FILE required")
	}
	path, pacing = args[0], boot.DefaultPacing
	for _, arg := range args[1:] {
		if arg == "crc" {
			useCRC = true
			continue
		}
		if pacing, err = time.ParseDuration(arg); err != nil {
			return "", false, 0, fmt.Errorf("Invalid PACING: %v", err)
		}
	}
	return
}

var (
	// UploadCmd uploads a firmware image to the bootloader.
	UploadCmd = ishell.Cmd{
		Name:    "upload",
		Aliases: []string{"u"},
		Help:    "FILE [crc] [PACING]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			path, useCRC, pacing, err := ParseUploadArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			img, err := boot.LoadImage(path)
			if err != nil {
				c.Err(err)
				return
			}
			u := boot.NewUploader()
			u.Pacing = pacing
			u.Progress = func(sent, total int) {
				c.Printf("\r%s: %d/%d bytes", img.Name, sent, total)
			}
			err = sh.SessionFrom(c).Exclusive(func(rw io.ReadWriter) error {
				return u.Upload(context.Background(), rw, img, useCRC)
			})
			c.Println()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("upload %s complete, crc32=%08x\n", img.Name, img.CRC32())
		}),
	}
)

func init() {
	sh.AddCmds(&UploadCmd)
}
