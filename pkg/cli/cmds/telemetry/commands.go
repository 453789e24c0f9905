package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/keymatrix/pkg/cli/sh"
	fx "github.com/robotalks/keymatrix/pkg/framework"
	"github.com/robotalks/keymatrix/pkg/matrix"
)

// DefaultWatchDuration is used when watch is given no duration.
const DefaultWatchDuration = 5 * time.Second

func labelsFrom(c *ishell.Context) *matrix.Labels {
	return sh.ShellFrom(c).Config.Labels()
}

func printSnapshot(c *ishell.Context, t *matrix.Telemetry) {
	v := ViewOf(t)
	if labels := labelsFrom(c); labels != nil {
		v.Named(labels)
	}
	sh.Output(c, v, v.String())
}

func names(on []int, name func(int) string) []string {
	out := make([]string, len(on))
	for n, i := range on {
		out[n] = name(i)
	}
	return out
}

var (
	// ReadCmd performs read cycles and prints the latest snapshot.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "[COUNT]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			count := 1
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("Invalid COUNT: %s", c.Args[0]))
					return
				}
				count = n
			}
			session := sh.SessionFrom(c)
			for i := 0; i < count; i++ {
				if err := session.ReadAndDecode(context.Background()); err != nil {
					c.Err(err)
				}
			}
			printSnapshot(c, session.Snapshot())
		}),
	}

	// SnapshotCmd prints the current snapshot without reading.
	SnapshotCmd = ishell.Cmd{
		Name:    "snapshot",
		Aliases: []string{"s"},
		Help:    "[last-valid]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			session := sh.SessionFrom(c)
			if len(c.Args) > 0 && c.Args[0] == "last-valid" {
				last := session.LastValid()
				if last == nil {
					c.Println("No valid snapshot yet")
					return
				}
				printSnapshot(c, last)
				return
			}
			printSnapshot(c, session.Snapshot())
		}),
	}

	// KeysCmd prints pressed keys.
	KeysCmd = ishell.Cmd{
		Name: "keys",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			keys := sh.SessionFrom(c).Keys()
			on := indicesOn(keys[:])
			sh.Output(c, on, fmt.Sprintf("pressed: %v", names(on, labelsFrom(c).Key)))
		}),
	}

	// ADCCmd prints ADC channels.
	ADCCmd = ishell.Cmd{
		Name: "adc",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			adc := sh.SessionFrom(c).ADC()
			vals := make([]int, len(adc))
			for n, val := range adc {
				vals[n] = int(val)
			}
			if sh.ShellFrom(c).OutputJSON {
				sh.Output(c, vals, "")
				return
			}
			labels := labelsFrom(c)
			for n, val := range vals {
				c.Printf("%-8s %3d\n", labels.ADCChannel(n), val)
			}
		}),
	}

	// LEDsCmd prints lit LEDs.
	LEDsCmd = ishell.Cmd{
		Name: "leds",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			leds := sh.SessionFrom(c).LEDs()
			on := indicesOn(leds[:])
			sh.Output(c, on, fmt.Sprintf("lit: %v", names(on, labelsFrom(c).LED)))
		}),
	}

	// StatusCmd prints session state.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			session := s.Conn.Session
			status := map[string]interface{}{
				"link":     s.Conn.URL,
				"valid":    session.Valid(),
				"buffered": session.Buffered(),
			}
			if last := session.LastValid(); last != nil {
				status["last_valid_index"] = last.Index
			}
			sh.Output(c, status, fmt.Sprintf("%s valid=%v buffered=%d",
				s.Conn.URL, status["valid"], status["buffered"]))
		}),
	}

	// SendCmd writes raw bytes to the device.
	SendCmd = ishell.Cmd{
		Name: "send",
		Help: "HEX...",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(fmt.Errorf("HEX required"))
				return
			}
			data, err := ParseHexBytes(c.Args...)
			if err != nil {
				c.Err(err)
				return
			}
			n, err := sh.SessionFrom(c).Send(data)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("sent %d bytes\n", n)
		}),
	}

	// WatchCmd polls the device and prints every new snapshot.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[DURATION]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			d := DefaultWatchDuration
			if len(c.Args) > 0 {
				val, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("Invalid DURATION: %v", err))
					return
				}
				d = val
			}
			s := sh.ShellFrom(c)
			session := s.Conn.Session
			var last *matrix.Telemetry
			loop := fx.NewLoop()
			if s.Config.PollInterval > 0 {
				loop.Interval = s.Config.PollInterval
			}
			loop.AddController(fx.ControlFunc(func(ctx context.Context) error {
				if err := session.ReadAndDecode(ctx); err != nil {
					return err
				}
				if t := session.Snapshot(); last == nil || t.Index != last.Index || t.Valid != last.Valid {
					last = t
					printSnapshot(c, t)
				}
				return nil
			}))
			ctx, cancel := context.WithTimeout(context.Background(), d)
			defer cancel()
			loop.Run(ctx)
		}),
	}
)

func init() {
	sh.AddCmds(
		&ReadCmd,
		&SnapshotCmd,
		&KeysCmd,
		&ADCCmd,
		&LEDsCmd,
		&StatusCmd,
		&SendCmd,
		&WatchCmd,
	)
}
