// main.go - comrun, a .COM loader and driver
//
// Grounded on the teacher's own root main.go (the engine's host
// executable) and on master-g-childhood/go/chr2png's cli.App shape;
// both are struct-literal cli.App configurations with a single Action,
// which is all this loader needs.

package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v2"
)

func main() {
	app := &cli.App{
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "frames",
				Aliases: []string{"f"},
				Usage:   "number of 60Hz frames to run before stopping",
				Value:   60,
			},
			&cli.BoolFlag{
				Name:  "deterministic",
				Usage: "zero all time-derived component reads, for reproducible output",
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "run the static program tracer instead of executing",
			},
		},
		Name:    "comrun",
		Usage:   "Load and run an MS-DOS .COM binary against the real-mode emulator core",
		Version: "v0.1.0",
		Action:  runAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	args := c.Args()
	if args.Len() == 0 {
		cli.ShowAppHelp(c)
		return cli.Exit("missing .COM file argument", 86)
	}

	path := args.First()
	image, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("comrun: %v", err), 1)
	}

	mach := NewMachine()
	mach.CPU.Deterministic = c.Bool("deterministic")
	if err := mach.LoadExecutable(image, 0x0800); err != nil {
		return cli.Exit(fmt.Sprintf("comrun: %v", err), 1)
	}

	if video, ok := findVideo(mach); ok {
		video.Out = os.Stdout
	}
	if dos, ok := findDOS(mach); ok {
		dos.Out = os.Stdout
	}

	if c.Bool("trace") {
		res := mach.TraceLoaded()
		fmt.Print(res.Report())
		return nil
	}

	frames := c.Int("frames")
	for i := 0; i < frames; i++ {
		if mach.CPU.Halted {
			break
		}
		if err := mach.ExecuteFrame(); err != nil {
			break
		}
	}

	fmt.Fprint(os.Stderr, RegisterDump(mach.CPU))
	return nil
}

func findVideo(mach *Machine) (*VideoComponent, bool) {
	for _, comp := range mach.Bus.components {
		if vc, ok := comp.(*VideoComponent); ok {
			return vc, true
		}
	}
	return nil, false
}

func findDOS(mach *Machine) (*DOSComponent, bool) {
	for _, comp := range mach.Bus.components {
		if dc, ok := comp.(*DOSComponent); ok {
			return dc, true
		}
	}
	return nil, false
}
