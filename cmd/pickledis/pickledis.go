package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/kisielk/ogevent"
	"github.com/scott-cotton/cli"
	"go.uber.org/zap"
)

func pickledis(cfg *Config, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			return err
		}
	}
	if cfg.Parallel < 0 {
		return fmt.Errorf("%w: -parallel must not be negative", cli.ErrUsage)
	}

	if cfg.Verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer l.Sync()
		ogevent.SetLogger(l)
	}
	color.NoColor = !cfg.useColor(cc.Out)

	if len(args) == 0 {
		return disReader(cfg, cc.Out, cc.In)
	}
	for _, file := range args {
		if err := disFile(cfg, cc.Out, file); err != nil {
			return err
		}
	}
	return nil
}

func disFile(cfg *Config, w io.Writer, file string) error {
	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("could not open %q: %w", file, err)
		}
		defer f.Close()
		r = f
	}
	if err := disReader(cfg, w, r); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return nil
}

// disReader prints events, or their statistics, of the pickle stream in r.
func disReader(cfg *Config, w io.Writer, r io.Reader) error {
	in, done, err := openInput(r)
	if err != nil {
		return err
	}
	defer done()

	if cfg.Stats {
		events, err := ogevent.DecodeAll(in, cfg.options()...)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, ogevent.Summarize(events))
		return err
	}

	p := newPrinter(w)
	d := ogevent.NewDecoderWithConfig(in, &ogevent.DecoderConfig{StrictUnicode: cfg.Strict})
	if cfg.Header {
		pos := d.Pos()
		ev, err := d.ReadHeader()
		if err != nil {
			return err
		}
		if err := p.event(pos, ev, nil); err != nil {
			return err
		}
	}

	var buf []byte
	for {
		pos := d.Pos()
		ev, b, err := d.ReadEvent(buf[:0])
		buf = b
		if err != nil {
			return err
		}
		if err := p.event(pos, ev, ev.Payload(buf)); err != nil {
			return err
		}
		if ev.Type == ogevent.EventStop {
			return nil
		}
	}
}
