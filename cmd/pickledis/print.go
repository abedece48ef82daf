package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/kisielk/ogevent"
	"github.com/mattn/go-isatty"
)

// printer writes events one per line.
type printer struct {
	w      io.Writer
	colors map[ogevent.EventType]func(format string, a ...interface{}) string
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w, colors: map[ogevent.EventType]func(string, ...interface{}) string{}}

	for _, t := range []ogevent.EventType{ogevent.EventProto, ogevent.EventFrame, ogevent.EventStop} {
		p.colors[t] = color.BlueString
	}
	for _, t := range []ogevent.EventType{
		ogevent.EventString, ogevent.EventBinString, ogevent.EventShortBinString,
		ogevent.EventUnicode, ogevent.EventBinUnicode, ogevent.EventShortBinUnicode, ogevent.EventBinUnicode8,
		ogevent.EventBinBytes, ogevent.EventShortBinBytes, ogevent.EventBinBytes8, ogevent.EventByteArray8,
	} {
		p.colors[t] = color.RGB(196, 96, 16).SprintfFunc()
	}
	for _, t := range []ogevent.EventType{
		ogevent.EventGlobal, ogevent.EventStackGlobal, ogevent.EventReduce, ogevent.EventBuild,
		ogevent.EventInst, ogevent.EventObj, ogevent.EventNewObj, ogevent.EventNewObjEx,
	} {
		p.colors[t] = color.RGB(168, 0, 196).SprintfFunc()
	}
	for _, t := range []ogevent.EventType{
		ogevent.EventGet, ogevent.EventBinGet, ogevent.EventLongBinGet,
		ogevent.EventPut, ogevent.EventBinPut, ogevent.EventLongBinPut, ogevent.EventMemoize,
	} {
		p.colors[t] = color.CyanString
	}
	return p
}

// event prints ev decoded at pos with its payload.
func (p *printer) event(pos int64, ev ogevent.Event, payload []byte) error {
	s := ev.Describe(payload)
	if c, ok := p.colors[ev.Type]; ok {
		s = c("%s", s)
	}
	_, err := fmt.Fprintf(p.w, "%d: %s\n", pos, s)
	return err
}

// useColor tells whether output to w is colorized.
func (cfg *Config) useColor(w io.Writer) bool {
	if cfg.isSet("color") || cfg.Color {
		return cfg.Color
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
