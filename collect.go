package ogevent

import (
	"context"
	"io"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// posEvent is an event tagged with the stream offset of its opcode.
type posEvent struct {
	pos int64
	ev  Event
}

// DecodeAll decodes the whole pickle stream in r and returns its events in
// stream order.
//
// FRAME events and the terminating Stop are not included. Large frames are
// decoded in parallel; see Collect for details.
func DecodeAll(r io.Reader, opts ...Option) ([]Event, error) {
	config := ApplyOptions(opts...)
	d := NewDecoderWithConfig(r, &DecoderConfig{StrictUnicode: config.StrictUnicode})
	return d.collect(config)
}

// Collect decodes the rest of the stream until Stop and returns all events
// in stream order, excluding FRAME events and the terminating Stop.
//
// Every FRAME with length at or above the frame threshold is read whole into
// a private buffer and decoded on a worker, while the main loop continues
// right after the frame. Smaller frames are decoded inline. After the main
// loop reaches Stop all workers are joined and events are merged back by
// stream position.
//
// The pickle ends at its first STOP, be it met by the main loop or inside a
// frame decoded on a worker. Events after it are not reported and failures
// after it are not errors, so the result is the same as with sequential
// decoding. However when the STOP is inside a frame decoded on a worker, the
// main loop may have already read past it, and the decoder is then not
// positioned right after the STOP.
//
// Decoding is all-or-nothing: if the pickle fails to decode, the error of
// the earliest failing opcode is returned and no events are.
//
// WithStrictUnicode has no effect here: the decoder's own configuration is used.
func (d *Decoder) Collect(opts ...Option) ([]Event, error) {
	return d.collect(ApplyOptions(opts...))
}

// frameTask is a frame decoded on a worker.
type frameTask struct {
	start  int64 // stream offset of the frame data
	cancel context.CancelFunc

	// set by the worker
	events []posEvent
	stop   int64 // position of STOP met in the frame, or -1
	err    error
	errPos int64
}

func (d *Decoder) collect(config CollectConfig) ([]Event, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var top []posEvent
	if config.HeaderCheck {
		pos := d.Pos()
		ev, err := d.ReadHeader()
		if err != nil {
			return nil, err
		}
		top = append(top, posEvent{pos, ev})
	}

	var (
		g     errgroup.Group
		mu    sync.Mutex
		tasks []*frameTask

		// limit is the earliest known STOP or failure position. Nothing
		// past it can be part of the result.
		limit atomic.Int64
	)
	g.SetLimit(config.Parallelism)
	limit.Store(math.MaxInt64)

	// cut lowers limit to pos and cancels frames that start after it.
	cut := func(pos int64) {
		mu.Lock()
		defer mu.Unlock()
		if pos >= limit.Load() {
			return
		}
		limit.Store(pos)
		for _, t := range tasks {
			if t.start > pos {
				t.cancel()
			}
		}
	}

	end := int64(math.MaxInt64) // position of the pickle's STOP
	var err error
	var errPos int64
	var buf []byte
loop:
	for {
		pos := d.Pos()
		if pos > limit.Load() {
			break
		}
		ev, b, rerr := d.ReadEvent(buf[:0])
		buf = b
		if rerr != nil {
			err, errPos = rerr, pos
			cut(pos)
			break
		}

		switch ev.Type {
		case EventStop:
			end = pos
			break loop

		case EventFrame:
			if config.FrameThreshold < 0 || ev.Int < config.FrameThreshold {
				continue
			}
			if ev.Int > math.MaxInt {
				err, errPos = &PayloadError{Op: ev.Op, Pos: pos, Err: ErrInvalidLength}, pos
				cut(pos)
				break loop
			}
			fr, ferr := d.r.frameReader(int(ev.Int))
			if ferr != nil {
				err, errPos = d.wrapError(ferr), pos
				cut(pos)
				break loop
			}

			tctx, tcancel := context.WithCancel(ctx)
			t := &frameTask{start: fr.Pos(), cancel: tcancel, stop: -1}
			mu.Lock()
			tasks = append(tasks, t)
			if t.start > limit.Load() {
				tcancel()
			}
			mu.Unlock()

			Logger().Debug("frame dispatched", zap.Int64("pos", t.start), zap.Int64("len", ev.Int))
			g.Go(func() error {
				defer tcancel()
				t.events, t.stop, t.errPos, t.err = decodeFrame(tctx, NewDecoderFromReader(fr, &d.config))
				switch {
				case t.err != nil:
					Logger().Debug("frame decode failed", zap.Int64("pos", t.errPos), zap.Error(t.err))
					cut(t.errPos)
				case t.stop >= 0:
					cut(t.stop)
				}
				return nil
			})

		default:
			top = append(top, posEvent{pos, ev})
		}
	}
	g.Wait()

	// the pickle ends at the earliest STOP and only failures before it count
	for _, t := range tasks {
		if t.stop >= 0 && t.stop < end {
			end = t.stop
		}
	}
	if err != nil && errPos > end {
		err = nil
	}
	for _, t := range tasks {
		if t.err != nil && t.errPos < end && (err == nil || t.errPos < errPos) {
			err, errPos = t.err, t.errPos
		}
	}
	if err != nil {
		return nil, err
	}

	all := top
	for _, t := range tasks {
		all = append(all, t.events...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].pos < all[j].pos
	})

	events := make([]Event, 0, len(all))
	for _, pe := range all {
		if pe.pos >= end {
			break
		}
		events = append(events, pe.ev)
	}
	return events, nil
}

// decodeFrame decodes events of one frame until STOP or end of the frame data.
//
// It returns position of the STOP, or -1 if the frame data ended without
// one. The STOP itself is not included. FRAME events met inside are dropped
// the same way the main loop drops them. On error errPos is the position of
// the opcode that failed.
func decodeFrame(ctx context.Context, d *Decoder) (events []posEvent, stop, errPos int64, err error) {
	var buf []byte
	for {
		pos := d.Pos()
		if cerr := ctx.Err(); cerr != nil {
			return nil, -1, pos, cerr
		}

		ev, b, rerr := d.ReadEvent(buf[:0])
		buf = b
		if rerr != nil {
			return nil, -1, pos, rerr
		}

		switch ev.Type {
		case EventStop:
			// Op is 0 for Stop synthesized at end of the frame data
			if ev.Op == 0 {
				return events, -1, 0, nil
			}
			return events, pos, 0, nil
		case EventFrame:
			continue
		}
		events = append(events, posEvent{pos, ev})
	}
}
