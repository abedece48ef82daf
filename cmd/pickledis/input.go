package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// openInput returns r, decompressed if it holds zstd data.
// The returned close func must be called when done reading.
func openInput(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, nil, err
	}
	if !bytes.Equal(head, zstdMagic) {
		return br, func() {}, nil
	}

	zr, err := zstd.NewReader(br)
	if err != nil {
		return nil, nil, fmt.Errorf("zstd: %w", err)
	}
	return zr, zr.Close, nil
}
