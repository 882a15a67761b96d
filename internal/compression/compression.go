/*
 * MIT License
 *
 * Copyright (c) 2022-2025 Arsene Tochemey Gandote
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE OTHER DEALINGS IN THE
 * SOFTWARE.
 */

// Package compression registers the content codings the remoting transport
// negotiates on top of connect.
package compression

import (
	"fmt"
	"io"
	"sync"

	"connectrpc.com/connect"
	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Content coding names, as registered with IANA
const (
	Zstd   = "zstd"
	Brotli = "br"
	Gzip   = "gzip"
	None   = "identity"
)

// option bundles the client and handler halves of a compression registration
type option struct {
	connect.ClientOption
	connect.HandlerOption
}

// WithZstd registers pooled Zstandard coders for clients and handlers
func WithZstd() connect.Option {
	return option{
		ClientOption:  connect.WithAcceptCompression(Zstd, newZstdDecompressor, newZstdCompressor),
		HandlerOption: connect.WithCompression(Zstd, newZstdDecompressor, newZstdCompressor),
	}
}

// WithBrotli registers pooled Brotli coders at the given quality for clients
// and handlers
func WithBrotli(level int) connect.Option {
	writers := brotliWriterPool(level)
	newCompressor := func() connect.Compressor {
		return &brotliCompressor{writer: writers.Get().(*brotli.Writer), pool: writers}
	}
	return option{
		ClientOption:  connect.WithAcceptCompression(Brotli, newBrotliDecompressor, newCompressor),
		HandlerOption: connect.WithCompression(Brotli, newBrotliDecompressor, newCompressor),
	}
}

// Options returns the registrations every remoting endpoint carries. Gzip is
// built into connect.
func Options() []connect.Option {
	return []connect.Option{WithZstd(), WithBrotli(brotli.DefaultCompression)}
}

// Validate checks that name is a known coding
func Validate(name string) error {
	switch name {
	case Zstd, Brotli, Gzip, None, "":
		return nil
	default:
		return fmt.Errorf("unsupported compression (%s)", name)
	}
}

var zstdDecoders = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(64<<20))
		if err != nil {
			return err
		}
		return decoder
	},
}

var zstdEncoders = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return err
		}
		return encoder
	},
}

type zstdDecompressor struct {
	decoder *zstd.Decoder
	err     error
}

func newZstdDecompressor() connect.Decompressor {
	switch x := zstdDecoders.Get().(type) {
	case *zstd.Decoder:
		return &zstdDecompressor{decoder: x}
	case error:
		return &zstdDecompressor{err: x}
	default:
		return &zstdDecompressor{err: fmt.Errorf("unexpected pooled value %T", x)}
	}
}

func (d *zstdDecompressor) Read(p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	if d.decoder == nil {
		return 0, io.EOF
	}
	return d.decoder.Read(p)
}

func (d *zstdDecompressor) Reset(r io.Reader) error {
	if d.err != nil {
		return d.err
	}
	if d.decoder == nil {
		decoder, ok := zstdDecoders.Get().(*zstd.Decoder)
		if !ok {
			return io.ErrClosedPipe
		}
		d.decoder = decoder
	}
	return d.decoder.Reset(r)
}

// Close hands the decoder back to the pool. A zstd.Decoder must not be
// closed to stay reusable, so it is only detached from its source.
func (d *zstdDecompressor) Close() error {
	if d.decoder != nil {
		_ = d.decoder.Reset(nil)
		zstdDecoders.Put(d.decoder)
		d.decoder = nil
	}
	return nil
}

type zstdCompressor struct {
	encoder *zstd.Encoder
	err     error
}

func newZstdCompressor() connect.Compressor {
	switch x := zstdEncoders.Get().(type) {
	case *zstd.Encoder:
		return &zstdCompressor{encoder: x}
	case error:
		return &zstdCompressor{err: x}
	default:
		return &zstdCompressor{err: fmt.Errorf("unexpected pooled value %T", x)}
	}
}

func (c *zstdCompressor) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	if c.encoder == nil {
		return 0, io.ErrClosedPipe
	}
	return c.encoder.Write(p)
}

func (c *zstdCompressor) Reset(w io.Writer) {
	if c.encoder == nil && c.err == nil {
		encoder, ok := zstdEncoders.Get().(*zstd.Encoder)
		if !ok {
			c.err = io.ErrClosedPipe
			return
		}
		c.encoder = encoder
	}
	if c.encoder != nil {
		c.encoder.Reset(w)
	}
}

func (c *zstdCompressor) Close() error {
	if c.err != nil {
		return c.err
	}
	if c.encoder == nil {
		return nil
	}
	err := c.encoder.Close()
	c.encoder.Reset(nil)
	zstdEncoders.Put(c.encoder)
	c.encoder = nil
	return err
}

func brotliWriterPool(level int) *sync.Pool {
	return &sync.Pool{New: func() any { return brotli.NewWriterLevel(nil, level) }}
}

var brotliReaders = sync.Pool{
	New: func() any { return brotli.NewReader(nil) },
}

type brotliDecompressor struct {
	reader *brotli.Reader
}

func newBrotliDecompressor() connect.Decompressor {
	return &brotliDecompressor{reader: brotliReaders.Get().(*brotli.Reader)}
}

func (d *brotliDecompressor) Read(p []byte) (int, error) {
	if d.reader == nil {
		return 0, io.EOF
	}
	return d.reader.Read(p)
}

func (d *brotliDecompressor) Reset(r io.Reader) error {
	if d.reader == nil {
		d.reader = brotliReaders.Get().(*brotli.Reader)
	}
	return d.reader.Reset(r)
}

func (d *brotliDecompressor) Close() error {
	if d.reader != nil {
		_ = d.reader.Reset(nil)
		brotliReaders.Put(d.reader)
		d.reader = nil
	}
	return nil
}

type brotliCompressor struct {
	writer *brotli.Writer
	pool   *sync.Pool
}

func (c *brotliCompressor) Write(p []byte) (int, error) {
	if c.writer == nil {
		return 0, io.ErrClosedPipe
	}
	return c.writer.Write(p)
}

func (c *brotliCompressor) Reset(w io.Writer) {
	if c.writer == nil {
		c.writer = c.pool.Get().(*brotli.Writer)
	}
	c.writer.Reset(w)
}

func (c *brotliCompressor) Close() error {
	if c.writer == nil {
		return nil
	}
	err := c.writer.Close()
	c.writer.Reset(nil)
	c.pool.Put(c.writer)
	c.writer = nil
	return err
}
