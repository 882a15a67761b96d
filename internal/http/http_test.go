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

package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
)

func TestNewClient(t *testing.T) {
	cl := NewClient(16 * 1024)
	assert.IsType(t, new(http.Client), cl)
	assert.IsType(t, new(http2.Transport), cl.Transport)
	tr := cl.Transport.(*http2.Transport)
	assert.True(t, tr.AllowHTTP)
	assert.EqualValues(t, 16*1024, tr.MaxReadFrameSize)
	assert.Equal(t, 10*time.Second, tr.PingTimeout)
	assert.Equal(t, 20*time.Second, tr.ReadIdleTimeout)
}

func TestNewServer(t *testing.T) {
	server := NewServer("127.0.0.1:0", http.NewServeMux(), DefaultMaxReadFrameSize)
	assert.Equal(t, "127.0.0.1:0", server.Addr)
	assert.NotNil(t, server.Handler)
}

func TestURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:123", URL("127.0.0.1", 123))
}

func TestBindIP(t *testing.T) {
	t.Run("Explicit IP", func(t *testing.T) {
		ip, err := BindIP("127.0.0.1:8080")
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", ip)
	})
	t.Run("Invalid address", func(t *testing.T) {
		_, err := BindIP("127.0.0.1")
		require.Error(t, err)
	})
}
