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

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typedErr struct{}

func (typedErr) Error() string     { return "insufficient funds" }
func (typedErr) ErrorType() string { return "FundsError" }

func TestAppError(t *testing.T) {
	t.Run("With nil error", func(t *testing.T) {
		assert.Nil(t, NewAppError("hello", nil))
	})
	t.Run("With plain error", func(t *testing.T) {
		err := NewAppError("hello", errors.New("sampleService"))
		require.NotNil(t, err)
		assert.Equal(t, "sampleService", err.Error())
		assert.Equal(t, "hello", err.Method)
		assert.Empty(t, err.Type)
	})
	t.Run("With typed error", func(t *testing.T) {
		err := NewAppError("pay", fmt.Errorf("wrapped: %w", typedErr{}))
		require.NotNil(t, err)
		assert.Equal(t, "FundsError", err.Type)
	})
}

func TestFrameworkError(t *testing.T) {
	t.Run("Is matches the kind sentinel", func(t *testing.T) {
		err := NewFrameworkError(KindTimeout, "hello", nil)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.NotErrorIs(t, err, ErrTransport)
		assert.Contains(t, err.Error(), "timed out")
	})
	t.Run("Unwrap exposes the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := NewFrameworkError(KindTransport, "hello", cause)
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, ErrTransport)
		assert.Contains(t, err.Error(), "connection refused")
	})
	t.Run("AsFrameworkError keeps existing framework errors", func(t *testing.T) {
		original := NewFrameworkError(KindSerialization, "", nil)
		converted := AsFrameworkError(fmt.Errorf("wrap: %w", original), KindTransport, "hello")
		assert.Same(t, original, converted)
		assert.Equal(t, "hello", converted.Method)
	})
	t.Run("AsFrameworkError classifies other errors", func(t *testing.T) {
		converted := AsFrameworkError(errors.New("eof"), KindTransport, "hello")
		require.NotNil(t, converted)
		assert.Equal(t, KindTransport, converted.Kind)
		assert.Nil(t, AsFrameworkError(nil, KindTransport, "hello"))
	})
	t.Run("WithFields", func(t *testing.T) {
		err := NewFrameworkError(KindInvoker, "hello", nil).WithFields(map[string]string{"k": "v"})
		assert.Equal(t, "v", err.Fields["k"])
	})
}

func TestKind(t *testing.T) {
	kinds := []Kind{KindTransport, KindTimeout, KindSerialization, KindInvoker, KindCanceled, KindShutdown, KindRouting}
	for _, kind := range kinds {
		assert.Equal(t, kind, ParseKind(kind.String()))
	}
	assert.Equal(t, KindTransport, ParseKind("garbage"))
	assert.Equal(t, "unknown", Kind(42).String())
}

func TestBootstrapError(t *testing.T) {
	cause := errors.New("signature mismatch")
	err := &BootstrapError{Protocol: "tri", Target: "*main.impl", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "tri")
	assert.Contains(t, err.Error(), "*main.impl")
}

func TestErrorConstructors(t *testing.T) {
	assert.ErrorIs(t, NewErrServiceNotFound("svc"), ErrServiceNotFound)
	assert.ErrorIs(t, NewErrMethodNotFound("svc", "m"), ErrMethodNotFound)
	assert.ErrorIs(t, NewErrProtocolNotSupported("grpc"), ErrProtocolNotSupported)
	assert.ErrorIs(t, NewErrAlreadyExported("svc"), ErrAlreadyExported)
	assert.ErrorIs(t, NewErrInvalidConfig(errors.New("bad")), ErrInvalidConfig)
}
