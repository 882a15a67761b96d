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

package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/transport"
)

const forcedKey = propagation.ResponseBaggageForcePrefix + "respB_force"

func startNatsServer(t *testing.T) *natsserver.Server {
	t.Helper()
	serv, err := natsserver.NewServer(&natsserver.Options{
		Host: "127.0.0.1",
		Port: -1,
	})
	require.NoError(t, err)

	go serv.Start()
	if !serv.ReadyForConnections(2 * time.Second) {
		t.Fatalf("nats-io server failed to start")
	}
	t.Cleanup(serv.Shutdown)
	return serv
}

func route(_ context.Context, req *message.Request) (*message.Response, error) {
	fields := propagation.Fields{
		propagation.ResponseBaggagePrefix + "respB": req.Fields[propagation.RequestBaggagePrefix+"reqB"],
		forcedKey: "b2aaaff",
	}
	switch req.Method {
	case "sayHello":
		arg, err := req.Unpack()
		if err != nil {
			return nil, err
		}
		return message.NewResponse(wrapperspb.String(arg.(*wrapperspb.StringValue).GetValue()+" world"), fields)
	case "void":
		return &message.Response{Fields: fields}, nil
	case "raise":
		return message.NewAppExceptionResponse(&gerrors.AppError{Method: req.Method, Message: "raised"}, fields), nil
	case "crash":
		return nil, gerrors.NewFrameworkError(gerrors.KindInvoker, req.Method, errors.New("provider crashed")).
			WithFields(fields.ForcedOnly())
	case "slow":
		time.Sleep(300 * time.Millisecond)
		return &message.Response{}, nil
	default:
		return nil, errors.New("unroutable")
	}
}

func newRequest(t *testing.T, method string, arg proto.Message) *message.Request {
	t.Helper()
	req, err := message.NewRequest("greeter", method, message.InvokeSync, arg)
	require.NoError(t, err)
	req.Fields.Set(propagation.RequestBaggagePrefix+"reqB", "a2bbb")
	return req
}

func TestNats(t *testing.T) {
	srv := startNatsServer(t)
	url := srv.ClientURL()

	listener, err := NewListener(url, "goinvoke.greeter", WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, listener.Serve(transport.RouterFunc(route)))
	require.Error(t, listener.Serve(transport.RouterFunc(route)))
	assert.Equal(t, "goinvoke.greeter", listener.Address())

	dialer, err := NewDialer(url, WithLogger(log.DiscardLogger), WithRequestTimeout(time.Second), WithConnectionName("consumer"))
	require.NoError(t, err)

	tr, err := dialer.Dial(listener.Address())
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Value with baggage both ways", func(t *testing.T) {
		resp, err := tr.Send(ctx, newRequest(t, "sayHello", wrapperspb.String("hello")))
		require.NoError(t, err)
		result, err := resp.Unpack()
		require.NoError(t, err)
		assert.True(t, proto.Equal(wrapperspb.String("hello world"), result))
		assert.Equal(t, "a2bbb", resp.Fields[propagation.ResponseBaggagePrefix+"respB"])
		assert.Equal(t, "b2aaaff", resp.Fields[forcedKey])
	})
	t.Run("Void reply", func(t *testing.T) {
		resp, err := tr.Send(ctx, newRequest(t, "void", nil))
		require.NoError(t, err)
		assert.Nil(t, resp.Payload)
		assert.False(t, resp.IsAppException())
	})
	t.Run("Application exception is a reply", func(t *testing.T) {
		resp, err := tr.Send(ctx, newRequest(t, "raise", nil))
		require.NoError(t, err)
		require.True(t, resp.IsAppException())
		assert.Equal(t, "raised", resp.AppError.Message)
	})
	t.Run("Framework failure keeps its kind and forced baggage", func(t *testing.T) {
		_, err := tr.Send(ctx, newRequest(t, "crash", nil))
		var ferr *gerrors.FrameworkError
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, gerrors.KindInvoker, ferr.Kind)
		assert.Equal(t, "b2aaaff", ferr.Fields[forcedKey])
		assert.Len(t, ferr.Fields, 1)
	})
	t.Run("Plain router errors are invoker failures", func(t *testing.T) {
		_, err := tr.Send(ctx, newRequest(t, "unknown", nil))
		require.ErrorIs(t, err, gerrors.ErrInvoker)
	})
	t.Run("Deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err := tr.Send(ctx, newRequest(t, "slow", nil))
		require.ErrorIs(t, err, gerrors.ErrTimeout)
	})
	t.Run("No listener on the subject", func(t *testing.T) {
		nobody, err := dialer.Dial("goinvoke.nobody")
		require.NoError(t, err)
		_, err = nobody.Send(ctx, newRequest(t, "sayHello", wrapperspb.String("hello")))
		require.ErrorIs(t, err, gerrors.ErrTransport)
	})
	t.Run("Empty target", func(t *testing.T) {
		_, err := dialer.Dial("")
		require.ErrorIs(t, err, gerrors.ErrTransport)
	})

	closeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, listener.Close(closeCtx))
	require.NoError(t, listener.Close(closeCtx))
	require.NoError(t, dialer.Close())
}

func TestNewListener(t *testing.T) {
	_, err := NewListener("nats://127.0.0.1:4222", "")
	require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
}
