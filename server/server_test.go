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

package server

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tochemey/goinvoke/bootstrap"
	"github.com/tochemey/goinvoke/callback"
	"github.com/tochemey/goinvoke/config"
	"github.com/tochemey/goinvoke/consumer"
	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/provider"
	"github.com/tochemey/goinvoke/remoting"
	"github.com/tochemey/goinvoke/transport"
	natstransport "github.com/tochemey/goinvoke/transport/nats"
)

// greeter answers "hello world" and reflects its "reqB" request baggage
type greeter struct{}

func (greeter) Handle(ctx context.Context, method string, _ proto.Message) (proto.Message, error) {
	ic, err := invocation.Current(ctx)
	if err != nil {
		return nil, err
	}
	if method == "raise" {
		return nil, errors.New("no greeting today")
	}
	if value, ok := ic.GetRequestBaggage("reqB"); ok {
		ic.PutResponseBaggage("respB", value+"-seen")
	} else {
		ic.PutResponseBaggageForce("respB_force", "b2aaaff")
	}
	return wrapperspb.String("hello world"), nil
}

// tripleGreeter is a protocol stub paired implementation
type tripleGreeter struct {
	greeter
	mu    sync.Mutex
	proxy *provider.Proxy
}

func (g *tripleGreeter) SetProxiedImpl(proxy *provider.Proxy) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.proxy = proxy
	return nil
}

func (g *tripleGreeter) getProxy() *provider.Proxy {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.proxy
}

type brokenGreeter struct{ greeter }

func (brokenGreeter) SetProxiedImpl(string) {}

type greeterStub struct{}

func (greeterStub) ServiceName() string { return "goinvoke.v1.Greeter" }

func newLocalServer(t *testing.T, network *transport.Network, name string, opts ...Option) *Server {
	t.Helper()
	cfg := config.NewServerConfig(name, 0)
	cfg.Transport = config.TransportLocal
	server, err := New(cfg, append([]Option{WithNetwork(network), WithLogger(log.DiscardLogger)}, opts...)...)
	require.NoError(t, err)
	return server
}

func newConsumer(t *testing.T, dialer transport.Dialer, target, interfaceID string, opts ...config.ConsumerOption) *consumer.Call {
	t.Helper()
	cfg := config.NewConsumerConfig(interfaceID, append([]config.ConsumerOption{config.WithDirectURL(target)}, opts...)...)
	call, err := consumer.NewCall(cfg, dialer, consumer.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, call.Close(context.Background())) })
	return call
}

// caller returns the go context of a new unit carrying the "reqB" request baggage
func caller() (context.Context, *invocation.Context) {
	unit := invocation.NewBinder().NewUnit()
	ic := unit.Current()
	ic.PutRequestBaggage("reqB", "a2bbb")
	return invocation.WithUnit(context.Background(), unit), ic
}

func TestServer(t *testing.T) {
	ctx := context.Background()
	network := transport.NewNetwork(log.DiscardLogger)
	t.Cleanup(func() { _ = network.Close() })

	server := newLocalServer(t, network, "B")
	assert.Equal(t, []string{"B"}, server.Addresses())

	_, err := server.Export(config.NewProviderConfig("greeter", greeter{}))
	require.ErrorIs(t, err, gerrors.ErrServerNotStarted)

	require.NoError(t, server.Start(ctx))
	require.NoError(t, server.Start(ctx))
	t.Cleanup(func() { assert.NoError(t, server.Stop(ctx)) })

	t.Run("Exports and routes sync calls", func(t *testing.T) {
		key, err := server.Export(config.NewProviderConfig("greeter", greeter{},
			config.WithProviderApplication(config.NewApplicationConfig("B"))))
		require.NoError(t, err)
		assert.Equal(t, "greeter", key)
		assert.Contains(t, server.Services(), "greeter")

		call := newConsumer(t, network, "B", "greeter", config.WithApplication(config.NewApplicationConfig("A")))
		callerCtx, ic := caller()
		result, err := call.Invoke(callerCtx, "sayHello", wrapperspb.String("hello"))
		require.NoError(t, err)
		assert.True(t, proto.Equal(wrapperspb.String("hello world"), result))

		value, ok := ic.GetResponseBaggage("respB")
		require.True(t, ok)
		assert.Equal(t, "a2bbb-seen", value)

		_, err = server.Export(config.NewProviderConfig("greeter", greeter{}))
		require.ErrorIs(t, err, gerrors.ErrAlreadyExported)
	})
	t.Run("Unique IDs distinguish exports", func(t *testing.T) {
		key, err := server.Export(config.NewProviderConfig("greeter", greeter{}, config.WithProviderUniqueID("v2")))
		require.NoError(t, err)
		assert.Equal(t, "greeter:v2", key)

		call := newConsumer(t, network, "B", "greeter", config.WithUniqueID("v2"))
		callerCtx, _ := caller()
		_, err = call.Invoke(callerCtx, "sayHello", nil)
		require.NoError(t, err)
	})
	t.Run("Application exceptions", func(t *testing.T) {
		call := newConsumer(t, network, "B", "greeter")
		callerCtx, _ := caller()
		_, err := call.Invoke(callerCtx, "raise", nil)
		var appErr *gerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "no greeting today", appErr.Message)
	})
	t.Run("Triple exports use the stub name and install the proxy", func(t *testing.T) {
		impl := new(tripleGreeter)
		key, err := server.Export(config.NewProviderConfig("tripleGreeter", impl,
			config.WithProviderProtocol(bootstrap.ProtocolTriple),
			config.WithStub(greeterStub{})))
		require.NoError(t, err)
		assert.Equal(t, "goinvoke.v1.Greeter", key)
		require.NotNil(t, impl.getProxy())
		assert.Equal(t, key, impl.getProxy().Service())

		call := newConsumer(t, network, "B", "goinvoke.v1.Greeter")
		callerCtx, _ := caller()
		_, err = call.Invoke(callerCtx, "sayHello", nil)
		require.NoError(t, err)
	})
	t.Run("Malformed implementations are not exported", func(t *testing.T) {
		_, err := server.Export(config.NewProviderConfig("broken", brokenGreeter{},
			config.WithProviderProtocol(bootstrap.ProtocolTriple)))
		var bootstrapErr *gerrors.BootstrapError
		require.ErrorAs(t, err, &bootstrapErr)
		assert.NotContains(t, server.Services(), "broken")

		_, err = server.Export(config.NewProviderConfig("greeter", greeter{}, config.WithProviderProtocol("h2")))
		require.ErrorIs(t, err, gerrors.ErrProtocolNotSupported)

		_, err = server.Export(config.NewProviderConfig("notAHandler", struct{}{}))
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)

		_, err = server.Export(config.NewProviderConfig("", greeter{}))
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	})
	t.Run("Restricted methods", func(t *testing.T) {
		_, err := server.Export(config.NewProviderConfig("restricted", greeter{}, config.WithExportedMethods("sayHello")))
		require.NoError(t, err)

		call := newConsumer(t, network, "B", "restricted")
		callerCtx, _ := caller()
		_, err = call.Invoke(callerCtx, "sayGoodbye", nil)
		require.ErrorIs(t, err, gerrors.ErrRouting)
	})
	t.Run("Unknown services are routing failures", func(t *testing.T) {
		req, err := message.NewRequest("unknown", "sayHello", message.InvokeSync, nil)
		require.NoError(t, err)
		_, err = server.Route(ctx, req)
		require.ErrorIs(t, err, gerrors.ErrRouting)
		require.ErrorIs(t, err, gerrors.ErrServiceNotFound)
	})
	t.Run("Unexport", func(t *testing.T) {
		_, err := server.Export(config.NewProviderConfig("ephemeral", greeter{}))
		require.NoError(t, err)
		require.NoError(t, server.Unexport("ephemeral"))
		require.ErrorIs(t, server.Unexport("ephemeral"), gerrors.ErrServiceNotFound)

		call := newConsumer(t, network, "B", "ephemeral")
		callerCtx, _ := caller()
		_, err = call.Invoke(callerCtx, "sayHello", nil)
		require.ErrorIs(t, err, gerrors.ErrRouting)
	})
}

func TestServerLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalid configuration", func(t *testing.T) {
		_, err := New(nil)
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)

		cfg := config.NewServerConfig("127.0.0.1", 0)
		cfg.Transport = config.TransportLocal
		_, err = New(cfg)
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	})
	t.Run("Stop unexports every service", func(t *testing.T) {
		network := transport.NewNetwork(log.DiscardLogger)
		defer network.Close()

		server := newLocalServer(t, network, "S")
		require.NoError(t, server.Start(ctx))
		_, err := server.Export(config.NewProviderConfig("greeter", greeter{}))
		require.NoError(t, err)

		require.NoError(t, server.Stop(ctx))
		require.NoError(t, server.Stop(ctx))
		assert.Empty(t, server.Services())

		_, err = server.Export(config.NewProviderConfig("greeter", greeter{}))
		require.ErrorIs(t, err, gerrors.ErrServerNotStarted)
	})
	t.Run("Restart reopens the listener", func(t *testing.T) {
		network := transport.NewNetwork(log.DiscardLogger)
		defer network.Close()

		server := newLocalServer(t, network, "R")
		require.NoError(t, server.Start(ctx))
		require.NoError(t, server.Stop(ctx))

		require.NoError(t, server.Start(ctx))
		assert.Equal(t, []string{"R"}, server.Addresses())
		_, err := server.Export(config.NewProviderConfig("greeter", greeter{}))
		require.NoError(t, err)

		callerCtx, _ := caller()
		call := newConsumer(t, network, "R", "greeter")
		result, err := call.Invoke(callerCtx, "sayHello", wrapperspb.String("hello"))
		require.NoError(t, err)
		require.NotNil(t, result)
		require.NoError(t, server.Stop(ctx))
	})
	t.Run("Supplied listeners cannot be restarted", func(t *testing.T) {
		network := transport.NewNetwork(log.DiscardLogger)
		defer network.Close()

		listener, err := network.Listen("supplied")
		require.NoError(t, err)

		cfg := config.NewServerConfig("127.0.0.1", 0)
		cfg.Transport = config.TransportLocal
		server, err := New(cfg, WithListeners(listener), WithLogger(log.DiscardLogger))
		require.NoError(t, err)

		require.NoError(t, server.Start(ctx))
		require.NoError(t, server.Stop(ctx))
		require.ErrorIs(t, server.Start(ctx), gerrors.ErrServerNotRestartable)

		_, err = server.Export(config.NewProviderConfig("greeter", greeter{}))
		require.ErrorIs(t, err, gerrors.ErrServerNotStarted)
	})
	t.Run("A failing listener aborts the start", func(t *testing.T) {
		network := transport.NewNetwork(log.DiscardLogger)
		defer network.Close()

		closed, err := network.Listen("closed")
		require.NoError(t, err)
		require.NoError(t, closed.Close(ctx))

		healthy, err := network.Listen("healthy")
		require.NoError(t, err)

		cfg := config.NewServerConfig("127.0.0.1", 0)
		cfg.Transport = config.TransportLocal
		server, err := New(cfg,
			WithListeners(closed, healthy),
			WithLogger(log.DiscardLogger))
		require.NoError(t, err)
		require.Error(t, server.Start(ctx))

		_, err = server.Export(config.NewProviderConfig("greeter", greeter{}))
		require.ErrorIs(t, err, gerrors.ErrServerNotStarted)
	})
}

func TestServerOverRemoting(t *testing.T) {
	ctx := context.Background()
	port := dynaport.Get(1)[0]

	cfg := config.NewServerConfig("127.0.0.1", port)
	server, err := New(cfg, WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, server.Start(ctx))
	t.Cleanup(func() { assert.NoError(t, server.Stop(ctx)) })

	_, err = server.Export(config.NewProviderConfig("greeter", greeter{}))
	require.NoError(t, err)

	dialer, err := remoting.NewDialer(remoting.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dialer.Close() })

	call := newConsumer(t, dialer, net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), "greeter")
	assertCallbackRoundTrip(t, call)
}

func TestServerOverNats(t *testing.T) {
	ctx := context.Background()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	go srv.Start()
	require.True(t, srv.ReadyForConnections(2*time.Second))
	t.Cleanup(srv.Shutdown)

	cfg := config.NewServerConfig("127.0.0.1", 0)
	cfg.Transport = config.TransportNATS
	cfg.NATSURL = srv.ClientURL()
	cfg.NATSSubject = "goinvoke.B"

	server, err := New(cfg, WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, server.Start(ctx))
	t.Cleanup(func() { assert.NoError(t, server.Stop(ctx)) })

	_, err = server.Export(config.NewProviderConfig("greeter", greeter{}))
	require.NoError(t, err)

	dialer, err := natstransport.NewDialer(srv.ClientURL(), natstransport.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dialer.Close() })

	call := newConsumer(t, dialer, "goinvoke.B", "greeter")
	assertCallbackRoundTrip(t, call)
}

// assertCallbackRoundTrip issues a callback call and checks the response
// baggage reached both the issuer and the dispatch context before the handler ran
func assertCallbackRoundTrip(t *testing.T, call *consumer.Call) {
	t.Helper()
	callerCtx, ic := caller()

	type observed struct {
		value  proto.Message
		issuer string
		merged string
	}
	done := make(chan observed, 1)
	err := call.InvokeCallback(callerCtx, "sayHello", wrapperspb.String("hello"), callback.Funcs{
		AppResponse: func(ctx context.Context, appResponse proto.Message, _ string, _ *message.Request) {
			dispatchCtx, _ := invocation.Current(ctx)
			merged, _ := dispatchCtx.GetResponseBaggage("respB")
			issuer, _ := ic.GetResponseBaggage("respB")
			done <- observed{value: appResponse, issuer: issuer, merged: merged}
		},
	})
	require.NoError(t, err)

	select {
	case out := <-done:
		assert.True(t, proto.Equal(wrapperspb.String("hello world"), out.value))
		assert.Equal(t, "a2bbb-seen", out.issuer)
		assert.Equal(t, "a2bbb-seen", out.merged)
	case <-time.After(5 * time.Second):
		t.Fatal("callback not delivered")
	}

	result, err := call.Invoke(callerCtx, "sayHello", wrapperspb.String("hello"))
	require.NoError(t, err)
	assert.True(t, proto.Equal(wrapperspb.String("hello world"), result))
}
