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

// Package server hosts exported services.
//
// A Server owns the listeners of one configuration and routes every inbound
// envelope to the invoker of the service it targets. Exporting a service runs
// the bootstrap strategy of its protocol first, so an implementation that
// cannot be paired with the invocation pipeline is never exported.
package server

import (
	"context"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/goinvoke/bootstrap"
	"github.com/tochemey/goinvoke/config"
	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/xsync"
	"github.com/tochemey/goinvoke/invocation"
	"github.com/tochemey/goinvoke/log"
	"github.com/tochemey/goinvoke/message"
	"github.com/tochemey/goinvoke/propagation"
	"github.com/tochemey/goinvoke/provider"
	"github.com/tochemey/goinvoke/remoting"
	"github.com/tochemey/goinvoke/telemetry"
	"github.com/tochemey/goinvoke/transport"
	natstransport "github.com/tochemey/goinvoke/transport/nats"
)

// Server hosts exported services behind one or more listeners
type Server struct {
	config    *config.ServerConfig
	registry  *bootstrap.Registry
	listeners []transport.Listener
	network   *transport.Network
	codec     *propagation.Codec
	binder    *invocation.Binder
	logger    log.Logger
	telemetry *telemetry.Telemetry
	filters   []provider.Filter

	// ownsListeners is set when the listeners were built from the config
	ownsListeners bool
	// listenersClosed is set once the listeners were closed
	listenersClosed bool
	listenersLock   sync.RWMutex

	invokers *xsync.Map[string, *provider.ProxyInvoker]
	exported mapset.Set[string]
	started  *atomic.Bool
	// serializes exports so the exported set and the invokers agree
	exportLock sync.Mutex
}

var _ transport.Router = (*Server)(nil)

// New creates a Server. Unless listeners are given, the server opens the
// listener matching the transport of cfg when it starts.
func New(cfg *config.ServerConfig, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, gerrors.NewErrInvalidConfig(fmt.Errorf("server config is required"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	server := &Server{
		config:   cfg,
		codec:    propagation.NewCodec(),
		binder:   invocation.DefaultBinder(),
		logger:   log.DefaultLogger,
		invokers: xsync.NewMap[string, *provider.ProxyInvoker](),
		exported: mapset.NewSet[string](),
		started:  atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(server)
	}

	if server.registry == nil {
		server.registry = bootstrap.DefaultRegistry(server.logger)
	}

	if len(server.listeners) == 0 {
		listener, err := server.newListener()
		if err != nil {
			return nil, err
		}
		server.listeners = []transport.Listener{listener}
		server.ownsListeners = true
	}

	if server.telemetry != nil {
		filter, err := provider.TelemetryFilter(server.telemetry)
		if err != nil {
			return nil, err
		}
		server.filters = append(server.filters, filter)
	}
	return server, nil
}

// Start opens every listener. When one fails the others are closed again.
// A stopped server can be started again unless its listeners were given with
// WithListeners.
func (s *Server) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	if err := s.reopenListeners(); err != nil {
		s.started.Store(false)
		return err
	}

	var eg errgroup.Group
	for _, listener := range s.getListeners() {
		eg.Go(func() error {
			return listener.Serve(s)
		})
	}

	if err := eg.Wait(); err != nil {
		s.started.Store(false)
		_ = s.closeListeners(ctx)
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.logger.Infof("server started on %v", s.Addresses())
	return nil
}

// Stop closes every listener, waiting at most the shutdown timeout for the
// in-flight calls, and unexports every service
func (s *Server) Stop(ctx context.Context) error {
	if !s.started.CompareAndSwap(true, false) {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	err := s.closeListeners(ctx)

	s.exportLock.Lock()
	s.invokers.Reset()
	s.exported.Clear()
	s.exportLock.Unlock()

	if err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Export exports the implementation described by cfg and returns the key it
// is exported under
func (s *Server) Export(cfg *config.ProviderConfig) (string, error) {
	if !s.started.Load() {
		return "", gerrors.ErrServerNotStarted
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	handler, ok := cfg.Ref.(provider.Handler)
	if !ok {
		return "", gerrors.NewErrInvalidConfig(fmt.Errorf("the [Ref] (%T) does not implement provider.Handler", cfg.Ref))
	}

	strategy, err := s.registry.Lookup(cfg.Protocol)
	if err != nil {
		return "", err
	}

	name := strategy.ResolveExportedName(cfg.Stub, cfg.InterfaceID)
	key := config.ServiceKey(name, cfg.UniqueID)

	s.exportLock.Lock()
	defer s.exportLock.Unlock()

	if s.exported.Contains(key) {
		return "", gerrors.NewErrAlreadyExported(key)
	}

	opts := []provider.Option{
		provider.WithCodec(s.codec),
		provider.WithBinder(s.binder),
		provider.WithLogger(s.logger),
		provider.WithFilters(s.filters...),
	}

	invoker, err := provider.NewProxyInvoker(&provider.Service{
		Name:    key,
		Handler: handler,
		Methods: cfg.Methods,
	}, opts...)
	if err != nil {
		return "", gerrors.NewErrInvalidConfig(err)
	}

	if err := strategy.PreProcessTarget(cfg.Ref, invoker.Proxy()); err != nil {
		s.logger.Errorf("failed to export service (%s): %v", key, err)
		return "", err
	}

	s.invokers.Set(key, invoker)
	s.exported.Add(key)
	s.logger.Infof("service (%s) exported with protocol (%s) by application (%s)", key, cfg.Protocol, cfg.AppName())
	return key, nil
}

// Unexport stops routing calls to the service exported under key
func (s *Server) Unexport(key string) error {
	s.exportLock.Lock()
	defer s.exportLock.Unlock()

	if !s.exported.Contains(key) {
		return gerrors.NewErrServiceNotFound(key)
	}
	s.exported.Remove(key)
	s.invokers.Delete(key)
	return nil
}

// Services returns the keys of the exported services
func (s *Server) Services() []string {
	return s.exported.ToSlice()
}

// Addresses returns the targets consumers dial to reach the server
func (s *Server) Addresses() []string {
	listeners := s.getListeners()
	addresses := make([]string, 0, len(listeners))
	for _, listener := range listeners {
		addresses = append(addresses, listener.Address())
	}
	return addresses
}

// Route serves an inbound call on the invoker of the service it targets
func (s *Server) Route(ctx context.Context, req *message.Request) (*message.Response, error) {
	invoker, ok := s.invokers.Get(req.Service)
	if !ok {
		return nil, gerrors.NewFrameworkError(gerrors.KindRouting, req.Method, gerrors.NewErrServiceNotFound(req.Service))
	}
	if app := req.Fields[propagation.AppNameField]; app != "" {
		s.logger.Debugf("call (%s) to %s.%s from application (%s)", req.CallID, req.Service, req.Method, app)
	}
	return invoker.Invoke(ctx, req)
}

func (s *Server) getListeners() []transport.Listener {
	s.listenersLock.RLock()
	defer s.listenersLock.RUnlock()
	return s.listeners
}

func (s *Server) newListener() (transport.Listener, error) {
	switch s.config.Transport {
	case config.TransportLocal:
		if s.network == nil {
			return nil, gerrors.NewErrInvalidConfig(fmt.Errorf("the local transport requires a network"))
		}
		return s.network.Listen(s.config.Host)
	case config.TransportNATS:
		return natstransport.NewListener(s.config.NATSURL, s.config.NATSSubject, natstransport.WithLogger(s.logger))
	default:
		return remoting.NewListener(s.config.Address(), remoting.WithLogger(s.logger))
	}
}

// reopenListeners replaces closed listeners built from the config
func (s *Server) reopenListeners() error {
	s.listenersLock.Lock()
	defer s.listenersLock.Unlock()

	if !s.listenersClosed {
		return nil
	}
	if !s.ownsListeners {
		return gerrors.ErrServerNotRestartable
	}

	listener, err := s.newListener()
	if err != nil {
		return fmt.Errorf("failed to reopen listener: %w", err)
	}
	s.listeners = []transport.Listener{listener}
	s.listenersClosed = false
	return nil
}

func (s *Server) closeListeners(ctx context.Context) error {
	s.listenersLock.Lock()
	s.listenersClosed = true
	listeners := s.listeners
	s.listenersLock.Unlock()

	var eg errgroup.Group
	for _, listener := range listeners {
		eg.Go(func() error {
			return listener.Close(ctx)
		})
	}
	return eg.Wait()
}
