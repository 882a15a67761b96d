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

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/internal/http"
	"github.com/tochemey/goinvoke/internal/validation"
)

// Transport kinds a server can listen with
const (
	TransportLocal = "local"
	TransportHTTP  = "http"
	TransportNATS  = "nats"
)

// ServerConfig configures a server hosting exported providers
type ServerConfig struct {
	// Protocol is the protocol tag of the services exported on the server
	Protocol string `env:"GOINVOKE_SERVER_PROTOCOL" envDefault:"bolt"`
	// Transport is the kind of listener the server opens
	Transport string `env:"GOINVOKE_SERVER_TRANSPORT" envDefault:"http"`
	// Host is the address the server binds to
	Host string `env:"GOINVOKE_SERVER_HOST" envDefault:"0.0.0.0"`
	// Port is the port the server binds to
	Port int `env:"GOINVOKE_SERVER_PORT" envDefault:"12200"`
	// NATSURL is the NATS server the nats transport connects to
	NATSURL string `env:"GOINVOKE_NATS_URL" envDefault:"nats://127.0.0.1:4222"`
	// NATSSubject is the subject the nats transport serves
	NATSSubject string `env:"GOINVOKE_NATS_SUBJECT" envDefault:"goinvoke.server"`
	// ShutdownTimeout bounds the graceful stop of the server
	ShutdownTimeout time.Duration `env:"GOINVOKE_SERVER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// NewServerConfig creates a ServerConfig with the default values
func NewServerConfig(host string, port int) *ServerConfig {
	return &ServerConfig{
		Protocol:        DefaultProtocol,
		Transport:       TransportHTTP,
		Host:            host,
		Port:            port,
		NATSURL:         "nats://127.0.0.1:4222",
		NATSSubject:     "goinvoke.server",
		ShutdownTimeout: 5 * time.Second,
	}
}

// ServerConfigFromEnv reads a ServerConfig from the GOINVOKE_* environment variables
func ServerConfigFromEnv() (*ServerConfig, error) {
	config := new(ServerConfig)
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration
func (c *ServerConfig) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("Protocol", c.Protocol)).
		AddAssertion(c.ShutdownTimeout > 0, "the [ShutdownTimeout] must be positive")

	switch c.Transport {
	case TransportLocal:
		chain.AddValidator(validation.NewEmptyStringValidator("Host", c.Host))
	case TransportHTTP:
		chain.AddValidator(validation.NewTCPAddressValidator(c.Address()))
	case TransportNATS:
		chain.AddValidator(validation.NewEmptyStringValidator("NATSURL", c.NATSURL)).
			AddValidator(validation.NewEmptyStringValidator("NATSSubject", c.NATSSubject))
	default:
		chain.AddAssertion(false, fmt.Sprintf("the [Transport] (%s) is not supported", c.Transport))
	}

	if err := chain.Validate(); err != nil {
		return gerrors.NewErrInvalidConfig(err)
	}
	return nil
}

// Address returns the host:port the server binds to
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AdvertisedAddress returns the host:port consumers dial. A wildcard host is
// replaced by a private or public address of the machine.
func (c *ServerConfig) AdvertisedAddress() (string, error) {
	ip, err := http.BindIP(c.Address())
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(ip, strconv.Itoa(c.Port)), nil
}
