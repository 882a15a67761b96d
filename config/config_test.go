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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/tochemey/goinvoke/callback"
	gerrors "github.com/tochemey/goinvoke/errors"
	"github.com/tochemey/goinvoke/message"
)

func TestConsumerConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config := NewConsumerConfig("greeter")
		assert.Equal(t, DefaultProtocol, config.Protocol)
		assert.Equal(t, message.InvokeSync, config.InvokeType)
		assert.Equal(t, DefaultTimeout, config.Timeout)
		assert.Equal(t, "greeter", config.ServiceKey())
		assert.Empty(t, config.AppName())
	})
	t.Run("Method configuration overrides the consumer", func(t *testing.T) {
		onReturn := callback.Funcs{}
		methodReturn := callback.Funcs{
			AppResponse: func(context.Context, proto.Message, string, *message.Request) {},
		}
		config := NewConsumerConfig("greeter",
			WithApplication(NewApplicationConfig("caller")),
			WithUniqueID("v2"),
			WithDirectURL("127.0.0.1:12200"),
			WithTimeout(time.Second),
			WithOnReturn(onReturn),
			WithMethods(
				NewMethodConfig("sayHello", message.InvokeCallback).WithTimeout(2*time.Second).WithOnReturn(methodReturn),
				NewMethodConfig("ping", ""),
				nil,
			),
		)

		require.NoError(t, config.Validate())
		assert.Equal(t, "greeter:v2", config.ServiceKey())
		assert.Equal(t, "caller", config.AppName())

		assert.Equal(t, message.InvokeCallback, config.InvokeTypeOf("sayHello"))
		assert.Equal(t, message.InvokeSync, config.InvokeTypeOf("ping"))
		assert.Equal(t, 2*time.Second, config.TimeoutOf("sayHello"))
		assert.Equal(t, time.Second, config.TimeoutOf("ping"))
		assert.NotNil(t, config.OnReturnOf("sayHello").(callback.Funcs).AppResponse)
		assert.Equal(t, onReturn, config.OnReturnOf("ping"))
	})
	t.Run("Invalid configuration reports every violation", func(t *testing.T) {
		config := NewConsumerConfig("",
			WithInvokeType("broadcast"),
			WithTimeout(0),
			WithMethods(NewMethodConfig("sayHello", "fanout")),
		)
		err := config.Validate()
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "InterfaceID")
		assert.Contains(t, err.Error(), "DirectURL")
		assert.Contains(t, err.Error(), "Timeout")
		assert.Contains(t, err.Error(), "sayHello")
	})
}

func TestProviderConfig(t *testing.T) {
	config := NewProviderConfig("greeter", struct{}{},
		WithProviderApplication(NewApplicationConfig("callee")),
		WithProviderUniqueID("v1"),
		WithProviderProtocol("tri"),
		WithExportedMethods("sayHello"),
		WithStub("stub"),
	)
	require.NoError(t, config.Validate())
	assert.Equal(t, "greeter:v1", config.ServiceKey())
	assert.Equal(t, "callee", config.AppName())
	assert.Equal(t, "tri", config.Protocol)
	assert.Equal(t, []string{"sayHello"}, config.Methods)
	assert.Equal(t, "stub", config.Stub)

	invalid := NewProviderConfig("", nil, WithProviderProtocol(""))
	err := invalid.Validate()
	require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "Ref")

	err = NewProviderConfig("greeter", "impl", WithProviderProtocol("Tri")).Validate()
	require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "lower case tag")
}

func TestServerConfig(t *testing.T) {
	t.Run("From environment", func(t *testing.T) {
		t.Setenv("GOINVOKE_SERVER_PROTOCOL", "tri")
		t.Setenv("GOINVOKE_SERVER_HOST", "127.0.0.1")
		t.Setenv("GOINVOKE_SERVER_PORT", "12299")
		t.Setenv("GOINVOKE_SERVER_SHUTDOWN_TIMEOUT", "2s")

		config, err := ServerConfigFromEnv()
		require.NoError(t, err)
		assert.Equal(t, "tri", config.Protocol)
		assert.Equal(t, TransportHTTP, config.Transport)
		assert.Equal(t, "127.0.0.1:12299", config.Address())
		assert.Equal(t, 2*time.Second, config.ShutdownTimeout)
		assert.Equal(t, "goinvoke.server", config.NATSSubject)

		advertised, err := config.AdvertisedAddress()
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:12299", advertised)
	})
	t.Run("Malformed environment", func(t *testing.T) {
		t.Setenv("GOINVOKE_SERVER_PORT", "not-a-port")
		_, err := ServerConfigFromEnv()
		require.Error(t, err)
	})
	t.Run("Unsupported transport", func(t *testing.T) {
		config := NewServerConfig("127.0.0.1", 12200)
		config.Transport = "carrier-pigeon"
		require.ErrorIs(t, config.Validate(), gerrors.ErrInvalidConfig)
	})
	t.Run("Each transport validates its own fields", func(t *testing.T) {
		config := NewServerConfig("", 12200)
		config.Transport = TransportLocal
		require.Error(t, config.Validate())

		config.Transport = TransportNATS
		require.NoError(t, config.Validate())
		config.NATSSubject = ""
		require.Error(t, config.Validate())
		config.NATSSubject = "goinvoke.server"
		config.NATSURL = ""
		require.Error(t, config.Validate())

		config = NewServerConfig("127.0.0.1", 12200)
		require.NoError(t, config.Validate())
	})
}
