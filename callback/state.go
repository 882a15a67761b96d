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

package callback

// State is the state of a callback style call.
//
// A call moves from StateIssued to StateAwaitingResult once handed to the
// transport, then to exactly one delivered state. No state is revisited.
type State int32

const (
	// StateIssued is a call registered but not yet handed to the transport
	StateIssued State = iota
	// StateAwaitingResult is a call waiting for its reply or its deadline
	StateAwaitingResult
	// StateDeliveredAppResponse is a call resolved with a business result
	StateDeliveredAppResponse
	// StateDeliveredAppException is a call resolved with a business failure
	StateDeliveredAppException
	// StateDeliveredFrameworkException is a call resolved with a framework failure
	StateDeliveredFrameworkException
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIssued:
		return "issued"
	case StateAwaitingResult:
		return "awaiting_result"
	case StateDeliveredAppResponse:
		return "delivered_app_response"
	case StateDeliveredAppException:
		return "delivered_app_exception"
	case StateDeliveredFrameworkException:
		return "delivered_framework_exception"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the state is a delivered state
func (s State) IsTerminal() bool {
	return s >= StateDeliveredAppResponse && s <= StateDeliveredFrameworkException
}

// outcomeLabel is the metric label of a delivered state
func (s State) outcomeLabel() string {
	switch s {
	case StateDeliveredAppResponse:
		return "app_response"
	case StateDeliveredAppException:
		return "app_exception"
	default:
		return "framework_exception"
	}
}
