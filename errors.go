// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import "errors"

var (
	// ErrAlreadyClosed is returned by operations attempted against a
	// registry that has already finished closing.
	ErrAlreadyClosed = errors.New("arbor: registry already closed")

	// ErrAlreadyOpen is returned by Open when the registry is already
	// open or in the process of opening.
	ErrAlreadyOpen = errors.New("arbor: registry already open")

	// ErrNotOpen is returned when an operation that requires an open
	// controller is attempted while the registry is closed or closing.
	ErrNotOpen = errors.New("arbor: registry is not open")

	// ErrReconnectExhausted is returned when the bounded reconnect budget
	// given by Config.MaxConnectRetryTimes is spent without a successful
	// connect.
	ErrReconnectExhausted = errors.New("arbor: reconnect attempts exhausted")

	// ErrNoSuchHandler names the case of an unsubscribe that finds no
	// matching handler for the given URL. Registry's unsubscribe methods
	// report that case by returning false, not this error.
	ErrNoSuchHandler = errors.New("arbor: no such subscription handler")
)
