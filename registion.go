// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"sync"
	"time"
)

// Registion is a single local service registration. The misspelling mirrors
// the domain term used throughout this package's design notes: it is
// distinct from "Registration" (the registration types used by concrete drivers)
// precisely because it tracks ref-counted *user intent* rather than a
// one-shot call.
//
// A Registion is shared between caller goroutines (Register/Deregister,
// which mutate refCount) and the dispatcher goroutine (which completes
// future.Open and sets registerTime). All access goes through the exported
// methods, which hold lock internally.
type Registion struct {
	key URLKey

	lock         sync.Mutex
	refCount     int
	future       *StateFuture
	registerTime int64 // unix ms of last successful register; 0 before success or after close
}

// newRegistion creates a fresh Registion with ref-count 0 and a new,
// unresolved StateFuture.
func newRegistion(key URLKey) *Registion {
	return &Registion{
		key:    key,
		future: newStateFuture(),
	}
}

// Key returns the identity of this registration.
func (r *Registion) Key() URLKey {
	return r.key
}

// IncRef bumps the ref-count and returns the new value.
func (r *Registion) IncRef() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.refCount++
	return r.refCount
}

// DecRef decrements the ref-count and returns the new value. The count never
// goes below zero.
func (r *Registion) DecRef() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.refCount > 0 {
		r.refCount--
	}

	return r.refCount
}

// RefCount returns the current ref-count.
func (r *Registion) RefCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.refCount
}

// Future returns the current StateFuture. Safe for concurrent use with
// Close, which replaces it.
func (r *Registion) Future() *StateFuture {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.future
}

// RegisterTime returns the wall-clock unix-ms timestamp of the last
// successful remote registration, or 0 if there has been none since
// creation or the last Close.
func (r *Registion) RegisterTime() int64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.registerTime
}

// markRegistered records a successful remote registration and completes the
// current open future with the Registion's URL, if not already resolved.
func (r *Registion) markRegistered(now time.Time) {
	r.lock.Lock()
	f := r.future
	r.registerTime = now.UnixMilli()
	r.lock.Unlock()

	f.Open.Complete(r.key.URL())
}

// Close bumps this Registion's StateFuture (replacing it with a fresh,
// unresolved pair) and resets registerTime to 0, per §4.1's close()
// contract. It does not itself perform any remote deregistration; callers
// arrange that separately.
func (r *Registion) Close() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.future.Close.Complete(struct{}{})
	r.future = newStateFuture()
	r.registerTime = 0
}
