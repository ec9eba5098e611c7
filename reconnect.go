// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"time"

	"go.uber.org/zap"
)

// reconnectBaseInterval is the fixed minimum gap between connect attempts,
// per §4.2.1. Implementations may add jitter on top but must never schedule
// sooner than this.
const reconnectBaseInterval = 1 * time.Second

// reconnect implements §4.2.1's loop. It is re-entered once per attempt,
// either directly (attempts == 0) or via a reconnectTask handed to the
// dispatcher, which runs it once due. future resolves when the first successful
// connect completes, or when the retry budget is exhausted.
func (c *RegistryController) reconnect(future *Future[struct{}], attempts int, max int) {
	ctx := c.ctx
	_, err := c.driver.DoConnect(ctx).Wait(ctx)

	switch {
	case c.sm.is(stateClosed):
		c.driver.Disconnect()
		future.Fail(ErrAlreadyClosed)

	case err != nil:
		c.logger.Warn("connect attempt failed", zap.Int("attempt", attempts), zap.Error(err))

		if max < 0 || (max > 0 && attempts+1 <= max) {
			next := attempts + 1
			c.scheduleReconnect(func() {
				c.reconnect(future, next, max)
			}, reconnectBaseInterval)
		} else {
			future.Fail(ErrReconnectExhausted)
		}

	default:
		c.connected.Store(true)
		c.waiter.wakeup()
		c.recover()
		future.Complete(struct{}{})
	}
}

// scheduleReconnect arranges for run to execute no sooner than after,
// handed to the dispatcher as a reconnectTask.
func (c *RegistryController) scheduleReconnect(run func(), after time.Duration) {
	c.reconnectMu.Lock()
	c.pendingReconnect = newReconnectTask(run, after)
	c.reconnectMu.Unlock()
	c.waiter.wakeup()
}
