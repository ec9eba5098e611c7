// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import "time"

// nowMillis returns the current wall-clock time as unix milliseconds. It is
// the single point of reference for registerTime and lastEventTime so that
// tests can substitute their own clock were that ever needed.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}
