// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arborconsul

import "strings"

// Retry reports whether err is worth a reconnect/retry attempt. The consul
// API surfaces authentication and authorization failures as plain errors
// whose text embeds the HTTP status ("Unexpected response code: 401 (...)"),
// so there is no typed error to switch on; a 401/403 means the configured
// ACL token is wrong and retrying will not fix it.
func Retry(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return !strings.Contains(msg, "401") && !strings.Contains(msg, "403")
}
