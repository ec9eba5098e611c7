// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package arbor

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// URL is the address and semantic attribute bundle that identifies a
// registration, a cluster subscription, or a config subscription. Unlike
// net/url.URL, an arbor URL's query-like Params carry semantic meaning
// (alias, role, type, ...) that participates in key canonicalization, not
// just transport routing.
//
// URL is immutable by convention: all mutating helpers (WithParam) return a
// copy.
type URL struct {
	Scheme string
	Host   string
	Path   string
	Params map[string]string
}

// Param returns the named parameter, or "" if absent.
func (u URL) Param(name string) string {
	return u.Params[name]
}

// WithParam returns a copy of u with name set to value.
func (u URL) WithParam(name, value string) URL {
	cp := u.clone()
	if cp.Params == nil {
		cp.Params = make(map[string]string, 1)
	}

	cp.Params[name] = value
	return cp
}

func (u URL) clone() URL {
	cp := u
	if u.Params != nil {
		cp.Params = maps.Clone(u.Params)
	}

	return cp
}

// String renders a canonical, stable string form of u. Params are sorted by
// key so that two URLs with the same content always render identically.
func (u URL) String() string {
	var sb strings.Builder
	sb.WriteString(u.Scheme)
	sb.WriteString("://")
	sb.WriteString(u.Host)
	sb.WriteString(u.Path)

	if len(u.Params) > 0 {
		keys := make([]string, 0, len(u.Params))
		for k := range u.Params {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		sb.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte('&')
			}

			fmt.Fprintf(&sb, "%s=%s", k, u.Params[k])
		}
	}

	return sb.String()
}

// URLKey pairs a URL with a canonical key string derived from a subset of
// the URL's fields. Two URLKeys are equal, for the purposes of any map in
// this package, iff their Key values are equal.
type URLKey struct {
	url URL
	key string
}

// newURLKey builds a URLKey from a URL and a pre-computed canonical key.
func newURLKey(url URL, key string) URLKey {
	return URLKey{url: url.clone(), key: key}
}

// URL returns the URL associated with this key.
func (k URLKey) URL() URL {
	return k.url.clone()
}

// Key returns the canonical key string.
func (k URLKey) Key() string {
	return k.key
}

// NewRegisterKey builds the URLKey identifying a registration for url, the
// same way Registry.Register does internally. Driver implementations use
// this to reconstruct a key from a URL they only have in unstructured form
// (a backup file, a log line) rather than one handed to them directly.
func NewRegisterKey(url URL) URLKey {
	return newURLKey(url, registerKeyOf(url))
}

// NewClusterKey builds the URLKey identifying a cluster subscription for
// url, the same way Registry.SubscribeCluster does internally.
func NewClusterKey(url URL) URLKey {
	return newURLKey(url, clusterKeyOf(url))
}

// NewConfigKey builds the URLKey identifying a config subscription for url,
// the same way Registry.SubscribeConfig does internally.
func NewConfigKey(url URL) URLKey {
	return newURLKey(url, configKeyOf(url))
}

// canonicalProjection builds a canonical key string from an ordered list of
// (name, value) attribute pairs. Empty values are included positionally so
// that "scheme + missing alias" never collides with "scheme + alias=missing".
func canonicalProjection(pairs ...[2]string) string {
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}

		sb.WriteString(p[0])
		sb.WriteByte('=')
		sb.WriteString(p[1])
	}

	return sb.String()
}

// registerKeyOf projects a URL onto the register-key attribute subset:
// {scheme, path, alias, role}.
func registerKeyOf(u URL) string {
	return canonicalProjection(
		[2]string{"scheme", u.Scheme},
		[2]string{"path", u.Path},
		[2]string{"alias", u.Param("alias")},
		[2]string{"role", u.Param("role")},
	)
}

// clusterKeyOf projects a URL onto the cluster subscription key: the
// register key plus a disambiguating type=cluster attribute.
func clusterKeyOf(u URL) string {
	return registerKeyOf(u) + "&type=cluster"
}

// globalSettingKey is the literal cluster-wide configuration key used when a
// config URL carries no path.
const globalSettingKey = "GLOBAL_SETTING"

// configKeyOf projects a URL onto the config subscription key: the register
// key plus a disambiguating type=config attribute, or the literal
// globalSettingKey when the URL's path is empty.
func configKeyOf(u URL) string {
	if len(u.Path) == 0 {
		return globalSettingKey
	}

	return registerKeyOf(u) + "&type=config"
}
