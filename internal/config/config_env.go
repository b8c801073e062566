// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "strings"

// flattenEnvKey converts PREFIX_FOO_BAR into foo.bar for koanf's dot
// delimiter, stripping the given prefix first.
func flattenEnvKey(s, prefix string) string {
	s = strings.TrimPrefix(s, prefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}
