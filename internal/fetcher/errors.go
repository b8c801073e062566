// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

package fetcher

import "errors"

// ErrNoResults is returned by DownloadByQuery when the search step found
// nothing to download.
var ErrNoResults = errors.New("fetcher: search returned no results")
