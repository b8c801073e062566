// scuttle
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package services adapts components with their own lifecycle shape
// (Run(ctx), RunWithContext(ctx), ListenAndServe/Shutdown) to suture's
// Serve(ctx) error contract, so SupervisorTree can supervise them
// uniformly. Each wrapper is a thin translation, not new logic.
package services
