// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// SQLite implementation of the database store. SQLite is the default engine
// and the one exercised by most tests.
package db

// SqliteStore is the SQLite implementation of the Store interface. All
// behavior lives in the shared bunStore; the distinct type keeps dialect
// hooks possible without breaking callers.
type SqliteStore struct {
	bunStore
}
