// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// MySQL implementation of the database store.
package db

// MySQLStore is the MySQL implementation of the Store interface.
type MySQLStore struct {
	bunStore
}
