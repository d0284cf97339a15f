// Package all wires every built-in storage backend into the storage factory.
//
// Importing it for side effects registers "postgres", "mssql", "mysql" and
// "sqlite":
//
//	import _ "survey/internal/storage/all"
package all

import (
	_ "survey/internal/storage/mssql"
	_ "survey/internal/storage/mysql"
	_ "survey/internal/storage/postgres"
	_ "survey/internal/storage/sqlite"
)
