// Package all registers every built-in storage backend with the storage
// factory. Import it for side effects:
//
//	import _ "csvtable/internal/storage/all"
//
// after which storage.New accepts the kinds "postgres", "mssql", "mysql" and
// "sqlite".
package all

import (
	_ "csvtable/internal/storage/mssql"
	_ "csvtable/internal/storage/mysql"
	_ "csvtable/internal/storage/postgres"
	_ "csvtable/internal/storage/sqlite"
)
