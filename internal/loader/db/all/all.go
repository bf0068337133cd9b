// Package all registers every database source backend this repository ships.
// Commands blank-import it so a config can name any of the supported kinds.
package all

import (
	_ "crashprep/internal/loader/db/mssql"
	_ "crashprep/internal/loader/db/postgres"
	_ "crashprep/internal/loader/db/sqlite"
)
