package sqliteutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config points at either a local sqlite file or a remote libsql database.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (c Config) String() string {
	if c.Url != "" {
		return c.Url
	}
	return c.File
}

// OpenDB opens the database described by c. Local files (and their parent
// directories) are created if they do not exist yet.
func (c Config) OpenDB() (*sql.DB, error) {
	if c.Url != "" {
		var opts []libsql.Option
		if c.AuthToken != "" {
			opts = append(opts, libsql.WithAuthToken(c.AuthToken))
		}
		connector, err := libsql.NewConnector(c.Url, opts...)
		if err != nil {
			return nil, fmt.Errorf("libsql connector: %w", err)
		}
		return sql.OpenDB(connector), nil
	}
	if c.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}

	if strings.HasPrefix(c.File, "libsql://") {
		return Config{Url: c.File, AuthToken: c.AuthToken}.OpenDB()
	}

	err := os.MkdirAll(filepath.Dir(c.File), 0o755)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", c.File)
	if err != nil {
		return nil, err
	}
	// a single writer avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	return db, nil
}

// QuoteIdent quotes a table or column name.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
