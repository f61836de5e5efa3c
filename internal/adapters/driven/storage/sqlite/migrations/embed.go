// Package migrations embeds SQL migration files for the SQLite stores.
// The index and history databases each have their own migration set.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed index/*.sql history/*.sql
var files embed.FS

// Index returns the migrations for index.db.
func Index() fs.FS {
	return sub("index")
}

// History returns the migrations for history.db.
func History() fs.FS {
	return sub("history")
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(files, dir)
	if err != nil {
		panic(err) // dir is a compile-time constant
	}
	return fsys
}
