// Package state records panel generation and block download history in SQLite.
package state

import (
	"errors"
	"time"
)

// ErrNotOpen is returned by operations on a store without a database.
var ErrNotOpen = errors.New("database not opened")

// Panel sources.
const (
	SourceCatalog = "catalog"
	SourceNFH     = "nfh"
	SourceNumbers = "numbers"
)

// Panel is one generated panel.
type Panel struct {
	ID         string
	Numbers    []int
	Source     string
	Annotated  bool
	OutputPath string // empty when the panel was not saved
	CreatedAt  time.Time
}

// Download is the outcome of one block download attempt.
type Download struct {
	ID        string
	Block     string
	Status    string
	Reason    string
	Bytes     int64
	CreatedAt time.Time
}
