package storage

// Stats contains storage engine statistics.
type Stats struct {
	// Lists is the number of non-empty lists.
	Lists int64

	// Elements is the total number of list elements.
	Elements int64

	// FileSize is the database file size in bytes, including the WAL file.
	FileSize int64
}
