package storage

import "io"

// File is an uploaded blob handed from the transport layer to services. Name
// keeps the client's file name so key builders can reuse its extension.
type File struct {
	Name   string
	Reader io.Reader
}
