package storage

import (
	"context"
	"errors"
	"io"
)

// Uploader persists attachment bytes under objectName and returns the path
// recorded in the database.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// Remover deletes previously uploaded bytes. Removing something that is
// already gone is not an error.
type Remover interface {
	Remove(ctx context.Context, storedPath string) error
}

type Store interface {
	Uploader
	Remover
}

// ErrNotExist is returned by Open when nothing is stored under the name.
var ErrNotExist = errors.New("attachment does not exist")

// Object is an attachment being read back. Size is -1 when unknown.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// Opener streams stored bytes back by object name.
type Opener interface {
	Open(ctx context.Context, objectName string) (*Object, error)
}

// Linker is implemented by stores whose objects clients may fetch directly.
// PublicURL returns "" when the object is not publicly readable.
type Linker interface {
	PublicURL(objectName string) string
}
