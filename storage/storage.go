// Package storage abstracts where uploaded pictures and attachments
// are kept. The backend is picked with storage.type (local or s3)
package storage

import (
	"context"
	"io"

	"github.com/spf13/viper"
)

type Store interface {
	// Save writes an object under the given name, overwriting any
	// previous object with the same name
	Save(ctx context.Context, name string, r io.Reader, contentType string) error

	// Delete removes an object. Deleting a missing object is not an error
	Delete(ctx context.Context, name string) error

	// URL returns the path a client can fetch the object from
	URL(name string) string
}

func New() (Store, error) {
	if viper.GetString("storage.type") == "s3" {
		return NewS3()
	}

	return NewLocal()
}
