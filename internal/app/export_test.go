package app

import (
	"context"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// SetGCSClientFactory swaps the GCS client constructor and returns a restore
// function.
func SetGCSClientFactory(f func(context.Context, ...option.ClientOption) (*storage.Client, error)) func() {
	prev := newGCSClient
	newGCSClient = f
	return func() { newGCSClient = prev }
}
