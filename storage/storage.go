package storage

import (
	"context"
	"io"
)

// SavedBlob describes where an uploaded file ended up.
type SavedBlob struct {
	// Filename is the unique on-disk name assigned to the upload.
	Filename string
	// Path is the local filesystem path the classifier reads from.
	Path string
	// MirrorURL is the public bucket URL, empty when mirroring is off.
	MirrorURL string
}

// Mirror copies uploaded blobs to a remote bucket for durability.
type Mirror interface {
	Upload(ctx context.Context, r io.Reader, object string) (string, error)
}

// Store persists uploads to local disk and optionally mirrors them.
type Store struct {
	local  *LocalStore
	mirror Mirror
}

func NewStore(local *LocalStore, mirror Mirror) *Store {
	return &Store{local: local, mirror: mirror}
}

// Save writes the upload locally and, when configured, mirrors it to the
// bucket. Uploads always land on disk first so classification can read a
// local path even if the mirror is slow or failing.
func (s *Store) Save(ctx context.Context, r io.Reader, originalName string) (SavedBlob, error) {
	filename, path, err := s.local.Save(r, originalName)
	if err != nil {
		return SavedBlob{}, err
	}

	blob := SavedBlob{Filename: filename, Path: path}

	if s.mirror != nil {
		f, err := s.local.Open(filename)
		if err != nil {
			return blob, err
		}
		defer f.Close()

		url, err := s.mirror.Upload(ctx, f, filename)
		if err != nil {
			return blob, err
		}
		blob.MirrorURL = url
	}

	return blob, nil
}

// Remove deletes the local copy of a stored blob.
func (s *Store) Remove(filename string) error {
	return s.local.Remove(filename)
}
