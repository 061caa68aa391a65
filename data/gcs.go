// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"io"
	"os"
	"path"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

func newGcsClient(ctx context.Context, credentials []byte) (*storage.Client, error) {
	var opts []option.ClientOption
	if len(credentials) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentials))
	}
	return storage.NewClient(ctx, opts...)
}

func ListGcsObjects(ctx context.Context, bucket, prefix string, credentials []byte) ([]*RunObject, error) {
	client, err := newGcsClient(ctx, credentials)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	var objList []*RunObject

	if prefix != "" {
		prefix += "/"
	}
	bucketHandle := client.Bucket(bucket)
	it := bucketHandle.Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
	for {
		objAttrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if objAttrs.Prefix != "" {
			continue
		}
		objList = append(objList, &RunObject{Name: path.Base(objAttrs.Name)})
	}

	return objList, nil
}

func GcsObjectExists(ctx context.Context, bucket, name string, credentials []byte) (bool, error) {
	client, err := newGcsClient(ctx, credentials)
	if err != nil {
		return false, err
	}
	defer client.Close()

	_, err = client.Bucket(bucket).Object(name).Attrs(ctx)
	if err == storage.ErrObjectNotExist {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func DownloadGcsObject(ctx context.Context, bucket, name string, credentials []byte) (string, error) {
	client, err := newGcsClient(ctx, credentials)
	if err != nil {
		return "", err
	}
	defer client.Close()

	objectReader, err := client.Bucket(bucket).Object(name).NewReader(ctx)
	if err != nil {
		return "", errors.Wrapf(err, "unable to read gs://%s/%s", bucket, name)
	}
	defer objectReader.Close()

	f, err := os.CreateTemp("", "hitview-*-"+path.Base(name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, objectReader); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", errors.Wrapf(err, "unable to download gs://%s/%s", bucket, name)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
