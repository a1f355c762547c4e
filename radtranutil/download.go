/*
Copyright © 2023 the radtran authors.
This file is part of radtran.

radtran is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

radtran is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with radtran.  If not, see <http://www.gnu.org/licenses/>.
*/

package radtranutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
)

// maybeDownload checks if the input is an existing local file.
// If not, and the input is an HTTP URL or blob storage location,
// it downloads the file and returns the path to the downloaded copy.
// Otherwise the path is returned unchanged.
func maybeDownload(ctx context.Context, path string) (string, error) {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return downloadHTTP(ctx, path)
	}
	if IsBlob(path) {
		return downloadBlob(ctx, path)
	}
	return path, nil
}

// downloadDest creates a file in a new temporary directory with the
// same base name as path.
func downloadDest(path string) (*os.File, error) {
	dir, err := ioutil.TempDir("", "radtran")
	if err != nil {
		return nil, fmt.Errorf("radtranutil: creating temporary download directory: %w", err)
	}
	w, err := os.Create(filepath.Join(dir, filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("radtranutil: creating file for download: %w", err)
	}
	return w, nil
}

// downloadHTTP downloads a file from the specified URL and returns
// the path to the downloaded file.
func downloadHTTP(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return path, fmt.Errorf("radtranutil: downloading %s: %w", path, err)
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return path, fmt.Errorf("radtranutil: downloading %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return path, fmt.Errorf("radtranutil: downloading %s: %s", path, resp.Status)
	}
	w, err := downloadDest(path)
	if err != nil {
		return path, err
	}
	defer w.Close()
	if _, err = io.Copy(w, resp.Body); err != nil {
		return path, fmt.Errorf("radtranutil: downloading %s: %w", path, err)
	}
	logrus.WithField("url", path).Debug("radtranutil: downloaded file")
	return w.Name(), nil
}

// IsBlob returns whether the given filename represents a blob
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
// For the "file" provider, name is a directory relative to the working
// directory, or an absolute directory if bucketName is 'file:///dir'.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("radtranutil.OpenBucket: %w", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.NewBucket(u.Host + u.Path)
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("radtranutil.OpenBucket: invalid provider %s", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// splitBlob splits a blob path such as 'gs://bucket/dir/file.csv' into
// its bucket ('gs://bucket') and key ('dir/file.csv'). For the "file"
// provider the bucket is the directory containing the file.
func splitBlob(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "file" {
		full := u.Host + u.Path
		return "file://" + filepath.Dir(full), filepath.Base(full), nil
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path string) (string, error) {
	bucketName, key, err := splitBlob(path)
	if err != nil {
		return path, fmt.Errorf("radtranutil: downloading %s: %w", path, err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return path, err
	}
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return path, fmt.Errorf("radtranutil: downloading %s: %w", path, err)
	}
	defer r.Close()
	w, err := downloadDest(key)
	if err != nil {
		return path, err
	}
	defer w.Close()
	if _, err = io.Copy(w, r); err != nil {
		return path, fmt.Errorf("radtranutil: downloading %s: %w", path, err)
	}
	logrus.WithField("blob", path).Debug("radtranutil: downloaded file")
	return w.Name(), nil
}
