// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

// Package objectstore stores post images in S3.
//
// Uploads go through a pre-signed PUT URL: the server signs the request with
// its own credentials and then performs the PUT over plain HTTP, so the same
// flow works when the upload is later moved to the browser.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tomtom215/coffeechat/internal/metrics"
)

// DefaultExpiry is the lifetime of pre-signed URLs.
const DefaultExpiry = time.Hour

// UploadedByMetadata is the object metadata key naming the uploader.
const UploadedByMetadata = "uploaded-by"

// S3API is the subset of the S3 client used by the store.
type S3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// PresignAPI is the subset of the S3 presign client used by the store.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// HTTPDoer performs the pre-signed upload.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	_ S3API      = (*s3.Client)(nil)
	_ PresignAPI = (*s3.PresignClient)(nil)
	_ HTTPDoer   = (*http.Client)(nil)
)

// ErrUploadFailed is returned when the pre-signed PUT is rejected.
var ErrUploadFailed = errors.New("upload rejected by object store")

// Config configures a Store.
type Config struct {
	Bucket string
	Region string
	Expiry time.Duration
}

// Store issues pre-signed URLs and manages objects in one bucket.
type Store struct {
	client  S3API
	presign PresignAPI
	http    HTTPDoer
	bucket  string
	region  string
	expiry  time.Duration
}

// New creates a Store. httpClient may be nil to use a client with a
// 60 second timeout.
func New(client S3API, presign PresignAPI, httpClient HTTPDoer, cfg Config) *Store {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	return &Store{
		client:  client,
		presign: presign,
		http:    httpClient,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		expiry:  cfg.Expiry,
	}
}

// PresignedUpload is a signed PUT request. Header must be sent verbatim
// because it carries signed metadata.
type PresignedUpload struct {
	Key    string
	URL    string
	Method string
	Header http.Header
}

// PresignUpload signs a PUT for key "userID/fileName" with the uploader in
// the object metadata.
func (s *Store) PresignUpload(ctx context.Context, userID, fileName string) (*PresignedUpload, error) {
	key := userID + "/" + fileName
	done := metrics.ObserveExternalCall("s3", "PresignPutObject")
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Metadata: map[string]string{UploadedByMetadata: userID},
	}, s3.WithPresignExpires(s.expiry))
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}
	return &PresignedUpload{Key: key, URL: req.URL, Method: req.Method, Header: req.SignedHeader}, nil
}

// Upload PUTs body through the pre-signed request. Any non-2xx response is
// an error wrapping ErrUploadFailed.
func (s *Store) Upload(ctx context.Context, up *PresignedUpload, body io.Reader, size int64, contentType string) error {
	method := up.Method
	if method == "" {
		method = http.MethodPut
	}
	req, err := http.NewRequestWithContext(ctx, method, up.URL, body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	for name, values := range up.Header {
		if strings.EqualFold(name, "Host") {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if size >= 0 {
		req.ContentLength = size
	}

	done := metrics.ObserveExternalCall("s3", "PutObject")
	resp, err := s.http.Do(req)
	if err != nil {
		done(err)
		return fmt.Errorf("failed to upload %s: %w", up.Key, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("%w: %s: %s", ErrUploadFailed, up.Key, resp.Status)
		done(err)
		return err
	}
	done(nil)
	return nil
}

// PresignDownload signs a GET for key.
func (s *Store) PresignDownload(ctx context.Context, key string) (string, error) {
	done := metrics.ObserveExternalCall("s3", "PresignGetObject")
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	done(err)
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %s: %w", key, err)
	}
	return req.URL, nil
}

// Delete removes the object. Deleting a missing key succeeds.
func (s *Store) Delete(ctx context.Context, key string) error {
	done := metrics.ObserveExternalCall("s3", "DeleteObject")
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	done(err)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// ObjectURL returns the virtual-hosted style URL stored on posts.
func (s *Store) ObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// KeyFromURL returns the object key of a URL built by ObjectURL.
func KeyFromURL(objectURL string) (string, bool) {
	const marker = ".amazonaws.com/"
	i := strings.Index(objectURL, marker)
	if i < 0 {
		return "", false
	}
	key := objectURL[i+len(marker):]
	if j := strings.IndexAny(key, "?#"); j >= 0 {
		key = key[:j]
	}
	return key, key != ""
}
