package blob

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	cfg "bizassist/internal/config"
)

var (
	// ErrInvalidReference marks a blob reference whose scheme or shape is
	// not recognized.
	ErrInvalidReference = errors.New("invalid blob reference")

	// ErrNotFound marks a reference whose object no longer exists.
	ErrNotFound = errors.New("object not found")
)

// UnavailableError wraps a transport-level failure talking to the store.
// Unlike ErrNotFound/ErrInvalidReference it is worth retrying.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string { return fmt.Sprintf("blob store unavailable: %v", e.Err) }
func (e *UnavailableError) Unwrap() error { return e.Err }

const (
	scheme   = "s3://"
	basePath = "documents/"

	opTimeout = 30 * time.Second
)

// S3Store resolves s3://bucket/key references against AWS S3. Uploads are
// content-addressed: the object key embeds the SHA-256 of the payload.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

func NewS3Store(ctx context.Context, c *cfg.Config) (*S3Store, error) {
	if c.AWSAccessKey == "" || c.AWSSecretKey == "" {
		return nil, fmt.Errorf("AWS credentials not set")
	}
	if c.AWSRegion == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	if c.S3Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(c.AWSRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AWSAccessKey, c.AWSSecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   c.S3Bucket,
	}, nil
}

// ParseReference splits an s3://bucket/key reference into its bucket and
// object key.
func ParseReference(ref string) (bucket, key string, err error) {
	if !strings.HasPrefix(ref, scheme) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	rest := strings.TrimPrefix(ref, scheme)
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidReference, ref)
	}
	return bucket, key, nil
}

// Fetch returns the full byte content of the referenced object.
func (s *S3Store) Fetch(ctx context.Context, ref string) ([]byte, error) {
	bucket, key, err := ParseReference(ref)
	if err != nil {
		return nil, err
	}

	ctxGet, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	resp, err := s.client.GetObject(ctxGet, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, &UnavailableError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnavailableError{Err: err}
	}
	return body, nil
}

// Store uploads data under documents/<business>/<sha256>/<fileName> and
// returns the resulting reference plus the hex content hash. Identical
// bytes map to the same key; duplicate rejection happens at the persistence
// layer via the returned hash.
func (s *S3Store) Store(ctx context.Context, data []byte, businessID, fileName string) (ref, contentHash string, err error) {
	sum := sha256.Sum256(data)
	contentHash = hex.EncodeToString(sum[:])
	key := fmt.Sprintf("%s%s/%s/%s", basePath, businessID, contentHash, fileName)

	ctxUp, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err = s.uploader.Upload(ctxUp, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
		Metadata: map[string]string{
			"business_id":       businessID,
			"original_filename": fileName,
		},
	})
	if err != nil {
		return "", "", &UnavailableError{Err: err}
	}

	return scheme + s.bucket + "/" + key, contentHash, nil
}

// Delete removes the referenced object. It reports false without error if
// the object was already absent.
func (s *S3Store) Delete(ctx context.Context, ref string) (bool, error) {
	bucket, key, err := ParseReference(ref)
	if err != nil {
		return false, err
	}

	ctxDel, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err = s.client.DeleteObject(ctxDel, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, &UnavailableError{Err: err}
	}
	return true, nil
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}
