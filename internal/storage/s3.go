package storage

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
)

// ObjectStore persists rectified crops and hands out time-limited
// download links.
type ObjectStore interface {
	UploadCrop(data []byte, filename, contentType, userID string) (string, error)
	PresignURL(key string) (string, error)
}

// DefaultUserID is the object-key folder used until per-user
// authentication exists.
const DefaultUserID = "admin"

const presignExpiry = 15 * time.Minute

type s3Store struct {
	client  *s3.S3
	session *session.Session
	bucket  string
}

// NewS3 connects to the configured bucket. Credentials come from the
// standard AWS environment/credential chain.
func NewS3(bucket, region string) (ObjectStore, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &s3Store{
		client:  s3.New(sess),
		session: sess,
		bucket:  bucket,
	}, nil
}

// UploadCrop stores the crop under a structured key
// (userID/YYYY-MM-DD/shortid_filename) and returns that key.
func (s *s3Store) UploadCrop(data []byte, filename, contentType, userID string) (string, error) {
	key := buildObjectKey(filename, userID)

	uploader := s3manager.NewUploader(s.session)
	_, err := uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload crop: %w", err)
	}
	return key, nil
}

// PresignURL returns a time-limited GET link for a stored crop.
func (s *s3Store) PresignURL(key string) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(presignExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign url: %w", err)
	}
	return url, nil
}

// buildObjectKey groups crops by user and capture date, with a short
// unique prefix so repeated filenames never collide.
func buildObjectKey(filename, userID string) string {
	if userID == "" {
		userID = DefaultUserID
	}
	date := time.Now().UTC().Format("2006-01-02")
	shortID := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("%s/%s/%s_%s", userID, date, shortID, filename)
}
