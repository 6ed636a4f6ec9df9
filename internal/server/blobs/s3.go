package blobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/lifecycle/internal/common"
	sc "github.com/dmitrijs2005/lifecycle/internal/server/config"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/retryx"
	"github.com/google/uuid"
)

// deleteBatch is the S3 limit of keys per DeleteObjects request.
const deleteBatch = 1000

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store is a Store over an S3-compatible bucket (MinIO in development).
// Object keys have the form "<ownerType>/<ownerID>/<uuid>-<name>".
// Every SDK call goes through retryx; each individual call is idempotent.
type S3Store struct {
	objects       objectAPI
	presign       presignAPI
	bucket        string
	presignExpiry time.Duration
	policy        retryx.Policy
}

// NewS3Store builds the SDK clients from the S3 settings of cfg.
func NewS3Store(ctx context.Context, cfg *sc.Config, policy retryx.Policy) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, s3.NewPresignClient(client), cfg.S3Bucket, cfg.PresignExpiry, policy), nil
}

func newS3Store(objects objectAPI, presign presignAPI, bucket string, expiry time.Duration, policy retryx.Policy) *S3Store {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Store{
		objects:       objects,
		presign:       presign,
		bucket:        bucket,
		presignExpiry: expiry,
		policy:        policy,
	}
}

// ownerPrefix escapes both parts so an ID containing "/" cannot reach into
// the prefix of another owner.
func ownerPrefix(ownerType, ownerID string) string {
	return url.PathEscape(ownerType) + "/" + url.PathEscape(ownerID) + "/"
}

// nameFromKey strips the owner prefix and the uuid of a stored key.
func nameFromKey(prefix, key string) string {
	rest := strings.TrimPrefix(key, prefix)
	if len(rest) > 37 && rest[36] == '-' {
		return rest[37:]
	}
	return rest
}

// List returns the records of the owner in key order, each with a
// presigned GET URL.
func (s *S3Store) List(ctx context.Context, ownerType, ownerID string) ([]models.AttachmentRecord, error) {
	prefix := ownerPrefix(ownerType, ownerID)

	keys, err := s.listKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	records := make([]models.AttachmentRecord, 0, len(keys))
	for _, key := range keys {
		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.presignExpiry))
		if err != nil {
			return nil, fmt.Errorf("%w: presign %s: %w", common.ErrRemoteCall, key, err)
		}
		records = append(records, models.AttachmentRecord{
			Name:      nameFromKey(prefix, key),
			URL:       req.URL,
			Key:       key,
			OwnerType: ownerType,
			OwnerID:   ownerID,
		})
	}
	return records, nil
}

// Store uploads files under the owner. If any upload fails the objects
// already written by this call are removed again.
func (s *S3Store) Store(ctx context.Context, ownerType, ownerID string, files []models.Upload) error {
	_, err := s.put(ctx, ownerPrefix(ownerType, ownerID), files)
	return err
}

// Update adds files and then removes the removed records, as one logical
// operation for the caller. Removed records must belong to the owner.
func (s *S3Store) Update(ctx context.Context, ownerType, ownerID string, files []models.Upload, removed []models.AttachmentRecord) error {
	prefix := ownerPrefix(ownerType, ownerID)

	keys := make([]string, 0, len(removed))
	for _, r := range removed {
		if !strings.HasPrefix(r.Key, prefix) {
			return fmt.Errorf("%w: %q is not an attachment of %s/%s", common.ErrorValidation, r.Key, ownerType, ownerID)
		}
		keys = append(keys, r.Key)
	}

	if _, err := s.put(ctx, prefix, files); err != nil {
		return err
	}
	return s.deleteKeys(ctx, keys)
}

// DeleteAllForOwner removes every object of the owner. Deleting an owner
// without objects succeeds.
func (s *S3Store) DeleteAllForOwner(ctx context.Context, ownerType, ownerID string) error {
	keys, err := s.listKeys(ctx, ownerPrefix(ownerType, ownerID))
	if err != nil {
		return err
	}
	return s.deleteKeys(ctx, keys)
}

func (s *S3Store) put(ctx context.Context, prefix string, files []models.Upload) ([]string, error) {
	written := make([]string, 0, len(files))
	for _, f := range files {
		data, err := io.ReadAll(f.Body)
		if err != nil {
			s.rollback(ctx, written)
			return nil, fmt.Errorf("read upload %q: %w", f.Name, err)
		}

		key := prefix + uuid.NewString() + "-" + f.Name
		err = retryx.Do(ctx, s.policy, "s3.put", func(ctx context.Context) error {
			in := &s3.PutObjectInput{
				Bucket:        aws.String(s.bucket),
				Key:           aws.String(key),
				Body:          bytes.NewReader(data),
				ContentLength: aws.Int64(int64(len(data))),
			}
			if f.ContentType != "" {
				in.ContentType = aws.String(f.ContentType)
			}
			_, err := s.objects.PutObject(ctx, in)
			return err
		})
		if err != nil {
			s.rollback(ctx, written)
			return nil, err
		}
		written = append(written, key)
	}
	return written, nil
}

func (s *S3Store) rollback(ctx context.Context, keys []string) {
	_ = s.deleteKeys(context.WithoutCancel(ctx), keys)
}

func (s *S3Store) listKeys(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.objects, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for p.HasMorePages() {
		var page *s3.ListObjectsV2Output
		err := retryx.Do(ctx, s.policy, "s3.list", func(ctx context.Context) error {
			var err error
			page, err = p.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

func (s *S3Store) deleteKeys(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatch {
		end := min(start+deleteBatch, len(keys))

		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}

		err := retryx.Do(ctx, s.policy, "s3.delete", func(ctx context.Context) error {
			out, err := s.objects.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
			})
			if err != nil {
				return err
			}
			if len(out.Errors) > 0 {
				e := out.Errors[0]
				return fmt.Errorf("delete %s: %s: %s (%d failed)",
					aws.ToString(e.Key), aws.ToString(e.Code), aws.ToString(e.Message), len(out.Errors))
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
