// Package source loads resume documents from local files or S3-compatible
// object storage and turns them into plain text.
package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/extract"
	"resumatch/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// ObjectGetter is the subset of the S3 client used to fetch documents.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Document is a fetched resume before text extraction.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Loader resolves document references. A reference is either s3://bucket/key
// or a local file path.
type Loader struct {
	s3      ObjectGetter
	breaker *FetchBreaker
	maxSize int64
	logger  *errors.Logger
}

// NewLoader builds a loader with an S3 client from the storage config.
// Static credentials are used when set, otherwise the default AWS chain.
func NewLoader(ctx context.Context, cfg config.StorageConfig, maxSize int64, logger *errors.Logger) (*Loader, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKeyID != "" && cfg.S3.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	breaker := NewFetchBreaker("S3-Fetch", cfg.S3.CircuitBreaker, logger)
	return NewLoaderWithClient(client, breaker, maxSize, logger), nil
}

// NewLoaderWithClient builds a loader around an existing object getter. A nil
// getter disables s3:// references.
func NewLoaderWithClient(client ObjectGetter, breaker *FetchBreaker, maxSize int64, logger *errors.Logger) *Loader {
	return &Loader{
		s3:      client,
		breaker: breaker,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Breaker returns the S3 fetch breaker, which may be nil.
func (l *Loader) Breaker() *FetchBreaker {
	return l.breaker
}

// ParseS3URI splits s3://bucket/key into bucket and key.
func ParseS3URI(ref string) (bucket, key string, err error) {
	if !strings.HasPrefix(ref, s3Scheme) {
		return "", "", fmt.Errorf("not an s3 reference: %s", ref)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(ref, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 reference must be s3://bucket/key: %s", ref)
	}
	return bucket, key, nil
}

// Load fetches the referenced document.
func (l *Loader) Load(ctx context.Context, ref string) (*Document, error) {
	if strings.HasPrefix(ref, s3Scheme) {
		return l.loadS3(ctx, ref)
	}
	return l.loadFile(ref)
}

// Text loads the referenced document and extracts its text. An empty
// mediaType selects the extractor by the reference's extension.
func (l *Loader) Text(ctx context.Context, ref, mediaType string) (string, error) {
	doc, err := l.Load(ctx, ref)
	if err != nil {
		return "", err
	}

	if mediaType == "" {
		mediaType, err = extract.DetectMIME(doc.Name)
		if err != nil && doc.ContentType != "" {
			mediaType, err = doc.ContentType, nil
		}
		if err != nil {
			return "", errors.NewValidationError(errors.ErrCodeUnsupportedDocument,
				fmt.Sprintf("Unsupported document: %s", doc.Name), err)
		}
	}

	text, err := extract.TextByMIME(mediaType, doc.Data)
	if err != nil {
		return "", ExtractionError(doc.Name, err)
	}

	l.logger.Debug("Document text extracted",
		"ref", ref,
		"media_type", mediaType,
		"bytes", len(doc.Data),
		"chars", len(text))
	return text, nil
}

// ExtractionError wraps an extract failure into an AppError with the
// matching code.
func ExtractionError(name string, err error) error {
	if errors.Is(err, extract.ErrUnsupportedDocument) {
		return errors.NewValidationError(errors.ErrCodeUnsupportedDocument,
			fmt.Sprintf("Unsupported document: %s", name), err)
	}
	return errors.NewIOError(errors.ErrCodeExtractionFailed,
		fmt.Sprintf("Failed to extract text from %s", name), err)
}

func (l *Loader) loadFile(filename string) (*Document, error) {
	if err := utils.ValidateInputFile(filename); err != nil {
		code := errors.ErrCodeFileNotReadable
		if errors.Is(err, fs.ErrNotExist) {
			code = errors.ErrCodeFileNotFound
		}
		return nil, errors.NewIOError(code, fmt.Sprintf("Invalid file %s", filename), err)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			l.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	data, err := l.readLimited(file, filename)
	if err != nil {
		return nil, err
	}

	return &Document{Name: filename, Data: data}, nil
}

func (l *Loader) loadS3(ctx context.Context, ref string) (*Document, error) {
	bucket, key, err := ParseS3URI(ref)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "Invalid document reference", err)
	}
	if l.s3 == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "S3 storage is not configured", nil)
	}

	var contentType string
	data, err := l.breaker.Execute(func() ([]byte, error) {
		out, err := l.s3.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := out.Body.Close(); err != nil {
				l.logger.Warn("Failed to close object body", "ref", ref, "error", err)
			}
		}()

		contentType = aws.ToString(out.ContentType)
		return l.readLimited(out.Body, ref)
	})
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, errors.NewNetworkError(errors.ErrCodeSourceFetchFailed,
			fmt.Sprintf("Failed to fetch %s", ref), err).
			WithContext("bucket", bucket).
			WithContext("key", key)
	}

	l.logger.Debug("Fetched document from S3", "bucket", bucket, "key", key, "bytes", len(data))
	return &Document{Name: path.Base(key), ContentType: contentType, Data: data}, nil
}

// readLimited reads at most maxSize bytes and fails when more are available.
func (l *Loader) readLimited(r io.Reader, name string) ([]byte, error) {
	if l.maxSize <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
				fmt.Sprintf("Failed to read content: %s", name), err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, l.maxSize+1))
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read content: %s", name), err)
	}
	if int64(len(data)) > l.maxSize {
		return nil, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s exceeds the %s limit", name, utils.FormatFileSize(l.maxSize)), nil)
	}
	return data, nil
}
