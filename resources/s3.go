package resources

import (
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
)

// S3Client is the subset of the S3 API used to list and fetch shards.
// *s3.S3 satisfies it.
type S3Client interface {
	ListObjectsV2(input *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output,
		error)
	GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error)
}

// S3Source reads shards addressed as `s3://bucket/key`. Key patterns use
// path.Match syntax, so `*` does not cross `/`.
type S3Source struct {
	client S3Client
}

func NewS3Source(client S3Client) *S3Source {
	return &S3Source{client: client}
}

// NewS3SourceFromSession builds a client from the default AWS credential
// chain and environment.
func NewS3SourceFromSession() (*S3Source, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "creating AWS session")
	}
	return NewS3Source(s3.New(sess)), nil
}

// ParseS3URI splits `s3://bucket/key` into bucket and key.
func ParseS3URI(uri string) (bucket string, key string, err error) {
	if !IsS3(uri) {
		return "", "", errors.Errorf("not an s3 uri: %q", uri)
	}
	rest := strings.TrimPrefix(uri, s3Scheme)
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return "", "", errors.Errorf("missing bucket in %q", uri)
	}
	if len(parts) == 1 {
		return parts[0], "", nil
	}
	return parts[0], parts[1], nil
}

// literalPrefix returns the part of a key pattern before its first glob
// metacharacter.
func literalPrefix(pattern string) string {
	if idx := strings.IndexAny(pattern, "*?[\\"); idx >= 0 {
		return pattern[:idx]
	}
	return pattern
}

func (src *S3Source) Glob(pattern string) ([]string, error) {
	bucket, keyPattern, err := ParseS3URI(pattern)
	if err != nil {
		return nil, err
	}
	if _, err := path.Match(keyPattern, ""); err != nil {
		return nil, errors.Wrapf(err, "bad key pattern %q", keyPattern)
	}
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(literalPrefix(keyPattern)),
	}
	names := make([]string, 0)
	for {
		output, listErr := src.client.ListObjectsV2(input)
		if listErr != nil {
			return nil, errors.Wrapf(listErr, "listing %s", pattern)
		}
		for _, object := range output.Contents {
			key := aws.StringValue(object.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			if matched, _ := path.Match(keyPattern, key); matched {
				names = append(names, s3Scheme+bucket+"/"+key)
			}
		}
		if !aws.BoolValue(output.IsTruncated) ||
			output.NextContinuationToken == nil {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}
	sort.Strings(names)
	return names, nil
}

func (src *S3Source) ReadShard(name string) (*Shard, error) {
	bucket, key, err := ParseS3URI(name)
	if err != nil {
		return nil, err
	}
	output, err := src.client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching shard %s", name)
	}
	defer output.Body.Close()
	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading shard %s", name)
	}
	return &Shard{
		Name:  name,
		Size:  uint64(len(data)),
		Lines: SplitLines(data),
	}, nil
}
