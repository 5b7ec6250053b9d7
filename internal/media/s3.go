/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"tplstudio/internal/domain"
	applog "tplstudio/internal/log"
)

// Lister lists the media files available in storage.
type Lister interface {
	List(ctx context.Context) ([]File, error)
}

// S3Config describes an S3 compatible endpoint. Supabase storage exposes
// one at <project>/storage/v1/s3 and needs path style addressing.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	// Limit caps the files listed per folder; 0 means 1000.
	Limit int
}

type s3API interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Lister lists the image/, video/ and audio/ folders of a bucket.
type S3Lister struct {
	client s3API
	bucket string
	limit  int
}

// NewS3Lister builds a client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS chain applies.
func NewS3Lister(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*S3Lister, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		for _, fn := range optFns {
			fn(o)
		}
	})
	limit := cfg.Limit
	if limit <= 0 {
		limit = 1000
	}
	return &S3Lister{client: client, bucket: cfg.Bucket, limit: limit}, nil
}

// List returns the files of every media folder, sorted by name per folder.
// Folder placeholders and nested keys are skipped.
func (l *S3Lister) List(ctx context.Context) ([]File, error) {
	lg := applog.WithOperation(applog.WithComponent("media"), "s3_list").With(slog.String("bucket", l.bucket))
	var out []File
	for _, kind := range domain.MediaKinds {
		prefix := kind.String() + "/"
		files, err := l.listFolder(ctx, kind, prefix)
		if err != nil {
			lg.Error("list folder failed", slog.String("prefix", prefix), slog.Any("err", err))
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		lg.Debug("folder listed", slog.String("prefix", prefix), slog.Int("files", len(files)))
		out = append(out, files...)
	}
	return NewIndex(out).All(), nil
}

func (l *S3Lister) listFolder(ctx context.Context, kind domain.MediaKind, prefix string) ([]File, error) {
	var files []File
	var token *string
	for len(files) < l.limit {
		out, err := l.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, prefix)
			if name == "" || strings.Contains(name, "/") || strings.HasPrefix(name, ".") {
				continue
			}
			files = append(files, NewFile(kind, key))
			if len(files) == l.limit {
				break
			}
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return files, nil
}
