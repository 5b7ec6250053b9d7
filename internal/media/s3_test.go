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
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"tplstudio/internal/domain"
)

// listTransport answers ListObjectsV2 from an in-memory key set.
type listTransport struct {
	keys     []string
	requests int
}

func (l *listTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	l.requests++
	if req.Method != http.MethodGet || req.URL.Query().Get("list-type") != "2" {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}, nil
	}
	prefix := req.URL.Query().Get("prefix")
	var keys []string
	for _, k := range l.keys {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
	for _, k := range keys {
		b.WriteString("<Contents><Key>" + k + "</Key><Size>1</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>")
	}
	b.WriteString("</ListBucketResult>")
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(b.String())),
		Header:     http.Header{"Content-Type": {"application/xml"}},
	}, nil
}

func TestS3ListerListsMediaFolders(t *testing.T) {
	rt := &listTransport{keys: []string{
		"image/b.jpg",
		"image/a.png",
		"image/.emptyFolderPlaceholder",
		"video/clip.mp4",
		"audio/nested/x.mp3",
		"audio/Ta Gueule.mp3",
		"docs/readme.pdf",
	}}
	l, err := NewS3Lister(context.Background(), S3Config{
		Bucket:          "tpl-web",
		Endpoint:        "https://mock.s3.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}, func(o *s3.Options) { o.HTTPClient = &http.Client{Transport: rt} })
	if err != nil {
		t.Fatal(err)
	}
	files, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var got []string
	for _, f := range files {
		got = append(got, f.Path)
	}
	want := []string{"image/a.png", "image/b.jpg", "video/clip.mp4", "audio/Ta Gueule.mp3"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("files = %v", got)
	}
	if files[3].Kind != domain.MediaAudio || files[3].Key != "ta gueule" {
		t.Fatalf("audio file = %+v", files[3])
	}
	if rt.requests != 3 {
		t.Fatalf("expected one request per folder, got %d", rt.requests)
	}
}

func TestS3ListerRequiresBucket(t *testing.T) {
	if _, err := NewS3Lister(context.Background(), S3Config{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}
