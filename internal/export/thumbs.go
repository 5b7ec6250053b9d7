/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"

	applog "tplstudio/internal/log"
)

// maxThumbBytes caps what a thumbnail fetch may read.
const maxThumbBytes = 16 << 20

// DirThumbnails decodes media from a local mirror of the bucket. Absolute
// URLs are never read.
func DirThumbnails(root string) ThumbnailFunc {
	return func(_ context.Context, src string) (image.Image, bool) {
		if root == "" || strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
			return nil, false
		}
		p := filepath.Join(root, filepath.FromSlash(strings.TrimLeft(src, "/")))
		f, err := os.Open(p)
		if err != nil {
			return nil, false
		}
		defer f.Close()
		return decodeThumb(f, src)
	}
}

// HTTPThumbnails fetches media through resolve, usually a media.Resolver.
// A nil client means http.DefaultClient.
func HTTPThumbnails(client *http.Client, resolve func(string) string) ThumbnailFunc {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, src string) (image.Image, bool) {
		u := resolve(src)
		if u == "" || strings.HasPrefix(u, "data:") {
			return nil, false
		}
		img, err := fetchThumb(ctx, client, u)
		if err != nil {
			applog.WithComponent("export").Debug("thumbnail unavailable", "src", src, "err", err)
			return nil, false
		}
		return img, true
	}
}

func fetchThumb(ctx context.Context, client *http.Client, u string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", u, resp.Status)
	}
	img, _, err := image.Decode(io.LimitReader(resp.Body, maxThumbBytes))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", u, err)
	}
	return img, nil
}

func decodeThumb(r io.Reader, src string) (image.Image, bool) {
	img, _, err := image.Decode(io.LimitReader(r, maxThumbBytes))
	if err != nil {
		applog.WithComponent("export").Debug("thumbnail decode failed", "src", src, "err", err)
		return nil, false
	}
	return img, true
}
