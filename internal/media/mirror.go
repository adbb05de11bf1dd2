package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Mirror copies CRM file attachments into object storage and hands back
// public URLs. CRM download links carry webhook auth tokens and expire, so
// the listing service cannot fetch them directly; the mirror gives every
// image a stable public address instead.
type Mirror struct {
	mc         *minio.Client
	bucket     string
	publicBase string
	http       *http.Client
}

func New(endpoint, access, secret string, useTLS bool, bucket, publicBase string) (*Mirror, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: useTLS,
	})
	if err != nil {
		return nil, err
	}
	return &Mirror{
		mc:         mc,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		http:       &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (m *Mirror) EnsureBucket(ctx context.Context) error {
	exists, err := m.mc.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return m.mc.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// MirrorURLs downloads each source URL and re-uploads it, returning the
// public URL per input in order. Any individual failure keeps the original
// URL; mirroring must never block a submission.
func (m *Mirror) MirrorURLs(ctx context.Context, urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		mirrored, err := m.mirrorOne(ctx, u)
		if err != nil {
			log.Printf("[WARN] media mirror failed for %s: %v", u, err)
			out[i] = u
			continue
		}
		out[i] = mirrored
	}
	return out
}

func (m *Mirror) mirrorOne(ctx context.Context, srcURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("download status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", err
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	object := objectName(srcURL, data)
	_, err = m.mc.PutObject(ctx, m.bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return m.publicBase + "/" + m.bucket + "/" + object, nil
}

// objectName derives a content-addressed name so re-mirroring the same file
// overwrites instead of accumulating copies.
func objectName(srcURL string, data []byte) string {
	sum := sha256.Sum256(data)
	ext := path.Ext(strings.SplitN(path.Base(srcURL), "?", 2)[0])
	if len(ext) > 8 {
		ext = ""
	}
	return "listing-media/" + hex.EncodeToString(sum[:16]) + ext
}
