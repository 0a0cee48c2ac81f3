// Package fetch resolves input references (local paths, file://, http(s)://,
// s3://) to a local temporary file the pipeline can open.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Resolve returns a local path for ref plus a cleanup function that removes
// any temp file it created. Local paths pass through with a no-op cleanup.
func Resolve(ctx context.Context, ref string) (string, func(), error) {
	// Strip optional #page fragment if present
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}

	noop := func() {}
	switch {
	case strings.HasPrefix(ref, "s3://"):
		p, err := downloadS3ToTemp(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return p, func() { os.Remove(p) }, nil
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		p, err := downloadHTTPToTemp(ctx, ref)
		if err != nil {
			return "", noop, err
		}
		return p, func() { os.Remove(p) }, nil
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), noop, nil
	}
	// treat as filesystem path
	return ref, noop, nil
}

func downloadHTTPToTemp(ctx context.Context, url string) (string, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil { return "", err }
	defer resp.Body.Close()
	if resp.StatusCode != 200 { return "", fmt.Errorf("http %d", resp.StatusCode) }
	f, err := os.CreateTemp("", "biratu-dl-*")
	if err != nil { return "", err }
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil { return "", err }
	return f.Name(), nil
}

func downloadS3ToTemp(ctx context.Context, s3url string) (string, error) {
	// s3://bucket/key
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 { return "", fmt.Errorf("invalid s3 url: %s", s3url) }
	bucket := path[:slash]
	key := path[slash+1:]

	// Load AWS config (region from env or default chain)
	cfg, err := awscfg.LoadDefaultConfig(ctx)
	if err != nil { return "", err }
	cli := s3.NewFromConfig(cfg)

	out, err := cli.GetObject(ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
	if err != nil { return "", err }
	defer out.Body.Close()

	f, err := os.CreateTemp("", "biratu-s3-*")
	if err != nil { return "", err }
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil { return "", err }
	log.Info().Str("bucket", bucket).Str("key", key).Str("file", filepath.Base(f.Name())).Msg("downloaded s3 object to temp")
	return f.Name(), nil
}
