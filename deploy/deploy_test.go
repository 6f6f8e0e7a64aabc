package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherbst/devblog/config"
)

func TestForSettings(t *testing.T) {
	assert.Equal(t, "plain", ForSettings(config.Settings{}).Name())
	assert.Equal(t, VercelName, ForSettings(config.Settings{Adapter: &config.Adapter{Name: "vercel", Analytics: true}}).Name())
	assert.Equal(t, "plain", ForSettings(config.Settings{Adapter: &config.Adapter{Name: "netlify"}}).Name())
}

func TestVercelLayout(t *testing.T) {
	root := t.TempDir()
	v := Vercel{}
	assert.Equal(t, filepath.Join(root, ".vercel", "output", "static"), v.OutputDir(root))

	require.NoError(t, v.Finalize(root))
	data, err := os.ReadFile(filepath.Join(root, ".vercel", "output", "config.json"))
	require.NoError(t, err)

	var cfg vercelConfig
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, 3, cfg.Version)
	require.Len(t, cfg.Routes, 3)
	assert.Equal(t, "filesystem", cfg.Routes[1].Handle)
	assert.Equal(t, "/404.html", cfg.Routes[2].Dest)
	assert.Equal(t, 404, cfg.Routes[2].Status)
}

type fakeS3 struct {
	mu   sync.Mutex
	puts map[string]*s3.PutObjectInput
	body map[string]string
	fail string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.fail {
		return nil, errors.New("boom")
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts[key] = in
	f.body[key] = string(b)
	return &s3.PutObjectOutput{}, nil
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func TestUploadPutsEveryFile(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"index.html":            "<h1>home</h1>",
		"blog/hello/index.html": "<p>hi</p>",
		"public/styles.css":     "body{}",
		"sitemap-index.xml":     "<sitemapindex/>",
	})
	fake := &fakeS3{puts: map[string]*s3.PutObjectInput{}, body: map[string]string{}}
	u := &S3Uploader{
		Client: fake,
		Bucket: "site",
		Prefix: "/blog-root/",
		CacheControl: func(p string) string {
			if p == "/public/styles.css" {
				return "public, max-age=86400"
			}
			return ""
		},
	}

	res, err := u.Upload(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Objects)

	keys := make([]string, 0, len(fake.puts))
	for k := range fake.puts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"blog-root/blog/hello/index.html",
		"blog-root/index.html",
		"blog-root/public/styles.css",
		"blog-root/sitemap-index.xml",
	}, keys)

	css := fake.puts["blog-root/public/styles.css"]
	assert.Equal(t, "text/css; charset=utf-8", aws.ToString(css.ContentType))
	assert.Equal(t, "public, max-age=86400", aws.ToString(css.CacheControl))
	assert.Nil(t, fake.puts["blog-root/index.html"].CacheControl)
	assert.Equal(t, "<p>hi</p>", fake.body["blog-root/blog/hello/index.html"])
}

func TestUploadStopsOnFailure(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.html": "a"})
	fake := &fakeS3{puts: map[string]*s3.PutObjectInput{}, body: map[string]string{}, fail: "a.html"}
	u := &S3Uploader{Client: fake, Bucket: "site"}

	_, err := u.Upload(context.Background(), dir)
	assert.Error(t, err)
}

func TestUploadRequiresBucket(t *testing.T) {
	_, err := (&S3Uploader{}).Upload(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"index.html": "text/html; charset=utf-8",
		"feed.xml":   "application/xml; charset=utf-8",
		"robots.txt": "text/plain; charset=utf-8",
		"logo.svg":   "image/svg+xml",
		"photo.jpg":  "image/jpeg",
		"blob":       "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, ContentType(name), name)
	}
}

func TestNewS3ClientCompatibleEndpoint(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))

	ctx := context.Background()
	client, err := NewS3Client(ctx, S3Options{
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
	})
	require.NoError(t, err)

	o := client.Options()
	assert.Equal(t, "us-east-1", o.Region)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(o.BaseEndpoint))
	assert.True(t, o.UsePathStyle)
	creds, err := o.Credentials.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "minio", creds.AccessKeyID)

	client, err = NewS3Client(ctx, S3Options{Region: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", client.Options().Region)
	assert.Nil(t, client.Options().BaseEndpoint)
	assert.False(t, client.Options().UsePathStyle)
}
