package textures

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/saturn_viewer/r3d"
)

type recordingReporter struct {
	lock     sync.Mutex
	progress []float32
	errors   int
}

func (r *recordingReporter) Progress(progress float32, format string, a ...interface{}) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.progress = append(r.progress, progress)
}

func (r *recordingReporter) Error(format string, a ...interface{}) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.errors++
}

func pngBytes(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestServer(t *testing.T, hits *int32) *httptest.Server {
	data := pngBytes(t)
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/ok.png":
			w.Write(data)
		case "/garbage.png":
			w.Write([]byte("not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
}

// syncPoster runs attach closures in place under a lock
type syncPoster struct {
	lock sync.Mutex
	runs int
}

func (p *syncPoster) post(fn func()) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.runs++
	fn()
	return nil
}

func TestLoaderAttachesOncePerUrl(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()

	poster := &syncPoster{}
	reporter := &recordingReporter{}
	l := NewLoader(srv.Client(), 2, poster.post, reporter)

	a := r3d.NewTexture(srv.URL + "/ok.png")
	b := r3d.NewTexture(srv.URL + "/ok.png")
	l.Load(context.Background(), a, b, nil)
	l.Wait()

	poster.lock.Lock()
	defer poster.lock.Unlock()
	assert.True(t, a.Ready())
	assert.True(t, b.Ready())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, 2, poster.runs)
	assert.Equal(t, []float32{1}, reporter.progress)
	assert.Equal(t, 4, a.Image().Bounds().Dx())
	assert.Equal(t, 0, l.Pending())
}

func TestLoaderCachedAfterCompletion(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()

	poster := &syncPoster{}
	l := NewLoader(srv.Client(), 1, poster.post, nil)

	l.Load(context.Background(), r3d.NewTexture(srv.URL+"/ok.png"))
	l.Wait()

	late := r3d.NewTexture(srv.URL + "/ok.png")
	l.Load(context.Background(), late)
	assert.True(t, late.Ready())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Same(t, late.Image(), l.cache.d[srv.URL+"/ok.png"].img)
}

func TestLoaderFailuresStayUntextured(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()

	poster := &syncPoster{}
	reporter := &recordingReporter{}
	l := NewLoader(srv.Client(), 2, poster.post, reporter)

	missing := r3d.NewTexture(srv.URL + "/missing.png")
	garbage := r3d.NewTexture(srv.URL + "/garbage.png")
	l.Load(context.Background(), missing, garbage)
	l.Wait()

	assert.False(t, missing.Ready())
	assert.False(t, garbage.Ready())
	assert.Equal(t, 0, poster.runs)
	assert.Equal(t, 2, reporter.errors)

	// no retry
	l.Load(context.Background(), missing)
	l.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Error(t, l.cache.d[srv.URL+"/missing.png"].err)
}

func TestLoaderCancelledContext(t *testing.T) {
	var hits int32
	srv := newTestServer(t, &hits)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLoader(srv.Client(), 1, (&syncPoster{}).post, nil)
	tex := r3d.NewTexture(srv.URL + "/ok.png")
	l.Load(ctx, tex)
	l.Wait()
	assert.False(t, tex.Ready())
}
