package textures

import (
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/mogaika/saturn_viewer/r3d"
)

// Reporter receives fetch progress, status.Hub implements it
type Reporter interface {
	Progress(progress float32, format string, a ...interface{})
	Error(format string, a ...interface{})
}

// Poster hands attach closures over to the goroutine owning the scene
type Poster func(fn func()) error

// Loader fetches texture images by url in background.
// A fetched image is attached through the poster, so the scene is never
// touched from fetch goroutines. Failures are logged and not retried.
type Loader struct {
	client   *http.Client
	post     Poster
	reporter Reporter

	sem   chan struct{}
	cache *cache
	wg    sync.WaitGroup

	requested int32
	finished  int32
}

func NewLoader(client *http.Client, concurrency int, post Poster, reporter Reporter) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Loader{
		client:   client,
		post:     post,
		reporter: reporter,
		sem:      make(chan struct{}, concurrency),
		cache:    newCache(),
	}
}

// Load requests the image of every given texture. Nil textures are skipped.
func (l *Loader) Load(ctx context.Context, texs ...*r3d.Texture) {
	for _, tex := range texs {
		if tex == nil {
			continue
		}
		tex := tex
		e, fetch := l.cache.acquire(tex.URL, func(img image.Image) {
			if err := l.post(func() { tex.Attach(img) }); err != nil {
				log.Printf("[textures] Not attached %q: %v", tex.URL, err)
			}
		})
		if fetch {
			atomic.AddInt32(&l.requested, 1)
			l.wg.Add(1)
			go l.fetch(ctx, tex.URL, e)
		}
	}
}

func (l *Loader) fetch(ctx context.Context, url string, e *entry) {
	defer l.wg.Done()

	img, err := l.download(ctx, url)
	finished := atomic.AddInt32(&l.finished, 1)
	requested := atomic.LoadInt32(&l.requested)

	if err != nil {
		log.Printf("[textures] Failed %q: %v", url, err)
		if l.reporter != nil {
			l.reporter.Error("Texture %q failed: %v", url, err)
		}
	} else if l.reporter != nil {
		l.reporter.Progress(float32(finished)/float32(requested),
			"Textures loaded %d/%d", finished, requested)
	}

	l.cache.complete(e, img, err)
}

func (l *Loader) download(ctx context.Context, url string) (image.Image, error) {
	select {
	case l.sem <- struct{}{}:
		defer func() { <-l.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create request")
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to get")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("Unexpected http status %q", resp.Status)
	}

	img, format, err := image.Decode(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode image")
	}
	log.Printf("[textures] Loaded %q (%s %v)", url, format, img.Bounds().Size())
	return img, nil
}

// Wait blocks until every fetch started so far has completed
func (l *Loader) Wait() {
	l.wg.Wait()
}

// Pending is the count of fetches still in flight
func (l *Loader) Pending() int {
	return int(atomic.LoadInt32(&l.requested) - atomic.LoadInt32(&l.finished))
}
