package gltfutils

import (
	"io"

	"github.com/qmuntal/gltf"
)

// GLTFCacher keeps the document being built together with already exported
// parts, keyed by something unique like a texture url.
type GLTFCacher struct {
	Doc   *gltf.Document
	cache map[string]interface{}
}

func NewCacher() *GLTFCacher {
	return &GLTFCacher{
		Doc:   NewDocument(),
		cache: make(map[string]interface{}),
	}
}

func (gc *GLTFCacher) AddCache(key string, v interface{}) {
	gc.cache[key] = v
}

func (gc *GLTFCacher) GetCached(key string) interface{} {
	if v, e := gc.cache[key]; e {
		return v
	}
	return nil
}

func (gc *GLTFCacher) GetCachedOr(key string, create func() interface{}) interface{} {
	if v := gc.GetCached(key); v != nil {
		return v
	}
	v := create()
	gc.AddCache(key, v)
	return v
}

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

func Float(v float32) *float32 {
	return &v
}

func Export(w io.Writer, doc *gltf.Document, binary bool) error {
	if !binary {
		// no side files, everything goes into the json
		for _, b := range doc.Buffers {
			if b.URI == "" {
				b.EmbeddedResource()
			}
		}
	}
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = binary
	return encoder.Encode(doc)
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	return Export(w, doc, true)
}
