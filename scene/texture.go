package scene

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/chewxy/math32"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// Texture holds CPU-side pixel data for a 2D texture.
// GLID is set by the OpenGL backend after upload; do not access directly.
type Texture struct {
	Name   string
	Width  int
	Height int
	// Pixels in RGBA8 format (4 bytes per pixel, row-major, top-to-bottom).
	Pixels []byte
	// GLID is the OpenGL texture object ID, set by opengl.UploadTexture.
	GLID uint32
}

// Texture keys used by the default materials.
const (
	TextureParticle = "particle"
	TextureHaze     = "haze"
)

// MaxTextureSize is the largest edge LoadTexture keeps; bigger images are
// scaled down.
const MaxTextureSize = 1024

// LoadTexture reads a PNG, JPEG, BMP or WebP file from disk and returns a
// CPU-side RGBA8 texture.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", path, err)
	}

	rgba := toRGBA(img, MaxTextureSize)
	return &Texture{
		Name:   path,
		Width:  rgba.Bounds().Dx(),
		Height: rgba.Bounds().Dy(),
		Pixels: rgba.Pix,
	}, nil
}

// toRGBA converts img to a tightly packed RGBA image, downscaling so neither
// edge exceeds maxSize.
func toRGBA(img image.Image, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > maxSize || h > maxSize {
		scale := float32(maxSize) / float32(max(w, h))
		w = max(1, int(float32(w)*scale))
		h = max(1, int(float32(h)*scale))
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		return dst
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// SoftCircleTexture builds a white sprite whose alpha falls off smoothly from
// the centre to the edge.
func SoftCircleTexture(name string, size int) *Texture {
	if size < 2 {
		size = 2
	}
	pix := make([]byte, size*size*4)
	half := float32(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := (float32(x) + 0.5 - half) / half
			dy := (float32(y) + 0.5 - half) / half
			d := math32.Sqrt(dx*dx + dy*dy)
			a := 1 - d
			if a < 0 {
				a = 0
			}
			a = a * a * (3 - 2*a)
			i := (y*size + x) * 4
			pix[i+0] = 255
			pix[i+1] = 255
			pix[i+2] = 255
			pix[i+3] = uint8(a*255 + 0.5)
		}
	}
	return &Texture{Name: name, Width: size, Height: size, Pixels: pix}
}

// ── Asynchronous loading ─────────────────────────────────────────────────────

// TexturePolicy decides what happens when a texture cannot be loaded.
type TexturePolicy int

const (
	TextureAbort    TexturePolicy = iota // fail startup with the load error
	TextureFallback                      // substitute a soft-circle sprite
)

var ErrTextureLoad = errors.New("texture load failed")

func ParseTexturePolicy(s string) (TexturePolicy, error) {
	switch s {
	case "abort":
		return TextureAbort, nil
	case "fallback", "":
		return TextureFallback, nil
	default:
		return 0, fmt.Errorf("unknown texture policy %q", s)
	}
}

// TextureSet maps texture keys to decoded textures.
type TextureSet map[string]*Texture

const fallbackTextureSize = 64

// TextureFuture resolves once every requested texture has been decoded or the
// policy has decided the outcome.
type TextureFuture struct {
	done chan struct{}
	set  TextureSet
	err  error
}

// LoadTexturesAsync decodes paths (keyed by texture name) on background
// goroutines. An empty path selects the procedural sprite directly.
func LoadTexturesAsync(ctx context.Context, log *zap.Logger, paths map[string]string, policy TexturePolicy) *TextureFuture {
	f := &TextureFuture{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.set, f.err = loadTextures(ctx, log, paths, policy)
	}()
	return f
}

func loadTextures(ctx context.Context, log *zap.Logger, paths map[string]string, policy TexturePolicy) (TextureSet, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	set := make(TextureSet, len(paths))

	for key, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			var tex *Texture
			if path == "" {
				log.Debug("Using procedural texture", zap.String("texture", key))
				tex = SoftCircleTexture(key, fallbackTextureSize)
			} else {
				loaded, err := LoadTexture(path)
				switch {
				case err == nil:
					tex = loaded
					log.Debug("Loaded texture",
						zap.String("texture", key),
						zap.String("path", path),
						zap.Int("width", tex.Width),
						zap.Int("height", tex.Height))
				case policy == TextureFallback:
					log.Warn("Texture load failed, using procedural sprite",
						zap.String("texture", key), zap.Error(err))
					tex = SoftCircleTexture(key, fallbackTextureSize)
				default:
					return fmt.Errorf("%w: %s: %w", ErrTextureLoad, key, err)
				}
			}

			mu.Lock()
			set[key] = tex
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// Ready reports whether the future has resolved.
func (f *TextureFuture) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the textures are ready or ctx is done.
func (f *TextureFuture) Await(ctx context.Context) (TextureSet, error) {
	select {
	case <-f.done:
		return f.set, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BindTextures assigns textures to every field material in the scene by key. Unknown
// keys fall back to the particle texture.
func (s *Scene) BindTextures(set TextureSet) {
	for _, n := range s.FieldNodes() {
		if tex, ok := set[n.Material.TextureKey]; ok {
			n.Material.Texture = tex
		} else {
			n.Material.Texture = set[TextureParticle]
		}
	}
}
