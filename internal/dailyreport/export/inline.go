package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/dailyflow/dailyflow/internal/dailyreport"
	"github.com/dailyflow/dailyflow/internal/observability"
)

const (
	// MaxInlineImages is how many images per report make it into an export.
	MaxInlineImages = 2
	// inlineConcurrency bounds simultaneous image downloads per export.
	inlineConcurrency = 4
	jpegQuality       = 85
	defaultMaxBytes   = 10 << 20
)

// Image is an embeddable image encoded as a data URI.
type Image struct {
	MIMEType string
	DataURI  string
}

// InlinerConfig wires an Inliner.
type InlinerConfig struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
	Metrics  *observability.ExportMetrics
	Logger   *slog.Logger
}

// Inliner downloads report images and turns them into data URIs.
type Inliner struct {
	client   *http.Client
	maxBytes int64
	metrics  *observability.ExportMetrics
	logger   *slog.Logger
}

// NewInliner constructs an Inliner.
func NewInliner(cfg InlinerConfig) *Inliner {
	var client http.Client
	if cfg.Client != nil {
		client = *cfg.Client
	} else {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 8 * time.Second
		}
		client.Timeout = timeout
	}
	client.CheckRedirect = httpsRedirectsOnly
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Inliner{client: &client, maxBytes: maxBytes, metrics: cfg.Metrics, logger: logger}
}

// httpsRedirectsOnly stops a redirect chain that leaves https.
func httpsRedirectsOnly(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme != "https" {
		return fmt.Errorf("redirect to %s scheme not allowed", req.URL.Scheme)
	}
	if len(via) >= 5 {
		return errors.New("too many redirects")
	}
	return nil
}

// Inline fetches rawURL and re-encodes it. PNG stays PNG, every other decodable
// format becomes JPEG. Only https URLs are fetched. Any failure yields ok=false;
// an image never fails an export.
func (in *Inliner) Inline(ctx context.Context, rawURL string) (Image, bool) {
	img, err := in.inline(ctx, rawURL)
	if err != nil {
		in.logger.Debug("image not inlined", slog.String("url", rawURL), slog.Any("error", err))
		in.metrics.ObserveImage(observability.OutcomeRejected)
		return Image{}, false
	}
	in.metrics.ObserveImage(observability.OutcomeInlined)
	return img, true
}

func (in *Inliner) inline(ctx context.Context, rawURL string) (Image, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Image{}, err
	}
	if u.Scheme != "https" || u.Host == "" {
		return Image{}, fmt.Errorf("scheme %q not allowed", u.Scheme)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("Accept", "image/*")
	resp, err := in.client.Do(req)
	if err != nil {
		return Image{}, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Image{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, in.maxBytes+1))
	if err != nil {
		return Image{}, err
	}
	if int64(len(raw)) > in.maxBytes {
		return Image{}, fmt.Errorf("image larger than %d bytes", in.maxBytes)
	}
	return normalize(raw)
}

func normalize(raw []byte) (Image, error) {
	decoded, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Image{}, fmt.Errorf("decode: %w", err)
	}
	var (
		buf  bytes.Buffer
		mime string
	)
	if format == "png" {
		mime = "image/png"
		err = png.Encode(&buf, decoded)
	} else {
		mime = "image/jpeg"
		err = jpeg.Encode(&buf, flatten(decoded), &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return Image{}, fmt.Errorf("encode %s: %w", mime, err)
	}
	return Image{
		MIMEType: mime,
		DataURI:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// flatten composites img over white so transparent GIF and WebP pixels do not
// turn black in JPEG.
func flatten(img image.Image) image.Image {
	if _, opaque := img.(*image.YCbCr); opaque {
		return img
	}
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Over)
	return dst
}

// ImageSource inlines a single image URL.
type ImageSource interface {
	Inline(ctx context.Context, rawURL string) (Image, bool)
}

// InlineReports inlines at most MaxInlineImages per row with bounded
// concurrency. Images keep their original order and failed ones are dropped.
// Rows without embeddable images are absent from the result.
func InlineReports(ctx context.Context, src ImageSource, rows []dailyreport.ReportRow) map[uuid.UUID][]Image {
	type slot struct {
		img Image
		ok  bool
	}
	slots := make([][]slot, len(rows))
	var g errgroup.Group
	g.SetLimit(inlineConcurrency)
	for i, row := range rows {
		urls := row.Images
		if len(urls) > MaxInlineImages {
			urls = urls[:MaxInlineImages]
		}
		slots[i] = make([]slot, len(urls))
		for j, u := range urls {
			i, j, u := i, j, u
			g.Go(func() error {
				img, ok := src.Inline(ctx, u)
				slots[i][j] = slot{img: img, ok: ok}
				return nil
			})
		}
	}
	_ = g.Wait()

	out := make(map[uuid.UUID][]Image, len(rows))
	for i, row := range rows {
		for _, s := range slots[i] {
			if s.ok {
				out[row.ReportID] = append(out[row.ReportID], s.img)
			}
		}
	}
	return out
}
