package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"bazaar-items/lib/restyutil"
	"bazaar-items/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("bazaar/lib/wiki")

var ErrImageUnavailable = errors.New("image unavailable")

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	BaseUrl   string
	UserAgent string
	Timeout   time.Duration
	// requests per second, zero leaves requests unpaced
	RateLimit float64
	// optional, successful Special:Ask responses are cached here
	Cache    *badger.DB
	CacheTTL time.Duration
	// optional, receives a dump of every http exchange
	Dump restyutil.Output
}

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	cache   *pageCache
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, err
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("wiki base url must be absolute: %q", opts.BaseUrl)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseUrl.String())
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	// uploads are served from a different path and sometimes a cdn host
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(timeout)

	if opts.RateLimit > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, "bazaar/lib/wiki/http")
	restyutil.DumpExchanges(client, opts.Dump)

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	if opts.Cache != nil {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		c.cache = &pageCache{
			db:      opts.Cache,
			baseUrl: baseUrl,
			ttl:     ttl,
			now:     time.Now,
		}
	}
	return c, nil
}

// AskCSV downloads the csv export of q. The body is only returned for a 200
// response, other statuses are returned without an error so the caller can
// decide to skip the page.
func (c *Client) AskCSV(ctx context.Context, q AskQuery) ([]byte, int, error) {
	ctx, span := tracer.Start(ctx, "client:AskCSV")
	defer span.End()

	endpoint := q.Path() + "?downloadformat=csv"
	span.SetAttributes(
		attribute.String("url", endpoint),
		attribute.Int("offset", q.Offset),
	)

	if c.cache != nil {
		contents, err := c.cache.get(ctx, endpoint)
		if err == nil {
			span.SetStatus(codes.Ok, "CACHE HIT")
			return contents, http.StatusOK, nil
		}
		if !errors.Is(err, errPageNotCached) {
			span.RecordError(err)
		}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("downloadformat", "csv").
		Get(q.Path())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, 0, err
	}
	if res.StatusCode() != http.StatusOK {
		span.SetStatus(codes.Error, res.Status())
		return nil, res.StatusCode(), nil
	}

	if c.cache != nil {
		err = c.cache.set(ctx, endpoint, res.Body())
		if err != nil {
			span.RecordError(err)
		}
	}
	return res.Body(), res.StatusCode(), nil
}

// fileName returns the upload name an image path refers to,
// "/assets/items/Fire_Beetle.png" refers to "Fire_Beetle.png".
func fileName(imagePath string) string {
	name := imagePath
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = path.Base(name)
	unescaped, err := url.PathUnescape(name)
	if err == nil {
		name = unescaped
	}
	return strings.TrimPrefix(name, "File:")
}

func isAbsolute(imagePath string) bool {
	u, err := url.Parse(imagePath)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ImageURL returns the url an image is downloaded from. Absolute urls are
// returned as is, anything else goes through Special:Redirect/file.
func (c *Client) ImageURL(imagePath string) string {
	if isAbsolute(imagePath) {
		return imagePath
	}
	return c.BaseUrl.String() + "/w/Special:Redirect/file/" + url.PathEscape(fileName(imagePath))
}

// FilePageURL returns the url of the File: description page of an image.
func (c *Client) FilePageURL(imagePath string) string {
	return c.BaseUrl.String() + "/w/File:" + url.PathEscape(fileName(imagePath))
}

func (c *Client) getOK(ctx context.Context, target string) ([]byte, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", target, res.Status())
	}
	if len(res.Body()) == 0 {
		return nil, fmt.Errorf("GET %s: empty body", target)
	}
	return res.Body(), nil
}

// FetchImage downloads the image at imagePath. When the redirect endpoint
// fails, the File: description page is searched for the original upload and
// that is tried once.
func (c *Client) FetchImage(ctx context.Context, imagePath string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "client:FetchImage")
	defer span.End()

	target := c.ImageURL(imagePath)
	span.SetAttributes(attribute.String("url", target))

	contents, err := c.getOK(ctx, target)
	if err == nil {
		return contents, nil
	}
	if isAbsolute(imagePath) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch image")
		return nil, fmt.Errorf("%w: %w", ErrImageUnavailable, err)
	}
	span.AddEvent("redirect failed, trying file page")

	page, pageErr := c.getOK(ctx, c.FilePageURL(imagePath))
	if pageErr != nil {
		span.RecordError(pageErr)
		span.SetStatus(codes.Error, "failed to fetch file page")
		return nil, fmt.Errorf("%w: %w", ErrImageUnavailable, errors.Join(err, pageErr))
	}
	media, pageErr := ResolveFileMedia(ctx, page, c.BaseUrl)
	if pageErr != nil {
		span.RecordError(pageErr)
		span.SetStatus(codes.Error, "failed to resolve media link")
		return nil, fmt.Errorf("%w: %w", ErrImageUnavailable, errors.Join(err, pageErr))
	}

	contents, pageErr = c.getOK(ctx, media)
	if pageErr != nil {
		span.RecordError(pageErr)
		span.SetStatus(codes.Error, "failed to fetch media")
		return nil, fmt.Errorf("%w: %w", ErrImageUnavailable, errors.Join(err, pageErr))
	}
	return contents, nil
}
