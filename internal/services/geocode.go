package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/fletes-mx/cotizaciones-backend/internal/config"
	"github.com/fletes-mx/cotizaciones-backend/internal/models"
)

const geocodeCacheTTL = 24 * time.Hour

// Geocoder resolves a Mexican postal code to its place names.
type Geocoder interface {
	Lookup(ctx context.Context, postalCode string) (*models.Place, error)
}

// CopomexClient queries the COPOMEX info_cp endpoint.
type CopomexClient struct {
	baseURL string
	token   string
	timeout time.Duration
}

func NewCopomexClient(cfg config.GeocodeConfig) *CopomexClient {
	return &CopomexClient{baseURL: cfg.BaseURL, token: cfg.APIToken, timeout: cfg.Timeout}
}

type copomexResponse struct {
	Error        bool         `json:"error"`
	ErrorMessage string       `json:"error_message"`
	Response     models.Place `json:"response"`
}

func (c *CopomexClient) Lookup(ctx context.Context, postalCode string) (*models.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/query/info_cp/%s?type=simplified&token=%s",
		c.baseURL, url.PathEscape(postalCode), url.QueryEscape(c.token))

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}

	agent := fiber.Get(endpoint).Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return nil, external(err, "geocode "+postalCode)
	}

	var out copomexResponse
	status, body, errs := agent.Struct(&out)
	if len(errs) > 0 {
		return nil, external(errs[0], "geocode "+postalCode)
	}
	if status < 200 || status > 299 {
		return nil, external(errors.Errorf("status %d: %s", status, body), "geocode "+postalCode)
	}
	if out.Error {
		return nil, external(errors.New(out.ErrorMessage), "geocode "+postalCode)
	}

	place := out.Response
	if place.PostalCode == "" {
		place.PostalCode = postalCode
	}
	return &place, nil
}

// PlaceCache stores geocoding results between requests.
type PlaceCache interface {
	Get(ctx context.Context, postalCode string) (*models.Place, bool, error)
	Set(ctx context.Context, postalCode string, place *models.Place) error
}

// RedisPlaceCache keeps places as JSON under geocode:cp:<cp>.
type RedisPlaceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPlaceCache connects to redisURL, e.g. redis://localhost:6379/0.
func NewRedisPlaceCache(redisURL string) (*RedisPlaceCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse REDIS_URL")
	}
	return &RedisPlaceCache{client: redis.NewClient(opts), ttl: geocodeCacheTTL}, nil
}

func placeKey(postalCode string) string {
	return "geocode:cp:" + postalCode
}

func (r *RedisPlaceCache) Get(ctx context.Context, postalCode string) (*models.Place, bool, error) {
	raw, err := r.client.Get(ctx, placeKey(postalCode)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var place models.Place
	if err := json.Unmarshal(raw, &place); err != nil {
		return nil, false, err
	}
	return &place, true, nil
}

func (r *RedisPlaceCache) Set(ctx context.Context, postalCode string, place *models.Place) error {
	raw, err := json.Marshal(place)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, placeKey(postalCode), raw, r.ttl).Err()
}

func (r *RedisPlaceCache) Close() error {
	return r.client.Close()
}

// CachedGeocoder fronts a Geocoder with an optional cache and collapses
// concurrent lookups of the same postal code into one upstream call.
type CachedGeocoder struct {
	next    Geocoder
	cache   PlaceCache
	group   singleflight.Group
	metrics *Metrics
	log     zerolog.Logger
}

// NewCachedGeocoder wraps next. cache may be nil.
func NewCachedGeocoder(next Geocoder, cache PlaceCache, metrics *Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		next:    next,
		cache:   cache,
		metrics: metrics,
		log:     log.With().Str("component", "geocoder").Logger(),
	}
}

func (g *CachedGeocoder) Lookup(ctx context.Context, postalCode string) (*models.Place, error) {
	if g.cache != nil {
		place, ok, err := g.cache.Get(ctx, postalCode)
		if err != nil {
			g.log.Warn().Err(err).Str("cp", postalCode).Msg("geocode cache read failed")
		}
		if ok {
			g.metrics.GeocodeLookups.WithLabelValues("cache").Inc()
			return place, nil
		}
	}

	v, err, _ := g.group.Do(postalCode, func() (any, error) {
		place, err := g.next.Lookup(ctx, postalCode)
		if err != nil {
			return nil, err
		}
		g.metrics.GeocodeLookups.WithLabelValues("api").Inc()
		if g.cache != nil {
			if err := g.cache.Set(ctx, postalCode, place); err != nil {
				g.log.Warn().Err(err).Str("cp", postalCode).Msg("geocode cache write failed")
			}
		}
		return place, nil
	})
	if err != nil {
		return nil, err
	}

	place := *v.(*models.Place)
	return &place, nil
}
