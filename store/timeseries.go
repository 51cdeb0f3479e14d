package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/companionkit/knowrouter/config"
	"github.com/companionkit/knowrouter/schema"
)

// TimeseriesStore keeps conversation-quality metrics in redis sorted
// sets, one set per namespace+metric, scored by sample time.
//
// Member format is "<unixnano>:<value>": the nano prefix keeps equal
// values from collapsing into one sorted-set member.
type TimeseriesStore struct {
	rdb        *redis.Client
	prefix     string
	minSamples int
	stableBand float64
}

// NewTimeseriesStore connects to redis. The connection is verified
// lazily on first use, not here.
func NewTimeseriesStore(cfg config.TimeseriesConfig) *TimeseriesStore {
	min := cfg.MinSamples
	if min <= 0 {
		min = 4
	}
	band := cfg.StableBand
	if band <= 0 {
		band = 0.05
	}
	return &TimeseriesStore{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix:     cfg.KeyPrefix,
		minSamples: min,
		stableBand: band,
	}
}

func (s *TimeseriesStore) key(namespace, metric string) string {
	return s.prefix + namespace + ":" + metric
}

// RecordSample appends one metric observation. Used by the feedback
// loop, not by the routing paths.
func (s *TimeseriesStore) RecordSample(ctx context.Context, namespace, metric string, at time.Time, value float64) error {
	if namespace == "" {
		return errors.New("timeseries: namespace is required")
	}
	member := fmt.Sprintf("%d:%s", at.UnixNano(), strconv.FormatFloat(value, 'f', -1, 64))
	if err := s.rdb.ZAdd(ctx, s.key(namespace, metric), &redis.Z{
		Score:  float64(at.Unix()),
		Member: member,
	}).Err(); err != nil {
		return fmt.Errorf("timeseries: record %s/%s: %w", namespace, metric, err)
	}
	return nil
}

// QueryTrend aggregates samples in [now-window, now] into a direction.
// Fewer than the configured minimum of samples yields an
// insufficient-data report, which is a normal outcome.
func (s *TimeseriesStore) QueryTrend(ctx context.Context, namespace, metric string, window time.Duration) (schema.TrendReport, error) {
	if namespace == "" {
		return schema.TrendReport{}, errors.New("timeseries: namespace is required")
	}
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	now := time.Now()
	start := now.Add(-window)

	members, err := s.rdb.ZRangeByScore(ctx, s.key(namespace, metric), &redis.ZRangeBy{
		Min: strconv.FormatInt(start.Unix(), 10),
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return schema.TrendReport{}, fmt.Errorf("timeseries: query %s/%s: %w", namespace, metric, err)
	}

	values := make([]float64, 0, len(members))
	for _, m := range members {
		if v, ok := parseSample(m); ok {
			values = append(values, v)
		}
	}

	report := computeTrend(values, s.minSamples, s.stableBand)
	report.Namespace = namespace
	report.Metric = metric
	report.WindowStart = start
	report.WindowEnd = now
	return report, nil
}

// parseSample extracts the value from a "<unixnano>:<value>" member.
func parseSample(member string) (float64, bool) {
	idx := strings.IndexByte(member, ':')
	if idx < 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(member[idx+1:], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// computeTrend compares the means of the older and newer halves of the
// sample sequence (which arrives in time order). Relative movement
// within the stable band reports as stable.
func computeTrend(values []float64, minSamples int, stableBand float64) schema.TrendReport {
	report := schema.TrendReport{SampleCount: len(values)}
	if len(values) < minSamples {
		report.Direction = schema.TrendInsufficientData
		return report
	}

	half := len(values) / 2
	first := mean(values[:half])
	last := mean(values[half:])
	report.FirstMean = first
	report.LastMean = last

	denom := math.Abs(first)
	if denom == 0 {
		denom = 1
	}
	switch rel := (last - first) / denom; {
	case rel > stableBand:
		report.Direction = schema.TrendImproving
	case rel < -stableBand:
		report.Direction = schema.TrendDeclining
	default:
		report.Direction = schema.TrendStable
	}
	return report
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Close releases the redis connection pool.
func (s *TimeseriesStore) Close() error {
	return s.rdb.Close()
}
