package skyagent

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saaga0h/jeeves-sky/internal/sky"
	"github.com/saaga0h/jeeves-sky/pkg/mqtt"
	"github.com/saaga0h/jeeves-sky/pkg/redis"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeRedis is an in-memory redis.Client
type fakeRedis struct {
	mu      sync.Mutex
	zsets   map[string]map[string]float64
	hashes  map[string]map[string]string
	ttls    map[string]time.Duration
	failAll error
	closed  bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		zsets:  map[string]map[string]float64{},
		hashes: map[string]map[string]string{},
		ttls:   map[string]time.Duration{},
	}
}

func (f *fakeRedis) HSet(ctx context.Context, key, field string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	if f.hashes[key] == nil {
		f.hashes[key] = map[string]string{}
	}
	f.hashes[key][field] = fmt.Sprint(value)
	return nil
}

func (f *fakeRedis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeRedis) ZAdd(ctx context.Context, key string, score float64, member interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	if f.zsets[key] == nil {
		f.zsets[key] = map[string]float64{}
	}
	f.zsets[key][fmt.Sprint(member)] = score
	return nil
}

func (f *fakeRedis) ZRemRangeByScore(ctx context.Context, key, min, max string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	lo, loExcl := parseBound(min)
	hi, hiExcl := parseBound(max)
	for member, score := range f.zsets[key] {
		aboveLo := score > lo || (!loExcl && score == lo)
		belowHi := score < hi || (!hiExcl && score == hi)
		if aboveLo && belowHi {
			delete(f.zsets[key], member)
		}
	}
	return nil
}

func parseBound(s string) (float64, bool) {
	switch s {
	case "-inf":
		return -1e308, false
	case "+inf", "inf":
		return 1e308, false
	}
	exclusive := strings.HasPrefix(s, "(")
	v, _ := strconv.ParseFloat(strings.TrimPrefix(s, "("), 64)
	return v, exclusive
}

func (f *fakeRedis) ZRangeByScoreWithScores(ctx context.Context, key string, min, max float64) ([]redis.ZMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	var out []redis.ZMember
	for member, score := range f.zsets[key] {
		if score >= min && score <= max {
			out = append(out, redis.ZMember{Score: score, Member: member})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out, nil
}

func (f *fakeRedis) Expire(ctx context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) Ping(ctx context.Context) error {
	return f.failAll
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeMQTT records publishes and subscriptions
type fakeMQTT struct {
	mu         sync.Mutex
	connected  bool
	handlers   map[string]mqtt.MessageHandler
	published  []published
	publishErr error
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{handlers: map[string]mqtt.MessageHandler{}}
}

func (f *fakeMQTT) Connect(ctx context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeMQTT) Disconnect() {
	f.connected = false
}

func (f *fakeMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{topic: topic, qos: qos, retained: retained, payload: payload})
	return nil
}

func (f *fakeMQTT) IsConnected() bool {
	return f.connected
}

func (f *fakeMQTT) messages() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.published...)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }
func (m fakeMessage) Ack()            {}

// stubProvider returns a fixed environment or error
type stubProvider struct {
	env   sky.Environment
	err   error
	calls []string
}

func (p *stubProvider) Resolve(ctx context.Context, loc Location, at time.Time) (sky.Environment, error) {
	p.calls = append(p.calls, loc.Name)
	if p.err != nil {
		return sky.Environment{}, p.err
	}
	env := p.env
	if env.Timezone == "" {
		env.Timezone = loc.Timezone
	}
	return env, nil
}

// stubArchive records stored rings and serves canned similarity results
type stubArchive struct {
	mu       sync.Mutex
	stored   []string
	similar  []*Snapshot
	err      error
	gotLimit int
}

func (a *stubArchive) Store(ctx context.Context, location string, result sky.Result) (uuid.UUID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return uuid.Nil, a.err
	}
	a.stored = append(a.stored, location)
	return uuid.New(), nil
}

func (a *stubArchive) FindSimilar(ctx context.Context, result sky.Result, limit int) ([]*Snapshot, error) {
	a.gotLimit = limit
	if a.err != nil {
		return nil, a.err
	}
	return a.similar, nil
}

var (
	helsinki = Location{Name: "home", Latitude: 60.1695, Longitude: 24.9354, Timezone: "Europe/Helsinki"}
	paris    = Location{Name: "paris", Latitude: 48.8566, Longitude: 2.3522, Timezone: "Europe/Paris"}
)

func testLocations(t interface{ Fatalf(string, ...any) }) *Locations {
	locs, err := ParseLocations([]byte(`
locations:
  - name: paris
    latitude: 48.8566
    longitude: 2.3522
    timezone: Europe/Paris
    overrides:
      light_pollution: 0.9
`), helsinki)
	if err != nil {
		t.Fatalf("failed to parse test locations: %v", err)
	}
	return locs
}
