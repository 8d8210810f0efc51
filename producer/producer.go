// Package producer implements the origin application an Interest ultimately
// reaches when no Content Store along the path already holds it, and the
// endpoint a validation probe is addressed to. It is adapted from
// original_source/apps/ndn-producer.cpp's Producer::OnInterest, translated
// out of the ns-3 Application/attribute-system idiom into a plain Go type
// driven by this core's own Scheduler.
package producer

import (
	"math/rand/v2"
	"time"

	"github.com/nfd-probe/fw/core"
	"github.com/nfd-probe/fw/defn"
	"github.com/nfd-probe/fw/ndn"
	"github.com/nfd-probe/fw/sched"
)

// TickInterval is the coarse granularity at which the content-timestamp
// store's update windows are evaluated.
const TickInterval = time.Second

// Config carries the producer's tunables, named after the ns-3 Attributes
// Producer::GetTypeId registered in original_source/apps/ndn-producer.cpp.
type Config struct {
	Prefix            string `yaml:"prefix"`
	PayloadSize       int    `yaml:"payloadSize"`
	FreshnessMs       int    `yaml:"freshnessMs"`
	Signature         uint32 `yaml:"signature"`
	KeyLocator        string `yaml:"keyLocator"`
	AverageUpdateTime int    `yaml:"averageUpdateTime"`
}

// DefaultConfig mirrors the original's attribute defaults (PayloadSize 1024,
// AverageUpdateTime 10).
func DefaultConfig() Config {
	return Config{PayloadSize: 1024, AverageUpdateTime: 10}
}

// ContentTimestampEntry is one name's update schedule: how often it
// refreshes and when it last did, matching original_source's
// contentTimestampEntry struct.
type ContentTimestampEntry struct {
	Name           defn.Name
	UpdateTime     int
	LastUpdateTime int
}

// ContentTimestampStore tracks, per content name, when it was last updated
// and how often it updates, so the producer can answer a validation probe's
// freshness question without recomputing content on every Interest.
type ContentTimestampStore struct {
	entries []*ContentTimestampEntry
}

// NewContentTimestampStore constructs an empty store.
func NewContentTimestampStore() *ContentTimestampStore {
	return &ContentTimestampStore{}
}

func (s *ContentTimestampStore) find(name defn.Name) *ContentTimestampEntry {
	for _, e := range s.entries {
		if e.Name.Equal(name) {
			return e
		}
	}
	return nil
}

// Timestamp returns the content's current lastUpdateTime, lazily creating an
// entry with a randomized update window the first time name is seen
// (original_source's OnInterest non-signal branch: "if (!exist) { ...
// uniform_int_distribution ... }").
func (s *ContentTimestampStore) Timestamp(name defn.Name, now int, averageUpdateTime int) int {
	if e := s.find(name); e != nil {
		return e.LastUpdateTime
	}

	updateTime := 1
	if averageUpdateTime > 1 {
		updateTime = 1 + rand.IntN(2*averageUpdateTime-1)
	}
	lastUpdateTime := now
	if updateTime > 1 {
		lastUpdateTime = now - updateTime + 1 + rand.IntN(updateTime)
	}

	e := &ContentTimestampEntry{Name: name.Clone(), UpdateTime: updateTime, LastUpdateTime: lastUpdateTime}
	s.entries = append(s.entries, e)
	return lastUpdateTime
}

// CheckExpiration reports whether a probe's carried timestamp no longer
// matches the store's lastUpdateTime for name (original_source's
// Producer::CheckExpiration). ok is false when name has never been served;
// this is resolved to expired=true rather than the original's
// fall-through-with-no-return, so a probe against content the producer has
// never generated still gets a well-defined (stale) answer.
func (s *ContentTimestampStore) CheckExpiration(name defn.Name, interestTimestamp int) (expired bool, ok bool) {
	e := s.find(name)
	if e == nil {
		return true, false
	}
	return interestTimestamp != e.LastUpdateTime, true
}

// Tick advances lastUpdateTime to now for every entry whose update window
// has elapsed (original_source's "if (tnow_int - it->lastUpdateTime >=
// it->updateTime) it->lastUpdateTime = tnow_int").
func (s *ContentTimestampStore) Tick(now int) {
	for _, e := range s.entries {
		if now-e.LastUpdateTime >= e.UpdateTime {
			e.LastUpdateTime = now
		}
	}
}

// Producer is the origin application: it answers ordinary Interests (the
// CS-miss fallback) and validation probes (signalFlag==1), grounded on
// original_source/apps/ndn-producer.cpp.
type Producer struct {
	FaceID uint64
	Config Config

	store *ContentTimestampStore
	sched *sched.Scheduler
	sink  func(data *ndn.Data)
}

// New constructs a Producer answering under cfg.Prefix. Every reply Data is
// handed to sink, which the caller wires to the hosting node's
// Forwarder.OnIncomingData as though it arrived on FaceID, since an origin
// application is a local face rather than a transit one.
func New(faceID uint64, cfg Config, scheduler *sched.Scheduler, sink func(*ndn.Data)) *Producer {
	p := &Producer{
		FaceID: faceID,
		Config: cfg,
		store:  NewContentTimestampStore(),
		sched:  scheduler,
		sink:   sink,
	}
	p.scheduleTick()
	return p
}

// String satisfies core.Subsystem for logging.
func (p *Producer) String() string { return "producer" }

// ID and IsLocal satisfy ndn.Face: a producer is always a local application
// face, never a transit one.
func (p *Producer) ID() uint64    { return p.FaceID }
func (p *Producer) IsLocal() bool { return true }

// SendInterest is the Face-facing delivery point: the hosting forwarder
// calls this instead of crossing a transport when an Interest's outgoing
// face is the producer's.
func (p *Producer) SendInterest(interest *ndn.Interest) {
	p.OnInterest(interest)
}

// SendData is never exercised: nothing downstream sends Data to an origin
// application.
func (p *Producer) SendData(data *ndn.Data) {
	core.Log.Warn(p, "producer face received Data, dropping", "name", data.Name.String())
}

func (p *Producer) scheduleTick() {
	p.sched.Schedule(TickInterval, func() {
		p.store.Tick(int(p.sched.Now().Unix()))
		p.scheduleTick()
	})
}

// OnInterest implements the two reply modes of
// original_source/apps/ndn-producer.cpp's Producer::OnInterest.
func (p *Producer) OnInterest(interest *ndn.Interest) {
	now := int(p.sched.Now().Unix())

	if interest.SignalFlag == 1 {
		data := p.generateData(interest.Name)
		data.SignalFlag = 1
		data.NodeIndex = interest.NodeIndex
		data.PitList = append([]uint64(nil), interest.PitList...)

		expired, ok := p.store.CheckExpiration(interest.Name, interest.Timestamp)
		if !ok {
			core.Log.Warn(p, "probe against content never served", "name", interest.Name.String())
		}
		if expired {
			data.ExpirationFlag = 1
			data.Timestamp = p.store.Timestamp(interest.Name, now, p.Config.AverageUpdateTime)
		} else {
			data.ExpirationFlag = 0
		}

		core.Log.Debug(p, "replying to probe", "name", interest.Name.String(), "expirationFlag", data.ExpirationFlag)
		p.sink(data)
		return
	}

	data := p.generateData(interest.Name)
	data.Timestamp = p.store.Timestamp(interest.Name, now, p.Config.AverageUpdateTime)
	core.Log.Debug(p, "serving Interest", "name", interest.Name.String())
	p.sink(data)
}

func (p *Producer) generateData(name defn.Name) *ndn.Data {
	data := &ndn.Data{
		Name:    name.Clone(),
		Content: make([]byte, p.Config.PayloadSize),
	}
	if p.Config.FreshnessMs > 0 {
		data.FreshnessPeriod.Set(p.Config.FreshnessMs)
	}
	return data
}
