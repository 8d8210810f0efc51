// Command ndnfwsim runs a small validation-probe forwarding scenario: a
// consumer node issuing periodic Interests, whose Content Store hits turn
// later Interests into validation probes, an edge node those probes transit,
// and an origin Producer.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfd-probe/fw/core"
	"github.com/nfd-probe/fw/defn"
	"github.com/nfd-probe/fw/fw"
	"github.com/nfd-probe/fw/ndn"
	"github.com/nfd-probe/fw/producer"
	"github.com/nfd-probe/fw/sched"
	"github.com/nfd-probe/fw/table"
)

var configFile string

// linkFace connects two forwarding nodes back to back: a Send on this face
// is delivered as an incoming packet on the peer. Wire encoding and
// transports are out of scope for this core, so this is the simplest
// possible ndn.Face implementation.
type linkFace struct {
	id       uint64
	peer     *fw.Forwarder
	peerFace uint64
}

func (l *linkFace) ID() uint64                   { return l.id }
func (l *linkFace) IsLocal() bool                { return false }
func (l *linkFace) SendInterest(i *ndn.Interest) { l.peer.OnIncomingInterest(l.peerFace, i) }
func (l *linkFace) SendData(d *ndn.Data)         { l.peer.OnIncomingData(l.peerFace, d) }

func connect(a, b *fw.Forwarder, faceOnA, faceOnB uint64) {
	a.Faces.Add(&linkFace{id: faceOnA, peer: b, peerFace: faceOnB})
	b.Faces.Add(&linkFace{id: faceOnB, peer: a, peerFace: faceOnA})
}

// appFace stands in for the consumer application: it logs every Data it
// receives and never originates Sends of its own (Interests are injected
// directly into the consumer node instead).
type appFace struct{ id uint64 }

func (a *appFace) ID() uint64                 { return a.id }
func (a *appFace) IsLocal() bool              { return true }
func (a *appFace) SendInterest(*ndn.Interest) {}
func (a *appFace) String() string             { return "consumer" }
func (a *appFace) SendData(d *ndn.Data) {
	core.Log.Info(a, "consumer received Data", "name", d.Name.String(), "expirationFlag", d.ExpirationFlag, "timestamp", d.Timestamp)
}

const (
	consumerAppFace  uint64 = 2
	consumerLinkFace uint64 = 10
	edgeLinkFace     uint64 = 11
	producerFace     uint64 = 20
)

func main() {
	root := &cobra.Command{
		Use:   "ndnfwsim",
		Short: "Runs a validation-probe NDN forwarding scenario",
		RunE:  run,
	}
	root.Flags().StringVar(&configFile, "config", "", "scenario YAML config file")
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	cfg := core.DefaultConfig()
	if configFile != "" {
		if err := core.ReadYaml(cfg, configFile); err != nil {
			return err
		}
	}
	level, err := core.ParseLevel(cfg.Core.LogLevel)
	if err != nil {
		return err
	}
	core.Log.SetMinLevel(level)

	scheduler := sched.New()
	dnlLifetime := time.Duration(cfg.Tables.DeadNonceListLifetimeMs) * time.Millisecond

	var csBackend table.CsBackend
	if cfg.Tables.ContentStoreBadgerPath != "" {
		backend, err := table.NewBadgerBackend(cfg.Tables.ContentStoreBadgerPath)
		if err != nil {
			return fmt.Errorf("open content store backend: %w", err)
		}
		csBackend = backend
		defer backend.Close()
	}

	consumerNode := fw.New(0, scheduler, dnlLifetime, nil)
	edgeNode := fw.New(1, scheduler, dnlLifetime, csBackend)
	connect(consumerNode, edgeNode, consumerLinkFace, edgeLinkFace)

	consumerNode.Faces.Add(&appFace{id: consumerAppFace})

	prefix := defn.NameFromStr(cfg.Scenario.ProducerPrefix)
	consumerNode.FIB.AddNextHop(prefix, consumerLinkFace, 0)
	edgeNode.FIB.AddNextHop(prefix, producerFace, 0)

	prod := producer.New(producerFace, producer.Config{
		Prefix:            cfg.Scenario.ProducerPrefix,
		PayloadSize:       1024,
		FreshnessMs:       cfg.Scenario.ProducerFreshnessMs,
		AverageUpdateTime: cfg.Scenario.ProducerAverageUpdateTime,
	}, scheduler, func(d *ndn.Data) {
		edgeNode.OnIncomingData(producerFace, d)
	})
	edgeNode.Faces.Add(prod)

	consumerName := defn.NameFromStr(cfg.Scenario.ConsumerName)
	interval := time.Duration(cfg.Scenario.IntervalMs) * time.Millisecond

	var sendInterest func()
	sendInterest = func() {
		consumerNode.OnIncomingInterest(consumerAppFace, &ndn.Interest{
			Name:  consumerName,
			Nonce: core.NewNonce(),
		})
		scheduler.Schedule(interval, sendInterest)
	}
	scheduler.Schedule(0, sendInterest)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	duration := time.Duration(cfg.Scenario.DurationMs) * time.Millisecond
	select {
	case <-time.After(duration):
	case <-stop:
	}

	core.Log.Info(consumerNode, "scenario complete",
		"inInterests", consumerNode.Counters.NInInterests,
		"outInterests", consumerNode.Counters.NOutInterests,
		"inDatas", consumerNode.Counters.NInDatas,
	)
	return nil
}
