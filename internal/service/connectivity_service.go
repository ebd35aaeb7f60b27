package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sanametrics/fieldsync/config"
	"github.com/sanametrics/fieldsync/internal/remote"
)

// Reachability is the network signal the sync coordinator consults before
// touching the wire.
type Reachability interface {
	Online() bool
}

// ConnectivityService probes the platform on an interval and fires the
// registered callbacks on each offline-to-online edge (edge-triggered, not
// on every successful probe).
type ConnectivityService interface {
	Reachability
	OnOnline(fn func())
	Start()
	Stop()
}

type connectivityService struct {
	client   *remote.Client
	interval time.Duration

	online atomic.Bool

	mu        sync.Mutex
	callbacks []func()

	stop chan struct{}
	done chan struct{}
}

func NewConnectivityService(cfg *config.Config, client *remote.Client) ConnectivityService {
	return &connectivityService{
		client:   client,
		interval: cfg.Remote.ProbeInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *connectivityService) Online() bool {
	return s.online.Load()
}

// OnOnline registers an edge callback. Register before Start.
func (s *connectivityService) OnOnline(fn func()) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, fn)
	s.mu.Unlock()
}

func (s *connectivityService) Start() {
	// Synchronous first probe so the startup flush sees a settled state.
	s.probe()
	go s.loop()
}

func (s *connectivityService) Stop() {
	close(s.stop)
	<-s.done
}

func (s *connectivityService) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.probe()
		}
	}
}

func (s *connectivityService) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	err := s.client.Ping(ctx)
	nowOnline := err == nil
	wasOnline := s.online.Swap(nowOnline)

	if nowOnline && !wasOnline {
		log.Info().Msg("Connectivity restored")
		s.mu.Lock()
		callbacks := make([]func(), len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.mu.Unlock()
		for _, fn := range callbacks {
			fn()
		}
	} else if !nowOnline && wasOnline {
		log.Warn().Err(err).Msg("Connectivity lost")
	}
}
