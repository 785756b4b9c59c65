package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/bot/internal/domain"
	"storefront/bot/internal/queue"
	"storefront/bot/internal/state"
	"storefront/bot/internal/transport"

	log "github.com/sirupsen/logrus"
)

// Handler processes one update; the router satisfies it.
type Handler interface {
	Handle(ctx context.Context, u domain.Update) error
}

type Service struct {
	poller      transport.Poller
	offsets     state.OffsetStore
	queue       queue.Queue
	handler     Handler
	maxWorkers  int
	minIdleTime time.Duration
	retryDelay  time.Duration
}

func NewService(
	poller transport.Poller,
	offsets state.OffsetStore,
	queue queue.Queue,
	handler Handler,
	maxWorkers int,
	minIdleTime int,
	retryDelay int,
) *Service {
	return &Service{
		poller:      poller,
		offsets:     offsets,
		queue:       queue,
		handler:     handler,
		maxWorkers:  maxWorkers,
		minIdleTime: time.Duration(minIdleTime) * time.Second,
		retryDelay:  time.Duration(retryDelay) * time.Second,
	}
}

// Poll long-polls the transport and enqueues updates until ctx is done. The
// stored offset only moves past updates that reached the queue.
func (s *Service) Poll(ctx context.Context) error {
	offset, err := s.offsets.GetOffset(ctx)
	if err != nil {
		return fmt.Errorf("failed to get update offset: %w", err)
	}

	if offset != 0 {
		log.Infof("🔄 Continue from update %d", offset)
	}

	for ctx.Err() == nil {
		updates, err := s.poller.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warnf("⚠️ Failed to get updates: %v", err)
			s.wait(ctx)
			continue
		}

		next, pushed := offset, true
		for _, u := range updates {
			if err := s.queue.Push(ctx, u); err != nil {
				if ctx.Err() == nil {
					log.Errorf("❌ Failed to enqueue update %d: %v", u.ID, err)
				}
				pushed = false
				break
			}
			next = u.ID + 1
		}

		if next != offset {
			offset = next
			if err := s.offsets.SetOffset(ctx, offset); err != nil {
				log.Errorf("❌ Failed to save update offset %d: %v", offset, err)
			}
		}

		if !pushed {
			s.wait(ctx)
		}
	}

	log.Info("🛑 Poller stopping")
	return nil
}

func (s *Service) wait(ctx context.Context) {
	timer := time.NewTimer(s.retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// RunWorkers handles queued updates with maxWorkers goroutines until ctx is
// done. Updates of different users are handled concurrently and in no
// particular order.
func (s *Service) RunWorkers(ctx context.Context) error {
	var wg sync.WaitGroup

	if s.minIdleTime > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.reclaim(ctx)
		}()
	}

	for i := 0; i < s.maxWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.work(ctx, fmt.Sprintf("worker-%d", workerID))
		}(i + 1)
	}

	wg.Wait()
	return nil
}

func (s *Service) work(ctx context.Context, consumer string) {
	log.Debugf("🚀 Starting %s", consumer)
	for {
		delivery, err := s.queue.Pull(ctx, consumer)
		if ctx.Err() != nil {
			log.Debugf("🛑 %s stopping", consumer)
			return
		}
		if err != nil {
			log.Errorf("❌ %s failed to pull update: %v", consumer, err)
			s.wait(ctx)
			continue
		}
		if delivery != nil {
			s.process(ctx, delivery)
		}
	}
}

func (s *Service) reclaim(ctx context.Context) {
	ticker := time.NewTicker(s.minIdleTime)
	defer ticker.Stop()

	consumer := "reclaimer"
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deliveries, err := s.queue.Reclaim(ctx, consumer, s.minIdleTime)
			if err != nil {
				log.Errorf("❌ Failed to reclaim updates: %v", err)
				continue
			}
			if len(deliveries) > 0 {
				log.Infof("🔄 Reclaimed %d unacknowledged updates", len(deliveries))
			}
			for i := range deliveries {
				s.process(ctx, &deliveries[i])
			}
		}
	}
}

// process hands one update to the handler. The update is acknowledged even
// when the handler failed: the user already got whatever reply was possible.
func (s *Service) process(ctx context.Context, delivery *queue.Delivery) {
	u := delivery.Update
	if err := s.handler.Handle(ctx, u); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("❌ Failed to handle update %d from user %d: %v", u.ID, u.From.ID, err)
	}

	if err := s.queue.Ack(ctx, delivery); err != nil {
		log.Errorf("❌ Failed to ack update %d: %v", u.ID, err)
	}
}
