package event

import (
	"context"
	"sync"
	"time"

	"github.com/civiclabs-ng/supcore/internal/logger"
)

// ResilientConfig configures the ResilientPublisher
type ResilientConfig struct {
	MaxRetries     int
	RetryDelay     time.Duration
	DeadLetterPath string
}

// ResilientPublisher wraps an Event Bus to add retry logic and dead letter queuing
type ResilientPublisher struct {
	inner      Bus
	config     ResilientConfig
	mu         sync.Mutex // Protects deadLetter
	deadLetter *DeadLetterWriter
	wg         sync.WaitGroup
}

// NewResilientPublisher creates a new ResilientPublisher
func NewResilientPublisher(inner Bus, config ResilientConfig) *ResilientPublisher {
	return &ResilientPublisher{
		inner:  inner,
		config: config,
	}
}

// Publish attempts to publish an event. If it fails, it initiates a background retry loop.
// It returns nil to the caller immediately if the event is accepted for processing (even if the first attempt fails).
// This decouples the caller from the retry mechanism.
func (p *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	err := p.inner.Publish(ctx, event)
	if err == nil {
		return nil
	}

	log := logger.FromContext(ctx)
	log.Warn("Failed to publish event, initiating async retry",
		"event_type", event.Type,
		"error", err,
		"retries", p.config.MaxRetries)

	// The original request context may be cancelled before the retries run,
	// so the loop detaches from it
	p.wg.Add(1)
	go p.retryLoop(event, err)

	return nil
}

// Wait blocks until all in-flight retry loops have finished. Tests and
// shutdown paths use it to drain background work.
func (p *ResilientPublisher) Wait() {
	p.wg.Wait()
}

func (p *ResilientPublisher) retryLoop(event Event, firstErr error) {
	defer p.wg.Done()

	ctx := context.Background()
	log := logger.FromContext(ctx)
	lastErr := firstErr

	for i := 1; i <= p.config.MaxRetries; i++ {
		// Linear backoff
		time.Sleep(p.config.RetryDelay * time.Duration(i))

		err := p.inner.Publish(ctx, event)
		if err == nil {
			log.Info("Successfully published event after retry",
				"event_type", event.Type,
				"attempt", i)
			return
		}
		lastErr = err

		log.Warn("Retry failed",
			"event_type", event.Type,
			"attempt", i,
			"error", err)
	}

	// All retries failed, send to dead letter queue
	p.writeToDeadLetter(ctx, event, lastErr)
}

func (p *ResilientPublisher) writeToDeadLetter(ctx context.Context, event Event, lastErr error) {
	log := logger.FromContext(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.deadLetter == nil {
		dl, err := NewDeadLetterWriter(p.config.DeadLetterPath)
		if err != nil {
			log.Error("Failed to open dead letter file", "error", err, "path", p.config.DeadLetterPath)
			return
		}
		p.deadLetter = dl
	}

	// Attempts counts the initial publish plus every retry
	if err := p.deadLetter.Write(event, p.config.MaxRetries+1, lastErr); err != nil {
		log.Error("Failed to write to dead letter file", "error", err)
		return
	}
	log.Info("Event written to dead letter queue", "event_type", event.Type)
}

// Close releases the dead letter file if one was opened
func (p *ResilientPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deadLetter == nil {
		return nil
	}
	err := p.deadLetter.Close()
	p.deadLetter = nil
	return err
}

// Subscribe delegates to the inner bus
func (p *ResilientPublisher) Subscribe(eventType Type, handler Handler) {
	p.inner.Subscribe(eventType, handler)
}
