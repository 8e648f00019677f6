package managers

import (
	"context"
	"sync"

	"github.com/KanzlerFabian/Airguard2.0-sub000/internal/metrics"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"go.uber.org/zap"
)

// PublishManager holds our active evaluation publishers
type PublishManager struct {
	mu                    sync.RWMutex
	Publishers            []Publisher
	EvaluationDistributor chan airquality.EvalResponse
	metrics               *metrics.Metrics
	logger                *zap.SugaredLogger
}

// Publisher holds a publisher's name and the channel it consumes evaluations from
type Publisher struct {
	Name string
	C    chan<- airquality.EvalResponse
}

// NewPublishManager creates a PublishManager and starts its distributor
func NewPublishManager(ctx context.Context, wg *sync.WaitGroup, m *metrics.Metrics, logger *zap.SugaredLogger) *PublishManager {
	p := &PublishManager{
		// Initialize our channel for passing evaluations to the distributor
		EvaluationDistributor: make(chan airquality.EvalResponse, 20),
		metrics:               m,
		logger:                logger.Named("publish"),
	}

	wg.Add(1)
	go p.startEvaluationDistributor(ctx, wg)

	return p
}

// AddPublisher registers a channel that receives every fresh evaluation
func (p *PublishManager) AddPublisher(name string, c chan<- airquality.EvalResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Publishers = append(p.Publishers, Publisher{Name: name, C: c})
}

// startEvaluationDistributor receives evaluations from the refresh loop and fans
// them out to the publishers. A publisher whose queue is full misses that
// evaluation rather than stalling the others.
func (p *PublishManager) startEvaluationDistributor(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case resp := <-p.EvaluationDistributor:
			p.distribute(resp)
		case <-ctx.Done():
			return
		}
	}
}

func (p *PublishManager) distribute(resp airquality.EvalResponse) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, pub := range p.Publishers {
		select {
		case pub.C <- resp:
		default:
			p.logger.Warnw("Publisher queue full; dropping evaluation", "publisher", pub.Name)
			p.metrics.PublishDropped(pub.Name)
		}
	}
}
