package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/rss-importer/app/database"
	"github.com/lysyi3m/rss-importer/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const taskQueueSize = 300

type Options struct {
	Interval    time.Duration
	WorkerCount int
	TaskTimeout time.Duration
	BatchSize   int
}

type Scheduler struct {
	feedRepo    database.FeedRepository
	configCache *feed.ConfigCache
	importer    FeedImporter
	interval    time.Duration
	workerCount int
	taskTimeout time.Duration
	batchSize   int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	mu      sync.Mutex
	pending map[string]struct{} // feed IDs with a queued or running import
}

func NewScheduler(configCache *feed.ConfigCache, feedRepo database.FeedRepository, importer FeedImporter, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		feedRepo:    feedRepo,
		configCache: configCache,
		importer:    importer,
		interval:    opts.Interval,
		workerCount: opts.WorkerCount,
		taskTimeout: opts.TaskTimeout,
		batchSize:   opts.BatchSize,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, taskQueueSize),
		pending:     make(map[string]struct{}),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.SyncConfigs(s.ctx)
		s.enqueueDueImports()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDueImports()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if t, ok := task.(*ImportFeedTask); ok && !s.markPending(t.FeedID) {
		return fmt.Errorf("import of feed %s is already queued", t.FeedName)
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		s.clearPending(task)
		return s.ctx.Err()
	default:
		s.clearPending(task)
		return fmt.Errorf("task queue is full")
	}
}

// SyncConfigs writes every loaded feed configuration to the database. It runs
// inline so that imports enqueued afterwards see the current settings.
func (s *Scheduler) SyncConfigs(ctx context.Context) {
	feedConfigs := s.configCache.GetConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No feed configurations found")
		return
	}

	slog.Debug("Syncing feed configurations", "count", len(feedConfigs))

	for _, feedConfig := range feedConfigs {
		syncTask := NewSyncFeedConfigTask(feedConfig.Name, feedConfig, s.feedRepo)
		syncTask.Start()
		if err := syncTask.Execute(ctx); err != nil {
			slog.Warn("Failed to sync feed configuration", "feed", feedConfig.Name, "error", err)
		}
	}
}

func (s *Scheduler) enqueueDueImports() {
	due, err := s.feedRepo.GetFeedsDue(time.Now().UTC(), s.batchSize)
	if err != nil {
		slog.Error("Failed to get feeds due for import", "error", err)
		return
	}

	if len(due) == 0 {
		slog.Debug("No feeds due for import")
		return
	}

	slog.Debug("Scheduling feed imports", "count", len(due))

	for _, f := range due {
		importTask := NewImportFeedTask(f.ID, f.Name, s.feedRepo, s.importer)
		if err := s.EnqueueTask(importTask); err != nil {
			slog.Debug("ImportFeedTask not enqueued", "feed", f.Name, "error", err)
		}
	}
}

func (s *Scheduler) markPending(feedID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[feedID]; ok {
		return false
	}
	s.pending[feedID] = struct{}{}
	return true
}

func (s *Scheduler) clearPending(task TaskInterface) {
	if t, ok := task.(*ImportFeedTask); ok {
		s.mu.Lock()
		delete(s.pending, t.FeedID)
		s.mu.Unlock()
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, s.taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	s.clearPending(task)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "feed", task.GetFeedName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else if task.GetMaxRetries() > 0 {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
