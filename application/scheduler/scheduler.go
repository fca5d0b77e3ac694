// application/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stars-subscription-bot/pkg/logger"

	"github.com/robfig/cron/v3"
)

// DefaultJobTimeout лимит на один запуск задачи
const DefaultJobTimeout = 5 * time.Minute

// Job описывает одну планируемую задачу
type Job struct {
	Name        string
	Description string
	Spec        string // выражение cron или "@every 1h"
	Handler     func(ctx context.Context) error

	mu      sync.Mutex
	entryID cron.EntryID
	lastRun time.Time
	lastErr error
	runs    int
}

// JobStatus снапшот состояния задачи
type JobStatus struct {
	Name        string
	Description string
	NextRun     time.Time
	LastRun     time.Time
	LastErr     error
	Runs        int
}

// Scheduler управляет периодическими задачами приложения
type Scheduler struct {
	cron    *cron.Cron
	jobs    []*Job
	timeout time.Duration
	mu      sync.RWMutex
	running bool
}

// New создает новый планировщик (расписание в UTC)
func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		timeout: DefaultJobTimeout,
	}
}

// Register добавляет задачу в планировщик
func (s *Scheduler) Register(job *Job) error {
	if job == nil || job.Handler == nil {
		return fmt.Errorf("задача без обработчика")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(job.Spec, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("некорректное расписание задачи %q (%s): %w", job.Name, job.Spec, err)
	}
	job.entryID = id
	s.jobs = append(s.jobs, job)

	logger.Info("📋 [Scheduler] Зарегистрирована задача %q (%s)", job.Name, job.Spec)
	return nil
}

// Start запускает расписание
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
	logger.Info("✅ [Scheduler] Запущен (%d задач)", len(s.jobs))
}

// Stop останавливает расписание и ждет завершения текущих задач
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	done := s.cron.Stop().Done()
	s.mu.Unlock()

	select {
	case <-done:
		logger.Info("🛑 [Scheduler] Остановлен")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("остановка планировщика: %w", ctx.Err())
	}
}

// RunNow выполняет задачу вне расписания
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, job := range s.jobs {
		if job.Name == name {
			s.run(job)
			return job.Status(time.Time{}).LastErr
		}
	}
	return fmt.Errorf("задача %q не найдена", name)
}

// Jobs возвращает статус всех задач
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]JobStatus, len(s.jobs))
	for i, j := range s.jobs {
		statuses[i] = j.Status(s.cron.Entry(j.entryID).Next)
	}
	return statuses
}

// Status возвращает текущее состояние задачи
func (j *Job) Status(next time.Time) JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return JobStatus{
		Name:        j.Name,
		Description: j.Description,
		NextRun:     next,
		LastRun:     j.lastRun,
		LastErr:     j.lastErr,
		Runs:        j.runs,
	}
}

// run выполняет одну задачу и обновляет ее состояние
func (s *Scheduler) run(job *Job) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := job.Handler(ctx)
	elapsed := time.Since(start)

	job.mu.Lock()
	job.lastRun = start
	job.lastErr = err
	job.runs++
	job.mu.Unlock()

	if err != nil {
		logger.Error("❌ [Scheduler] Задача %q завершилась с ошибкой за %v: %v", job.Name, elapsed, err)
		return
	}
	logger.Debug("✅ [Scheduler] Задача %q выполнена за %v", job.Name, elapsed)
}
