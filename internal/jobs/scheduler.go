// Package jobs управляет фоновыми задачами (cron).
// scheduler.go запускает периодическое обслуживание базы данных.
package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// MaintainFunc — одна итерация обслуживания (обычно storage.Manager.Maintain).
type MaintainFunc func(ctx context.Context) error

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	maintain MaintainFunc

	mu      sync.Mutex
	started bool
	entry   cron.EntryID
}

// NewScheduler создаёт планировщик обслуживания.
// spec — стандартное cron-выражение или дескриптор (@hourly, @every 30m).
func NewScheduler(spec string, maintain MaintainFunc) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("некорректное расписание %q: %w", spec, err)
	}

	// Пропускаем запуск, если предыдущий ещё идёт
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		spec:     spec,
		maintain: maintain,
	}, nil
}

// Start запускает обслуживание по расписанию. Повторный вызов ничего не делает,
// после Stop планировщик можно запустить снова.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.entry = s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		log.Debug("[CRON] Обслуживание БД")
		_ = s.RunOnce(ctx)
	}))

	s.cron.Start()
	log.WithField("schedule", s.spec).Info("Планировщик задач запущен")
}

// RunOnce выполняет обслуживание немедленно.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if err := s.maintain(ctx); err != nil {
		log.WithError(err).Error("[CRON] Ошибка обслуживания БД")
		return err
	}
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущей задачи.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false

	ctx := s.cron.Stop()
	<-ctx.Done()
	// задача регистрируется заново при следующем Start
	s.cron.Remove(s.entry)
	log.Info("Планировщик задач остановлен")
}
