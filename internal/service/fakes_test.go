package service

import (
	"context"
	"sync"
	"time"

	"github.com/maditrack-server/internal/domain"
)

// fakeStore is an in-memory store.Store whose operations can be overridden
type fakeStore struct {
	mu           sync.Mutex
	appointments []domain.Appointment
	logs         []domain.SMSLog

	listFn   func(ctx context.Context, date string) ([]domain.Appointment, error)
	nextFn   func(ctx context.Context, phone string) (*domain.Appointment, error)
	cancelFn func(ctx context.Context, id string, at time.Time) error
	appendFn func(ctx context.Context, entry *domain.SMSLog) error
}

func (f *fakeStore) ListScheduledAppointmentsOn(ctx context.Context, date string) ([]domain.Appointment, error) {
	if f.listFn != nil {
		return f.listFn(ctx, date)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Appointment, 0)
	for _, a := range f.appointments {
		if a.Date == date && a.Status == domain.AppointmentScheduled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) NextScheduledAppointmentForPhone(ctx context.Context, phone string) (*domain.Appointment, error) {
	if f.nextFn != nil {
		return f.nextFn(ctx, phone)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var best *domain.Appointment
	for i := range f.appointments {
		a := f.appointments[i]
		if a.PatientPhone != phone || a.Status != domain.AppointmentScheduled {
			continue
		}
		if best == nil || a.Date < best.Date || (a.Date == best.Date && a.Time < best.Time) {
			best = &a
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (f *fakeStore) CancelAppointment(ctx context.Context, id string, at time.Time) error {
	if f.cancelFn != nil {
		return f.cancelFn(ctx, id, at)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.appointments {
		if f.appointments[i].ID != id {
			continue
		}
		if f.appointments[i].Status != domain.AppointmentScheduled {
			return domain.ErrConflict
		}
		f.appointments[i].Status = domain.AppointmentCancelled
		f.appointments[i].CancelledAt = &at
		return nil
	}
	return domain.ErrNotFound
}

func (f *fakeStore) AppendSMSLog(ctx context.Context, entry *domain.SMSLog) error {
	if f.appendFn != nil {
		return f.appendFn(ctx, entry)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeStore) Health(context.Context) error { return nil }

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) smsLogs() []domain.SMSLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.SMSLog, len(f.logs))
	copy(out, f.logs)
	return out
}

func (f *fakeStore) appointment(id string) domain.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appointments {
		if a.ID == id {
			return a
		}
	}
	return domain.Appointment{}
}
