// Package memory provides an in-memory store implementation (for
// testing/dev). It implements allocation.Store and tasks.ScheduleStore.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/paulbulman/Parking-sub001/allocation"
	"github.com/paulbulman/Parking-sub001/calendar"
	"github.com/paulbulman/Parking-sub001/tasks"
)

type Store struct {
	mu            sync.RWMutex
	requests      map[allocation.RequestKey]allocation.Request
	reservations  map[allocation.RequestKey]allocation.Reservation
	users         map[allocation.UserID]allocation.User
	configuration *allocation.Configuration
	schedules     map[tasks.TaskType]tasks.Schedule
	holidays      map[calendar.Date]struct{}
}

func New() *Store {
	return &Store{
		requests:     make(map[allocation.RequestKey]allocation.Request),
		reservations: make(map[allocation.RequestKey]allocation.Reservation),
		users:        make(map[allocation.UserID]allocation.User),
		schedules:    make(map[tasks.TaskType]tasks.Schedule),
		holidays:     make(map[calendar.Date]struct{}),
	}
}

// =============================================================================
// SEEDING - test/dev setup helpers
// =============================================================================

func (s *Store) AddUser(u allocation.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) SetConfiguration(cfg allocation.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configuration = &cfg
}

func (s *Store) AddBankHoliday(d calendar.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[d] = struct{}{}
}

// =============================================================================
// allocation.Store
// =============================================================================

func (s *Store) RequestsInRange(_ context.Context, from, to calendar.Date) ([]allocation.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []allocation.Request
	for _, r := range s.requests {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	sortRequests(out)
	return out, nil
}

func (s *Store) SaveRequests(_ context.Context, requests []allocation.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range requests {
		s.requests[r.Key()] = r
	}
	return nil
}

func (s *Store) ReservationsInRange(_ context.Context, from, to calendar.Date) ([]allocation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []allocation.Reservation
	for _, res := range s.reservations {
		if !res.Date.Before(from) && !res.Date.After(to) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *Store) SaveReservation(_ context.Context, res allocation.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[allocation.RequestKey{UserID: res.UserID, Date: res.Date}] = res
	return nil
}

func (s *Store) Users(_ context.Context) ([]allocation.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]allocation.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Configuration(_ context.Context) (*allocation.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.configuration == nil {
		return nil, allocation.ErrNoConfiguration
	}
	cfg := *s.configuration
	return &cfg, nil
}

func (s *Store) BankHolidays(_ context.Context) ([]calendar.Date, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]calendar.Date, 0, len(s.holidays))
	for d := range s.holidays {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// =============================================================================
// tasks.ScheduleStore
// =============================================================================

func (s *Store) Schedules(_ context.Context) ([]tasks.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]tasks.Schedule, 0, len(s.schedules))
	for _, sched := range s.schedules {
		out = append(out, sched)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskType < out[j].TaskType })
	return out, nil
}

func (s *Store) SaveSchedule(_ context.Context, schedule tasks.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[schedule.TaskType] = schedule
	return nil
}

func sortRequests(requests []allocation.Request) {
	sort.Slice(requests, func(i, j int) bool {
		if !requests[i].Date.Equal(requests[j].Date) {
			return requests[i].Date.Before(requests[j].Date)
		}
		return requests[i].UserID < requests[j].UserID
	})
}
