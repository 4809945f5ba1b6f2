package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/wecare/escalas-backend/internal/domain/checkin"
	"github.com/wecare/escalas-backend/internal/domain/establishment"
	"github.com/wecare/escalas-backend/internal/domain/notification"
	"github.com/wecare/escalas-backend/internal/domain/shift"
	"github.com/wecare/escalas-backend/internal/domain/user"
	"github.com/wecare/escalas-backend/internal/pkg/jwt"
)

var testAuth = jwtauth.New("HS256", []byte("test-secret"), nil)

func asPerson(id string, role user.Role) context.Context {
	ctx, err := jwt.NewContext(context.Background(), testAuth, jwt.Identity{UserID: id, Name: id, Role: role})
	if err != nil {
		panic(err)
	}
	return ctx
}

type inlineTx struct{ calls int }

func (t *inlineTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type shiftStore struct {
	mu       sync.Mutex
	shifts   map[string]shift.Shift
	statuses map[string]shift.Status
}

func newShiftStore(shifts ...shift.Shift) *shiftStore {
	st := &shiftStore{shifts: map[string]shift.Shift{}, statuses: map[string]shift.Status{}}
	for _, s := range shifts {
		st.shifts[s.ID] = s
	}
	return st
}

func (st *shiftStore) Create(_ context.Context, s shift.Shift) (shift.Shift, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.shifts[s.ID] = s
	return s, nil
}

func (st *shiftStore) GetByID(_ context.Context, id string) (shift.Shift, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.shifts[id]
	if !ok {
		return shift.Shift{}, shift.ErrShiftNotFound
	}
	return s, nil
}

func (st *shiftStore) Update(_ context.Context, s shift.Shift) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.shifts[s.ID] = s
	return nil
}

func (st *shiftStore) UpdateStatus(_ context.Context, id string, status shift.Status) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.shifts[id]
	if !ok {
		return shift.ErrShiftNotFound
	}
	s.Status = status
	st.shifts[id] = s
	st.statuses[id] = status
	return nil
}

func (st *shiftStore) Delete(_ context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.shifts, id)
	return nil
}

func (st *shiftStore) AddAssignment(_ context.Context, a shift.Assignment) (shift.Assignment, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.shifts[a.ShiftID]
	s.Assignments = append(s.Assignments, a)
	st.shifts[a.ShiftID] = s
	return a, nil
}

func (st *shiftStore) RemoveAssignment(context.Context, string, string) error { return nil }

func (st *shiftStore) ListOverlapping(_ context.Context, start, end time.Time) ([]shift.Shift, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var out []shift.Shift
	for _, s := range st.shifts {
		if !s.Date.Before(start) && !s.Date.After(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (st *shiftStore) ListByPerson(ctx context.Context, personID string, start, end time.Time) ([]shift.Shift, error) {
	all, _ := st.ListOverlapping(ctx, start, end)
	var out []shift.Shift
	for _, s := range all {
		if s.HasPerson(personID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (st *shiftStore) LockPerson(context.Context, string) error { return nil }

type establishmentStore map[string]establishment.Establishment

func (e establishmentStore) GetByID(_ context.Context, id string) (establishment.Establishment, error) {
	est, ok := e[id]
	if !ok {
		return establishment.Establishment{}, establishment.ErrEstablishmentNotFound
	}
	return est, nil
}

func (e establishmentStore) GetByIDs(_ context.Context, ids []string) (map[string]establishment.Establishment, error) {
	out := map[string]establishment.Establishment{}
	for _, id := range ids {
		if est, ok := e[id]; ok {
			out[id] = est
		}
	}
	return out, nil
}

func (e establishmentStore) ListSectors(context.Context, string) ([]establishment.Sector, error) {
	return nil, nil
}

type checkinStore struct {
	mu      sync.Mutex
	records []checkin.CheckIn
	stats   checkin.Stats
	err     error
}

func (c *checkinStore) Create(_ context.Context, rec checkin.CheckIn) (checkin.CheckIn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return checkin.CheckIn{}, c.err
	}
	for _, r := range c.records {
		if r.ShiftID == rec.ShiftID && r.PersonID == rec.PersonID {
			return checkin.CheckIn{}, checkin.ErrDuplicateCheckIn
		}
	}
	rec.CreatedAt = rec.SubmittedAt
	c.records = append(c.records, rec)
	return rec, nil
}

func (c *checkinStore) GetByID(_ context.Context, id string) (checkin.CheckIn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.ID == id {
			return r, nil
		}
	}
	return checkin.CheckIn{}, checkin.ErrCheckInNotFound
}

func (c *checkinStore) ListByShift(_ context.Context, shiftID string) ([]checkin.CheckIn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []checkin.CheckIn
	for _, r := range c.records {
		if r.ShiftID == shiftID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *checkinStore) ListByPerson(_ context.Context, personID string, _, _ time.Time) ([]checkin.CheckIn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []checkin.CheckIn
	for _, r := range c.records {
		if r.PersonID == personID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (c *checkinStore) ExistsForShiftPerson(_ context.Context, shiftID, personID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.ShiftID == shiftID && r.PersonID == personID {
			return true, nil
		}
	}
	return false, nil
}

func (c *checkinStore) Correct(_ context.Context, id string, status checkin.Status, notes *string, by string) (checkin.CheckIn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.records {
		if r.ID == id {
			r.Status = status
			r.Notes = notes
			r.CorrectedBy = &by
			c.records[i] = r
			return r, nil
		}
	}
	return checkin.CheckIn{}, checkin.ErrCheckInNotFound
}

func (c *checkinStore) Stats(context.Context, time.Time, time.Time) (checkin.Stats, error) {
	return c.stats, nil
}

type memoryGuard struct {
	mu       sync.Mutex
	held     map[string]bool
	released int
}

func newMemoryGuard() *memoryGuard { return &memoryGuard{held: map[string]bool{}} }

func (g *memoryGuard) Acquire(_ context.Context, shiftID, personID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := shiftID + ":" + personID
	if g.held[key] {
		return false, nil
	}
	g.held[key] = true
	return true, nil
}

func (g *memoryGuard) Release(_ context.Context, shiftID, personID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, shiftID+":"+personID)
	g.released++
	return nil
}

type personStore []user.Person

func (p personStore) GetByID(_ context.Context, id string) (user.Person, error) {
	for _, person := range p {
		if person.ID == id {
			return person, nil
		}
	}
	return user.Person{}, user.ErrPersonNotFound
}

func (p personStore) ListByIDs(_ context.Context, ids []string) ([]user.Person, error) {
	var out []user.Person
	for _, id := range ids {
		if person, err := p.GetByID(context.Background(), id); err == nil {
			out = append(out, person)
		}
	}
	return out, nil
}

func (p personStore) ListSupervisors(context.Context) ([]user.Person, error) {
	var out []user.Person
	for _, person := range p {
		if person.IsSupervisor() {
			out = append(out, person)
		}
	}
	return out, nil
}

type queuedNotifications struct {
	mu   sync.Mutex
	reqs []notification.CreateRequest
}

func (q *queuedNotifications) Queue(_ context.Context, req notification.CreateRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = append(q.reqs, req)
	return nil
}

func (q *queuedNotifications) QueueMany(ctx context.Context, reqs []notification.CreateRequest) error {
	for _, r := range reqs {
		_ = q.Queue(ctx, r)
	}
	return nil
}

func (q *queuedNotifications) Deliver(context.Context, notification.Event) error { return nil }

func (q *queuedNotifications) List(context.Context, string, int) (notification.ListResponse, error) {
	return notification.ListResponse{}, nil
}

func (q *queuedNotifications) Close() {}

func (q *queuedNotifications) kinds() []notification.Kind {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []notification.Kind
	for _, r := range q.reqs {
		out = append(out, r.Kind)
	}
	return out
}
