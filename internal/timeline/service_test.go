package timeline

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careport/clinic-booking/internal/identity"
)

type fakeEventRepo struct {
	mu     sync.Mutex
	events []Event
}

func (r *fakeEventRepo) InsertEvent(_ context.Context, ev Event) (*Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now()
	if ev.EventDate.IsZero() {
		ev.EventDate = ev.CreatedAt
	}
	r.events = append(r.events, ev)
	cp := ev
	return &cp, nil
}

func (r *fakeEventRepo) ListEventsForPatient(_ context.Context, patientID uuid.UUID) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.PatientID == patientID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func TestCreate(t *testing.T) {
	svc := NewService(&fakeEventRepo{})
	doc := identity.Identity{UserID: uuid.New(), Role: identity.RoleStaff}
	pat := identity.Identity{UserID: uuid.New(), Role: identity.RolePatient}

	t.Run("staff creates an event", func(t *testing.T) {
		ev, err := svc.Create(context.Background(), doc, pat.UserID, "Follow-up call", "check healing", KindTask, time.Now().Add(48*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, pat.UserID, ev.PatientID)
		assert.Equal(t, KindTask, ev.Kind)
	})

	t.Run("kind defaults to info", func(t *testing.T) {
		ev, err := svc.Create(context.Background(), doc, pat.UserID, "Welcome", "", "", time.Now())
		require.NoError(t, err)
		assert.Equal(t, KindInfo, ev.Kind)
	})

	t.Run("patient forbidden", func(t *testing.T) {
		_, err := svc.Create(context.Background(), pat, pat.UserID, "Self note", "", KindInfo, time.Now())
		assert.ErrorIs(t, err, ErrStaffOnly)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		_, err := svc.Create(context.Background(), doc, pat.UserID, "  ", "", KindInfo, time.Now())
		assert.ErrorIs(t, err, ErrInvalidEvent)
	})
}

func TestListForPatient_PatientPinnedToOwnTimeline(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := NewService(repo)

	doc := identity.Identity{UserID: uuid.New(), Role: identity.RoleStaff}
	alice := identity.Identity{UserID: uuid.New(), Role: identity.RolePatient}
	bob := identity.Identity{UserID: uuid.New(), Role: identity.RolePatient}

	_, err := svc.Create(context.Background(), doc, alice.UserID, "Alice event", "", KindInfo, time.Now())
	require.NoError(t, err)

	// Bob asking for Alice's timeline gets his own (empty) one.
	events, err := svc.ListForPatient(context.Background(), bob, alice.UserID)
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = svc.ListForPatient(context.Background(), doc, alice.UserID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestRecordSlotEvent(t *testing.T) {
	repo := &fakeEventRepo{}
	svc := NewService(repo)

	patientID := uuid.New()
	at := time.Now().Add(72 * time.Hour)

	require.NoError(t, svc.RecordSlotEvent(context.Background(), patientID, "slot_booked", "Appointment requested", at))

	events, err := repo.ListEventsForPatient(context.Background(), patientID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "slot_booked", events[0].Kind)
	assert.True(t, events[0].EventDate.Equal(at))
}
