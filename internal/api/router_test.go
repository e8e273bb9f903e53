package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careport/clinic-booking/internal/booking"
	"github.com/careport/clinic-booking/internal/chat"
	"github.com/careport/clinic-booking/internal/consult"
	"github.com/careport/clinic-booking/internal/identity"
	"github.com/careport/clinic-booking/internal/timeline"
)

// In-memory stand-ins for the postgres repositories, with the same
// conditional-write semantics.

type memSlotRepo struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*booking.Slot
}

func newMemSlotRepo() *memSlotRepo {
	return &memSlotRepo{slots: make(map[uuid.UUID]*booking.Slot)}
}

func (r *memSlotRepo) GetSlotByID(_ context.Context, id uuid.UUID) (*booking.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, booking.ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memSlotRepo) ListFreeSlots(_ context.Context, from time.Time) ([]booking.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Slot
	for _, s := range r.slots {
		if s.Status == booking.SlotFree && !s.DateTime.Before(from) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memSlotRepo) CreateSlot(_ context.Context, dateTime time.Time) (*booking.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &booking.Slot{ID: uuid.New(), DateTime: dateTime, Status: booking.SlotFree}
	r.slots[s.ID] = s
	cp := *s
	return &cp, nil
}

func (r *memSlotRepo) GetActiveSlotForPatient(_ context.Context, patientID uuid.UUID) (*booking.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.slots {
		if s.Status.Active() && s.PatientID != nil && *s.PatientID == patientID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, booking.ErrSlotNotFound
}

func (r *memSlotRepo) ClaimSlot(_ context.Context, slotID, patientID uuid.UUID) (*booking.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok || s.Status != booking.SlotFree {
		return nil, booking.ErrSlotNotFound
	}
	pid := patientID
	s.Status = booking.SlotBooked
	s.PatientID = &pid
	cp := *s
	return &cp, nil
}

func (r *memSlotRepo) ConfirmSlot(_ context.Context, slotID uuid.UUID) (*booking.Slot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok || s.Status != booking.SlotBooked {
		return nil, booking.ErrSlotNotFound
	}
	s.Status = booking.SlotConfirmed
	cp := *s
	return &cp, nil
}

func (r *memSlotRepo) DeleteFreeSlot(_ context.Context, slotID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok || s.Status != booking.SlotFree {
		return false, nil
	}
	delete(r.slots, slotID)
	return true, nil
}

func (r *memSlotRepo) ListPendingApproval(_ context.Context) ([]booking.PendingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.PendingSlot
	for _, s := range r.slots {
		if s.Status == booking.SlotBooked {
			out = append(out, booking.PendingSlot{Slot: *s, PatientEmail: "pat@example.com"})
		}
	}
	return out, nil
}

func (r *memSlotRepo) ListPatientBookings(_ context.Context) ([]booking.PatientBooking, error) {
	return []booking.PatientBooking{}, nil
}

type memChatRepo struct {
	mu       sync.Mutex
	messages map[uuid.UUID][]chat.Message
}

func (r *memChatRepo) InsertMessage(_ context.Context, msg chat.Message) (*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = uuid.New()
	msg.Timestamp = time.Now()
	r.messages[msg.ChannelOwnerID] = append(r.messages[msg.ChannelOwnerID], msg)
	cp := msg
	return &cp, nil
}

func (r *memChatRepo) ListMessagesForChannel(_ context.Context, channelOwnerID uuid.UUID) ([]chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chat.Message(nil), r.messages[channelOwnerID]...), nil
}

type memUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*identity.User
}

func (r *memUserRepo) CreateUser(_ context.Context, user identity.User) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return nil, identity.ErrEmailTaken
	}
	user.ID = uuid.New()
	r.byEmail[user.Email] = &user
	cp := user
	return &cp, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byEmail {
		if user.ID == id {
			cp := *user
			return &cp, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

type memEventRepo struct {
	mu     sync.Mutex
	events []timeline.Event
}

func (r *memEventRepo) InsertEvent(_ context.Context, ev timeline.Event) (*timeline.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev.ID = uuid.New()
	if ev.EventDate.IsZero() {
		ev.EventDate = time.Now()
	}
	r.events = append(r.events, ev)
	cp := ev
	return &cp, nil
}

func (r *memEventRepo) ListEventsForPatient(_ context.Context, patientID uuid.UUID) ([]timeline.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []timeline.Event
	for _, ev := range r.events {
		if ev.PatientID == patientID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type memConsultRepo struct {
	mu            sync.Mutex
	consultations map[uuid.UUID]*consult.Consultation
	photos        map[uuid.UUID][]consult.Photo
}

func newMemConsultRepo() *memConsultRepo {
	return &memConsultRepo{
		consultations: make(map[uuid.UUID]*consult.Consultation),
		photos:        make(map[uuid.UUID][]consult.Photo),
	}
}

func (r *memConsultRepo) CreateConsultation(_ context.Context, patientID uuid.UUID) (*consult.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &consult.Consultation{ID: uuid.New(), PatientID: patientID, Status: consult.StatusPendingPhotos, CreatedAt: time.Now()}
	r.consultations[c.ID] = c
	cp := *c
	return &cp, nil
}

func (r *memConsultRepo) GetConsultationByID(_ context.Context, id uuid.UUID) (*consult.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, consult.ErrConsultationNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memConsultRepo) InsertPhotos(_ context.Context, consultationID uuid.UUID, photos []consult.PhotoSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range photos {
		r.photos[consultationID] = append(r.photos[consultationID], consult.Photo{
			ID:             uuid.New(),
			ConsultationID: consultationID,
			FileURL:        p.FileURL,
			AngleTag:       p.AngleTag,
			UploadedAt:     time.Now(),
		})
	}
	return nil
}

func (r *memConsultRepo) UpdateConsultationStatus(_ context.Context, id uuid.UUID, status consult.Status) (*consult.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, consult.ErrConsultationNotFound
	}
	c.Status = status
	cp := *c
	return &cp, nil
}

func (r *memConsultRepo) ListConsultationsForPatient(_ context.Context, patientID uuid.UUID) ([]consult.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []consult.Consultation
	for _, c := range r.consultations {
		if c.PatientID != patientID {
			continue
		}
		cp := *c
		if photos := r.photos[c.ID]; len(photos) > 0 {
			cp.Photos = []consult.Photo{photos[0]}
		}
		out = append(out, cp)
	}
	return out, nil
}

// stubPresigner hands out deterministic URLs.
type stubPresigner struct{}

func (stubPresigner) PresignUpload(_ context.Context, key, _ string) (string, string, error) {
	return "https://signed.example.com/" + key, "https://bucket.example.com/" + key, nil
}

func (stubPresigner) PresignRead(_ context.Context, key string) (string, error) {
	return "https://signed.example.com/" + key, nil
}

// serialLocker runs the critical section under a per patient mutex.
type serialLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (l *serialLocker) WithPatientLock(ctx context.Context, patientID uuid.UUID, fn func(context.Context) error) error {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	m, ok := l.locks[patientID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[patientID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}

type testEnv struct {
	router   http.Handler
	verifier *identity.Verifier
	slots    *memSlotRepo
	chats    *memChatRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	verifier := identity.NewVerifier("test-secret")

	slots := newMemSlotRepo()
	chats := &memChatRepo{messages: make(map[uuid.UUID][]chat.Message)}
	users := &memUserRepo{byEmail: make(map[string]*identity.User)}

	timelineSvc := timeline.NewService(&memEventRepo{})
	bookingSvc := booking.NewService(slots, &serialLocker{}, timelineSvc, nil, nil)
	chatSvc := chat.NewService(chats)
	identitySvc := identity.NewService(users, verifier, time.Hour)
	consultSvc := consult.NewService(newMemConsultRepo(), stubPresigner{}, nil)

	router := NewRouter(RouterConfig{
		Booking:  bookingSvc,
		Chat:     chatSvc,
		ChatWS:   http.NotFoundHandler(),
		Identity: identitySvc,
		Timeline: timelineSvc,
		Consult:  consultSvc,
		Verifier: verifier,
		Env:      "test",
		Version:  "test",
	})

	return &testEnv{router: router, verifier: verifier, slots: slots, chats: chats}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) patientToken(t *testing.T) (string, uuid.UUID) {
	t.Helper()
	id := identity.Identity{UserID: uuid.New(), Email: fmt.Sprintf("%s@example.com", uuid.NewString()[:8]), Role: identity.RolePatient}
	token, err := e.verifier.Issue(id, time.Hour)
	require.NoError(t, err)
	return token, id.UserID
}

func (e *testEnv) staffToken(t *testing.T) string {
	t.Helper()
	id := identity.Identity{UserID: uuid.New(), Email: "doc@example.com", Role: identity.RoleStaff}
	token, err := e.verifier.Issue(id, time.Hour)
	require.NoError(t, err)
	return token
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{Email: "new@example.com", Password: "longenough"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/register", "", RegisterRequest{Email: "new@example.com", Password: "longenough"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "new@example.com", Password: "longenough"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decodeJSON[LoginResponse](t, rec)
	require.NotEmpty(t, login.AccessToken)
	assert.Equal(t, "patient", login.Role)

	// The issued token must pass the protected group's middleware.
	rec = env.do(t, http.MethodGet, "/slots/available", login.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Email: "new@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/slots/available", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/slots/book", "garbage-token", BookSlotRequest{SlotID: uuid.NewString()})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSlotLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	staff := env.staffToken(t)
	patient, patientID := env.patientToken(t)

	// Staff publishes a slot.
	rec := env.do(t, http.MethodPost, "/slots", staff, CreateSlotRequest{DateTime: time.Now().Add(24 * time.Hour)})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[SlotResponse](t, rec)
	assert.Equal(t, "free", created.Status)

	// The patient sees and books it.
	rec = env.do(t, http.MethodGet, "/slots/available", patient, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	available := decodeJSON[[]SlotResponse](t, rec)
	require.Len(t, available, 1)

	rec = env.do(t, http.MethodPost, "/slots/book", patient, BookSlotRequest{SlotID: created.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	booked := decodeJSON[SlotResponse](t, rec)
	assert.Equal(t, "booked", booked.Status)
	require.NotNil(t, booked.PatientID)
	assert.Equal(t, patientID, *booked.PatientID)

	// Staff finds it pending and approves it.
	rec = env.do(t, http.MethodGet, "/slots/pending-approval", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decodeJSON[[]PendingSlotResponse](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)

	rec = env.do(t, http.MethodPost, "/slots/"+created.ID.String()+"/approve", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	confirmed := decodeJSON[SlotResponse](t, rec)
	assert.Equal(t, "confirmed", confirmed.Status)

	// A second approval conflicts.
	rec = env.do(t, http.MethodPost, "/slots/"+created.ID.String()+"/approve", staff, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBookingConflictsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	staff := env.staffToken(t)

	makeSlot := func(hours int) SlotResponse {
		rec := env.do(t, http.MethodPost, "/slots", staff, CreateSlotRequest{DateTime: time.Now().Add(time.Duration(hours) * time.Hour)})
		require.Equal(t, http.StatusCreated, rec.Code)
		return decodeJSON[SlotResponse](t, rec)
	}

	t.Run("slot already taken", func(t *testing.T) {
		slot := makeSlot(24)
		first, _ := env.patientToken(t)
		second, _ := env.patientToken(t)

		rec := env.do(t, http.MethodPost, "/slots/book", first, BookSlotRequest{SlotID: slot.ID.String()})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/slots/book", second, BookSlotRequest{SlotID: slot.ID.String()})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "slot_unavailable", decodeJSON[ErrorResponse](t, rec).Error)
	})

	t.Run("patient already booked", func(t *testing.T) {
		a := makeSlot(48)
		b := makeSlot(72)
		patient, _ := env.patientToken(t)

		rec := env.do(t, http.MethodPost, "/slots/book", patient, BookSlotRequest{SlotID: a.ID.String()})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/slots/book", patient, BookSlotRequest{SlotID: b.ID.String()})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "already_booked", decodeJSON[ErrorResponse](t, rec).Error)
	})

	t.Run("unknown slot", func(t *testing.T) {
		patient, _ := env.patientToken(t)
		rec := env.do(t, http.MethodPost, "/slots/book", patient, BookSlotRequest{SlotID: uuid.NewString()})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed slot id", func(t *testing.T) {
		patient, _ := env.patientToken(t)
		rec := env.do(t, http.MethodPost, "/slots/book", patient, BookSlotRequest{SlotID: "nope"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStaffOnlyRoutes(t *testing.T) {
	env := newTestEnv(t)
	patient, patientID := env.patientToken(t)

	rec := env.do(t, http.MethodPost, "/slots", patient, CreateSlotRequest{DateTime: time.Now().Add(time.Hour)})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/slots/pending-approval", patient, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/slots/"+uuid.NewString()+"/approve", patient, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, "/slots/"+uuid.NewString(), patient, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/chat/patients", patient, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/timeline/"+patientID.String(), patient, CreateEventRequest{Title: "note"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteSlotOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	staff := env.staffToken(t)

	rec := env.do(t, http.MethodPost, "/slots", staff, CreateSlotRequest{DateTime: time.Now().Add(time.Hour)})
	require.Equal(t, http.StatusCreated, rec.Code)
	slot := decodeJSON[SlotResponse](t, rec)

	t.Run("booked slot cannot be deleted", func(t *testing.T) {
		patient, _ := env.patientToken(t)
		book := env.do(t, http.MethodPost, "/slots/book", patient, BookSlotRequest{SlotID: slot.ID.String()})
		require.Equal(t, http.StatusOK, book.Code)

		del := env.do(t, http.MethodDelete, "/slots/"+slot.ID.String(), staff, nil)
		assert.Equal(t, http.StatusConflict, del.Code)
		assert.Equal(t, "slot_reserved", decodeJSON[ErrorResponse](t, del).Error)
	})

	t.Run("missing slot", func(t *testing.T) {
		del := env.do(t, http.MethodDelete, "/slots/"+uuid.NewString(), staff, nil)
		assert.Equal(t, http.StatusNotFound, del.Code)
	})

	t.Run("free slot deleted", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/slots", staff, CreateSlotRequest{DateTime: time.Now().Add(time.Hour)})
		require.Equal(t, http.StatusCreated, rec.Code)
		fresh := decodeJSON[SlotResponse](t, rec)

		del := env.do(t, http.MethodDelete, "/slots/"+fresh.ID.String(), staff, nil)
		assert.Equal(t, http.StatusOK, del.Code)
	})
}

func TestChatHistoryAuthorization(t *testing.T) {
	env := newTestEnv(t)
	staff := env.staffToken(t)
	aliceToken, aliceID := env.patientToken(t)
	bobToken, _ := env.patientToken(t)

	// Seed a message on Alice's channel.
	alice := identity.Identity{UserID: aliceID, Role: identity.RolePatient}
	_, err := env.chats.InsertMessage(context.Background(), chat.Message{ChannelOwnerID: alice.UserID, SenderID: alice.UserID, Content: "my update"})
	require.NoError(t, err)

	t.Run("owner reads own channel", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/chat/history/"+aliceID.String(), aliceToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		msgs := decodeJSON[[]MessageResponse](t, rec)
		require.Len(t, msgs, 1)
		assert.Equal(t, "my update", msgs[0].Content)
	})

	t.Run("another patient is pinned to their own channel", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/chat/history/"+aliceID.String(), bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeJSON[[]MessageResponse](t, rec))
	})

	t.Run("staff reads any channel", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/chat/history/"+aliceID.String(), staff, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeJSON[[]MessageResponse](t, rec), 1)
	})
}

func TestTimelineOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	staff := env.staffToken(t)
	patient, patientID := env.patientToken(t)

	rec := env.do(t, http.MethodPost, "/timeline/"+patientID.String(), staff, CreateEventRequest{
		Title:     "Pre-op instructions",
		Kind:      "task",
		EventDate: time.Now().Add(24 * time.Hour),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/timeline/"+patientID.String(), patient, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	events := decodeJSON[[]EventResponse](t, rec)
	require.Len(t, events, 1)
	assert.Equal(t, "Pre-op instructions", events[0].Title)

	rec = env.do(t, http.MethodPost, "/timeline/"+patientID.String(), staff, CreateEventRequest{Title: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConsultationFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	patient, _ := env.patientToken(t)

	rec := env.do(t, http.MethodPost, "/consultations", patient, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeJSON[ConsultationResponse](t, rec)
	assert.Equal(t, "pending_photos", created.Status)

	rec = env.do(t, http.MethodPost, "/consultations/upload-urls", patient, UploadURLsRequest{
		ConsultationID: created.ID.String(),
		Files: []UploadFileInput{
			{Filename: "front.jpg", ContentType: "image/jpeg", AngleTag: "front"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var urls struct {
		UploadTasks []UploadTaskResponse `json:"uploadTasks"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&urls))
	require.Len(t, urls.UploadTasks, 1)
	assert.Contains(t, urls.UploadTasks[0].PresignedURL, "signed.example.com")

	rec = env.do(t, http.MethodPost, "/consultations/confirm-upload", patient, ConfirmUploadRequest{
		ConsultationID: created.ID.String(),
		Photos:         []ConfirmPhotoSpec{{FileURL: urls.UploadTasks[0].FinalURL, AngleTag: "front"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	confirmed := decodeJSON[ConsultationResponse](t, rec)
	assert.Equal(t, "pending_review", confirmed.Status)

	rec = env.do(t, http.MethodGet, "/consultations", patient, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeJSON[[]ConsultationResponse](t, rec)
	require.Len(t, list, 1)
	require.Len(t, list[0].Photos, 1)

	t.Run("another patient cannot attach files", func(t *testing.T) {
		intruder, _ := env.patientToken(t)
		rec := env.do(t, http.MethodPost, "/consultations/upload-urls", intruder, UploadURLsRequest{
			ConsultationID: created.ID.String(),
			Files:          []UploadFileInput{{Filename: "x.jpg", AngleTag: "front"}},
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHealthLiveness(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeJSON[LivenessResponse](t, rec).Status)
}
