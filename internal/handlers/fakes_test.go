package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"grievance-portal-go/internal/models"
	"grievance-portal-go/internal/push"
	"grievance-portal-go/internal/store"

	"github.com/redis/go-redis/v9"
)

// fakeStore is an in-memory DataStore.
type fakeStore struct {
	users       map[int]models.User
	nextUserID  int
	grievances  []models.Grievance
	nextGrievID int
	subs        map[string]models.PushSubscription
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[int]models.User),
		subs:  make(map[string]models.PushSubscription),
	}
}

func (f *fakeStore) addUser(email, name string) models.User {
	hash, _ := models.HashPassword("password123")
	f.nextUserID++
	u := models.User{
		ID:           f.nextUserID,
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) CreateUser(ctx context.Context, email, name, passwordHash string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return models.User{}, store.ErrEmailTaken
		}
	}
	f.nextUserID++
	u := models.User{
		ID:           f.nextUserID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUser(ctx context.Context, id int) (models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (f *fakeStore) GetUsers(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(f.users))
	for _, u := range f.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (f *fakeStore) UpdateUser2FA(ctx context.Context, userID int, totpSecret string, enabled bool) error {
	u := f.users[userID]
	u.TOTPSecret = totpSecret
	u.TOTPEnabled = enabled
	f.users[userID] = u
	return nil
}

func (f *fakeStore) Disable2FA(ctx context.Context, userID int) error {
	u := f.users[userID]
	u.TOTPSecret = ""
	u.TOTPEnabled = false
	f.users[userID] = u
	return nil
}

func (f *fakeStore) CreateGrievance(ctx context.Context, by, against int, text string, images [][]byte) (models.Grievance, error) {
	f.nextGrievID++
	g := models.Grievance{
		ID:        f.nextGrievID,
		By:        by,
		Against:   against,
		Text:      text,
		Images:    images,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	f.grievances = append(f.grievances, g)
	return g, nil
}

func (f *fakeStore) GetGrievancesBy(ctx context.Context, userID int) ([]models.GrievanceView, error) {
	var views []models.GrievanceView
	for _, g := range f.grievances {
		if g.By != userID {
			continue
		}
		views = append(views, models.GrievanceView{
			ID:           g.ID,
			Text:         g.Text,
			Counterparty: models.UserRef{ID: g.Against, Name: f.users[g.Against].Name},
			CreatedAt:    g.CreatedAt,
		})
	}
	return views, nil
}

func (f *fakeStore) GetGrievancesAgainst(ctx context.Context, userID int) ([]models.GrievanceView, error) {
	var views []models.GrievanceView
	for _, g := range f.grievances {
		if g.Against != userID {
			continue
		}
		views = append(views, models.GrievanceView{
			ID:           g.ID,
			Text:         g.Text,
			Counterparty: models.UserRef{ID: g.By, Name: f.users[g.By].Name},
			CreatedAt:    g.CreatedAt,
		})
	}
	return views, nil
}

func subKey(userID int, userAgent string) string {
	return fmt.Sprintf("%d|%s", userID, userAgent)
}

func (f *fakeStore) SaveSubscription(ctx context.Context, sub models.PushSubscription) error {
	f.subs[subKey(sub.UserID, sub.UserAgent)] = sub
	return nil
}

func (f *fakeStore) DeleteSubscription(ctx context.Context, userID int, userAgent string) error {
	delete(f.subs, subKey(userID, userAgent))
	return nil
}

func (f *fakeStore) GetSubscriptions(ctx context.Context, userID int) ([]models.PushSubscription, error) {
	var subs []models.PushSubscription
	for _, sub := range f.subs {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

// fakeActivity records feed writes.
type fakeActivity struct {
	events []models.Event
}

func (f *fakeActivity) AddEvent(ctx context.Context, userID int, kind, message string) (models.Event, error) {
	e := models.Event{
		ID:        len(f.events) + 1,
		UserID:    userID,
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	f.events = append(f.events, e)
	return e, nil
}

func (f *fakeActivity) GetEvents(ctx context.Context, userID int) ([]models.Event, error) {
	var events []models.Event
	for _, e := range f.events {
		if e.UserID == userID {
			events = append(events, e)
		}
	}
	return events, nil
}

func (f *fakeActivity) ClearEvents(ctx context.Context, userID int) error {
	kept := f.events[:0]
	for _, e := range f.events {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	f.events = kept
	return nil
}

func (f *fakeActivity) Subscribe(ctx context.Context, userID int) *redis.PubSub {
	return nil
}

type notifyCall struct {
	UserID int
	Title  string
	Body   string
}

// fakeNotifier reports fan-out calls on a channel so tests can wait
// for the async dispatch.
type fakeNotifier struct {
	calls chan notifyCall
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{calls: make(chan notifyCall, 8)}
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID int, title, body string) (push.Result, error) {
	f.calls <- notifyCall{UserID: userID, Title: title, Body: body}
	return push.Result{Attempted: 1, Delivered: 1, Success: true}, nil
}

func (f *fakeNotifier) PublicKey() string {
	return "test-public-key"
}

func newTestHandler(db store.DataStore) (*Handler, *fakeActivity, *fakeNotifier) {
	activity := &fakeActivity{}
	notifier := newFakeNotifier()
	return NewHandler(db, activity, notifier, nil), activity, notifier
}

// authenticatedRequest builds a request carrying a valid session cookie
// for the given user.
func authenticatedRequest(t *testing.T, method, target string, body io.Reader, user models.User) *http.Request {
	t.Helper()

	rec := httptest.NewRecorder()
	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	session, _ := sessionStore.Get(seed, sessionName)
	session.Values["user_id"] = user.ID
	session.Values["name"] = user.Name
	session.Values["email"] = user.Email
	if err := session.Save(seed, rec); err != nil {
		t.Fatalf("save session: %v", err)
	}

	req := httptest.NewRequest(method, target, body)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}
