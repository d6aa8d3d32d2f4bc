package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"chapel-site/config"
	"chapel-site/internal/domain/user"
	"chapel-site/internal/events"
	"chapel-site/internal/handler"
	"chapel-site/internal/repository"
	"chapel-site/internal/services"
	"chapel-site/internal/testutil"
)

const adminID = "00000000-0000-0000-0000-0000000000ad"

type nullStore struct{}

func (nullStore) PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := io.Copy(io.Discard, body)
	return err
}

func (nullStore) FileURL(key string) string { return "https://cdn.example.com/" + key }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

type api struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	cfg := &config.Config{AppMode: TestMode, AppPort: "0", JWTSecret: "test", JWTExpiryMin: 5, MaxUploadMB: 1}
	db := testutil.OpenDB(t)

	users := repository.NewUserRepository(db)
	hash, err := services.HashPassword("admin-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := users.Create(context.Background(), &user.User{ID: adminID, Email: "support@example.com", PasswordHash: hash, DisplayName: "Support", IsActive: true}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	identity := services.NewIdentityResolver(users, services.NewAdminSet([]string{adminID}))
	auth := services.NewAuthService(users, identity, cfg)
	chatRepo := repository.NewChatRepository(db)
	bus := events.NewLocalBus(nil)

	directory := services.NewRoomDirectory(chatRepo, bus, nil)
	protocol := services.NewUnreadProtocol(chatRepo, identity, bus, nil, 0)
	feed := services.NewMessageFeed(chatRepo, bus, nil, 0)
	lifecycle := services.NewConversationLifecycle(chatRepo, bus, nil)

	srv := New(cfg, nil)
	srv.SetupRoutes(&Handlers{
		Auth:    handler.NewAuthHandler(auth),
		Chat:    handler.NewChatHandler(directory, protocol, feed, lifecycle),
		Contact: handler.NewContactHandler(services.NewContactService(repository.NewContactRepository(db), nil)),
		Review:  handler.NewReviewHandler(services.NewReviewService(repository.NewReviewRepository(db), nil)),
		Media:   handler.NewMediaHandler(services.NewMediaService(nullStore{}, cfg.MaxUploadMB, nil)),
	}, Deps{Auth: auth})
	return &api{t: t, handler: srv.Handler()}
}

func (a *api) call(method, path, token string, body interface{}, want int) json.RawMessage {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return a.do(req, token, want)
}

func (a *api) do(req *http.Request, token string, want int) json.RawMessage {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	if rec.Code != want {
		a.t.Fatalf("%s %s = %d, want %d: %s", req.Method, req.URL.Path, rec.Code, want, rec.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("decode envelope: %v", err)
	}
	return env.Data
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

type authData struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

type roomsData struct {
	Rooms []struct {
		ID                string `json:"id"`
		LastMessage       string `json:"last_message"`
		UnreadForAdmin    int64  `json:"unread_for_admin"`
		UnreadForCustomer int64  `json:"unread_for_customer"`
		CustomerName      string `json:"customer_name"`
	} `json:"rooms"`
	Badge int64 `json:"badge"`
}

func TestChatFlowOverHTTP(t *testing.T) {
	a := newAPI(t)

	customer := decode[authData](t, a.call(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "long-enough", "display_name": "Ada",
	}, http.StatusCreated))
	admin := decode[authData](t, a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "support@example.com", "password": "admin-password",
	}, http.StatusOK))
	if admin.User.Role != "admin" || customer.User.Role != "customer" {
		t.Fatalf("roles = %s/%s", admin.User.Role, customer.User.Role)
	}

	a.call(http.MethodPost, "/v1/chat/rooms/me/messages", customer.AccessToken, map[string]string{"text": "Hello"}, http.StatusCreated)
	a.call(http.MethodPost, "/v1/chat/rooms/me/messages", customer.AccessToken, map[string]string{"text": "Are you there?"}, http.StatusCreated)

	rooms := decode[roomsData](t, a.call(http.MethodGet, "/v1/chat/rooms", admin.AccessToken, nil, http.StatusOK))
	if len(rooms.Rooms) != 1 || rooms.Rooms[0].UnreadForAdmin != 2 || rooms.Badge != 1 {
		t.Fatalf("unexpected admin rooms: %+v", rooms)
	}
	if rooms.Rooms[0].ID != customer.User.ID || rooms.Rooms[0].CustomerName != "Ada" {
		t.Fatalf("unexpected room identity: %+v", rooms.Rooms[0])
	}

	roomPath := "/v1/chat/rooms/" + customer.User.ID
	a.call(http.MethodPost, roomPath+"/open", admin.AccessToken, nil, http.StatusOK)
	badge := decode[struct {
		Badge int64 `json:"badge"`
	}](t, a.call(http.MethodGet, "/v1/chat/badge", admin.AccessToken, nil, http.StatusOK))
	if badge.Badge != 0 {
		t.Fatalf("badge after open = %d", badge.Badge)
	}

	a.call(http.MethodPost, roomPath+"/messages", admin.AccessToken, map[string]string{"text": "Yes, how can we help?"}, http.StatusCreated)

	own := decode[roomsData](t, a.call(http.MethodGet, "/v1/chat/rooms", customer.AccessToken, nil, http.StatusOK))
	if len(own.Rooms) != 1 || own.Rooms[0].UnreadForCustomer != 1 || own.Rooms[0].UnreadForAdmin != 0 {
		t.Fatalf("unexpected customer view: %+v", own)
	}

	msgs := decode[struct {
		Messages []struct {
			Text string `json:"text"`
		} `json:"messages"`
	}](t, a.call(http.MethodGet, "/v1/chat/rooms/me/messages?limit=2", customer.AccessToken, nil, http.StatusOK))
	if len(msgs.Messages) != 2 || msgs.Messages[0].Text != "Are you there?" || msgs.Messages[1].Text != "Yes, how can we help?" {
		t.Fatalf("unexpected feed: %+v", msgs)
	}

	a.call(http.MethodPost, roomPath+"/clear", customer.AccessToken, nil, http.StatusForbidden)
	a.call(http.MethodPost, roomPath+"/clear", admin.AccessToken, nil, http.StatusOK)
	a.call(http.MethodDelete, roomPath, admin.AccessToken, nil, http.StatusOK)
	a.call(http.MethodDelete, roomPath, admin.AccessToken, nil, http.StatusNotFound)
}

func TestChatAccessControl(t *testing.T) {
	a := newAPI(t)
	ada := decode[authData](t, a.call(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "long-enough", "display_name": "Ada",
	}, http.StatusCreated))

	a.call(http.MethodGet, "/v1/chat/rooms", "", nil, http.StatusUnauthorized)
	a.call(http.MethodGet, "/v1/chat/badge", ada.AccessToken, nil, http.StatusForbidden)
	a.call(http.MethodGet, "/v1/chat/rooms/someone-else/messages", ada.AccessToken, nil, http.StatusForbidden)
	a.call(http.MethodPost, "/v1/chat/rooms/me/messages", ada.AccessToken, map[string]string{"text": "   "}, http.StatusBadRequest)
	a.call(http.MethodGet, "/v1/chat/rooms/me/messages?limit=abc", ada.AccessToken, nil, http.StatusBadRequest)

	admin := decode[authData](t, a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "support@example.com", "password": "admin-password",
	}, http.StatusOK))
	a.call(http.MethodPost, "/v1/chat/rooms/no-such-customer/messages", admin.AccessToken, map[string]string{"text": "hi"}, http.StatusNotFound)
	a.call(http.MethodGet, "/v1/chat/rooms", admin.AccessToken, nil, http.StatusOK)
}

func TestSiteEndpoints(t *testing.T) {
	a := newAPI(t)
	ada := decode[authData](t, a.call(http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "long-enough", "display_name": "Ada",
	}, http.StatusCreated))
	admin := decode[authData](t, a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "support@example.com", "password": "admin-password",
	}, http.StatusOK))

	a.call(http.MethodPost, "/v1/contacts", "", map[string]string{
		"name": "Grace", "email": "grace@example.com", "message": "Please call me.",
	}, http.StatusCreated)
	a.call(http.MethodGet, "/v1/contacts", ada.AccessToken, nil, http.StatusForbidden)
	contacts := decode[struct {
		Total int64 `json:"total"`
	}](t, a.call(http.MethodGet, "/v1/contacts", admin.AccessToken, nil, http.StatusOK))
	if contacts.Total != 1 {
		t.Fatalf("contacts total = %d", contacts.Total)
	}

	created := decode[struct {
		ID uint64 `json:"id"`
	}](t, a.call(http.MethodPost, "/v1/reviews", ada.AccessToken, map[string]interface{}{"rating": 5, "text": "Thank you."}, http.StatusCreated))
	a.call(http.MethodPost, "/v1/reviews", ada.AccessToken, map[string]interface{}{"rating": 9, "text": "x"}, http.StatusBadRequest)
	list := decode[struct {
		Items []struct {
			AuthorName string `json:"author_name"`
		} `json:"items"`
	}](t, a.call(http.MethodGet, "/v1/reviews", "", nil, http.StatusOK))
	if len(list.Items) != 1 || list.Items[0].AuthorName != "Ada" {
		t.Fatalf("unexpected reviews: %+v", list)
	}
	path := "/v1/reviews/" + strconv.FormatUint(created.ID, 10)
	a.call(http.MethodDelete, path, ada.AccessToken, nil, http.StatusForbidden)
	a.call(http.MethodDelete, path, admin.AccessToken, nil, http.StatusOK)
}

func TestMediaUpload(t *testing.T) {
	a := newAPI(t)
	admin := decode[authData](t, a.call(http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email": "support@example.com", "password": "admin-password",
	}, http.StatusOK))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "chapel.png")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = part.Write([]byte("png bytes"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/media", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	obj := decode[struct {
		Key string `json:"key"`
		URL string `json:"url"`
	}](t, a.do(req, admin.AccessToken, http.StatusCreated))
	if !strings.HasPrefix(obj.Key, "media/") || !strings.HasSuffix(obj.Key, ".png") || obj.URL != "https://cdn.example.com/"+obj.Key {
		t.Fatalf("unexpected media object: %+v", obj)
	}
}

func TestHealthAndPing(t *testing.T) {
	a := newAPI(t)
	a.call(http.MethodGet, "/ping", "", nil, http.StatusOK)
	a.call(http.MethodGet, "/health", "", nil, http.StatusOK)
}
