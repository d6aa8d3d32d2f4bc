package services_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"regexp"
	"testing"

	"chapel-site/internal/repository"
	"chapel-site/internal/services"
	"chapel-site/internal/testutil"
	chapel_errors "chapel-site/pkg/errors"
)

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryStore) PutObject(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if m.err != nil {
		return m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) FileURL(key string) string {
	return "https://cdn.example.com/" + key
}

var mediaKeyPattern = regexp.MustCompile(`^media/\d{4}/\d{2}/[0-9a-f-]{36}\.jpg$`)

func TestMediaUpload(t *testing.T) {
	store := newMemoryStore()
	media := services.NewMediaService(store, 1, nil)
	body := []byte("jpeg bytes")

	obj, err := media.Upload(context.Background(), admin, services.UploadInput{
		FileName: "Chapel.JPG",
		Size:     int64(len(body)),
		Body:     bytes.NewReader(body),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !mediaKeyPattern.MatchString(obj.Key) {
		t.Fatalf("unexpected key %q", obj.Key)
	}
	if obj.URL != "https://cdn.example.com/"+obj.Key || obj.ContentType != "image/jpeg" {
		t.Fatalf("unexpected object: %+v", obj)
	}
	if !bytes.Equal(store.objects[obj.Key], body) {
		t.Fatalf("stored body mismatch")
	}
}

func TestMediaUpload_Rejects(t *testing.T) {
	media := services.NewMediaService(newMemoryStore(), 1, nil)
	ada := customer("cust-ada", "Ada")

	if _, err := media.Upload(context.Background(), ada, services.UploadInput{FileName: "a.png", Size: 1, Body: bytes.NewReader([]byte("x"))}); !errors.Is(err, chapel_errors.ErrForbidden) {
		t.Fatalf("customer upload err = %v", err)
	}
	if _, err := media.Upload(context.Background(), admin, services.UploadInput{FileName: "a.png", Size: 2 << 20, Body: bytes.NewReader(nil)}); !errors.Is(err, chapel_errors.ErrTooLarge) {
		t.Fatalf("oversized upload err = %v", err)
	}
	if _, err := media.Upload(context.Background(), admin, services.UploadInput{FileName: "a.png"}); !errors.Is(err, chapel_errors.ErrInvalidInput) {
		t.Fatalf("empty upload err = %v", err)
	}
}

func TestContactSubmit(t *testing.T) {
	contacts := services.NewContactService(repository.NewContactRepository(testutil.OpenDB(t)), nil)
	ctx := context.Background()

	sub, err := contacts.Submit(ctx, services.ContactInput{
		Name:     " Grace ",
		Email:    "Grace@Example.com",
		Message:  "Please call me about arrangements.",
		RemoteIP: "203.0.113.9",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.ID == 0 || sub.Name != "Grace" || sub.Email != "grace@example.com" {
		t.Fatalf("unexpected submission: %+v", sub)
	}

	for _, in := range []services.ContactInput{
		{Name: "", Email: "a@example.com", Message: "hi"},
		{Name: "A", Message: "no way to reach me"},
		{Name: "A", Email: "bogus", Message: "hi"},
		{Name: "A", Phone: "555-0100", Message: " "},
	} {
		if _, err := contacts.Submit(ctx, in); !errors.Is(err, chapel_errors.ErrInvalidInput) {
			t.Fatalf("input %+v err = %v", in, err)
		}
	}

	if _, _, err := contacts.List(ctx, customer("cust-ada", "Ada"), 1, 10); !errors.Is(err, chapel_errors.ErrForbidden) {
		t.Fatalf("customer list err = %v", err)
	}
	items, total, err := contacts.List(ctx, admin, 1, 10)
	if err != nil || total != 1 || len(items) != 1 {
		t.Fatalf("admin list = %v, %d, %v", items, total, err)
	}
}

func TestReviews(t *testing.T) {
	reviews := services.NewReviewService(repository.NewReviewRepository(testutil.OpenDB(t)), nil)
	ctx := context.Background()
	ada := customer("cust-ada", "Ada")

	rv, err := reviews.Create(ctx, ada, 5, "  Kind and patient staff. ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rv.AuthorName != "Ada" || rv.Text != "Kind and patient staff." {
		t.Fatalf("unexpected review: %+v", rv)
	}

	clean, err := reviews.Create(ctx, ada, 4, "<b>Lovely</b> service &amp; flowers<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("create with markup: %v", err)
	}
	if clean.Text != "Lovely service & flowers" {
		t.Fatalf("markup not stripped: %q", clean.Text)
	}
	if _, err := reviews.Create(ctx, ada, 5, "<script>only script</script>"); !errors.Is(err, chapel_errors.ErrInvalidInput) {
		t.Fatalf("markup-only review err = %v", err)
	}

	for _, rating := range []int{0, 6} {
		if _, err := reviews.Create(ctx, ada, rating, "text"); !errors.Is(err, chapel_errors.ErrInvalidInput) {
			t.Fatalf("rating %d err = %v", rating, err)
		}
	}
	if _, err := reviews.Create(ctx, admin, 5, "self review"); !errors.Is(err, chapel_errors.ErrForbidden) {
		t.Fatalf("admin review err = %v", err)
	}

	if err := reviews.Delete(ctx, ada, rv.ID); !errors.Is(err, chapel_errors.ErrForbidden) {
		t.Fatalf("customer delete err = %v", err)
	}
	if err := reviews.Delete(ctx, admin, rv.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := reviews.Delete(ctx, admin, rv.ID); !errors.Is(err, chapel_errors.ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}

	_, total, err := reviews.List(ctx, 1, 10)
	if err != nil || total != 1 {
		t.Fatalf("list after delete = %d, %v", total, err)
	}
}
