package service

import (
	"context"
	"errors"
	"testing"

	"github.com/clipshare/api/internal/model"
)

type fakeSubscribers struct {
	byCreator map[string][]string
}

func (f *fakeSubscribers) Subscribers(ctx context.Context, creatorID string) ([]string, error) {
	return f.byCreator[creatorID], nil
}

type fakeNotifications struct {
	added  []model.Notification
	failAt int // fail the nth Add, 0 = never
}

func (f *fakeNotifications) Add(ctx context.Context, userID, message, link string) error {
	if f.failAt > 0 && len(f.added)+1 == f.failAt {
		return errors.New("storage down")
	}
	f.added = append(f.added, model.Notification{UserID: userID, Message: message, Link: link})
	return nil
}

func (f *fakeNotifications) ListForUser(ctx context.Context, userID string) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range f.added {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) Dismiss(ctx context.Context, userID, id string) error { return nil }

func TestFanOutOnePerSubscriber(t *testing.T) {
	subs := &fakeSubscribers{byCreator: map[string][]string{
		"creator-1": {"alice", "bob", "carol"},
	}}
	store := &fakeNotifications{}
	svc := NewNotificationService(subs, store)

	video := &model.Video{ID: "vid-123", Title: "My first clip", CreatorID: "creator-1"}
	count, err := svc.FanOutUploadNotifications(context.Background(), video)
	if err != nil {
		t.Fatalf("FanOutUploadNotifications: %v", err)
	}
	if count != 3 || len(store.added) != 3 {
		t.Fatalf("created %d notifications, want 3", len(store.added))
	}

	seen := map[string]bool{}
	for _, n := range store.added {
		seen[n.UserID] = true
		if n.Link != "/watch/vid-123" {
			t.Errorf("link = %q, want /watch/vid-123", n.Link)
		}
		if n.Message != "New video: My first clip" {
			t.Errorf("message = %q", n.Message)
		}
	}
	if !seen["alice"] || !seen["bob"] || !seen["carol"] {
		t.Errorf("recipients = %v, want all three subscribers", seen)
	}
}

func TestFanOutNoSubscribers(t *testing.T) {
	svc := NewNotificationService(&fakeSubscribers{byCreator: map[string][]string{}}, &fakeNotifications{})

	count, err := svc.FanOutUploadNotifications(context.Background(), &model.Video{ID: "v", CreatorID: "nobody"})
	if err != nil {
		t.Fatalf("FanOutUploadNotifications: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
}

func TestFanOutPartialFailureKeepsEarlierRecords(t *testing.T) {
	subs := &fakeSubscribers{byCreator: map[string][]string{
		"creator-1": {"alice", "bob", "carol"},
	}}
	store := &fakeNotifications{failAt: 3}
	svc := NewNotificationService(subs, store)

	count, err := svc.FanOutUploadNotifications(context.Background(), &model.Video{ID: "v", CreatorID: "creator-1"})
	if err == nil {
		t.Fatal("want error from failed Add")
	}
	if count != 2 || len(store.added) != 2 {
		t.Fatalf("created = %d, want the 2 records written before the failure", count)
	}
}
