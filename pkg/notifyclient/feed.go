package notifyclient

import (
	"context"
	"sync"
)

// Feed is a user's local notification list: one bulk fetch reconciled with
// the live stream. Items are deduplicated by id and kept newest first.
type Feed struct {
	client *Client

	mu       sync.Mutex
	items    []Notification
	onChange func([]Notification)

	streamDone chan struct{}
	streamErr  error
}

func NewFeed(c *Client) *Feed {
	return &Feed{client: c}
}

// OnChange registers fn to be called with a snapshot after every change.
func (f *Feed) OnChange(fn func(items []Notification)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Mount opens the live stream, then performs the bulk fetch. The stream
// runs until ctx is cancelled; Wait returns its outcome. A failed bulk fetch
// is returned but leaves the stream open.
func (f *Feed) Mount(ctx context.Context) error {
	f.mu.Lock()
	if f.streamDone != nil {
		f.mu.Unlock()
		return nil
	}
	f.streamDone = make(chan struct{})
	f.mu.Unlock()

	go func() {
		err := f.client.Stream(ctx, func(n Notification) { f.Receive(n) })
		f.mu.Lock()
		f.streamErr = err
		f.mu.Unlock()
		close(f.streamDone)
	}()
	return f.Load(ctx)
}

// Wait blocks until the stream started by Mount ends.
func (f *Feed) Wait() error {
	f.mu.Lock()
	done := f.streamDone
	f.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.streamErr
}

// Load replaces the list with the server's. Items already held locally but
// absent from the fetch (delivered by the stream after the server built its
// response) stay at the front.
func (f *Feed) Load(ctx context.Context) error {
	list, err := f.client.List(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	fetched := make(map[uint]struct{}, len(list))
	for _, n := range list {
		fetched[n.ID] = struct{}{}
	}
	merged := make([]Notification, 0, len(f.items)+len(list))
	for _, n := range f.items {
		if _, ok := fetched[n.ID]; !ok {
			merged = append(merged, n)
		}
	}
	f.items = append(merged, list...)
	f.notifyLocked()
	return nil
}

// Receive prepends a streamed notification unless its id is already held.
func (f *Feed) Receive(n Notification) bool {
	f.mu.Lock()
	for _, existing := range f.items {
		if existing.ID == n.ID {
			f.mu.Unlock()
			return false
		}
	}
	f.items = append([]Notification{n}, f.items...)
	f.notifyLocked()
	return true
}

// MarkRead flips the item locally, then persists it.
func (f *Feed) MarkRead(ctx context.Context, id uint) error {
	f.mu.Lock()
	changed := false
	for i := range f.items {
		if f.items[i].ID == id && !f.items[i].IsRead {
			f.items[i].IsRead = true
			changed = true
		}
	}
	if changed {
		f.notifyLocked()
	} else {
		f.mu.Unlock()
	}
	return f.client.MarkRead(ctx, id)
}

// MarkAllRead flips every item locally, then persists it.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	f.mu.Lock()
	for i := range f.items {
		f.items[i].IsRead = true
	}
	f.notifyLocked()
	_, err := f.client.MarkAllRead(ctx)
	return err
}

// Items returns a copy of the list, newest first.
func (f *Feed) Items() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.items...)
}

func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.items {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// notifyLocked releases f.mu and then calls the change callback.
func (f *Feed) notifyLocked() {
	fn := f.onChange
	snapshot := append([]Notification(nil), f.items...)
	f.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}
