package model

import (
	"context"
	"strings"
	"sync"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/directory"
	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/notify"
	"github.com/matheus3301/puthype/internal/profile"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/tui/client"
	"go.uber.org/zap"
)

// Stream keys. Starting a stream under a key replaces the previous one.
const (
	StreamConversations = "conversations"
	StreamThread        = "thread"
	StreamNotifications = "notifications"
)

// Thread is the open conversation as last delivered by the daemon.
type Thread struct {
	Peer        store.ContactRef
	Messages    []store.Message
	Suggestions []string
}

// ViewModel caches state from the daemon streams. Callbacks run on the
// stream goroutines; the app hops onto the UI goroutine itself.
type ViewModel struct {
	client *client.Client
	log    *zap.Logger

	mu            sync.RWMutex
	identity      *auth.Identity
	conversations conversation.State
	thread        Thread
	notifications []notify.Item
	status        *rpc.StatusResponse
	streams       map[string]context.CancelFunc
}

// NewViewModel creates a view model on top of the daemon client.
func NewViewModel(c *client.Client, log *zap.Logger) *ViewModel {
	return &ViewModel{
		client:  c,
		log:     log.Named("viewmodel"),
		streams: make(map[string]context.CancelFunc),
	}
}

// Client returns the daemon client.
func (vm *ViewModel) Client() *client.Client { return vm.client }

// SetIdentity records the signed-in identity. Signing out stops every
// stream and drops cached state.
func (vm *ViewModel) SetIdentity(id *auth.Identity) {
	if id == nil {
		vm.StopAll()
	}
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.identity = id
	if id == nil {
		vm.conversations = conversation.State{}
		vm.thread = Thread{}
		vm.notifications = nil
	}
}

// Identity returns the signed-in identity, or nil.
func (vm *ViewModel) Identity() *auth.Identity {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.identity
}

func (vm *ViewModel) me() string {
	if id := vm.Identity(); id != nil {
		return id.UID
	}
	return ""
}

// start runs fn under key with a fresh context, cancelling whatever ran
// there before.
func (vm *ViewModel) start(key string, fn func(ctx context.Context) error, onErr func(error)) {
	ctx, cancel := context.WithCancel(context.Background())
	vm.mu.Lock()
	if prev, ok := vm.streams[key]; ok {
		prev()
	}
	vm.streams[key] = cancel
	vm.mu.Unlock()

	go func() {
		err := fn(ctx)
		if err != nil && ctx.Err() == nil {
			vm.log.Warn("stream ended", zap.String("stream", key), zap.Error(err))
			if onErr != nil {
				onErr(err)
			}
		}
	}()
}

// Stop cancels the stream under key.
func (vm *ViewModel) Stop(key string) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if cancel, ok := vm.streams[key]; ok {
		cancel()
		delete(vm.streams, key)
	}
}

// StopAll cancels every stream.
func (vm *ViewModel) StopAll() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for key, cancel := range vm.streams {
		cancel()
		delete(vm.streams, key)
	}
}

// WatchConversations follows the conversation list.
func (vm *ViewModel) WatchConversations(onUpdate func(conversation.State), onErr func(error)) {
	vm.start(StreamConversations, func(ctx context.Context) error {
		stream, err := vm.client.Conversations.Watch(ctx)
		if err != nil {
			return err
		}
		return pump(ctx, stream, func(st *rpc.ConversationState) {
			vm.mu.Lock()
			vm.conversations = st.State
			vm.mu.Unlock()
			onUpdate(st.State)
		})
	}, onErr)
}

// Conversations returns the last delivered conversation list.
func (vm *ViewModel) Conversations() conversation.State {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.conversations
}

// WatchThread follows the thread with peer. Incoming unread messages are
// marked read as they arrive, since the thread is on screen.
func (vm *ViewModel) WatchThread(peer store.ContactRef, onUpdate func(Thread), onErr func(error)) {
	vm.mu.Lock()
	vm.thread = Thread{Peer: peer}
	vm.mu.Unlock()

	vm.start(StreamThread, func(ctx context.Context) error {
		stream, err := vm.client.Threads.Watch(ctx, &rpc.ThreadRequest{Peer: peer.ID})
		if err != nil {
			return err
		}
		return pump(ctx, stream, func(snap *rpc.ThreadSnapshot) {
			th := Thread{Peer: peer, Messages: snap.Messages, Suggestions: snap.Suggestions}
			vm.mu.Lock()
			vm.thread = th
			vm.mu.Unlock()
			onUpdate(th)
			if HasUnreadFrom(snap.Messages, vm.me(), peer.ID) {
				if _, err := vm.client.Threads.MarkRead(ctx, &rpc.ThreadRequest{Peer: peer.ID}); err != nil && ctx.Err() == nil {
					vm.log.Warn("mark read", zap.String("peer", peer.ID), zap.Error(err))
				}
			}
		})
	}, onErr)
}

// Thread returns the open thread.
func (vm *ViewModel) Thread() Thread {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.thread
}

// CloseThread stops following the open thread.
func (vm *ViewModel) CloseThread() {
	vm.Stop(StreamThread)
	vm.mu.Lock()
	vm.thread = Thread{}
	vm.mu.Unlock()
}

// WatchNotifications follows the notification list.
func (vm *ViewModel) WatchNotifications(onUpdate func([]notify.Item), onErr func(error)) {
	vm.start(StreamNotifications, func(ctx context.Context) error {
		stream, err := vm.client.Notifications.Watch(ctx)
		if err != nil {
			return err
		}
		return pump(ctx, stream, func(l *rpc.NotificationList) {
			vm.mu.Lock()
			vm.notifications = l.Items
			vm.mu.Unlock()
			onUpdate(l.Items)
		})
	}, onErr)
}

// Notifications returns the last delivered notifications.
func (vm *ViewModel) Notifications() []notify.Item {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.notifications
}

// UnreadNotifications counts notifications not yet read.
func (vm *ViewModel) UnreadNotifications() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	n := 0
	for _, it := range vm.notifications {
		if !it.Read {
			n++
		}
	}
	return n
}

// LoadStatus fetches the daemon status. A failed call clears it.
func (vm *ViewModel) LoadStatus(ctx context.Context) (*rpc.StatusResponse, error) {
	st, err := vm.client.Daemon.GetStatus(ctx)
	vm.mu.Lock()
	vm.status = st
	vm.mu.Unlock()
	return st, err
}

// Status returns the last fetched daemon status, or nil.
func (vm *ViewModel) Status() *rpc.StatusResponse {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}

// Send posts text to the open thread.
func (vm *ViewModel) Send(ctx context.Context, text string) error {
	peer := vm.Thread().Peer.ID
	_, err := vm.client.Threads.Send(ctx, &rpc.SendRequest{To: peer, Text: text})
	return err
}

// ClearHistory hides the open thread for the signed-in user.
func (vm *ViewModel) ClearHistory(ctx context.Context) (*rpc.ClearHistoryResponse, error) {
	return vm.client.Threads.ClearHistory(ctx, &rpc.ThreadRequest{Peer: vm.Thread().Peer.ID})
}

// ToggleFavorite flips the favorite flag of contactID.
func (vm *ViewModel) ToggleFavorite(ctx context.Context, contactID string) (bool, error) {
	resp, err := vm.client.Conversations.ToggleFavorite(ctx, &rpc.ContactRequest{ContactID: contactID})
	if err != nil {
		return false, err
	}
	return resp.Favorite, nil
}

// MoveToTrash trashes the conversation with contactID.
func (vm *ViewModel) MoveToTrash(ctx context.Context, contactID string) error {
	_, err := vm.client.Conversations.MoveToTrash(ctx, &rpc.ContactRequest{ContactID: contactID})
	return err
}

// RestoreFromTrash brings the conversation with contactID back.
func (vm *ViewModel) RestoreFromTrash(ctx context.Context, contactID string) error {
	_, err := vm.client.Conversations.RestoreFromTrash(ctx, &rpc.ContactRequest{ContactID: contactID})
	return err
}

// DeleteConversation removes a trashed conversation for good.
func (vm *ViewModel) DeleteConversation(ctx context.Context, contactID string) (int, error) {
	resp, err := vm.client.Conversations.DeleteConversation(ctx, &rpc.ContactRequest{ContactID: contactID})
	if err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// Search runs a directory prefix search.
func (vm *ViewModel) Search(ctx context.Context, prefix string) ([]directory.Result, error) {
	resp, err := vm.client.Directory.Search(ctx, &rpc.SearchRequest{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// AddContact adds target to the signed-in user's contacts.
func (vm *ViewModel) AddContact(ctx context.Context, target string) (bool, error) {
	resp, err := vm.client.Directory.AddContact(ctx, &rpc.AddContactRequest{Target: target})
	if err != nil {
		return false, err
	}
	return resp.Added, nil
}

// Feed loads one page of the networking feed.
func (vm *ViewModel) Feed(ctx context.Context, tab discovery.Tab, selected string) (*rpc.FeedResponse, error) {
	return vm.client.Discovery.Feed(ctx, &rpc.FeedRequest{Tab: tab, Selected: selected})
}

// Event fetches one event.
func (vm *ViewModel) Event(ctx context.Context, id string) (*store.Event, error) {
	resp, err := vm.client.Discovery.GetEvent(ctx, &rpc.GetEventRequest{ID: id})
	if err != nil {
		return nil, err
	}
	return &resp.Event, nil
}

// CreateEvent publishes a new event.
func (vm *ViewModel) CreateEvent(ctx context.Context, in discovery.EventInput) (*store.Event, error) {
	resp, err := vm.client.Discovery.CreateEvent(ctx, &rpc.CreateEventRequest{Event: in})
	if err != nil {
		return nil, err
	}
	return &resp.Event, nil
}

// CreateCommunity publishes a new community with an optional image.
func (vm *ViewModel) CreateCommunity(ctx context.Context, in discovery.CommunityInput, image []byte) (*store.Community, error) {
	resp, err := vm.client.Discovery.CreateCommunity(ctx, &rpc.CreateCommunityRequest{Community: in, Image: image})
	if err != nil {
		return nil, err
	}
	return &resp.Community, nil
}

// MarkNotificationRead marks one notification read.
func (vm *ViewModel) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := vm.client.Notifications.MarkRead(ctx, &rpc.NotificationRequest{ID: id})
	return err
}

// Profile loads a profile; an empty uid loads the signed-in user's.
func (vm *ViewModel) Profile(ctx context.Context, uid string) (*profile.View, error) {
	resp, err := vm.client.Profiles.Get(ctx, &rpc.GetProfileRequest{UID: uid})
	if err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

// UpdateProfile applies a profile edit.
func (vm *ViewModel) UpdateProfile(ctx context.Context, e profile.Edit) (*profile.View, error) {
	resp, err := vm.client.Profiles.Update(ctx, &rpc.UpdateProfileRequest{Edit: e})
	if err != nil {
		return nil, err
	}
	return &resp.Profile, nil
}

// UpdatePicture uploads a new profile picture.
func (vm *ViewModel) UpdatePicture(ctx context.Context, image []byte) (string, error) {
	resp, err := vm.client.Profiles.UpdatePicture(ctx, &rpc.UpdatePictureRequest{Image: image})
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

// HasUnreadFrom reports whether msgs hold an unread message from peer to me.
func HasUnreadFrom(msgs []store.Message, me, peer string) bool {
	for _, m := range msgs {
		if !m.Read && m.SenderID == peer && m.ReceiverID == me {
			return true
		}
	}
	return false
}

// FilterContacts keeps the contacts whose name or username contains q,
// ignoring case.
func FilterContacts(cs []conversation.Contact, q string) []conversation.Contact {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return cs
	}
	var out []conversation.Contact
	for _, c := range cs {
		if strings.Contains(strings.ToLower(c.FullName), q) || strings.Contains(strings.ToLower(c.Username), q) {
			out = append(out, c)
		}
	}
	return out
}

// FindContact looks a contact up across every bucket of st: an exact
// username first, then the first name or username containing q.
func FindContact(st conversation.State, q string) (conversation.Contact, bool) {
	q = strings.TrimPrefix(strings.TrimSpace(q), "@")
	all := make([]conversation.Contact, 0, len(st.Added)+len(st.Unadded)+len(st.Trash))
	all = append(all, st.Added...)
	all = append(all, st.Unadded...)
	all = append(all, st.Trash...)
	for _, c := range all {
		if c.Username == q {
			return c, true
		}
	}
	if found := FilterContacts(all, q); len(found) > 0 && q != "" {
		return found[0], true
	}
	return conversation.Contact{}, false
}

// NextTab steps through the conversation tabs, wrapping at both ends.
func NextTab(t conversation.Tab, delta int) conversation.Tab {
	n := len(conversation.Tabs)
	return conversation.Tabs[((int(t)+delta)%n+n)%n]
}
