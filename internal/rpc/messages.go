package rpc

import (
	"time"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/directory"
	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/notify"
	"github.com/matheus3301/puthype/internal/profile"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/store"
)

type Empty struct{}

// Auth

type RegisterRequest struct {
	Form registration.Form `json:"form"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	Session auth.Session `json:"session"`
	// Reconciled is set when sign-in created a missing profile.
	Reconciled bool `json:"reconciled,omitempty"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type ConfirmPasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// AuthState is one delivery of WatchAuthState. Identity is nil once signed out.
type AuthState struct {
	Identity *auth.Identity `json:"identity"`
}

// Conversations

type ConversationState struct {
	State conversation.State `json:"state"`
}

type ContactRequest struct {
	ContactID string `json:"contactId"`
}

type ToggleFavoriteResponse struct {
	Favorite bool `json:"favorite"`
}

type DeleteConversationResponse struct {
	Deleted int `json:"deleted"`
}

// Threads

type SendRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type MessageResponse struct {
	Message store.Message `json:"message"`
}

type ThreadRequest struct {
	Peer string `json:"peer"`
}

type ThreadSnapshot struct {
	Messages []store.Message `json:"messages"`
	// Suggestions are the quick replies offered while the thread is empty.
	Suggestions []string `json:"suggestions,omitempty"`
}

type ClearHistoryResponse struct {
	Hidden  int `json:"hidden"`
	Deleted int `json:"deleted"`
}

type MarkReadResponse struct {
	Updated int `json:"updated"`
}

// Directory

type SearchRequest struct {
	Prefix string `json:"prefix"`
}

type SearchResponse struct {
	Results []directory.Result `json:"results"`
}

type AddContactRequest struct {
	Target string `json:"target"`
}

type AddContactResponse struct {
	Added bool `json:"added"`
}

// Discovery

type FeedRequest struct {
	Tab      discovery.Tab `json:"tab"`
	Selected string        `json:"selected,omitempty"`
}

type FeedResponse struct {
	Feed               discovery.Feed `json:"feed"`
	Interests          []string       `json:"interests"`
	CanCreateCommunity bool           `json:"canCreateCommunity"`
}

type CreateEventRequest struct {
	Event discovery.EventInput `json:"event"`
}

type EventResponse struct {
	Event store.Event `json:"event"`
}

type GetEventRequest struct {
	ID string `json:"id"`
}

type CreateCommunityRequest struct {
	Community discovery.CommunityInput `json:"community"`
	Image     []byte                   `json:"image,omitempty"`
}

type CommunityResponse struct {
	Community store.Community `json:"community"`
}

// Notifications

type NotificationList struct {
	Items []notify.Item `json:"items"`
}

type NotificationRequest struct {
	ID string `json:"id"`
}

// Profiles

type GetProfileRequest struct {
	// UID defaults to the caller.
	UID string `json:"uid,omitempty"`
}

type ProfileResponse struct {
	Profile profile.View `json:"profile"`
}

type UpdateProfileRequest struct {
	Edit profile.Edit `json:"edit"`
}

type UpdatePictureRequest struct {
	Image []byte `json:"image"`
}

type UpdatePictureResponse struct {
	URL string `json:"url"`
}

// Daemon

type StatusResponse struct {
	State       string    `json:"state"`
	Since       time.Time `json:"since"`
	UptimeMs    int64     `json:"uptimeMs"`
	DataDir     string    `json:"dataDir"`
	BlobBackend string    `json:"blobBackend"`
	Users       int       `json:"users"`
	Messages    int       `json:"messages"`
	Subscribers int       `json:"subscribers"`
}
