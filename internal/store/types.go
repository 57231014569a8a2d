package store

// Collection names.
const (
	Users         = "users"
	Messages      = "messages"
	Notifications = "notifications"
	Events        = "eventos"
	Communities   = "comunidades"
)

// User document fields addressed by partial updates and queries.
const (
	FieldFullName       = "fullName"
	FieldPhone          = "phone"
	FieldUsername       = "username"
	FieldInterests      = "gostos"
	FieldAvatar         = "avatar"
	FieldAddedUsers     = "addedUsers"
	FieldFavorites      = "favorites"
	FieldTrash          = "trash"
	FieldProfilePicture = "profilePicture"
)

// Message and notification fields.
const (
	FieldParticipants = "participants"
	FieldClearedBy    = "clearedBy"
	FieldSenderID     = "senderId"
	FieldReceiverID   = "receiverId"
	FieldTimestamp    = "timestamp"
	FieldRead         = "read"
	FieldToUserID     = "toUserId"
	FieldTag          = "gosto"
)

// Plans that unlock community creation.
const (
	PlanBasic    = "básico"
	PlanAdvanced = "avançado"
	PlanPremium  = "premium"
)

// Event privacy values.
const (
	Public  = "publico"
	Private = "privado"
)

// Interests is the fixed list of interest tags.
var Interests = []string{
	"Cursos",
	"Podcasts",
	"Vendas",
	"Blogs",
	"Videogames",
	"Moda",
	"Programação",
	"Marketing Digital",
}

// IsInterest reports whether tag is one of Interests.
func IsInterest(tag string) bool {
	for _, t := range Interests {
		if t == tag {
			return true
		}
	}
	return false
}

// ContactRef is the denormalized copy of a contact kept in addedUsers.
type ContactRef struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Avatar   int    `json:"avatar"`
}

// TrashEntry marks a contact's conversation as trashed.
type TrashEntry struct {
	ID        string `json:"id"`
	TrashedAt int64  `json:"trashedAt"`
}

// User is a profile document, keyed by the account uid.
type User struct {
	ID             string       `json:"id"`
	FullName       string       `json:"fullName"`
	Phone          string       `json:"phone"`
	Email          string       `json:"email"`
	Username       string       `json:"username"`
	Interests      []string     `json:"gostos"`
	Avatar         int          `json:"avatar"`
	Plan           string       `json:"plano"`
	AddedUsers     []ContactRef `json:"addedUsers"`
	Favorites      []string     `json:"favorites"`
	Trash          []TrashEntry `json:"trash"`
	ProfilePicture string       `json:"profilePicture,omitempty"`
	Creator        bool         `json:"criador"`
	Status         string       `json:"status,omitempty"`
	CreatedAt      int64        `json:"createdAt"`
}

// Ref returns the denormalized contact entry for u.
func (u *User) Ref() ContactRef {
	return ContactRef{ID: u.ID, FullName: u.FullName, Username: u.Username, Avatar: u.Avatar}
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// HasContact reports whether id is in addedUsers.
func (u *User) HasContact(id string) bool {
	for _, c := range u.AddedUsers {
		if c.ID == id {
			return true
		}
	}
	return false
}

// IsFavorite reports whether id is in favorites.
func (u *User) IsFavorite(id string) bool {
	for _, f := range u.Favorites {
		if f == id {
			return true
		}
	}
	return false
}

// TrashedEntry returns the trash entry for id, if any.
func (u *User) TrashedEntry(id string) (TrashEntry, bool) {
	for _, e := range u.Trash {
		if e.ID == id {
			return e, true
		}
	}
	return TrashEntry{}, false
}

// Message is a direct message between two users.
type Message struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	SenderID     string   `json:"senderId"`
	ReceiverID   string   `json:"receiverId"`
	Participants []string `json:"participants"`
	Timestamp    int64    `json:"timestamp"`
	ClearedBy    []string `json:"clearedBy"`
	Read         bool     `json:"read"`
}

// ClearedFor reports whether uid has cleared the message.
func (m *Message) ClearedFor(uid string) bool {
	for _, c := range m.ClearedBy {
		if c == uid {
			return true
		}
	}
	return false
}

// Peer returns the other participant from uid's point of view.
func (m *Message) Peer(uid string) string {
	if m.SenderID == uid {
		return m.ReceiverID
	}
	return m.SenderID
}

// Notification is shown in the recipient's notification list.
type Notification struct {
	ID         string `json:"id"`
	ToUserID   string `json:"toUserId"`
	FromUserID string `json:"fromUserId"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
	Read       bool   `json:"read"`
}

// Event is a scheduled event listed in the discovery feed.
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"titulo"`
	Description string `json:"descricao"`
	ScheduledAt int64  `json:"dataHora"`
	Location    string `json:"localizacao"`
	VideoLink   string `json:"videoLink,omitempty"`
	Tag         string `json:"gosto"`
	OwnerID     string `json:"usuarioId"`
	CreatedAt   int64  `json:"dataCriacao"`
	Privacy     string `json:"privacidade"`
	InviteCode  string `json:"senhaConvite,omitempty"`
	Image       string `json:"imagem"`
}

// Community is a group listed in the discovery feed.
type Community struct {
	ID          string `json:"id"`
	Name        string `json:"nome"`
	Description string `json:"descricao"`
	Image       string `json:"imagem,omitempty"`
	Tag         string `json:"gosto"`
	CreatorID   string `json:"criador"`
	CreatedAt   int64  `json:"criacao"`
}
