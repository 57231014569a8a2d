package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// Service names.
const (
	AuthService          = "hype.v1.Auth"
	ConversationsService = "hype.v1.Conversations"
	ThreadsService       = "hype.v1.Threads"
	DirectoryService     = "hype.v1.Directory"
	DiscoveryService     = "hype.v1.Discovery"
	NotificationsService = "hype.v1.Notifications"
	ProfilesService      = "hype.v1.Profiles"
	DaemonService        = "hype.v1.Daemon"
)

func method(service, name string) string { return "/" + service + "/" + name }

// Methods callable without an access token. SignOut checks the token itself
// so expired sessions can still be revoked.
var publicMethods = map[string]bool{
	method(AuthService, "Register"):             true,
	method(AuthService, "SignIn"):               true,
	method(AuthService, "SendPasswordReset"):    true,
	method(AuthService, "ConfirmPasswordReset"): true,
	method(AuthService, "SignOut"):              true,
	method(DaemonService, "GetStatus"):          true,
}

// IsPublic reports whether fullMethod skips token verification.
func IsPublic(fullMethod string) bool { return publicMethods[fullMethod] }

// ---- Auth ----

type AuthServer interface {
	Register(context.Context, *RegisterRequest) (*SessionResponse, error)
	SignIn(context.Context, *SignInRequest) (*SessionResponse, error)
	SendPasswordReset(context.Context, *PasswordResetRequest) (*Empty, error)
	ConfirmPasswordReset(context.Context, *ConfirmPasswordResetRequest) (*Empty, error)
	SignOut(context.Context, *Empty) (*Empty, error)
	WatchAuthState(*Empty, grpc.ServerStreamingServer[AuthState]) error
}

var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthService,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AuthService, "Register", AuthServer.Register),
		unary(AuthService, "SignIn", AuthServer.SignIn),
		unary(AuthService, "SendPasswordReset", AuthServer.SendPasswordReset),
		unary(AuthService, "ConfirmPasswordReset", AuthServer.ConfirmPasswordReset),
		unary(AuthService, "SignOut", AuthServer.SignOut),
	},
	Streams: []grpc.StreamDesc{
		serverStream("WatchAuthState", AuthServer.WatchAuthState),
	},
}

func RegisterAuthServer(s grpc.ServiceRegistrar, srv AuthServer) {
	s.RegisterService(&AuthServiceDesc, srv)
}

type AuthClient struct{ cc grpc.ClientConnInterface }

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient { return &AuthClient{cc: cc} }

func (c *AuthClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, method(AuthService, "Register"), in, opts)
}

func (c *AuthClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, method(AuthService, "SignIn"), in, opts)
}

func (c *AuthClient) SendPasswordReset(ctx context.Context, in *PasswordResetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, method(AuthService, "SendPasswordReset"), in, opts)
}

func (c *AuthClient) ConfirmPasswordReset(ctx context.Context, in *ConfirmPasswordResetRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, method(AuthService, "ConfirmPasswordReset"), in, opts)
}

func (c *AuthClient) SignOut(ctx context.Context, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, method(AuthService, "SignOut"), &Empty{}, opts)
}

func (c *AuthClient) WatchAuthState(ctx context.Context, opts ...grpc.CallOption) (*Stream[AuthState], error) {
	return openStream[Empty, AuthState](ctx, c.cc, &AuthServiceDesc.Streams[0], method(AuthService, "WatchAuthState"), &Empty{}, opts)
}

// ---- Conversations ----

type ConversationsServer interface {
	Watch(*Empty, grpc.ServerStreamingServer[ConversationState]) error
	ToggleFavorite(context.Context, *ContactRequest) (*ToggleFavoriteResponse, error)
	MoveToTrash(context.Context, *ContactRequest) (*Empty, error)
	RestoreFromTrash(context.Context, *ContactRequest) (*Empty, error)
	DeleteConversation(context.Context, *ContactRequest) (*DeleteConversationResponse, error)
}

var ConversationsServiceDesc = grpc.ServiceDesc{
	ServiceName: ConversationsService,
	HandlerType: (*ConversationsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ConversationsService, "ToggleFavorite", ConversationsServer.ToggleFavorite),
		unary(ConversationsService, "MoveToTrash", ConversationsServer.MoveToTrash),
		unary(ConversationsService, "RestoreFromTrash", ConversationsServer.RestoreFromTrash),
		unary(ConversationsService, "DeleteConversation", ConversationsServer.DeleteConversation),
	},
	Streams: []grpc.StreamDesc{
		serverStream("Watch", ConversationsServer.Watch),
	},
}

func RegisterConversationsServer(s grpc.ServiceRegistrar, srv ConversationsServer) {
	s.RegisterService(&ConversationsServiceDesc, srv)
}

type ConversationsClient struct{ cc grpc.ClientConnInterface }

func NewConversationsClient(cc grpc.ClientConnInterface) *ConversationsClient {
	return &ConversationsClient{cc: cc}
}

func (c *ConversationsClient) Watch(ctx context.Context, opts ...grpc.CallOption) (*Stream[ConversationState], error) {
	return openStream[Empty, ConversationState](ctx, c.cc, &ConversationsServiceDesc.Streams[0], method(ConversationsService, "Watch"), &Empty{}, opts)
}

func (c *ConversationsClient) ToggleFavorite(ctx context.Context, in *ContactRequest, opts ...grpc.CallOption) (*ToggleFavoriteResponse, error) {
	return invoke[ToggleFavoriteResponse](ctx, c.cc, method(ConversationsService, "ToggleFavorite"), in, opts)
}

func (c *ConversationsClient) MoveToTrash(ctx context.Context, in *ContactRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, method(ConversationsService, "MoveToTrash"), in, opts)
}

func (c *ConversationsClient) RestoreFromTrash(ctx context.Context, in *ContactRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, method(ConversationsService, "RestoreFromTrash"), in, opts)
}

func (c *ConversationsClient) DeleteConversation(ctx context.Context, in *ContactRequest, opts ...grpc.CallOption) (*DeleteConversationResponse, error) {
	return invoke[DeleteConversationResponse](ctx, c.cc, method(ConversationsService, "DeleteConversation"), in, opts)
}

// ---- Threads ----

type ThreadsServer interface {
	Send(context.Context, *SendRequest) (*MessageResponse, error)
	Watch(*ThreadRequest, grpc.ServerStreamingServer[ThreadSnapshot]) error
	ClearHistory(context.Context, *ThreadRequest) (*ClearHistoryResponse, error)
	MarkRead(context.Context, *ThreadRequest) (*MarkReadResponse, error)
}

var ThreadsServiceDesc = grpc.ServiceDesc{
	ServiceName: ThreadsService,
	HandlerType: (*ThreadsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ThreadsService, "Send", ThreadsServer.Send),
		unary(ThreadsService, "ClearHistory", ThreadsServer.ClearHistory),
		unary(ThreadsService, "MarkRead", ThreadsServer.MarkRead),
	},
	Streams: []grpc.StreamDesc{
		serverStream("Watch", ThreadsServer.Watch),
	},
}

func RegisterThreadsServer(s grpc.ServiceRegistrar, srv ThreadsServer) {
	s.RegisterService(&ThreadsServiceDesc, srv)
}

type ThreadsClient struct{ cc grpc.ClientConnInterface }

func NewThreadsClient(cc grpc.ClientConnInterface) *ThreadsClient { return &ThreadsClient{cc: cc} }

func (c *ThreadsClient) Send(ctx context.Context, in *SendRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, method(ThreadsService, "Send"), in, opts)
}

func (c *ThreadsClient) Watch(ctx context.Context, in *ThreadRequest, opts ...grpc.CallOption) (*Stream[ThreadSnapshot], error) {
	return openStream[ThreadRequest, ThreadSnapshot](ctx, c.cc, &ThreadsServiceDesc.Streams[0], method(ThreadsService, "Watch"), in, opts)
}

func (c *ThreadsClient) ClearHistory(ctx context.Context, in *ThreadRequest, opts ...grpc.CallOption) (*ClearHistoryResponse, error) {
	return invoke[ClearHistoryResponse](ctx, c.cc, method(ThreadsService, "ClearHistory"), in, opts)
}

func (c *ThreadsClient) MarkRead(ctx context.Context, in *ThreadRequest, opts ...grpc.CallOption) (*MarkReadResponse, error) {
	return invoke[MarkReadResponse](ctx, c.cc, method(ThreadsService, "MarkRead"), in, opts)
}

// ---- Directory ----

type DirectoryServer interface {
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	AddContact(context.Context, *AddContactRequest) (*AddContactResponse, error)
}

var DirectoryServiceDesc = grpc.ServiceDesc{
	ServiceName: DirectoryService,
	HandlerType: (*DirectoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(DirectoryService, "Search", DirectoryServer.Search),
		unary(DirectoryService, "AddContact", DirectoryServer.AddContact),
	},
}

func RegisterDirectoryServer(s grpc.ServiceRegistrar, srv DirectoryServer) {
	s.RegisterService(&DirectoryServiceDesc, srv)
}

type DirectoryClient struct{ cc grpc.ClientConnInterface }

func NewDirectoryClient(cc grpc.ClientConnInterface) *DirectoryClient { return &DirectoryClient{cc: cc} }

func (c *DirectoryClient) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, c.cc, method(DirectoryService, "Search"), in, opts)
}

func (c *DirectoryClient) AddContact(ctx context.Context, in *AddContactRequest, opts ...grpc.CallOption) (*AddContactResponse, error) {
	return invoke[AddContactResponse](ctx, c.cc, method(DirectoryService, "AddContact"), in, opts)
}

// ---- Discovery ----

type DiscoveryServer interface {
	Feed(context.Context, *FeedRequest) (*FeedResponse, error)
	CreateEvent(context.Context, *CreateEventRequest) (*EventResponse, error)
	GetEvent(context.Context, *GetEventRequest) (*EventResponse, error)
	CreateCommunity(context.Context, *CreateCommunityRequest) (*CommunityResponse, error)
}

var DiscoveryServiceDesc = grpc.ServiceDesc{
	ServiceName: DiscoveryService,
	HandlerType: (*DiscoveryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(DiscoveryService, "Feed", DiscoveryServer.Feed),
		unary(DiscoveryService, "CreateEvent", DiscoveryServer.CreateEvent),
		unary(DiscoveryService, "GetEvent", DiscoveryServer.GetEvent),
		unary(DiscoveryService, "CreateCommunity", DiscoveryServer.CreateCommunity),
	},
}

func RegisterDiscoveryServer(s grpc.ServiceRegistrar, srv DiscoveryServer) {
	s.RegisterService(&DiscoveryServiceDesc, srv)
}

type DiscoveryClient struct{ cc grpc.ClientConnInterface }

func NewDiscoveryClient(cc grpc.ClientConnInterface) *DiscoveryClient { return &DiscoveryClient{cc: cc} }

func (c *DiscoveryClient) Feed(ctx context.Context, in *FeedRequest, opts ...grpc.CallOption) (*FeedResponse, error) {
	return invoke[FeedResponse](ctx, c.cc, method(DiscoveryService, "Feed"), in, opts)
}

func (c *DiscoveryClient) CreateEvent(ctx context.Context, in *CreateEventRequest, opts ...grpc.CallOption) (*EventResponse, error) {
	return invoke[EventResponse](ctx, c.cc, method(DiscoveryService, "CreateEvent"), in, opts)
}

func (c *DiscoveryClient) GetEvent(ctx context.Context, in *GetEventRequest, opts ...grpc.CallOption) (*EventResponse, error) {
	return invoke[EventResponse](ctx, c.cc, method(DiscoveryService, "GetEvent"), in, opts)
}

func (c *DiscoveryClient) CreateCommunity(ctx context.Context, in *CreateCommunityRequest, opts ...grpc.CallOption) (*CommunityResponse, error) {
	return invoke[CommunityResponse](ctx, c.cc, method(DiscoveryService, "CreateCommunity"), in, opts)
}

// ---- Notifications ----

type NotificationsServer interface {
	Watch(*Empty, grpc.ServerStreamingServer[NotificationList]) error
	MarkRead(context.Context, *NotificationRequest) (*Empty, error)
}

var NotificationsServiceDesc = grpc.ServiceDesc{
	ServiceName: NotificationsService,
	HandlerType: (*NotificationsServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(NotificationsService, "MarkRead", NotificationsServer.MarkRead),
	},
	Streams: []grpc.StreamDesc{
		serverStream("Watch", NotificationsServer.Watch),
	},
}

func RegisterNotificationsServer(s grpc.ServiceRegistrar, srv NotificationsServer) {
	s.RegisterService(&NotificationsServiceDesc, srv)
}

type NotificationsClient struct{ cc grpc.ClientConnInterface }

func NewNotificationsClient(cc grpc.ClientConnInterface) *NotificationsClient {
	return &NotificationsClient{cc: cc}
}

func (c *NotificationsClient) Watch(ctx context.Context, opts ...grpc.CallOption) (*Stream[NotificationList], error) {
	return openStream[Empty, NotificationList](ctx, c.cc, &NotificationsServiceDesc.Streams[0], method(NotificationsService, "Watch"), &Empty{}, opts)
}

func (c *NotificationsClient) MarkRead(ctx context.Context, in *NotificationRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, method(NotificationsService, "MarkRead"), in, opts)
}

// ---- Profiles ----

type ProfilesServer interface {
	Get(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	Update(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	UpdatePicture(context.Context, *UpdatePictureRequest) (*UpdatePictureResponse, error)
}

var ProfilesServiceDesc = grpc.ServiceDesc{
	ServiceName: ProfilesService,
	HandlerType: (*ProfilesServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ProfilesService, "Get", ProfilesServer.Get),
		unary(ProfilesService, "Update", ProfilesServer.Update),
		unary(ProfilesService, "UpdatePicture", ProfilesServer.UpdatePicture),
	},
}

func RegisterProfilesServer(s grpc.ServiceRegistrar, srv ProfilesServer) {
	s.RegisterService(&ProfilesServiceDesc, srv)
}

type ProfilesClient struct{ cc grpc.ClientConnInterface }

func NewProfilesClient(cc grpc.ClientConnInterface) *ProfilesClient { return &ProfilesClient{cc: cc} }

func (c *ProfilesClient) Get(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, method(ProfilesService, "Get"), in, opts)
}

func (c *ProfilesClient) Update(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, method(ProfilesService, "Update"), in, opts)
}

func (c *ProfilesClient) UpdatePicture(ctx context.Context, in *UpdatePictureRequest, opts ...grpc.CallOption) (*UpdatePictureResponse, error) {
	return invoke[UpdatePictureResponse](ctx, c.cc, method(ProfilesService, "UpdatePicture"), in, opts)
}

// ---- Daemon ----

type DaemonServer interface {
	GetStatus(context.Context, *Empty) (*StatusResponse, error)
}

var DaemonServiceDesc = grpc.ServiceDesc{
	ServiceName: DaemonService,
	HandlerType: (*DaemonServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(DaemonService, "GetStatus", DaemonServer.GetStatus),
	},
}

func RegisterDaemonServer(s grpc.ServiceRegistrar, srv DaemonServer) {
	s.RegisterService(&DaemonServiceDesc, srv)
}

type DaemonClient struct{ cc grpc.ClientConnInterface }

func NewDaemonClient(cc grpc.ClientConnInterface) *DaemonClient { return &DaemonClient{cc: cc} }

func (c *DaemonClient) GetStatus(ctx context.Context, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, method(DaemonService, "GetStatus"), &Empty{}, opts)
}
