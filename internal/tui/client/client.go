package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/session"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client wraps the gRPC connection to hyped and the signed-in credentials
// of one client session.
type Client struct {
	conn      *grpc.ClientConn
	credsPath string

	mu        sync.Mutex
	creds     *session.Credentials
	listeners map[int]func(*auth.Identity)
	nextID    int
	stopWatch context.CancelFunc

	Auth          *rpc.AuthClient
	Conversations *rpc.ConversationsClient
	Threads       *rpc.ThreadsClient
	Directory     *rpc.DirectoryClient
	Discovery     *rpc.DiscoveryClient
	Notifications *rpc.NotificationsClient
	Profiles      *rpc.ProfilesClient
	Daemon        *rpc.DaemonClient
}

// New dials the daemon's Unix domain socket and loads the session
// credentials stored at credsPath, if any.
func New(socketPath, credsPath string) (*Client, error) {
	creds, err := session.ReadCredentials(credsPath)
	if err != nil {
		return nil, err
	}
	c := &Client{
		credsPath: credsPath,
		creds:     creds,
		listeners: make(map[int]func(*auth.Identity)),
	}

	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(c.unaryToken),
		grpc.WithChainStreamInterceptor(c.streamToken),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	c.conn = conn
	c.Auth = rpc.NewAuthClient(conn)
	c.Conversations = rpc.NewConversationsClient(conn)
	c.Threads = rpc.NewThreadsClient(conn)
	c.Directory = rpc.NewDirectoryClient(conn)
	c.Discovery = rpc.NewDiscoveryClient(conn)
	c.Notifications = rpc.NewNotificationsClient(conn)
	c.Profiles = rpc.NewProfilesClient(conn)
	c.Daemon = rpc.NewDaemonClient(conn)
	return c, nil
}

// Close stops the auth watcher and closes the gRPC connection.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds == nil {
		return ""
	}
	return c.creds.Token
}

func (c *Client) withToken(ctx context.Context) context.Context {
	if t := c.token(); t != "" {
		return rpc.WithToken(ctx, t)
	}
	return ctx
}

func (c *Client) unaryToken(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	return invoker(c.withToken(ctx), method, req, reply, cc, opts...)
}

func (c *Client) streamToken(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return streamer(c.withToken(ctx), desc, cc, method, opts...)
}

// Identity returns the signed-in identity, or nil.
func (c *Client) Identity() *auth.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.identityLocked()
}

func (c *Client) identityLocked() *auth.Identity {
	if c.creds == nil {
		return nil
	}
	return &auth.Identity{UID: c.creds.UID, Email: c.creds.Email}
}

// SignIn authenticates and persists the session token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	resp, err := c.Auth.SignIn(ctx, &rpc.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := c.store(&resp.Session); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// Provision registers the form on the daemon and signs in. It makes Client
// a registration.Provisioner.
func (c *Client) Provision(ctx context.Context, f registration.Form) (auth.Identity, error) {
	resp, err := c.Auth.Register(ctx, &rpc.RegisterRequest{Form: f})
	if err != nil {
		return auth.Identity{}, err
	}
	if err := c.store(&resp.Session); err != nil {
		return auth.Identity{}, err
	}
	return resp.Session.Identity, nil
}

var _ registration.Provisioner = (*Client)(nil)

func (c *Client) store(s *auth.Session) error {
	creds := &session.Credentials{UID: s.UID, Email: s.Email, Token: s.Token, SignedInAt: time.Now().UnixMilli()}
	if err := session.WriteCredentials(c.credsPath, creds); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	c.mu.Lock()
	c.creds = creds
	watching := len(c.listeners) > 0
	c.mu.Unlock()
	c.emit()
	if watching {
		c.watch()
	}
	return nil
}

// SignOut revokes the session on the daemon and forgets it locally. The
// local credentials are dropped even if the daemon already rejected them.
func (c *Client) SignOut(ctx context.Context) error {
	if c.token() == "" {
		return nil
	}
	_, err := c.Auth.SignOut(ctx)
	if err != nil && !errors.Is(err, auth.ErrInvalidToken) {
		return err
	}
	return c.forget()
}

func (c *Client) forget() error {
	c.mu.Lock()
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	had := c.creds != nil
	c.creds = nil
	c.mu.Unlock()
	if !had {
		return nil
	}
	err := session.RemoveCredentials(c.credsPath)
	c.emit()
	return err
}

func (c *Client) emit() {
	c.mu.Lock()
	id := c.identityLocked()
	fns := make([]func(*auth.Identity), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

// OnAuthStateChange calls fn with the current identity (nil when signed
// out) and again after every sign-in or sign-out, including a revocation
// made by another client. The returned function removes fn.
func (c *Client) OnAuthStateChange(fn func(*auth.Identity)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.identityLocked()
	start := c.creds != nil && c.stopWatch == nil
	c.mu.Unlock()

	fn(current)
	if start {
		c.watch()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// watch follows the daemon's auth state for the current token.
func (c *Client) watch() {
	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.stopWatch != nil {
		c.stopWatch()
	}
	c.stopWatch = cancel
	c.mu.Unlock()

	go func() {
		stream, err := c.Auth.WatchAuthState(ctx)
		if err != nil {
			c.endWatch(ctx, err)
			return
		}
		for {
			st, err := stream.Recv()
			if err != nil {
				c.endWatch(ctx, err)
				return
			}
			if st.Identity == nil {
				c.endWatch(ctx, auth.ErrInvalidToken)
				return
			}
		}
	}()
}

func (c *Client) endWatch(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	// Only a rejected token means signed out; a daemon restart does not.
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, rpc.ErrMissingToken) {
		_ = c.forget()
	}
}
