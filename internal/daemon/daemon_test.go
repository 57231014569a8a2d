package daemon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/config"
	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/lock"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/status"
	"github.com/matheus3301/puthype/internal/tui/client"
	"go.uber.org/fx"
	"google.golang.org/grpc/codes"
)

// testParams uses /tmp to stay under the 104-char Unix socket limit.
func testParams(t *testing.T) Params {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "hype-test-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	t.Setenv("HYPE_HOME", dir)
	return Params{DataDir: dir, SocketPath: filepath.Join(dir, "d.sock"), Config: config.Default()}
}

func startApp(t *testing.T, p Params) {
	t.Helper()
	app := fx.New(Module(p), fx.NopLogger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(ctx)
	})
}

func newClient(t *testing.T, p Params, name string) *client.Client {
	t.Helper()
	c, err := client.New(p.SocketPath, filepath.Join(p.DataDir, "clients", name+".json"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func form(name string) registration.Form {
	return registration.Form{
		FullName:  strings.ToUpper(name[:1]) + name[1:],
		Phone:     "85999990000",
		Email:     name + "@example.com",
		Password:  "secret1",
		Username:  name,
		Interests: []string{"Moda"},
		Avatar:    2,
	}
}

// TestFxModuleWiring verifies the fx dependency graph resolves without errors.
func TestFxModuleWiring(t *testing.T) {
	if err := fx.ValidateApp(Module(testParams(t)), fx.NopLogger); err != nil {
		t.Fatalf("fx graph: %v", err)
	}
}

func TestLockHeld(t *testing.T) {
	p := testParams(t)
	lk, err := lock.Acquire(p.DataDir, p.SocketPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = lk.Release() }()

	app := fx.New(Module(p), fx.NopLogger)
	if err := app.Err(); err == nil || !strings.Contains(err.Error(), "locked by PID") {
		t.Fatalf("err = %v, want lock held", err)
	}
}

func TestDaemonEndToEnd(t *testing.T) {
	p := testParams(t)
	startApp(t, p)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	ana := newClient(t, p, "ana")
	bia := newClient(t, p, "bia")

	st, err := ana.Daemon.GetStatus(ctx)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if st.State != string(status.Ready) {
		t.Errorf("state = %s, want READY", st.State)
	}

	anaID, err := ana.Provision(ctx, form("ana"))
	if err != nil {
		t.Fatalf("register ana: %v", err)
	}
	biaID, err := bia.Provision(ctx, form("bia"))
	if err != nil {
		t.Fatalf("register bia: %v", err)
	}
	if ana.Identity() == nil || ana.Identity().UID != anaID.UID {
		t.Fatalf("ana identity = %+v", ana.Identity())
	}

	// A second registration with the same e-mail redirects to login.
	other := newClient(t, p, "other")
	_, err = other.Provision(ctx, form("ana"))
	if !errors.Is(err, auth.ErrEmailInUse) {
		t.Fatalf("duplicate register: %v", err)
	}
	if se := registration.Classify(err); !se.RedirectToLogin {
		t.Error("duplicate e-mail should redirect to login")
	}

	// Protected calls need a token.
	if _, err := other.Conversations.ToggleFavorite(ctx, &rpc.ContactRequest{ContactID: biaID.UID}); !errors.Is(err, rpc.ErrMissingToken) {
		t.Errorf("anonymous call: %v", err)
	}

	found, err := ana.Directory.Search(ctx, &rpc.SearchRequest{Prefix: "bi"})
	if err != nil {
		t.Fatal(err)
	}
	if len(found.Results) != 1 || found.Results[0].ID != biaID.UID {
		t.Fatalf("search = %+v", found.Results)
	}

	notes, err := bia.Notifications.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	first, err := notes.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Items) != 0 {
		t.Fatalf("initial notifications = %+v", first.Items)
	}

	added, err := ana.Directory.AddContact(ctx, &rpc.AddContactRequest{Target: biaID.UID})
	if err != nil || !added.Added {
		t.Fatalf("add contact: %v %+v", err, added)
	}
	next, err := notes.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if len(next.Items) != 1 || next.Items[0].Message != "You were added by Ana" || next.Items[0].FromUserName != "Ana" {
		t.Fatalf("notification = %+v", next.Items)
	}

	thread, err := bia.Threads.Watch(ctx, &rpc.ThreadRequest{Peer: anaID.UID})
	if err != nil {
		t.Fatal(err)
	}
	snap, err := thread.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Messages) != 0 || len(snap.Suggestions) == 0 {
		t.Fatalf("empty thread = %+v", snap)
	}
	if _, err := ana.Threads.Send(ctx, &rpc.SendRequest{To: biaID.UID, Text: "  oi  "}); err != nil {
		t.Fatal(err)
	}
	snap, err = thread.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Text != "oi" {
		t.Fatalf("thread = %+v", snap.Messages)
	}

	// Calls scoped to a contact refuse the caller's own id and blank ids.
	invalid := func(name string, err error) {
		t.Helper()
		var re *rpc.Error
		if !errors.As(err, &re) || re.Code != codes.InvalidArgument {
			t.Errorf("%s: err = %v, want InvalidArgument", name, err)
		}
	}
	_, err = ana.Threads.ClearHistory(ctx, &rpc.ThreadRequest{Peer: anaID.UID})
	invalid("clear own history", err)
	_, err = ana.Threads.ClearHistory(ctx, &rpc.ThreadRequest{})
	invalid("clear blank peer", err)
	_, err = bia.Conversations.MoveToTrash(ctx, &rpc.ContactRequest{ContactID: biaID.UID})
	invalid("trash self", err)
	_, err = bia.Conversations.DeleteConversation(ctx, &rpc.ContactRequest{ContactID: biaID.UID})
	invalid("delete self", err)
	if selfThread, err := ana.Threads.Watch(ctx, &rpc.ThreadRequest{Peer: anaID.UID}); err != nil {
		invalid("watch self", err)
	} else {
		_, err = selfThread.Recv()
		invalid("watch self", err)
	}
	if mine, err := ana.Threads.Watch(ctx, &rpc.ThreadRequest{Peer: biaID.UID}); err != nil {
		t.Fatal(err)
	} else if snap, err := mine.Recv(); err != nil || len(snap.Messages) != 1 {
		t.Fatalf("ana's thread after rejected calls = %+v, %v", snap, err)
	}

	// bia sees ana as not added, with one unread message.
	convs, err := bia.Conversations.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cs, err := convs.Recv()
	if err != nil {
		t.Fatal(err)
	}
	if len(cs.State.Unadded) != 1 || cs.State.Unadded[0].ID != anaID.UID || cs.State.Unread != 1 {
		t.Fatalf("conversations = %+v", cs.State)
	}

	view, err := ana.Profiles.Get(ctx, &rpc.GetProfileRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if view.Profile.User.Username != "ana" || len(view.Profile.User.AddedUsers) != 1 {
		t.Errorf("profile = %+v", view.Profile.User)
	}

	feed, err := ana.Discovery.Feed(ctx, &rpc.FeedRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if feed.CanCreateCommunity || feed.Feed.Len() != 0 {
		t.Errorf("feed = %+v", feed)
	}
	if _, err := ana.Discovery.CreateCommunity(ctx, &rpc.CreateCommunityRequest{}); !errors.Is(err, discovery.ErrMissingFields) {
		t.Errorf("empty community: %v", err)
	}
}

func TestAuthStateFollowsSignOut(t *testing.T) {
	p := testParams(t)
	startApp(t, p)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	c := newClient(t, p, "main")
	if _, err := c.Provision(ctx, form("carla")); err != nil {
		t.Fatal(err)
	}

	states := make(chan *auth.Identity, 8)
	unsub := c.OnAuthStateChange(func(id *auth.Identity) { states <- id })
	defer unsub()

	select {
	case id := <-states:
		if id == nil {
			t.Fatal("expected signed-in identity first")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no initial auth state")
	}

	// A second client on the same slot signs out; the first one follows.
	twin := newClient(t, p, "main")
	if twin.Identity() == nil {
		t.Fatal("credentials were not persisted")
	}
	if err := twin.SignOut(ctx); err != nil {
		t.Fatal(err)
	}

	select {
	case id := <-states:
		if id != nil {
			t.Fatalf("state after sign-out = %+v, want nil", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("sign-out was not delivered")
	}
	if c.Identity() != nil {
		t.Error("client kept the revoked identity")
	}

	if _, err := c.SignIn(ctx, "carla@example.com", "wrong1"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("bad password: %v", err)
	}
	if _, err := c.SignIn(ctx, "carla@example.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	select {
	case id := <-states:
		if id == nil || id.Email != "carla@example.com" {
			t.Fatalf("state after sign-in = %+v", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sign-in was not delivered")
	}
}
