package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/profile"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/tui/model"
	"golang.org/x/term"
)

const scheduleLayout = "02/01/2006 15:04"

var commands map[string]command

func init() {
	commands = map[string]command{
		"status":        {"status", "Show daemon status", cmdStatus},
		"register":      {"register --name --phone --email --username --interests a,b [--avatar n]", "Create an account and sign in", cmdRegister},
		"signin":        {"signin <email> [--password p]", "Sign in this session", cmdSignIn},
		"signout":       {"signout", "Sign out this session", cmdSignOut},
		"reset":         {"reset send <email> | reset confirm <token>", "Reset a password", cmdReset},
		"conversations": {"conversations [added|favorites|unadded|trash]", "List conversations", cmdConversations},
		"favorite":      {"favorite <user>", "Toggle a favorite", cmdFavorite},
		"trash":         {"trash <user>", "Move a conversation to the trash", cmdTrash},
		"restore":       {"restore <user>", "Restore a trashed conversation", cmdRestore},
		"delete":        {"delete <user> --yes", "Delete a trashed conversation for good", cmdDelete},
		"send":          {"send <user> <text...>", "Send a message", cmdSend},
		"thread":        {"thread <user>", "Print a conversation", cmdThread},
		"clear":         {"clear <user>", "Clear your history with a user", cmdClear},
		"search":        {"search <prefix>", "Find people by name", cmdSearch},
		"add":           {"add <username>", "Add a contact", cmdAdd},
		"feed":          {"feed [communities|events] [--tag t]", "Show the networking feed", cmdFeed},
		"event":         {"event create --title --description --when --location --tag | event get <id>", "Create or show an event", cmdEvent},
		"community":     {"community create --name --description [--tag] [--image f]", "Create a community", cmdCommunity},
		"notifications": {"notifications [read <id>]", "List or mark notifications", cmdNotifications},
		"profile":       {"profile get [uid] | profile update ... | profile picture <file>", "Show or edit a profile", cmdProfile},
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func cmdStatus(ctx context.Context, app *cli, _ []string) error {
	resp, err := app.c.Daemon.GetStatus(ctx)
	if err != nil {
		return err
	}
	app.print(resp, func() {
		fmt.Printf("State:       %s (since %s)\n", resp.State, resp.Since.Format(time.RFC3339))
		fmt.Printf("Uptime:      %s\n", (time.Duration(resp.UptimeMs) * time.Millisecond).Round(time.Second))
		fmt.Printf("Data dir:    %s\n", resp.DataDir)
		fmt.Printf("Blobs:       %s\n", resp.BlobBackend)
		fmt.Printf("Users:       %d\n", resp.Users)
		fmt.Printf("Messages:    %d\n", resp.Messages)
		fmt.Printf("Subscribers: %d\n", resp.Subscribers)
		if id := app.c.Identity(); id != nil {
			fmt.Printf("Signed in:   %s\n", id.Email)
		} else {
			fmt.Println("Signed in:   no")
		}
	})
	return nil
}

func cmdRegister(ctx context.Context, app *cli, args []string) error {
	var f registration.Form
	var interests string
	fs := newFlags("register")
	fs.StringVar(&f.FullName, "name", "", "full name")
	fs.StringVar(&f.Phone, "phone", "", "phone number")
	fs.StringVar(&f.Email, "email", "", "e-mail")
	fs.StringVar(&f.Password, "password", "", "password (prompted when empty)")
	fs.StringVar(&f.Username, "username", "", "username")
	fs.StringVar(&interests, "interests", "", "comma separated interests: "+strings.Join(store.Interests, ","))
	fs.IntVar(&f.Avatar, "avatar", 1, fmt.Sprintf("avatar 1-%d", registration.AvatarCount))
	if err := fs.Parse(args); err != nil {
		return usageError{commands["register"].usage}
	}
	f.Interests = splitTags(interests)
	if f.Password == "" {
		pw, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		f.Password = pw
	}
	if verr := f.ValidateAll(); verr != nil {
		return verr
	}

	id, err := app.c.Provision(ctx, f)
	if err != nil {
		return registration.Classify(err)
	}
	app.print(id, func() {
		fmt.Printf("Account created. Signed in as %s (%s)\n", id.Email, id.UID)
	})
	return nil
}

func cmdSignIn(ctx context.Context, app *cli, args []string) error {
	fs := newFlags("signin")
	password := fs.String("password", "", "password (prompted when empty)")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return usageError{commands["signin"].usage}
	}
	pw := *password
	if pw == "" {
		var err error
		if pw, err = readPassword("Password: "); err != nil {
			return err
		}
	}
	s, err := app.c.SignIn(ctx, fs.Arg(0), pw)
	if err != nil {
		return err
	}
	app.print(s.Identity, func() {
		fmt.Printf("Signed in as %s (%s)\n", s.Email, s.UID)
	})
	return nil
}

func cmdSignOut(ctx context.Context, app *cli, _ []string) error {
	if err := app.c.SignOut(ctx); err != nil {
		return err
	}
	if !app.jsonOut {
		fmt.Println("Signed out.")
	}
	return nil
}

func cmdReset(ctx context.Context, app *cli, args []string) error {
	usage := usageError{commands["reset"].usage}
	if len(args) < 2 {
		return usage
	}
	switch args[0] {
	case "send":
		if _, err := app.c.Auth.SendPasswordReset(ctx, &rpc.PasswordResetRequest{Email: args[1]}); err != nil {
			return err
		}
		fmt.Printf("Reset e-mail sent to %s.\n", args[1])
	case "confirm":
		fs := newFlags("reset confirm")
		password := fs.String("password", "", "new password (prompted when empty)")
		if err := fs.Parse(args[2:]); err != nil {
			return usage
		}
		pw := *password
		if pw == "" {
			var err error
			if pw, err = readPassword("New password: "); err != nil {
				return err
			}
		}
		if _, err := app.c.Auth.ConfirmPasswordReset(ctx, &rpc.ConfirmPasswordResetRequest{Token: args[1], NewPassword: pw}); err != nil {
			return err
		}
		fmt.Println("Password changed.")
	default:
		return usage
	}
	return nil
}

// conversations reads the first snapshot of the conversation stream.
func conversations(ctx context.Context, app *cli) (conversation.State, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stream, err := app.c.Conversations.Watch(ctx)
	if err != nil {
		return conversation.State{}, err
	}
	st, err := stream.Recv()
	if err != nil {
		return conversation.State{}, err
	}
	return st.State, nil
}

// peer resolves a username or name to a contact, looking at the
// conversation list first and then at the directory.
func peer(ctx context.Context, app *cli, q string) (store.ContactRef, error) {
	st, err := conversations(ctx, app)
	if err != nil {
		return store.ContactRef{}, err
	}
	if c, ok := model.FindContact(st, q); ok {
		return c.ContactRef, nil
	}
	username := strings.TrimPrefix(q, "@")
	resp, err := app.c.Directory.Search(ctx, &rpc.SearchRequest{Prefix: username})
	if err != nil {
		return store.ContactRef{}, err
	}
	for _, r := range resp.Results {
		if r.Username == username {
			return r.ContactRef, nil
		}
	}
	return store.ContactRef{}, fmt.Errorf("no user matches %q", q)
}

func oneArg(args []string, name string) (string, error) {
	if len(args) != 1 {
		return "", usageError{commands[name].usage}
	}
	return args[0], nil
}

func cmdConversations(ctx context.Context, app *cli, args []string) error {
	st, err := conversations(ctx, app)
	if err != nil {
		return err
	}
	tabs := conversation.Tabs
	if len(args) > 0 {
		var found bool
		for _, t := range conversation.Tabs {
			if strings.EqualFold(t.String(), args[0]) {
				tabs, found = []conversation.Tab{t}, true
			}
		}
		if !found {
			return usageError{commands["conversations"].usage}
		}
	}
	if app.jsonOut {
		if len(tabs) == 1 {
			outputJSON(st.Bucket(tabs[0]))
		} else {
			outputJSON(st)
		}
		return nil
	}
	for _, t := range tabs {
		bucket := st.Bucket(t)
		fmt.Printf("%s (%d)\n", t, len(bucket))
		for _, c := range bucket {
			flags := ""
			if c.Favorite {
				flags += " *"
			}
			if c.Unread > 0 {
				flags += fmt.Sprintf(" [%d unread]", c.Unread)
			}
			fmt.Printf("  %-24s @%-20s%s\n", c.FullName, c.Username, flags)
		}
	}
	if st.Unread > 0 {
		fmt.Printf("\n%d unread messages\n", st.Unread)
	}
	return nil
}

func cmdFavorite(ctx context.Context, app *cli, args []string) error {
	q, err := oneArg(args, "favorite")
	if err != nil {
		return err
	}
	p, err := peer(ctx, app, q)
	if err != nil {
		return err
	}
	resp, err := app.c.Conversations.ToggleFavorite(ctx, &rpc.ContactRequest{ContactID: p.ID})
	if err != nil {
		return err
	}
	app.print(resp, func() {
		if resp.Favorite {
			fmt.Printf("%s is now a favorite.\n", p.FullName)
		} else {
			fmt.Printf("%s is no longer a favorite.\n", p.FullName)
		}
	})
	return nil
}

func cmdTrash(ctx context.Context, app *cli, args []string) error {
	q, err := oneArg(args, "trash")
	if err != nil {
		return err
	}
	p, err := peer(ctx, app, q)
	if err != nil {
		return err
	}
	if _, err := app.c.Conversations.MoveToTrash(ctx, &rpc.ContactRequest{ContactID: p.ID}); err != nil {
		return err
	}
	fmt.Printf("Conversation with %s moved to the trash.\n", p.FullName)
	return nil
}

func cmdRestore(ctx context.Context, app *cli, args []string) error {
	q, err := oneArg(args, "restore")
	if err != nil {
		return err
	}
	p, err := peer(ctx, app, q)
	if err != nil {
		return err
	}
	if _, err := app.c.Conversations.RestoreFromTrash(ctx, &rpc.ContactRequest{ContactID: p.ID}); err != nil {
		return err
	}
	fmt.Printf("Conversation with %s restored.\n", p.FullName)
	return nil
}

func cmdDelete(ctx context.Context, app *cli, args []string) error {
	fs := newFlags("delete")
	yes := fs.Bool("yes", false, "confirm the deletion")
	if len(args) == 0 {
		return usageError{commands["delete"].usage}
	}
	if err := fs.Parse(args[1:]); err != nil {
		return usageError{commands["delete"].usage}
	}
	if !*yes {
		return errors.New("deleting a conversation cannot be undone, pass --yes")
	}
	p, err := peer(ctx, app, args[0])
	if err != nil {
		return err
	}
	resp, err := app.c.Conversations.DeleteConversation(ctx, &rpc.ContactRequest{ContactID: p.ID})
	if err != nil {
		return err
	}
	app.print(resp, func() {
		fmt.Printf("Deleted %d messages with %s.\n", resp.Deleted, p.FullName)
	})
	return nil
}

func cmdSend(ctx context.Context, app *cli, args []string) error {
	if len(args) < 2 {
		return usageError{commands["send"].usage}
	}
	p, err := peer(ctx, app, args[0])
	if err != nil {
		return err
	}
	resp, err := app.c.Threads.Send(ctx, &rpc.SendRequest{To: p.ID, Text: strings.Join(args[1:], " ")})
	if err != nil {
		return err
	}
	app.print(resp.Message, func() {
		fmt.Printf("Sent to %s.\n", p.FullName)
	})
	return nil
}

func cmdThread(ctx context.Context, app *cli, args []string) error {
	q, err := oneArg(args, "thread")
	if err != nil {
		return err
	}
	p, err := peer(ctx, app, q)
	if err != nil {
		return err
	}
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stream, err := app.c.Threads.Watch(sctx, &rpc.ThreadRequest{Peer: p.ID})
	if err != nil {
		return err
	}
	snap, err := stream.Recv()
	if err != nil {
		return err
	}
	app.print(snap, func() {
		if len(snap.Messages) == 0 {
			fmt.Printf("No messages with %s yet. Try: %s\n", p.FullName, strings.Join(snap.Suggestions, " | "))
			return
		}
		var me string
		if id := app.c.Identity(); id != nil {
			me = id.UID
		}
		for _, m := range snap.Messages {
			who := p.FullName
			if m.SenderID == me {
				who = "You"
			}
			fmt.Printf("[%s] %s: %s\n", time.UnixMilli(m.Timestamp).Format(scheduleLayout), who, m.Text)
		}
	})
	return nil
}

func cmdClear(ctx context.Context, app *cli, args []string) error {
	q, err := oneArg(args, "clear")
	if err != nil {
		return err
	}
	p, err := peer(ctx, app, q)
	if err != nil {
		return err
	}
	resp, err := app.c.Threads.ClearHistory(ctx, &rpc.ThreadRequest{Peer: p.ID})
	if err != nil {
		return err
	}
	app.print(resp, func() {
		fmt.Printf("Cleared %d messages with %s.\n", resp.Hidden+resp.Deleted, p.FullName)
	})
	return nil
}

func cmdSearch(ctx context.Context, app *cli, args []string) error {
	q, err := oneArg(args, "search")
	if err != nil {
		return err
	}
	resp, err := app.c.Directory.Search(ctx, &rpc.SearchRequest{Prefix: q})
	if err != nil {
		return err
	}
	app.print(resp.Results, func() {
		if len(resp.Results) == 0 {
			fmt.Println("Nobody found.")
			return
		}
		for _, r := range resp.Results {
			added := ""
			if r.Added {
				added = " (added)"
			}
			fmt.Printf("%-24s @%s%s\n", r.FullName, r.Username, added)
		}
	})
	return nil
}

func cmdAdd(ctx context.Context, app *cli, args []string) error {
	q, err := oneArg(args, "add")
	if err != nil {
		return err
	}
	p, err := peer(ctx, app, q)
	if err != nil {
		return err
	}
	resp, err := app.c.Directory.AddContact(ctx, &rpc.AddContactRequest{Target: p.ID})
	if err != nil {
		return err
	}
	app.print(resp, func() {
		if resp.Added {
			fmt.Printf("%s added.\n", p.FullName)
		} else {
			fmt.Printf("%s was already a contact.\n", p.FullName)
		}
	})
	return nil
}

func parseFeedTab(s string) (discovery.Tab, bool) {
	switch strings.ToLower(s) {
	case "", "communities", string(discovery.TabCommunities):
		return discovery.TabCommunities, true
	case "events", string(discovery.TabEvents):
		return discovery.TabEvents, true
	}
	return "", false
}

func cmdFeed(ctx context.Context, app *cli, args []string) error {
	tabArg := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		tabArg, args = args[0], args[1:]
	}
	fs := newFlags("feed")
	tag := fs.String("tag", "", "show one interest only")
	if err := fs.Parse(args); err != nil {
		return usageError{commands["feed"].usage}
	}
	tab, ok := parseFeedTab(tabArg)
	if !ok {
		return usageError{commands["feed"].usage}
	}
	resp, err := app.c.Discovery.Feed(ctx, &rpc.FeedRequest{Tab: tab, Selected: *tag})
	if err != nil {
		return err
	}
	app.print(resp, func() {
		fmt.Printf("Interests: %s\n\n", strings.Join(resp.Interests, ", "))
		switch tab {
		case discovery.TabEvents:
			for _, e := range resp.Feed.Events {
				fmt.Printf("%s  %-30s %-12s %s [%s]\n", time.UnixMilli(e.ScheduledAt).Format(scheduleLayout), e.Title, e.Tag, e.Location, e.ID)
			}
		default:
			for _, c := range resp.Feed.Communities {
				fmt.Printf("%-30s %-12s %s\n", c.Name, c.Tag, c.Description)
			}
		}
		if resp.Feed.Len() == 0 {
			fmt.Println("Nothing here yet.")
		}
	})
	return nil
}

func cmdEvent(ctx context.Context, app *cli, args []string) error {
	usage := usageError{commands["event"].usage}
	if len(args) == 0 {
		return usage
	}
	switch args[0] {
	case "get":
		if len(args) != 2 {
			return usage
		}
		resp, err := app.c.Discovery.GetEvent(ctx, &rpc.GetEventRequest{ID: args[1]})
		if err != nil {
			return err
		}
		printEvent(app, resp.Event)
	case "create":
		var in discovery.EventInput
		var when string
		fs := newFlags("event create")
		fs.StringVar(&in.Title, "title", "", "title")
		fs.StringVar(&in.Description, "description", "", "description")
		fs.StringVar(&when, "when", "", "date and time, "+scheduleLayout)
		fs.StringVar(&in.Location, "location", "", "location")
		fs.StringVar(&in.VideoLink, "video", "", "video link")
		fs.StringVar(&in.Tag, "tag", "", "interest")
		fs.StringVar(&in.Privacy, "privacy", store.Public, "publico or privado")
		fs.StringVar(&in.InviteCode, "invite-code", "", "invite code of a private event")
		fs.StringVar(&in.Image, "image", "1", "cover image 1-5")
		if err := fs.Parse(args[1:]); err != nil {
			return usage
		}
		t, err := time.ParseInLocation(scheduleLayout, when, time.Local)
		if err != nil {
			return fmt.Errorf("--when must look like %s", time.Now().Format(scheduleLayout))
		}
		in.ScheduledAt = t.UnixMilli()
		resp, err := app.c.Discovery.CreateEvent(ctx, &rpc.CreateEventRequest{Event: in})
		if err != nil {
			return err
		}
		printEvent(app, resp.Event)
	default:
		return usage
	}
	return nil
}

func printEvent(app *cli, e store.Event) {
	app.print(e, func() {
		fmt.Printf("%s [%s]\n", e.Title, e.ID)
		fmt.Printf("When:     %s\n", time.UnixMilli(e.ScheduledAt).Format(scheduleLayout))
		fmt.Printf("Where:    %s\n", e.Location)
		fmt.Printf("Interest: %s\n", e.Tag)
		fmt.Printf("Privacy:  %s\n", e.Privacy)
		if e.VideoLink != "" {
			fmt.Printf("Video:    %s\n", e.VideoLink)
		}
		if e.InviteCode != "" {
			fmt.Printf("Invite:   %s\n", e.InviteCode)
		}
		fmt.Printf("\n%s\n", e.Description)
	})
}

func cmdCommunity(ctx context.Context, app *cli, args []string) error {
	usage := usageError{commands["community"].usage}
	if len(args) == 0 || args[0] != "create" {
		return usage
	}
	var in discovery.CommunityInput
	var imagePath string
	fs := newFlags("community create")
	fs.StringVar(&in.Name, "name", "", "name")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.StringVar(&in.Tag, "tag", "", "interest")
	fs.StringVar(&imagePath, "image", "", "image file")
	if err := fs.Parse(args[1:]); err != nil {
		return usage
	}
	var image []byte
	if imagePath != "" {
		var err error
		if image, err = os.ReadFile(imagePath); err != nil {
			return fmt.Errorf("read image: %w", err)
		}
	}
	resp, err := app.c.Discovery.CreateCommunity(ctx, &rpc.CreateCommunityRequest{Community: in, Image: image})
	if err != nil {
		return err
	}
	app.print(resp.Community, func() {
		fmt.Printf("Community %q created [%s].\n", resp.Community.Name, resp.Community.ID)
	})
	return nil
}

func cmdNotifications(ctx context.Context, app *cli, args []string) error {
	if len(args) > 0 {
		if args[0] != "read" || len(args) != 2 {
			return usageError{commands["notifications"].usage}
		}
		if _, err := app.c.Notifications.MarkRead(ctx, &rpc.NotificationRequest{ID: args[1]}); err != nil {
			return err
		}
		fmt.Println("Marked read.")
		return nil
	}

	sctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stream, err := app.c.Notifications.Watch(sctx)
	if err != nil {
		return err
	}
	list, err := stream.Recv()
	if err != nil {
		return err
	}
	app.print(list.Items, func() {
		if len(list.Items) == 0 {
			fmt.Println("No notifications.")
			return
		}
		for _, it := range list.Items {
			mark := " "
			if !it.Read {
				mark = "*"
			}
			fmt.Printf("%s %s  %-20s %s [%s]\n", mark, time.UnixMilli(it.Timestamp).Format(scheduleLayout), it.FromUserName, it.Message, it.ID)
		}
	})
	return nil
}

func cmdProfile(ctx context.Context, app *cli, args []string) error {
	usage := usageError{commands["profile"].usage}
	if len(args) == 0 {
		args = []string{"get"}
	}
	switch args[0] {
	case "get":
		uid := ""
		if len(args) > 1 {
			uid = args[1]
		}
		resp, err := app.c.Profiles.Get(ctx, &rpc.GetProfileRequest{UID: uid})
		if err != nil {
			return err
		}
		printProfile(app, resp.Profile)
	case "update":
		e, err := parseEdit(args[1:])
		if err != nil {
			return usage
		}
		resp, err := app.c.Profiles.Update(ctx, &rpc.UpdateProfileRequest{Edit: e})
		if err != nil {
			return err
		}
		printProfile(app, resp.Profile)
	case "picture":
		if len(args) != 2 {
			return usage
		}
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		resp, err := app.c.Profiles.UpdatePicture(ctx, &rpc.UpdatePictureRequest{Image: data})
		if err != nil {
			return err
		}
		app.print(resp, func() { fmt.Printf("Picture updated: %s\n", resp.URL) })
	default:
		return usage
	}
	return nil
}

// parseEdit turns the flags that were actually given into a profile edit.
func parseEdit(args []string) (profile.Edit, error) {
	var e profile.Edit
	fs := newFlags("profile update")
	name := fs.String("name", "", "full name")
	phone := fs.String("phone", "", "phone number")
	username := fs.String("username", "", "username")
	interests := fs.String("interests", "", "comma separated interests")
	avatar := fs.Int("avatar", 0, "avatar number")
	if err := fs.Parse(args); err != nil {
		return e, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			e.FullName = name
		case "phone":
			e.Phone = phone
		case "username":
			e.Username = username
		case "interests":
			tags := splitTags(*interests)
			e.Interests = &tags
		case "avatar":
			e.Avatar = avatar
		}
	})
	return e, nil
}

func printProfile(app *cli, v profile.View) {
	app.print(v, func() {
		u := v.User
		fmt.Printf("%s (@%s)\n", u.FullName, u.Username)
		fmt.Printf("E-mail:    %s\n", u.Email)
		fmt.Printf("Phone:     %s\n", u.Phone)
		fmt.Printf("Role:      %s\n", v.Role)
		fmt.Printf("Plan:      %s\n", v.PlanBadge)
		fmt.Printf("Interests: %s\n", strings.Join(u.Interests, ", "))
		fmt.Printf("Avatar:    %d\n", u.Avatar)
		if u.ProfilePicture != "" {
			fmt.Printf("Picture:   %s\n", u.ProfilePicture)
		}
	})
}
