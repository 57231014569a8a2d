package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/notify"
	"github.com/matheus3301/puthype/internal/tui/client"
	"github.com/matheus3301/puthype/internal/tui/keys"
	"github.com/matheus3301/puthype/internal/tui/model"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"github.com/matheus3301/puthype/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Page names.
const (
	pageSignIn        = "signin"
	pageRegister      = "register"
	pageReset         = "reset"
	pageConversations = "conversations"
	pageThread        = "thread"
	pageDetails       = "details"
	pageDirectory     = "directory"
	pageFeed          = "feed"
	pageEvent         = "event"
	pageEventNew      = "event-new"
	pageCommunityNew  = "community-new"
	pageNotifications = "notifications"
	pageProfile       = "profile"
	pageProfileEdit   = "profile-edit"
	pageHelp          = "help"
	pageConfirm       = "confirm"
)

// Pages that own the keyboard: every key but Esc goes to the form.
var formPages = map[string]bool{
	pageSignIn:       true,
	pageRegister:     true,
	pageReset:        true,
	pageEventNew:     true,
	pageCommunityNew: true,
	pageProfileEdit:  true,
}

const (
	statusInterval = 5 * time.Second
	callTimeout    = 10 * time.Second
)

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	client   *client.Client
	vm       *model.ViewModel
	log      *zap.Logger
	session  string
	registry *keys.Registry
	flash    *ui.FlashModel

	root        *tview.Flex
	pages       *ui.Pages
	components  map[string]ui.Component
	sessionInfo *ui.SessionInfo
	menu        *ui.Menu
	crumbs      *ui.Crumbs
	prompt      *ui.Prompt
	flashBar    *ui.FlashBar
	statusBar   *views.StatusBar

	signIn        *views.AuthView
	register      *views.RegisterView
	reset         *views.ResetView
	conversations *views.ConversationList
	thread        *views.MessageThread
	details       *views.ConversationInfo
	directory     *views.SearchView
	feed          *views.FeedView
	event         *views.EventView
	eventForm     *views.EventForm
	communityForm *views.CommunityForm
	notifications *views.NotificationView
	profile       *views.ProfileView
	profileForm   *views.ProfileForm
	help          *views.HelpView

	confirming bool
	uid        string
	ctx        context.Context
	cancel     context.CancelFunc
	stopAuth   func()
}

// NewApp creates the TUI application.
func NewApp(c *client.Client, sessionName string, log *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		client:   c,
		vm:       model.NewViewModel(c, log),
		log:      log.Named("tui"),
		session:  sessionName,
		registry: keys.NewRegistry(),
		flash:    ui.NewFlashModel(),

		pages:       ui.NewPages(),
		sessionInfo: ui.NewSessionInfo(theme),
		menu:        ui.NewMenu(theme, 5),
		crumbs:      ui.NewCrumbs(theme),
		prompt:      ui.NewPrompt(theme),
		flashBar:    ui.NewFlashBar(theme),
		statusBar:   views.NewStatusBar(theme, sessionName),

		signIn:        views.NewAuthView(theme),
		register:      views.NewRegisterView(theme),
		reset:         views.NewResetView(theme),
		conversations: views.NewConversationList(theme),
		thread:        views.NewMessageThread(theme),
		details:       views.NewConversationInfo(theme),
		directory:     views.NewSearchView(theme),
		feed:          views.NewFeedView(theme),
		event:         views.NewEventView(theme),
		eventForm:     views.NewEventForm(theme),
		communityForm: views.NewCommunityForm(theme),
		notifications: views.NewNotificationView(theme),
		profile:       views.NewProfileView(theme),
		profileForm:   views.NewProfileForm(theme),
		help:          views.NewHelpView(theme),

		ctx:    ctx,
		cancel: cancel,
	}

	a.components = map[string]ui.Component{
		pageSignIn:        a.signIn,
		pageRegister:      a.register,
		pageReset:         a.reset,
		pageConversations: a.conversations,
		pageThread:        a.thread,
		pageDetails:       a.details,
		pageDirectory:     a.directory,
		pageFeed:          a.feed,
		pageEvent:         a.event,
		pageEventNew:      a.eventForm,
		pageCommunityNew:  a.communityForm,
		pageNotifications: a.notifications,
		pageProfile:       a.profile,
		pageProfileEdit:   a.profileForm,
		pageHelp:          a.help,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		AddItem(ui.NewLogo(a.theme), 28, 0, false).
		AddItem(a.sessionInfo, 40, 0, false).
		AddItem(a.menu, 0, 1, false)

	for name, c := range a.components {
		a.pages.AddPage(name, c, true, false)
	}
	a.pages.SetOnChange(a.pageChanged)

	a.prompt.SetOnSubmit(a.promptSubmitted)
	a.prompt.SetOnCancel(a.closePrompt)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(a.root, true)
	a.app.SetInputCapture(a.captureInput)
}

// pageChanged runs after every push or pop: it follows the stack with the
// crumbs, menu and focus, and drops the thread stream once the thread is
// no longer on the stack.
func (a *App) pageChanged(stack []string) {
	a.crumbs.Update(stack, a.pageTitle)
	a.refreshMenu()
	a.focusPage()

	for _, p := range stack {
		if p == pageThread {
			return
		}
	}
	if a.vm.Thread().Peer.ID != "" {
		a.vm.CloseThread()
	}
}

func (a *App) pageTitle(page string) string {
	if c, ok := a.components[page]; ok {
		return c.Name()
	}
	return page
}

func (a *App) refreshMenu() {
	page := a.pages.Current()
	var hints []ui.MenuHint
	if c, ok := a.components[page]; ok {
		hints = c.Hints()
	}
	a.menu.Update(append(hints, a.registry.Hints(page)...))
}

func (a *App) focusPage() {
	c, ok := a.components[a.pages.Current()]
	if !ok {
		return
	}
	if f, ok := c.(ui.Focusable); ok {
		a.app.SetFocus(f.FocusTarget())
		return
	}
	a.app.SetFocus(c)
}

func (a *App) captureInput(ev *tcell.EventKey) *tcell.EventKey {
	if a.confirming {
		return ev
	}
	page := a.pages.Current()
	focused := a.app.GetFocus()

	if focused == a.prompt.InputField {
		return ev
	}

	if ev.Key() == tcell.KeyEscape {
		return a.escape(page, focused)
	}
	if page == pageDirectory && ev.Key() == tcell.KeyTab {
		if focused == a.directory.Results() {
			a.app.SetFocus(a.directory.Input())
		} else {
			a.app.SetFocus(a.directory.Results())
		}
		return nil
	}

	if formPages[page] {
		return ev
	}
	if _, ok := focused.(*tview.InputField); ok {
		return ev
	}

	if a.registry.HandleEvent(page, ev) {
		return nil
	}
	return ev
}

func (a *App) escape(page string, focused tview.Primitive) *tcell.EventKey {
	switch {
	case page == pageThread && focused == a.thread.Composer():
		a.app.SetFocus(a.thread.Messages())
		return nil
	case page == pageDirectory && focused == a.directory.Results():
		a.app.SetFocus(a.directory.Input())
		return nil
	case page == pageConversations && a.conversations.Filter() != "":
		a.conversations.ClearFilter()
		return nil
	case page == pageRegister:
		a.register.Back()
		return nil
	}
	a.back()
	return nil
}

// back pops the top page, quitting from a root page.
func (a *App) back() {
	if a.pages.Pop() == "" {
		switch a.pages.Current() {
		case pageConversations, pageSignIn:
			a.Stop()
		}
	}
}

func (a *App) openPrompt(mode ui.PromptMode) {
	a.prompt.Activate(mode)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusPage()
}

func (a *App) promptSubmitted(mode ui.PromptMode, text string) {
	a.closePrompt()
	switch mode {
	case ui.PromptFilter:
		a.conversations.SetFilter(text)
	case ui.PromptCommand:
		a.runCommand(ParseCommand(text))
	}
}

// confirm shows a modal over the current page; onYes runs when the user
// picks action.
func (a *App) confirm(text, action string, onYes func()) {
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"Cancel", action}).
		SetDoneFunc(func(_ int, label string) {
			a.pages.RemovePage(pageConfirm)
			a.confirming = false
			a.focusPage()
			if label == action {
				onYes()
			}
		})
	modal.SetBackgroundColor(a.theme.BgColor)
	modal.SetBorderColor(a.theme.FlashErrColor)
	a.confirming = true
	a.pages.AddPage(pageConfirm, modal, true, true)
	a.app.SetFocus(modal)
}

// identityChanged follows the signed-in user of this session slot.
func (a *App) identityChanged(id *auth.Identity) {
	uid := ""
	if id != nil {
		uid = id.UID
	}
	if uid == a.uid && a.pages.Current() != "" {
		return
	}
	a.uid = uid
	a.vm.SetIdentity(id)

	if id == nil {
		a.statusBar.SetUser("")
		a.statusBar.SetCounts(0, 0)
		a.conversations.Update(a.vm.Conversations())
		a.pages.Reset(pageSignIn)
		return
	}

	a.log.Info("signed in", zap.String("uid", id.UID))
	a.statusBar.SetUser(id.Email)
	a.signIn.ClearPassword()
	a.vm.WatchConversations(func(st conversation.State) {
		a.app.QueueUpdateDraw(func() {
			a.conversations.Update(st)
			a.statusBar.SetCounts(st.Unread, a.vm.UnreadNotifications())
			a.refreshMenu()
		})
	}, a.streamError("conversations"))
	a.vm.WatchNotifications(func(items []notify.Item) {
		a.app.QueueUpdateDraw(func() {
			a.notifications.Update(items)
			a.statusBar.SetCounts(a.vm.Conversations().Unread, a.vm.UnreadNotifications())
		})
	}, a.streamError("notifications"))
	a.pages.Reset(pageConversations)
}

func (a *App) streamError(name string) func(error) {
	return func(err error) {
		a.log.Warn("stream ended", zap.String("stream", name), zap.Error(err))
		a.flash.Error(name + ": " + client.UserMessage(err))
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	a.stopAuth = a.client.OnAuthStateChange(func(id *auth.Identity) {
		a.app.QueueUpdateDraw(func() { a.identityChanged(id) })
	})
	go a.watchFlash()
	go a.statusLoop()

	return a.app.Run()
}

func (a *App) watchFlash() {
	for {
		select {
		case msg := <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() {
				if msg.Text == "" {
					a.flashBar.Update(nil)
					return
				}
				a.flashBar.Update(&msg)
			})
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) statusLoop() {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		a.refreshStatus()
		select {
		case <-ticker.C:
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) refreshStatus() {
	ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
	defer cancel()
	st, err := a.vm.LoadStatus(ctx)
	if err != nil && a.ctx.Err() == nil {
		a.log.Debug("daemon status", zap.Error(err))
	}
	a.app.QueueUpdateDraw(func() {
		data := ui.SessionData{Session: a.session, DaemonState: "UNREACHABLE"}
		if id := a.vm.Identity(); id != nil {
			data.Email = id.Email
		}
		data.Unread = a.vm.Conversations().Unread
		if st != nil {
			data.DaemonState = st.State
			data.BlobBackend = st.BlobBackend
			data.Users = st.Users
			data.Messages = st.Messages
			data.Uptime = time.Duration(st.UptimeMs) * time.Millisecond
		}
		a.sessionInfo.Update(data)
		a.statusBar.SetDaemon(data.DaemonState)
		a.flashBar.Update(a.flash.Current())
	})
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	if a.stopAuth != nil {
		a.stopAuth()
	}
	a.cancel()
	a.vm.StopAll()
	a.app.Stop()
}
