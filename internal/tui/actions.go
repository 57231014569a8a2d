package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/directory"
	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/profile"
	"github.com/matheus3301/puthype/internal/registration"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/thread"
	"github.com/matheus3301/puthype/internal/tui/client"
	"github.com/matheus3301/puthype/internal/tui/keys"
	"github.com/matheus3301/puthype/internal/tui/model"
	"github.com/matheus3301/puthype/internal/tui/ui"
	"go.uber.org/zap"
)

func (a *App) setupBindings() {
	r := a.registry
	r.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: ':', Description: "Command", Visible: true,
		Handler: func() { a.openPrompt(ui.PromptCommand) }})
	r.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: '?', Description: "Help", Visible: true,
		Handler: func() { a.pages.Push(pageHelp) }})
	r.AddGlobal(&keys.Action{Key: tcell.KeyRune, Rune: 'q', Description: "Back / Quit", Visible: true,
		Handler: a.back})
	r.AddGlobal(&keys.Action{Key: tcell.KeyCtrlC, Handler: a.Stop})

	view := func(page string, key tcell.Key, ch rune, fn func()) {
		r.AddView(page, &keys.Action{Key: key, Rune: ch, Handler: fn})
	}

	view(pageConversations, tcell.KeyRune, '/', func() { a.openPrompt(ui.PromptFilter) })
	view(pageConversations, tcell.KeyEnter, 0, a.openSelected)
	view(pageConversations, tcell.KeyTab, 0, func() { a.switchTab(model.NextTab(a.conversations.Tab(), 1)) })
	view(pageConversations, tcell.KeyBacktab, 0, func() { a.switchTab(model.NextTab(a.conversations.Tab(), -1)) })
	for i, t := range conversation.Tabs {
		view(pageConversations, tcell.KeyRune, rune('1'+i), func() { a.switchTab(t) })
	}
	view(pageConversations, tcell.KeyRune, 'f', a.toggleFavorite)
	view(pageConversations, tcell.KeyRune, 't', a.moveToTrash)
	view(pageConversations, tcell.KeyRune, 'r', a.restoreFromTrash)
	view(pageConversations, tcell.KeyRune, 'x', a.deleteConversation)
	view(pageConversations, tcell.KeyRune, 'd', func() {
		if c, ok := a.conversations.Selected(); ok {
			a.showDetails(c)
		}
	})
	view(pageConversations, tcell.KeyRune, 'a', a.showDirectory)
	view(pageConversations, tcell.KeyRune, 'e', func() { a.showFeed(a.feed.Tab()) })
	view(pageConversations, tcell.KeyRune, 'n', func() { a.pages.Push(pageNotifications) })
	view(pageConversations, tcell.KeyRune, 'p', func() { a.showProfile("") })

	view(pageThread, tcell.KeyRune, 'i', func() { a.app.SetFocus(a.thread.Composer()) })
	view(pageThread, tcell.KeyRune, 'c', a.clearHistory)
	view(pageThread, tcell.KeyRune, 'd', func() {
		peer := a.vm.Thread().Peer
		c, ok := model.FindContact(a.vm.Conversations(), peer.Username)
		if !ok {
			c = conversation.Contact{ContactRef: peer}
		}
		a.showDetails(c)
	})
	for n := 1; n <= len(thread.Suggestions()); n++ {
		view(pageThread, tcell.KeyRune, rune('0'+n), func() {
			if text, ok := a.thread.Suggestion(n); ok {
				a.send(text)
			}
		})
	}

	view(pageDirectory, tcell.KeyEnter, 0, a.addAndOpen)

	view(pageFeed, tcell.KeyTab, 0, func() {
		next := discovery.TabEvents
		if a.feed.Tab() == discovery.TabEvents {
			next = discovery.TabCommunities
		}
		a.feed.SetFilter(next, a.feed.Selected())
		a.loadFeed()
	})
	for i, tag := range store.Interests {
		view(pageFeed, tcell.KeyRune, rune('1'+i), func() {
			selected := tag
			if a.feed.Selected() == tag {
				selected = ""
			}
			a.feed.SetFilter(a.feed.Tab(), selected)
			a.loadFeed()
		})
	}
	view(pageFeed, tcell.KeyRune, '0', func() {
		a.feed.SetFilter(a.feed.Tab(), "")
		a.loadFeed()
	})
	view(pageFeed, tcell.KeyEnter, 0, a.openEvent)
	view(pageFeed, tcell.KeyRune, 'c', func() {
		a.eventForm.Reset(a.feed.Selected())
		a.pages.Push(pageEventNew)
	})
	view(pageFeed, tcell.KeyRune, 'C', func() {
		if !a.feed.CanCreateCommunity() {
			a.flash.Warn(discovery.ErrPlanRequired.Error())
			return
		}
		a.communityForm.Reset(a.feed.Selected())
		a.pages.Push(pageCommunityNew)
	})

	view(pageNotifications, tcell.KeyEnter, 0, a.markNotificationRead)

	view(pageProfile, tcell.KeyRune, 'e', func() {
		if !a.profile.Own() {
			return
		}
		a.profileForm.Load(a.profile.Profile().User)
		a.pages.Push(pageProfileEdit)
	})
}

func (a *App) setupCallbacks() {
	a.signIn.SetOnSignIn(func(email, password string) {
		a.signIn.ShowMessage("Signing in...")
		a.do(func(ctx context.Context) error {
			_, err := a.client.SignIn(ctx, email, password)
			return err
		}, func(err error) {
			a.signIn.ClearPassword()
			a.signIn.ShowError(client.UserMessage(err))
		})
	})
	a.signIn.SetOnRegister(func() {
		a.register.Reset()
		a.pages.Push(pageRegister)
	})
	a.signIn.SetOnForgot(func(email string) {
		a.reset.Prefill(email)
		a.pages.Push(pageReset)
	})

	a.register.SetOnCancel(a.back)
	a.register.SetOnSubmit(a.submitRegistration)

	a.reset.SetOnSend(func(email string) {
		a.do(func(ctx context.Context) error {
			_, err := a.client.Auth.SendPasswordReset(ctx, &rpc.PasswordResetRequest{Email: email})
			return err
		}, func(err error) {
			a.reset.ShowError(client.UserMessage(err))
		}, func() {
			a.reset.ShowMessage("Reset e-mail sent to " + email + ". Paste the token below.")
		})
	})
	a.reset.SetOnConfirm(func(token, password string) {
		a.do(func(ctx context.Context) error {
			_, err := a.client.Auth.ConfirmPasswordReset(ctx, &rpc.ConfirmPasswordResetRequest{Token: token, NewPassword: password})
			return err
		}, func(err error) {
			a.reset.ShowError(client.UserMessage(err))
		}, func() {
			a.pages.Reset(pageSignIn)
			a.signIn.ShowMessage("Password changed. Sign in with the new one.")
		})
	})

	a.thread.SetOnSend(a.send)

	a.directory.SetOnQuery(a.search)

	a.eventForm.SetOnCancel(a.back)
	a.eventForm.SetOnError(func(err error) { a.flash.Error(err.Error()) })
	a.eventForm.SetOnSave(func(in discovery.EventInput) {
		a.do(func(ctx context.Context) error {
			_, err := a.vm.CreateEvent(ctx, in)
			return err
		}, a.flashError, func() {
			a.flash.Info("Event created")
			a.back()
			a.loadFeed()
		})
	})

	a.communityForm.SetOnCancel(a.back)
	a.communityForm.SetOnSave(func(in discovery.CommunityInput, imagePath string) {
		a.do(func(ctx context.Context) error {
			image, err := readImage(imagePath)
			if err != nil {
				return err
			}
			_, err = a.vm.CreateCommunity(ctx, in, image)
			return err
		}, a.flashError, func() {
			a.flash.Info("Community created")
			a.back()
			a.loadFeed()
		})
	})

	a.profileForm.SetOnCancel(a.back)
	a.profileForm.SetOnSave(a.saveProfile)
}

// do runs call off the UI goroutine. onErr, or onOK when given, then runs
// back on the UI goroutine.
func (a *App) do(call func(ctx context.Context) error, onErr func(error), onOK ...func()) {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, callTimeout)
		defer cancel()
		err := call(ctx)
		if err != nil && a.ctx.Err() != nil {
			return
		}
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.log.Debug("call failed", zap.Error(err))
				onErr(err)
				return
			}
			for _, fn := range onOK {
				fn()
			}
		})
	}()
}

func (a *App) flashError(err error) {
	a.flash.Error(client.UserMessage(err))
}

func readImage(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

func (a *App) submitRegistration(w *registration.Wizard) {
	a.register.ShowMessage("Creating your account...")
	a.do(func(ctx context.Context) error {
		_, err := w.Submit(ctx, a.client)
		return err
	}, func(err error) {
		var se *registration.SubmitError
		if errors.As(err, &se) && se.RedirectToLogin {
			email := w.Form.Email
			a.pages.Reset(pageSignIn)
			a.signIn.Prefill(email)
			a.signIn.ShowError(se.Message)
			return
		}
		a.register.ShowError(client.UserMessage(err))
	})
}

func (a *App) switchTab(t conversation.Tab) {
	a.conversations.SetTab(t)
	a.refreshMenu()
}

func (a *App) openSelected() {
	if c, ok := a.conversations.Selected(); ok {
		a.openThread(c.ContactRef)
	}
}

func (a *App) openThread(peer store.ContactRef) {
	a.thread.Open(model.Thread{Peer: peer}, a.uid)
	a.vm.WatchThread(peer, func(th model.Thread) {
		a.app.QueueUpdateDraw(func() {
			if a.vm.Thread().Peer.ID != th.Peer.ID {
				return
			}
			a.thread.Update(th, a.uid)
			a.refreshMenu()
		})
	}, a.streamError("thread"))
	a.pages.Push(pageThread)
}

func (a *App) send(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	a.do(func(ctx context.Context) error {
		return a.vm.Send(ctx, text)
	}, a.flashError)
}

func (a *App) clearHistory() {
	peer := a.vm.Thread().Peer
	a.confirm(fmt.Sprintf("Clear your history with %s?\nThey keep their copy.", peer.FullName), "Clear", func() {
		var resp *rpc.ClearHistoryResponse
		a.do(func(ctx context.Context) error {
			var err error
			resp, err = a.vm.ClearHistory(ctx)
			return err
		}, a.flashError, func() {
			a.flash.Info(fmt.Sprintf("Cleared %d messages", resp.Hidden+resp.Deleted))
		})
	})
}

func (a *App) showDetails(c conversation.Contact) {
	a.details.Update(c, a.conversations.Tab())
	a.pages.Push(pageDetails)
}

func (a *App) toggleFavorite() {
	c, ok := a.conversations.Selected()
	if !ok || a.conversations.Tab() == conversation.TabTrash {
		return
	}
	var favorite bool
	a.do(func(ctx context.Context) error {
		var err error
		favorite, err = a.vm.ToggleFavorite(ctx, c.ID)
		return err
	}, a.flashError, func() {
		if favorite {
			a.flash.Info(c.FullName + " added to favorites")
		} else {
			a.flash.Info(c.FullName + " removed from favorites")
		}
	})
}

func (a *App) moveToTrash() {
	c, ok := a.conversations.Selected()
	if !ok || a.conversations.Tab() == conversation.TabTrash {
		return
	}
	a.do(func(ctx context.Context) error {
		return a.vm.MoveToTrash(ctx, c.ID)
	}, a.flashError, func() {
		a.flash.Info("Conversation with " + c.FullName + " moved to trash")
	})
}

func (a *App) restoreFromTrash() {
	c, ok := a.conversations.Selected()
	if !ok || a.conversations.Tab() != conversation.TabTrash {
		return
	}
	a.do(func(ctx context.Context) error {
		return a.vm.RestoreFromTrash(ctx, c.ID)
	}, a.flashError, func() {
		a.flash.Info("Conversation with " + c.FullName + " restored")
	})
}

func (a *App) deleteConversation() {
	c, ok := a.conversations.Selected()
	if !ok || a.conversations.Tab() != conversation.TabTrash {
		return
	}
	a.confirm(fmt.Sprintf("Delete the conversation with %s for good?", c.FullName), "Delete", func() {
		var n int
		a.do(func(ctx context.Context) error {
			var err error
			n, err = a.vm.DeleteConversation(ctx, c.ID)
			return err
		}, a.flashError, func() {
			a.flash.Info(fmt.Sprintf("Deleted %d messages", n))
		})
	})
}

func (a *App) showDirectory() {
	a.pages.Push(pageDirectory)
}

func (a *App) search(prefix string) {
	var results []directory.Result
	a.do(func(ctx context.Context) error {
		var err error
		results, err = a.vm.Search(ctx, prefix)
		return err
	}, a.flashError, func() {
		a.directory.Update(results)
		if len(results) > 0 {
			a.app.SetFocus(a.directory.Results())
		}
	})
}

func (a *App) addAndOpen() {
	r, ok := a.directory.Selected()
	if !ok {
		return
	}
	if r.Added {
		a.openThread(r.ContactRef)
		return
	}
	a.do(func(ctx context.Context) error {
		_, err := a.vm.AddContact(ctx, r.ID)
		return err
	}, a.flashError, func() {
		a.directory.MarkAdded(r.ID)
		a.flash.Info(r.FullName + " added")
		a.openThread(r.ContactRef)
	})
}

func (a *App) showFeed(tab discovery.Tab) {
	a.feed.SetFilter(tab, a.feed.Selected())
	a.pages.Push(pageFeed)
	a.loadFeed()
}

func (a *App) loadFeed() {
	tab, selected := a.feed.Tab(), a.feed.Selected()
	var resp *rpc.FeedResponse
	a.do(func(ctx context.Context) error {
		var err error
		resp, err = a.vm.Feed(ctx, tab, selected)
		return err
	}, a.flashError, func() {
		a.feed.Update(resp)
		a.refreshMenu()
	})
}

func (a *App) openEvent() {
	e, ok := a.feed.SelectedEvent()
	if !ok {
		return
	}
	var full *store.Event
	a.do(func(ctx context.Context) error {
		var err error
		full, err = a.vm.Event(ctx, e.ID)
		return err
	}, a.flashError, func() {
		a.event.Update(*full)
		a.pages.Push(pageEvent)
	})
}

func (a *App) markNotificationRead() {
	it, ok := a.notifications.Selected()
	if !ok || it.Read {
		return
	}
	a.do(func(ctx context.Context) error {
		return a.vm.MarkNotificationRead(ctx, it.ID)
	}, a.flashError)
}

func (a *App) showProfile(uid string) {
	var v *profile.View
	a.do(func(ctx context.Context) error {
		var err error
		v, err = a.vm.Profile(ctx, uid)
		return err
	}, a.flashError, func() {
		a.profile.Update(*v, v.User.ID == a.uid)
		a.pages.Push(pageProfile)
	})
}

func (a *App) saveProfile(e profile.Edit, picturePath string) {
	var v *profile.View
	a.do(func(ctx context.Context) error {
		if !e.IsZero() {
			var err error
			if v, err = a.vm.UpdateProfile(ctx, e); err != nil {
				return err
			}
		}
		if picturePath != "" {
			image, err := readImage(picturePath)
			if err != nil {
				return err
			}
			if _, err := a.vm.UpdatePicture(ctx, image); err != nil {
				return err
			}
		}
		if v == nil || picturePath != "" {
			var err error
			v, err = a.vm.Profile(ctx, "")
			return err
		}
		return nil
	}, a.flashError, func() {
		a.profile.Update(*v, true)
		a.flash.Info("Profile saved")
		a.back()
	})
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Name {
	case "quit":
		a.Stop()
		return
	case "help":
		a.pages.Push(pageHelp)
		return
	case "status":
		go a.refreshStatus()
		return
	}
	if a.uid == "" {
		a.flash.Warn("sign in first")
		return
	}

	switch cmd.Name {
	case "signout":
		a.do(func(ctx context.Context) error {
			return a.client.SignOut(ctx)
		}, a.flashError)
	case "conversations":
		a.pages.Reset(pageConversations)
	case "search":
		a.showDirectory()
		if cmd.Args != "" {
			a.directory.Input().SetText(cmd.Args)
			a.search(cmd.Args)
		}
	case "chat":
		c, ok := model.FindContact(a.vm.Conversations(), cmd.Args)
		if !ok {
			a.flash.Warn("no conversation matches " + cmd.Args)
			return
		}
		a.openThread(c.ContactRef)
	case "feed":
		tab := a.feed.Tab()
		switch strings.ToLower(cmd.Args) {
		case "events", string(discovery.TabEvents):
			tab = discovery.TabEvents
		case "communities", string(discovery.TabCommunities):
			tab = discovery.TabCommunities
		}
		a.showFeed(tab)
	case "notifications":
		a.pages.Push(pageNotifications)
	case "profile":
		a.showProfile(cmd.Args)
	default:
		a.flash.Warn("unknown command: " + cmd.Name)
	}
}
