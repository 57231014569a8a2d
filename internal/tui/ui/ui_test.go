package ui

import (
	"reflect"
	"testing"
	"time"

	"github.com/rivo/tview"
)

func newTestPages(names ...string) *Pages {
	p := NewPages()
	for _, n := range names {
		p.AddPage(n, tview.NewBox(), true, false)
	}
	return p
}

func TestPagesStack(t *testing.T) {
	p := newTestPages("conversations", "thread", "details", "help")
	var changes [][]string
	p.SetOnChange(func(stack []string) { changes = append(changes, stack) })

	p.Reset("conversations")
	p.Push("thread")
	p.Push("thread")
	p.Push("details")

	if got, want := p.Stack(), []string{"conversations", "thread", "details"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Stack() = %v, want %v", got, want)
	}
	if len(changes) != 3 {
		t.Errorf("onChange fired %d times, want 3", len(changes))
	}

	p.Push("conversations")
	if got := p.Stack(); !reflect.DeepEqual(got, []string{"conversations"}) {
		t.Errorf("Push of a lower page = %v, want unwind to [conversations]", got)
	}
	if front, _ := p.GetFrontPage(); front != "conversations" {
		t.Errorf("front page = %q", front)
	}

	if got := p.Pop(); got != "" {
		t.Errorf("Pop() on the last page = %q, want empty", got)
	}
	p.Push("help")
	if got := p.Pop(); got != "help" {
		t.Errorf("Pop() = %q, want help", got)
	}
	if p.Current() != "conversations" {
		t.Errorf("Current() = %q", p.Current())
	}
}

func TestPromptHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	var got []string
	p.SetOnSubmit(func(mode PromptMode, text string) {
		if mode != PromptCommand {
			t.Errorf("mode = %v", mode)
		}
		got = append(got, text)
	})
	cancelled := 0
	p.SetOnCancel(func() { cancelled++ })

	p.Activate(PromptCommand)
	p.submit("feed")
	p.submit("feed")
	p.submit("profile")
	p.submit("")

	if !reflect.DeepEqual(got, []string{"feed", "feed", "profile"}) {
		t.Errorf("submitted = %v", got)
	}
	if cancelled != 1 {
		t.Errorf("empty submit cancelled %d times, want 1", cancelled)
	}
	if !reflect.DeepEqual(p.history, []string{"feed", "profile"}) {
		t.Errorf("history = %v, want repeats collapsed", p.history)
	}

	p.Activate(PromptCommand)
	p.recall(-1)
	if p.GetText() != "profile" {
		t.Errorf("recall(-1) = %q, want profile", p.GetText())
	}
	p.recall(-1)
	p.recall(-1)
	if p.GetText() != "feed" {
		t.Errorf("recall past the start = %q, want feed", p.GetText())
	}
	p.recall(1)
	p.recall(1)
	if p.GetText() != "" {
		t.Errorf("recall past the end = %q, want empty", p.GetText())
	}
}

func TestFlashExpiry(t *testing.T) {
	f := NewFlashModel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	if f.Current() != nil {
		t.Fatal("Current() before any message should be nil")
	}
	f.Error("boom")
	select {
	case m := <-f.Watch():
		if m.Text != "boom" || m.Level != FlashErr {
			t.Errorf("watched %+v", m)
		}
	case <-time.After(time.Second):
		t.Fatal("no flash delivered on Watch")
	}
	if m := f.Current(); m == nil || m.Text != "boom" {
		t.Fatalf("Current() = %+v", m)
	}

	now = now.Add(flashTTL[FlashErr] + time.Second)
	if f.Current() != nil {
		t.Error("message should have expired")
	}

	f.Info("hi")
	f.Clear()
	if f.Current() != nil {
		t.Error("Clear() should drop the message")
	}
}
