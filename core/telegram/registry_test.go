package telegram

import (
	"testing"

	"github.com/devsque/codegate/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Start"}); err != nil {
		t.Fatalf("register start: %v", err)
	}
	if err := reg.RegisterCommand("/publish", commands.Command{Handler: noop, Description: "Publish", AdminOnly: true}); err != nil {
		t.Fatalf("register publish: %v", err)
	}
	if err := reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "dup"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "x"}); err == nil {
		t.Fatal("expected slash prefix error")
	}

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "start" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 2 || all[0].Text != "publish" {
		t.Fatalf("all commands = %+v", all)
	}

	key, cmd, ok := reg.LookupCommand("publish")
	if !ok || key != "/publish" || !cmd.AdminOnly {
		t.Fatalf("lookup = %q %+v %v", key, cmd, ok)
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("publish_confirm", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("publish_confirm", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterCallback("", noop); err == nil {
		t.Fatal("expected invalid key error")
	}
	if _, ok := reg.GetCallback("publish_confirm"); !ok {
		t.Fatal("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "publish_confirm" {
		t.Fatalf("callbacks = %v", got)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatal("default not-found handler missing")
	}
}
