package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
)

// ErrNoKey is returned when a hotkey string names no trigger key.
var ErrNoKey = errors.New("hotkey has no trigger key")

var modifiers = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
	"win":     "cmd",
	"cmd":     "cmd",
	"super":   "cmd",
	"meta":    "cmd",
}

var named = map[string]string{
	"esc":       "esc",
	"escape":    "esc",
	"enter":     "enter",
	"return":    "enter",
	"space":     "space",
	"tab":       "tab",
	"backspace": "backspace",
	"delete":    "delete",
	"insert":    "insert",
	"home":      "home",
	"end":       "end",
	"pageup":    "pageup",
	"pagedown":  "pagedown",
	"up":        "up",
	"down":      "down",
	"left":      "left",
	"right":     "right",
}

// parseHotkey converts a string like "Ctrl+Shift+T" to gohook key names.
// Modifiers come first in the order given, followed by exactly one key.
func parseHotkey(hotkeyConfig string) ([]string, error) {
	var mods []string
	var key string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if m, ok := modifiers[part]; ok {
			mods = append(mods, m)
			continue
		}
		if key != "" {
			return nil, fmt.Errorf("hotkey %q: more than one trigger key (%s, %s)", hotkeyConfig, key, part)
		}
		k, err := keyName(part)
		if err != nil {
			return nil, fmt.Errorf("hotkey %q: %w", hotkeyConfig, err)
		}
		key = k
	}
	if key == "" {
		return nil, fmt.Errorf("hotkey %q: %w", hotkeyConfig, ErrNoKey)
	}
	return append(mods, key), nil
}

func keyName(part string) (string, error) {
	if n, ok := named[part]; ok {
		return n, nil
	}
	if len(part) == 1 {
		c := part[0]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			return part, nil
		}
	}
	if len(part) >= 2 && len(part) <= 3 && part[0] == 'f' {
		if n, err := strconv.Atoi(part[1:]); err == nil && n >= 1 && n <= 24 {
			return part, nil
		}
	}
	return "", fmt.Errorf("unknown key %q", part)
}

// Listen registers a global hotkey and invokes callback each time it fires.
// The hook runs until ctx is cancelled. Callback runs on the hook goroutine
// and must not block.
func Listen(ctx context.Context, hotkeyConfig string, callback func()) error {
	keys, err := parseHotkey(hotkeyConfig)
	if err != nil {
		return err
	}
	log.Printf("Hotkey: registering %s as %v", hotkeyConfig, keys)

	gohook.Register(gohook.KeyDown, keys, func(gohook.Event) {
		log.Printf("Hotkey: %s pressed", hotkeyConfig)
		if callback != nil {
			callback()
		}
	})

	var once sync.Once
	stop := func() { once.Do(gohook.End) }

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Hotkey: PANIC in hook goroutine: %v", r)
			}
		}()
		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("Hotkey: gohook.Start returned nil channel")
			return
		}
		<-gohook.Process(evChan)
		log.Printf("Hotkey: event loop stopped")
	}()

	go func() {
		<-ctx.Done()
		stop()
	}()
	return nil
}
