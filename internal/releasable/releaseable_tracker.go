// Package releasable provides a registry for tracking pooled resources that
// must be explicitly released, used by tests to detect leaks.
package releasable

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// ItemKind is the kind of a releasable item.
type ItemKind string

//nolint:gochecknoglobals
var (
	activeMutex sync.Mutex

	// +checklocks:activeMutex
	activeItems = map[ItemKind]map[any]string{}
)

// EnableTracking enables tracking of items of the provided kind. Items
// already tracked are preserved.
func EnableTracking(kind ItemKind) {
	activeMutex.Lock()
	defer activeMutex.Unlock()

	if activeItems[kind] == nil {
		activeItems[kind] = map[any]string{}
	}
}

// DisableTracking stops tracking items of the provided kind and forgets its
// items.
func DisableTracking(kind ItemKind) {
	activeMutex.Lock()
	defer activeMutex.Unlock()

	delete(activeItems, kind)
}

// Created registers an item of the provided kind along with the stack trace
// of its creation. No-op when the kind is not tracked.
func Created(kind ItemKind, item any) {
	activeMutex.Lock()
	defer activeMutex.Unlock()

	m := activeItems[kind]
	if m == nil {
		return
	}

	m[item] = string(debug.Stack())
}

// Released unregisters an item of the provided kind. No-op when the kind is
// not tracked or the item was already released.
func Released(kind ItemKind, item any) {
	activeMutex.Lock()
	defer activeMutex.Unlock()

	m := activeItems[kind]
	if m == nil {
		return
	}

	delete(m, item)
}

// Active returns a snapshot of currently tracked items grouped by kind,
// mapping each item to the stack trace of its creation.
func Active() map[ItemKind]map[any]string {
	activeMutex.Lock()
	defer activeMutex.Unlock()

	result := map[ItemKind]map[any]string{}
	for kind, m := range activeItems {
		result[kind] = maps.Clone(m)
	}

	return result
}

// Verify fails when any tracked item has not been released.
func Verify() error {
	activeMutex.Lock()
	defer activeMutex.Unlock()

	for kind, m := range activeItems {
		if len(m) > 0 {
			var sb strings.Builder

			for item, stack := range m {
				fmt.Fprintf(&sb, "%v allocated at:\n%v\n", item, stack)
			}

			return errors.Errorf("found %v %q resources that have not been released:\n%v", len(m), kind, sb.String())
		}
	}

	return nil
}
