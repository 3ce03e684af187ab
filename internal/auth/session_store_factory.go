// coffeechat - Social Posts and Real-Time Room Chat
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coffeechat

package auth

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// SessionStoreType names a session backend.
type SessionStoreType string

const (
	// SessionStoreMongo keeps sessions in the document database.
	SessionStoreMongo SessionStoreType = "mongo"

	// SessionStoreBadger keeps sessions on local disk.
	SessionStoreBadger SessionStoreType = "badger"

	// SessionStoreMemory keeps sessions in process memory.
	SessionStoreMemory SessionStoreType = "memory"
)

// SessionStoreFactory opens the configured backend and owns whatever it
// opened.
type SessionStoreFactory struct {
	kind  SessionStoreType
	db    *badger.DB
	store SessionStore
}

// NewSessionStoreFactory opens the backend. coll is only used for the
// mongo backend and path only for badger.
func NewSessionStoreFactory(ctx context.Context, kind SessionStoreType, path string, coll *mongo.Collection) (*SessionStoreFactory, error) {
	f := &SessionStoreFactory{kind: kind}

	switch kind {
	case SessionStoreMongo:
		if coll == nil {
			return nil, fmt.Errorf("mongo session store requires a collection")
		}
		ms := NewMongoSessionStore(coll)
		if err := ms.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		f.store = ms
	case SessionStoreBadger:
		db, err := OpenBadgerDB(path)
		if err != nil {
			return nil, err
		}
		f.db = db
		f.store = NewBadgerSessionStore(db)
	case SessionStoreMemory, "":
		f.kind = SessionStoreMemory
		f.store = NewMemorySessionStore()
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
	return f, nil
}

// Store returns the opened store.
func (f *SessionStoreFactory) Store() SessionStore {
	return f.store
}

// Kind returns the backend type.
func (f *SessionStoreFactory) Kind() SessionStoreType {
	return f.kind
}

// Close closes the Badger database if one was opened.
func (f *SessionStoreFactory) Close() error {
	if f.db != nil {
		return f.db.Close()
	}
	return nil
}
