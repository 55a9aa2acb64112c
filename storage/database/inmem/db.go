package inmemdb

import (
	"sync"

	"github.com/bainum/dashboard/core/session"
)

type (
	DB struct {
		session *sessionTable
	}

	sessionTable struct {
		mutex sync.RWMutex
		table map[string]session.Record
	}
)

func Open() (*DB, error) {
	db := &DB{
		session: &sessionTable{table: make(map[string]session.Record)},
	}
	return db, nil
}
