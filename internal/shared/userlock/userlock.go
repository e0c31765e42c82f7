// Package userlock はユーザー単位の排他ロックを提供します。
// 異なるユーザーは互いにブロックしません。
package userlock

import "sync"

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locks はキーごとのミューテックスです。使われなくなったキーは解放されます。
type Locks struct {
	mu      sync.Mutex
	entries map[uint]*entry
}

// New は空の Locks を生成します。
func New() *Locks {
	return &Locks{entries: map[uint]*entry{}}
}

// Lock は userID のロックを取得し、解放用の関数を返します。
//
//	unlock := locks.Lock(userID)
//	defer unlock()
func (l *Locks) Lock(userID uint) (unlock func()) {
	l.mu.Lock()
	e, ok := l.entries[userID]
	if !ok {
		e = &entry{}
		l.entries[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, userID)
		}
		l.mu.Unlock()
	}
}

// Len は現在保持しているキー数を返します。
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
