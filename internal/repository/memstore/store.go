// Package memstore хранит данные в памяти процесса. Используется для
// локального запуска (STORAGE=memory) и в тестах сервисов.
package memstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
)

type clanMemberKey struct {
	clanID int64
	userID int64
}

type voteKey struct {
	slotID int64
	userID int64
}

type slotRecord struct {
	id     int64
	roomID int64
	time   time.Time
}

type data struct {
	nextID int64

	users        map[int64]model.User
	clans        map[int64]model.Clan
	clanMembers  map[clanMemberKey]bool // значение: is_admin
	rooms        map[int64]model.Room
	sessions     map[int64]model.Session
	reservations map[int64]model.SessionReservation
	slots        map[int64]slotRecord
	votes        map[voteKey]struct{}
	evaluations  map[int64]model.Evaluation
	chats        map[int64]model.ChatMessage
}

func newData() *data {
	return &data{
		users:        make(map[int64]model.User),
		clans:        make(map[int64]model.Clan),
		clanMembers:  make(map[clanMemberKey]bool),
		rooms:        make(map[int64]model.Room),
		sessions:     make(map[int64]model.Session),
		reservations: make(map[int64]model.SessionReservation),
		slots:        make(map[int64]slotRecord),
		votes:        make(map[voteKey]struct{}),
		evaluations:  make(map[int64]model.Evaluation),
		chats:        make(map[int64]model.ChatMessage),
	}
}

// clone копирует все таблицы. Записи хранятся по значению, а их
// указатели (*time.Time, *int64) только заменяются, поэтому поверхностной
// копии map достаточно.
func (d *data) clone() *data {
	return &data{
		nextID:       d.nextID,
		users:        maps.Clone(d.users),
		clans:        maps.Clone(d.clans),
		clanMembers:  maps.Clone(d.clanMembers),
		rooms:        maps.Clone(d.rooms),
		sessions:     maps.Clone(d.sessions),
		reservations: maps.Clone(d.reservations),
		slots:        maps.Clone(d.slots),
		votes:        maps.Clone(d.votes),
		evaluations:  maps.Clone(d.evaluations),
		chats:        maps.Clone(d.chats),
	}
}

func (d *data) id() int64 {
	d.nextID++
	return d.nextID
}

func (d *data) nickname(userID int64) string {
	return d.users[userID].Nickname
}

// Store реализация repository.Store в памяти. Транзакции выполняются
// строго последовательно, при ошибке состояние откатывается к снимку.
type Store struct {
	mu sync.Mutex
	d  *data
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{d: newData()}
}

// view привязывает хранилища к Store; внутри транзакции блокировка уже взята
type view struct {
	s    *Store
	inTx bool
}

func (v view) do(fn func(d *data) error) error {
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.d)
}

func (s *Store) root() view { return view{s: s} }

func (s *Store) Users() repository.UserStore               { return users{s.root()} }
func (s *Store) Rooms() repository.RoomStore               { return rooms{s.root()} }
func (s *Store) Sessions() repository.SessionStore         { return sessions{s.root()} }
func (s *Store) Reservations() repository.ReservationStore { return reservations{s.root()} }
func (s *Store) Availability() repository.AvailabilityStore {
	return availability{s.root()}
}
func (s *Store) Evaluations() repository.EvaluationStore { return evaluations{s.root()} }
func (s *Store) Chats() repository.ChatStore             { return chats{s.root()} }

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.d.clone()
	if err := fn(&txStore{v: view{s: s, inTx: true}}); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// CreateClan добавляет клан; владелец становится его администратором
func (s *Store) CreateClan(_ context.Context, clan *model.Clan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clan.ID = s.d.id()
	s.d.clans[clan.ID] = *clan
	s.d.clanMembers[clanMemberKey{clan.ID, clan.OwnerID}] = true
	return nil
}

// AddClanMember добавляет участника клана
func (s *Store) AddClanMember(_ context.Context, clanID, userID int64, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.d.clans[clanID]; !ok {
		return repository.ErrNotFound
	}
	s.d.clanMembers[clanMemberKey{clanID, userID}] = isAdmin
	return nil
}

// txStore выдаётся в InTx; вложенный InTx переиспользует текущую транзакцию
type txStore struct {
	v view
}

func (t *txStore) Users() repository.UserStore               { return users{t.v} }
func (t *txStore) Rooms() repository.RoomStore               { return rooms{t.v} }
func (t *txStore) Sessions() repository.SessionStore         { return sessions{t.v} }
func (t *txStore) Reservations() repository.ReservationStore { return reservations{t.v} }
func (t *txStore) Availability() repository.AvailabilityStore {
	return availability{t.v}
}
func (t *txStore) Evaluations() repository.EvaluationStore { return evaluations{t.v} }
func (t *txStore) Chats() repository.ChatStore             { return chats{t.v} }

func (t *txStore) InTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

func (t *txStore) Ping(context.Context) error { return nil }
