package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Freeeeeet/jamroom/internal/model"
	"github.com/Freeeeeet/jamroom/internal/repository"
)

type users struct{ v view }

func (u users) Create(_ context.Context, user *model.User) error {
	return u.v.do(func(d *data) error {
		for _, existing := range d.users {
			if existing.Nickname == user.Nickname {
				return repository.ErrDuplicate
			}
		}
		user.ID = d.id()
		user.CreatedAt = time.Now().UTC()
		d.users[user.ID] = *user
		return nil
	})
}

func (u users) GetByID(_ context.Context, id int64) (*model.User, error) {
	var out *model.User
	err := u.v.do(func(d *data) error {
		if user, ok := d.users[id]; ok {
			out = &user
		}
		return nil
	})
	return out, err
}

func (u users) GetByNickname(_ context.Context, nickname string) (*model.User, error) {
	var out *model.User
	err := u.v.do(func(d *data) error {
		for _, user := range d.users {
			if user.Nickname == nickname {
				out = &user
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (u users) GetClan(_ context.Context, clanID int64) (*model.Clan, error) {
	var out *model.Clan
	err := u.v.do(func(d *data) error {
		if clan, ok := d.clans[clanID]; ok {
			out = &clan
		}
		return nil
	})
	return out, err
}

func (u users) IsClanMember(_ context.Context, clanID, userID int64) (bool, error) {
	var ok bool
	err := u.v.do(func(d *data) error {
		_, ok = d.clanMembers[clanMemberKey{clanID, userID}]
		return nil
	})
	return ok, err
}

func (u users) IsClanAdmin(_ context.Context, clanID, userID int64) (bool, error) {
	var ok bool
	err := u.v.do(func(d *data) error {
		if clan, exists := d.clans[clanID]; exists && clan.OwnerID == userID {
			ok = true
			return nil
		}
		ok = d.clanMembers[clanMemberKey{clanID, userID}]
		return nil
	})
	return ok, err
}

type rooms struct{ v view }

func (r rooms) Create(_ context.Context, room *model.Room) error {
	return r.v.do(func(d *data) error {
		room.ID = d.id()
		room.CreatedAt = time.Now().UTC()
		room.Confirmed = false
		room.Ended = false
		room.ConfirmedAt = nil
		room.EndedAt = nil

		stored := *room
		stored.Sessions = nil
		stored.ManagerNickname = ""
		d.rooms[room.ID] = stored
		return nil
	})
}

func (r rooms) read(d *data, id int64) *model.Room {
	room, ok := d.rooms[id]
	if !ok {
		return nil
	}
	room.ManagerNickname = d.nickname(room.ManagerID)
	return &room
}

func (r rooms) GetByID(_ context.Context, id int64) (*model.Room, error) {
	var out *model.Room
	err := r.v.do(func(d *data) error {
		out = r.read(d, id)
		return nil
	})
	return out, err
}

// LockByID совпадает с GetByID: транзакции memstore и так последовательны
func (r rooms) LockByID(ctx context.Context, id int64) (*model.Room, error) {
	return r.GetByID(ctx, id)
}

func (r rooms) Update(_ context.Context, room *model.Room) error {
	return r.v.do(func(d *data) error {
		stored, ok := d.rooms[room.ID]
		if !ok {
			return repository.ErrNotFound
		}
		stored.Title = room.Title
		stored.Song = room.Song
		stored.Artist = room.Artist
		stored.Description = room.Description
		stored.IsPrivate = room.IsPrivate
		stored.PasswordHash = room.PasswordHash
		d.rooms[room.ID] = stored
		return nil
	})
}

func (r rooms) MarkConfirmed(_ context.Context, id int64, at time.Time) (bool, error) {
	var changed bool
	err := r.v.do(func(d *data) error {
		room, ok := d.rooms[id]
		if !ok || room.Confirmed {
			return nil
		}
		room.Confirmed = true
		room.ConfirmedAt = &at
		d.rooms[id] = room
		changed = true
		return nil
	})
	return changed, err
}

func (r rooms) MarkEnded(_ context.Context, id int64, at time.Time) (bool, error) {
	var changed bool
	err := r.v.do(func(d *data) error {
		room, ok := d.rooms[id]
		if !ok || !room.Confirmed || room.Ended {
			return nil
		}
		room.Ended = true
		room.EndedAt = &at
		d.rooms[id] = room
		changed = true
		return nil
	})
	return changed, err
}

// Delete повторяет каскады схемы PostgreSQL
func (r rooms) Delete(_ context.Context, id int64) (bool, error) {
	var deleted bool
	err := r.v.do(func(d *data) error {
		if _, ok := d.rooms[id]; !ok {
			return nil
		}
		delete(d.rooms, id)
		deleted = true

		for sid, s := range d.sessions {
			if s.RoomID != id {
				continue
			}
			delete(d.sessions, sid)
			for rid, res := range d.reservations {
				if res.SessionID == sid {
					delete(d.reservations, rid)
				}
			}
		}
		for slotID, slot := range d.slots {
			if slot.roomID != id {
				continue
			}
			delete(d.slots, slotID)
			for key := range d.votes {
				if key.slotID == slotID {
					delete(d.votes, key)
				}
			}
		}
		for eid, e := range d.evaluations {
			if e.RoomID == id {
				delete(d.evaluations, eid)
			}
		}
		for cid, c := range d.chats {
			if c.RoomID == id {
				delete(d.chats, cid)
			}
		}
		return nil
	})
	return deleted, err
}

func (r rooms) list(filter func(d *data, room model.Room) bool, oldestFirst bool) ([]*model.Room, error) {
	var out []*model.Room
	err := r.v.do(func(d *data) error {
		for id, room := range d.rooms {
			if filter(d, room) {
				out = append(out, r.read(d, id))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.Room) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if oldestFirst {
			return c
		}
		return -c
	})
	return out, err
}

func (r rooms) ListOpen(context.Context) ([]*model.Room, error) {
	return r.list(func(_ *data, room model.Room) bool {
		return !room.Confirmed && !room.Ended && room.ClanID == nil
	}, false)
}

func (r rooms) ListByMember(_ context.Context, userID int64) ([]*model.Room, error) {
	return r.list(func(d *data, room model.Room) bool {
		if room.Ended {
			return false
		}
		if room.ManagerID == userID {
			return true
		}
		for _, s := range d.sessions {
			if s.RoomID == room.ID && s.IsHeldBy(userID) {
				return true
			}
		}
		return false
	}, false)
}

func (r rooms) ListByManager(_ context.Context, managerID int64) ([]*model.Room, error) {
	return r.list(func(_ *data, room model.Room) bool {
		return !room.Ended && room.ManagerID == managerID
	}, false)
}

func (r rooms) ListByClan(_ context.Context, clanID int64, oldestFirst bool) ([]*model.Room, error) {
	return r.list(func(_ *data, room model.Room) bool {
		return !room.Ended && room.ClanID != nil && *room.ClanID == clanID
	}, oldestFirst)
}

type sessions struct{ v view }

func (s sessions) read(d *data, id int64) *model.Session {
	session, ok := d.sessions[id]
	if !ok {
		return nil
	}
	if session.ParticipantID != nil {
		session.ParticipantNickname = d.nickname(*session.ParticipantID)
	}
	return &session
}

func (s sessions) CreateBatch(_ context.Context, roomID int64, names []string) ([]*model.Session, error) {
	var out []*model.Session
	err := s.v.do(func(d *data) error {
		if _, ok := d.rooms[roomID]; !ok {
			return repository.ErrNotFound
		}
		for _, name := range names {
			session := model.Session{ID: d.id(), RoomID: roomID, Name: name}
			d.sessions[session.ID] = session
			out = append(out, &session)
		}
		return nil
	})
	return out, err
}

func (s sessions) GetByID(_ context.Context, id int64) (*model.Session, error) {
	var out *model.Session
	err := s.v.do(func(d *data) error {
		out = s.read(d, id)
		return nil
	})
	return out, err
}

func (s sessions) GetByRoom(ctx context.Context, roomID int64) ([]*model.Session, error) {
	byRoom, err := s.GetByRoomIDs(ctx, []int64{roomID})
	if err != nil {
		return nil, err
	}
	return byRoom[roomID], nil
}

func (s sessions) GetByRoomIDs(_ context.Context, roomIDs []int64) (map[int64][]*model.Session, error) {
	out := make(map[int64][]*model.Session, len(roomIDs))
	err := s.v.do(func(d *data) error {
		for id, session := range d.sessions {
			if slices.Contains(roomIDs, session.RoomID) {
				out[session.RoomID] = append(out[session.RoomID], s.read(d, id))
			}
		}
		return nil
	})
	for _, list := range out {
		slices.SortFunc(list, func(a, b *model.Session) int { return cmp.Compare(a.ID, b.ID) })
	}
	return out, err
}

func (s sessions) LockForUpdate(_ context.Context, roomID, sessionID int64) (*model.Session, error) {
	var out *model.Session
	err := s.v.do(func(d *data) error {
		if session := s.read(d, sessionID); session != nil && session.RoomID == roomID {
			out = session
		}
		return nil
	})
	return out, err
}

func (s sessions) SetParticipant(_ context.Context, sessionID int64, userID *int64) error {
	return s.v.do(func(d *data) error {
		session, ok := d.sessions[sessionID]
		if !ok {
			return repository.ErrNotFound
		}
		if userID != nil {
			id := *userID
			userID = &id
		}
		session.ParticipantID = userID
		d.sessions[sessionID] = session
		return nil
	})
}

func (s sessions) ClearParticipant(_ context.Context, roomID, userID int64) ([]int64, error) {
	var cleared []int64
	err := s.v.do(func(d *data) error {
		for id, session := range d.sessions {
			if session.RoomID == roomID && session.IsHeldBy(userID) {
				session.ParticipantID = nil
				d.sessions[id] = session
				cleared = append(cleared, id)
			}
		}
		return nil
	})
	slices.Sort(cleared)
	return cleared, err
}

func (s sessions) CountVacant(_ context.Context, roomID int64) (int, error) {
	var n int
	err := s.v.do(func(d *data) error {
		for _, session := range d.sessions {
			if session.RoomID == roomID && !session.IsOccupied() {
				n++
			}
		}
		return nil
	})
	return n, err
}

type reservations struct{ v view }

func (r reservations) Create(_ context.Context, res *model.SessionReservation) error {
	return r.v.do(func(d *data) error {
		if _, ok := d.sessions[res.SessionID]; !ok {
			return repository.ErrNotFound
		}
		for _, existing := range d.reservations {
			if existing.SessionID == res.SessionID && existing.UserID == res.UserID {
				return repository.ErrDuplicate
			}
		}
		res.ID = d.id()
		res.CreatedAt = time.Now().UTC()
		stored := *res
		stored.UserNickname = ""
		d.reservations[res.ID] = stored
		return nil
	})
}

func (r reservations) Delete(_ context.Context, sessionID, userID int64) (bool, error) {
	var deleted bool
	err := r.v.do(func(d *data) error {
		for id, res := range d.reservations {
			if res.SessionID == sessionID && res.UserID == userID {
				delete(d.reservations, id)
				deleted = true
			}
		}
		return nil
	})
	return deleted, err
}

func (r reservations) ListBySessionIDs(_ context.Context, sessionIDs []int64) (map[int64][]*model.SessionReservation, error) {
	out := make(map[int64][]*model.SessionReservation)
	err := r.v.do(func(d *data) error {
		for _, res := range d.reservations {
			if slices.Contains(sessionIDs, res.SessionID) {
				res.UserNickname = d.nickname(res.UserID)
				out[res.SessionID] = append(out[res.SessionID], &res)
			}
		}
		return nil
	})
	for _, list := range out {
		slices.SortFunc(list, func(a, b *model.SessionReservation) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
	}
	return out, err
}

type availability struct{ v view }

func (a availability) RemoveVoter(_ context.Context, roomID, userID int64) error {
	return a.v.do(func(d *data) error {
		for key := range d.votes {
			if key.userID == userID && d.slots[key.slotID].roomID == roomID {
				delete(d.votes, key)
			}
		}
		return nil
	})
}

func (a availability) GetOrCreateSlot(_ context.Context, roomID int64, at time.Time) (int64, error) {
	var id int64
	err := a.v.do(func(d *data) error {
		if _, ok := d.rooms[roomID]; !ok {
			return repository.ErrNotFound
		}
		for _, slot := range d.slots {
			if slot.roomID == roomID && slot.time.Equal(at) {
				id = slot.id
				return nil
			}
		}
		id = d.id()
		d.slots[id] = slotRecord{id: id, roomID: roomID, time: at.UTC()}
		return nil
	})
	return id, err
}

func (a availability) AddVoter(_ context.Context, slotID, userID int64) error {
	return a.v.do(func(d *data) error {
		if _, ok := d.slots[slotID]; !ok {
			return repository.ErrNotFound
		}
		d.votes[voteKey{slotID, userID}] = struct{}{}
		return nil
	})
}

func (a availability) PruneEmpty(_ context.Context, roomID int64) (int64, error) {
	var pruned int64
	err := a.v.do(func(d *data) error {
		voted := make(map[int64]bool)
		for key := range d.votes {
			voted[key.slotID] = true
		}
		for id, slot := range d.slots {
			if slot.roomID == roomID && !voted[id] {
				delete(d.slots, id)
				pruned++
			}
		}
		return nil
	})
	return pruned, err
}

func (a availability) ListByRoom(_ context.Context, roomID int64) ([]*model.AvailabilitySlot, error) {
	var out []*model.AvailabilitySlot
	err := a.v.do(func(d *data) error {
		for _, slot := range d.slots {
			if slot.roomID != roomID {
				continue
			}
			item := &model.AvailabilitySlot{ID: slot.id, RoomID: slot.roomID, Time: slot.time, Voters: []model.Voter{}}
			for key := range d.votes {
				if key.slotID == slot.id {
					item.Voters = append(item.Voters, model.Voter{ID: key.userID, Nickname: d.nickname(key.userID)})
				}
			}
			slices.SortFunc(item.Voters, func(x, y model.Voter) int { return cmp.Compare(x.ID, y.ID) })
			out = append(out, item)
		}
		return nil
	})
	slices.SortFunc(out, func(x, y *model.AvailabilitySlot) int {
		if c := x.Time.Compare(y.Time); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out, err
}

type evaluations struct{ v view }

func (e evaluations) HasEvaluated(_ context.Context, roomID, evaluatorID int64) (bool, error) {
	var found bool
	err := e.v.do(func(d *data) error {
		for _, ev := range d.evaluations {
			if ev.RoomID == roomID && ev.EvaluatorID == evaluatorID {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (e evaluations) CreateBatch(_ context.Context, batch []*model.Evaluation) error {
	return e.v.do(func(d *data) error {
		now := time.Now().UTC()
		for _, ev := range batch {
			ev.ID = d.id()
			ev.CreatedAt = now
			d.evaluations[ev.ID] = *ev
		}
		return nil
	})
}

func (e evaluations) ListByRoom(_ context.Context, roomID int64) ([]*model.Evaluation, error) {
	var out []*model.Evaluation
	err := e.v.do(func(d *data) error {
		for _, ev := range d.evaluations {
			if ev.RoomID == roomID {
				out = append(out, &ev)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.Evaluation) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

type chats struct{ v view }

func (c chats) Create(_ context.Context, msg *model.ChatMessage) error {
	return c.v.do(func(d *data) error {
		if _, ok := d.rooms[msg.RoomID]; !ok {
			return repository.ErrNotFound
		}
		msg.ID = d.id()
		msg.Timestamp = time.Now().UTC()
		stored := *msg
		stored.SenderNickname = ""
		d.chats[msg.ID] = stored
		return nil
	})
}

func (c chats) ListByRoom(_ context.Context, roomID int64) ([]*model.ChatMessage, error) {
	var out []*model.ChatMessage
	err := c.v.do(func(d *data) error {
		for _, msg := range d.chats {
			if msg.RoomID == roomID {
				msg.SenderNickname = d.nickname(msg.SenderID)
				out = append(out, &msg)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.ChatMessage) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, err
}
