package auth

import (
	"errors"
	"sync"
)

var ErrUserNotFound = errors.New("user not found")

// UserStore holds staff credentials. GetByCredentials matches username and
// password by exact string equality; it reports ErrUserNotFound for an
// unknown username and a wrong password alike.
type UserStore interface {
	GetByCredentials(username, password string) (User, error)
	GetByUsername(username string) (User, error)
	GetByID(id int64) (User, error)
	Put(user User) (User, error)
}

type InMemoryUserStore struct {
	mu     sync.RWMutex
	users  map[int64]User
	nextID int64
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[int64]User), nextID: 1}
}

func (s *InMemoryUserStore) GetByCredentials(username, password string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username && u.Password == password {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *InMemoryUserStore) GetByUsername(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *InMemoryUserStore) GetByID(id int64) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *InMemoryUserStore) Put(user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == 0 {
		for _, existing := range s.users {
			if existing.Username == user.Username {
				user.ID = existing.ID
				break
			}
		}
	}
	if user.ID == 0 {
		user.ID = s.nextID
		s.nextID++
	} else if user.ID >= s.nextID {
		s.nextID = user.ID + 1
	}
	s.users[user.ID] = user
	return user, nil
}
