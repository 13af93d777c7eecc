package server

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/spigell/hr-gpt/internal/workflow"
)

var errSessionNotFound = errors.New("session not found")

// Store keeps one workflow machine per session in memory.
type Store struct {
	mu         sync.RWMutex
	sessions   map[string]*workflow.Machine
	newMachine func() *workflow.Machine
}

func NewStore(newMachine func() *workflow.Machine) *Store {
	return &Store{sessions: map[string]*workflow.Machine{}, newMachine: newMachine}
}

func (s *Store) Create() (string, *workflow.Machine) {
	id := uuid.NewString()
	m := s.newMachine()

	s.mu.Lock()
	s.sessions[id] = m
	s.mu.Unlock()

	return id, m
}

func (s *Store) Get(id string) (*workflow.Machine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return m, nil
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return errSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
