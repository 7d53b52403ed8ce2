// Package registry holds the users and vehicles a station can serve.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/chargestation/core/model"
)

var (
	// ErrFull is returned when a registry reached its configured capacity.
	ErrFull = errors.New("registry full")
	// ErrDuplicate is returned when an id is already registered.
	ErrDuplicate = errors.New("id already registered")
	// ErrUnknownOwner is returned when a vehicle names an unregistered user.
	ErrUnknownOwner = errors.New("owner not found")
	// ErrUnknownVehicle is returned when updating a vehicle that does not exist.
	ErrUnknownVehicle = errors.New("vehicle not found")
)

// UserRegistry resolves users by id.
type UserRegistry interface {
	LookupUser(id int) (model.User, bool)
}

// VehicleRegistry resolves vehicles by id and persists state of charge.
type VehicleRegistry interface {
	LookupVehicle(id int) (model.Vehicle, bool)
	UpdateSoC(id int, soc float64) error
}

// Registry is the union consumed by a station.
type Registry interface {
	UserRegistry
	VehicleRegistry
}

// Registrar accepts new users and vehicles.
type Registrar interface {
	RegisterUser(u model.User) error
	RegisterVehicle(v model.Vehicle) error
}

// MemoryStore keeps users and vehicles in memory with bounded capacity.
// A limit of 0 means unbounded.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[int]model.User
	vehicles    map[int]model.Vehicle
	maxUsers    int
	maxVehicles int
}

// NewMemoryStore returns an empty store bounded by the given limits.
func NewMemoryStore(maxUsers, maxVehicles int) *MemoryStore {
	return &MemoryStore{
		users:       map[int]model.User{},
		vehicles:    map[int]model.Vehicle{},
		maxUsers:    maxUsers,
		maxVehicles: maxVehicles,
	}
}

// RegisterUser adds u, rejecting duplicates and a full store.
func (s *MemoryStore) RegisterUser(u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxUsers > 0 && len(s.users) >= s.maxUsers {
		return fmt.Errorf("%w: %d users", ErrFull, s.maxUsers)
	}
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("%w: user %d", ErrDuplicate, u.ID)
	}
	s.users[u.ID] = u
	return nil
}

// RegisterVehicle adds v once its owner is registered.
func (s *MemoryStore) RegisterVehicle(v model.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxVehicles > 0 && len(s.vehicles) >= s.maxVehicles {
		return fmt.Errorf("%w: %d vehicles", ErrFull, s.maxVehicles)
	}
	if u, ok := s.users[v.OwnerID]; !ok || !u.Registered {
		return fmt.Errorf("%w: user %d", ErrUnknownOwner, v.OwnerID)
	}
	if _, ok := s.vehicles[v.ID]; ok {
		return fmt.Errorf("%w: vehicle %d", ErrDuplicate, v.ID)
	}
	s.vehicles[v.ID] = v
	return nil
}

// LookupUser returns the user with the given id.
func (s *MemoryStore) LookupUser(id int) (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// LookupVehicle returns the vehicle with the given id.
func (s *MemoryStore) LookupVehicle(id int) (model.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	return v, ok
}

// UpdateSoC stores the state of charge of a registered vehicle.
func (s *MemoryStore) UpdateSoC(id int, soc float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownVehicle, id)
	}
	v.SoC = soc
	s.vehicles[id] = v
	return nil
}

// Users lists registered users sorted by id.
func (s *MemoryStore) Users() []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Vehicles lists vehicles sorted by id, optionally restricted to one owner
// when owner is non-zero.
func (s *MemoryStore) Vehicles(owner int) []model.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		if owner != 0 && v.OwnerID != owner {
			continue
		}
		res = append(res, v)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}
