package station

import (
	"errors"
	"fmt"

	"github.com/kilianp07/chargestation/core/model"
	"github.com/kilianp07/chargestation/core/registry"
)

// RegisterUser adds a user to the station registry. Unknown membership
// levels are stored as regular.
func (s *Station) RegisterUser(id int, name string, membership int) (model.User, error) {
	r, ok := s.registry.(registry.Registrar)
	if !ok {
		return model.User{}, fmt.Errorf("station %d: registry does not accept registrations", s.cfg.ID)
	}
	if id <= 0 {
		return model.User{}, fmt.Errorf("%w: user id must be positive", ErrInvalidInput)
	}
	u := model.NewUser(id, name, membership)
	if err := r.RegisterUser(u); err != nil {
		return model.User{}, classifyRegistryErr(err)
	}
	s.logger.Infof("station %d: user %d registered", s.cfg.ID, id)
	return u, nil
}

// RegisterVehicle adds a vehicle owned by an already registered user. SoC
// and capacity are clamped into range.
func (s *Station) RegisterVehicle(id, owner int, soc, capacity float64, v2g bool) (model.Vehicle, error) {
	r, ok := s.registry.(registry.Registrar)
	if !ok {
		return model.Vehicle{}, fmt.Errorf("station %d: registry does not accept registrations", s.cfg.ID)
	}
	if id <= 0 {
		return model.Vehicle{}, fmt.Errorf("%w: vehicle id must be positive", ErrInvalidInput)
	}
	v := model.NewVehicle(id, owner, soc, capacity, v2g)
	if err := r.RegisterVehicle(v); err != nil {
		return model.Vehicle{}, classifyRegistryErr(err)
	}
	s.logger.Infof("station %d: vehicle %d registered for user %d", s.cfg.ID, id, owner)
	return v, nil
}

func classifyRegistryErr(err error) error {
	switch {
	case errors.Is(err, registry.ErrFull):
		return fmt.Errorf("%w: %v", ErrCapacityExceeded, err)
	case errors.Is(err, registry.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrDuplicateID, err)
	case errors.Is(err, registry.ErrUnknownOwner):
		return fmt.Errorf("%w: %v", ErrUserNotFound, err)
	default:
		return err
	}
}
