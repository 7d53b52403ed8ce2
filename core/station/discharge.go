package station

import (
	"fmt"
	"math"

	"github.com/kilianp07/chargestation/core/events"
	"github.com/kilianp07/chargestation/core/journal"
	"github.com/kilianp07/chargestation/core/model"
)

// DischargeToGrid draws up to energy kWh from a V2G vehicle and returns the
// amount actually discharged. Vehicles without V2G support discharge nothing.
func (s *Station) DischargeToGrid(vehicleID int, energy float64) (float64, error) {
	if energy < 0 || math.IsNaN(energy) {
		return 0, ErrNegativeEnergy
	}
	s.mu.Lock()
	out := s.newOutbox()
	v, ok := s.registry.LookupVehicle(vehicleID)
	if !ok {
		s.mu.Unlock()
		return 0, ErrVehicleNotFound
	}
	after, discharged := v.DischargeToGrid(energy)
	if discharged > 0 {
		if err := s.registry.UpdateSoC(v.ID, after.SoC); err != nil {
			s.mu.Unlock()
			return 0, fmt.Errorf("%w: persist soc of vehicle %d: %v", ErrConsistencyFault, v.ID, err)
		}
		s.logger.Infof("station %d: vehicle %d discharged %.2f kWh, soc %.1f%%", s.cfg.ID, v.ID, discharged, after.SoC)
		s.notify(out, v.OwnerID, model.NotifyDischarged, "Energy discharged to grid (kWh):", discharged, true)
		out.events = append(out.events, events.VehicleDischarged{StationID: s.cfg.ID, VehicleID: v.ID, EnergyKWh: discharged, SoCAfter: after.SoC})
		s.record(out, journal.Record{Kind: journal.KindDischarged, UserID: v.OwnerID, VehicleID: v.ID, EnergyKWh: discharged})
	}
	s.mu.Unlock()
	s.flush(out)
	return discharged, nil
}
