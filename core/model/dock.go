package model

// Dock is a physical charging position.
type Dock struct {
	ID            int
	PowerKW       float64
	Source        SourceKind
	Occupied      bool
	VehicleID     int // 0 when free
	OccupiedHours float64
}

// AvailablePower returns the weather-adjusted power the dock can deliver.
func (d Dock) AvailablePower(w Weather) float64 {
	return d.Source.AvailablePower(d.PowerKW, w)
}

// Occupy marks the dock as used by vehicleID.
func (d *Dock) Occupy(vehicleID int) {
	d.Occupied = true
	d.VehicleID = vehicleID
}

// Release frees the dock.
func (d *Dock) Release() {
	d.Occupied = false
	d.VehicleID = 0
}

// DockSpec describes a dock at station construction.
type DockSpec struct {
	ID      int
	PowerKW float64
	Source  SourceKind
}

// DefaultDocks is the standard five dock layout of a station.
func DefaultDocks() []DockSpec {
	return []DockSpec{
		{ID: 1, PowerKW: PowerSlow, Source: SourceGrid},
		{ID: 2, PowerKW: PowerSlow, Source: SourceSolar},
		{ID: 3, PowerKW: PowerMedium, Source: SourceGrid},
		{ID: 4, PowerKW: PowerMedium, Source: SourceSolar},
		{ID: 5, PowerKW: PowerFast, Source: SourceGrid},
	}
}
