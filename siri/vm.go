package siri

// VehicleMonitoring represents the VehicleMonitoring delivery
type VehicleMonitoring struct {
	ResponseTimestamp string                 `json:"ResponseTimestamp"`
	ValidUntil        string                 `json:"ValidUntil"`
	VehicleActivity   []VehicleActivityEntry `json:"VehicleActivity"`
}

// VehicleActivityEntry represents a single vehicle's activity
type VehicleActivityEntry struct {
	RecordedAtTime          string                  `json:"RecordedAtTime"`
	ValidUntilTime          string                  `json:"ValidUntilTime,omitempty"`
	MonitoredVehicleJourney MonitoredVehicleJourney `json:"MonitoredVehicleJourney"`
	Extensions              *ActivityExtensions     `json:"Extensions,omitempty"`
}

// MonitoredVehicleJourney contains details about a monitored vehicle journey
type MonitoredVehicleJourney struct {
	LineRef                string           `json:"LineRef"`
	VehicleMode            string           `json:"VehicleMode,omitempty"`
	PublishedLineName      string           `json:"PublishedLineName,omitempty"`
	OriginName             string           `json:"OriginName,omitempty"`
	DestinationName        string           `json:"DestinationName,omitempty"`
	Monitored              bool             `json:"Monitored"`
	DataSource             string           `json:"DataSource"`
	VehicleLocation        *VehicleLocation `json:"VehicleLocation"`
	Velocity               *int             `json:"Velocity,omitempty"`
	VehicleStatus          string           `json:"VehicleStatus,omitempty"`
	ProgressRate           string           `json:"ProgressRate,omitempty"`
	VehicleRef             string           `json:"VehicleRef"`
	MonitoredCall          *MonitoredCall   `json:"MonitoredCall,omitempty"`
	IsCompleteStopSequence bool             `json:"IsCompleteStopSequence"`
}

// VehicleLocation represents the geographical location of a vehicle
type VehicleLocation struct {
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
}

// MonitoredCall is the next stop on the route
type MonitoredCall struct {
	StopPointName string     `json:"StopPointName"`
	Order         int        `json:"Order"`
	VehicleAtStop bool       `json:"VehicleAtStop"`
	Extensions    *Distances `json:"Extensions,omitempty"`
}

// Distances describes how far the vehicle is from a call
type Distances struct {
	PresentableDistance string  `json:"PresentableDistance"`
	DistanceFromCall    float64 `json:"DistanceFromCall"` // meters
}

// ActivityExtensions holds non-SIRI data attached to an activity
type ActivityExtensions struct {
	RouteProgress RouteProgress `json:"RouteProgress"`
}

// RouteProgress is the estimated progress along the stop route
type RouteProgress struct {
	Ratio               float64 `json:"Ratio"`
	CoveredDistanceKm   string  `json:"CoveredDistanceKm"`
	RouteLengthKm       string  `json:"RouteLengthKm"`
	RemainingDistanceKm string  `json:"RemainingDistanceKm"`
	DriverName          string  `json:"DriverName,omitempty"`
}

// ProgressRate values
const (
	ProgressNone    = "noProgress"
	ProgressNormal  = "normalProgress"
	ProgressUnknown = "unknown"
)
