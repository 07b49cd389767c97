package siri

// SiriResponse is the top-level SIRI response structure
type SiriResponse struct {
	Siri SiriServiceDelivery `json:"Siri"`
}

// SiriServiceDelivery wraps the ServiceDelivery element
type SiriServiceDelivery struct {
	ServiceDelivery ServiceDelivery `json:"ServiceDelivery"`
}

// ServiceDelivery carries the VM deliveries
type ServiceDelivery struct {
	ResponseTimestamp         string              `json:"ResponseTimestamp"`
	ProducerRef               string              `json:"ProducerRef,omitempty"`
	VehicleMonitoringDelivery []VehicleMonitoring `json:"VehicleMonitoringDelivery"`
}

// ErrorResponse is returned for rejected requests
type ErrorResponse struct {
	Siri struct {
		ServiceDelivery struct {
			ResponseTimestamp string `json:"ResponseTimestamp"`
			ErrorCondition    struct {
				Description string `json:"Description"`
			} `json:"ErrorCondition"`
		} `json:"ServiceDelivery"`
	} `json:"Siri"`
}
