package formatter

import (
	"encoding/json"
	"time"

	"github.com/theoremus-urban-solutions/bus-tracker/siri"
	"github.com/theoremus-urban-solutions/bus-tracker/utils"
)

// BuildServiceDelivery creates a standardized ServiceDelivery wrapper
// with ResponseTimestamp and ProducerRef (codespace)
func BuildServiceDelivery(timestamp time.Time, codespace string) siri.ServiceDelivery {
	if codespace == "" {
		codespace = "UNKNOWN"
	}
	return siri.ServiceDelivery{
		ResponseTimestamp:         utils.Iso8601FromTime(timestamp),
		ProducerRef:               codespace,
		VehicleMonitoringDelivery: []siri.VehicleMonitoring{},
	}
}

// WrapVehicleMonitoringResponse wraps a VM delivery in a complete SIRI response
func WrapVehicleMonitoringResponse(vm siri.VehicleMonitoring, codespace string) *siri.SiriResponse {
	sd := BuildServiceDelivery(extractTimestampFromISO8601(vm.ResponseTimestamp), codespace)
	sd.VehicleMonitoringDelivery = []siri.VehicleMonitoring{vm}
	return &siri.SiriResponse{
		Siri: siri.SiriServiceDelivery{
			ServiceDelivery: sd,
		},
	}
}

// BuildErrorJSON returns a SIRI ErrorCondition payload
func BuildErrorJSON(msg string) []byte {
	var e siri.ErrorResponse
	e.Siri.ServiceDelivery.ResponseTimestamp = utils.Iso8601Now()
	e.Siri.ServiceDelivery.ErrorCondition.Description = msg
	b, _ := json.Marshal(e)
	return b
}

// extractTimestampFromISO8601 parses an ISO8601 timestamp, falling back to
// the current time
func extractTimestampFromISO8601(iso string) time.Time {
	if t := utils.ParseTimestamp(iso); !t.IsZero() {
		return t
	}
	return time.Now()
}
