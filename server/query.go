package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/bus-tracker/converter"
)

// QueryError is a rejected SIRI query parameter
type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

func normalizeDetailLevel(s string) (string, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "normal" {
		return "normal", nil
	}
	if s == "minimum" {
		return "minimum", nil
	}
	return "", &QueryError{Msg: "Unsupported VehicleMonitoringDetailLevel: " + s}
}

func parseNonNegativeInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0, &QueryError{Msg: "Numeric parameter must be a non-negative integer."}
	}
	return v, nil
}

// stripRef accepts both bare ids and {codespace}:{kind}:{id} references.
func stripRef(ref, codespace, kind string) string {
	ref = strings.TrimSpace(ref)
	prefix := codespace + ":" + kind + ":"
	if len(ref) > len(prefix) && strings.EqualFold(ref[:len(prefix)], prefix) {
		return ref[len(prefix):]
	}
	return ref
}

// parseVehicleMonitoringQuery validates the VM query. Parameter names are
// case insensitive.
func parseVehicleMonitoringQuery(q url.Values, codespace string) (converter.Filter, error) {
	m := map[string]string{}
	for k, v := range q {
		if len(v) > 0 {
			m[strings.ToLower(k)] = strings.TrimSpace(v[0])
		}
	}
	if _, err := normalizeDetailLevel(m["vehiclemonitoringdetaillevel"]); err != nil {
		return converter.Filter{}, err
	}
	limit, err := parseNonNegativeInt(m["maximumvehicles"])
	if err != nil {
		return converter.Filter{}, err
	}
	return converter.Filter{
		VehicleRef:      stripRef(m["vehicleref"], codespace, "VehicleRef"),
		LineRef:         stripRef(m["lineref"], codespace, "Line"),
		MaximumVehicles: limit,
	}, nil
}
