package formatter

import (
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/bus-tracker/siri"
)

// BuildXML serializes a SIRI response to XML
func (rb *responseBuilder) BuildXML(res *siri.SiriResponse) []byte {
	var b strings.Builder
	b.WriteString("<Siri xmlns=\"http://www.siri.org.uk/siri\">")
	sd := res.Siri.ServiceDelivery
	b.WriteString("<ServiceDelivery>")
	writeElem(&b, "ResponseTimestamp", sd.ResponseTimestamp)
	writeElem(&b, "ProducerRef", sd.ProducerRef)
	for _, vm := range sd.VehicleMonitoringDelivery {
		writeVehicleMonitoringXML(&b, vm)
	}
	b.WriteString("</ServiceDelivery>")
	b.WriteString("</Siri>")
	return []byte(b.String())
}

func writeVehicleMonitoringXML(b *strings.Builder, vm siri.VehicleMonitoring) {
	b.WriteString("<VehicleMonitoringDelivery>")
	writeElem(b, "ResponseTimestamp", vm.ResponseTimestamp)
	writeElem(b, "ValidUntil", vm.ValidUntil)
	for _, va := range vm.VehicleActivity {
		b.WriteString("<VehicleActivity>")
		writeElem(b, "RecordedAtTime", va.RecordedAtTime)
		writeElem(b, "ValidUntilTime", va.ValidUntilTime)
		writeMVJXML(b, va.MonitoredVehicleJourney)
		if va.Extensions != nil {
			rp := va.Extensions.RouteProgress
			b.WriteString("<Extensions><RouteProgress>")
			writeElem(b, "Ratio", formatFloat(rp.Ratio))
			writeElem(b, "CoveredDistanceKm", rp.CoveredDistanceKm)
			writeElem(b, "RouteLengthKm", rp.RouteLengthKm)
			writeElem(b, "RemainingDistanceKm", rp.RemainingDistanceKm)
			writeElem(b, "DriverName", rp.DriverName)
			b.WriteString("</RouteProgress></Extensions>")
		}
		b.WriteString("</VehicleActivity>")
	}
	b.WriteString("</VehicleMonitoringDelivery>")
}

func writeMVJXML(b *strings.Builder, mvj siri.MonitoredVehicleJourney) {
	b.WriteString("<MonitoredVehicleJourney>")
	writeElem(b, "LineRef", mvj.LineRef)
	writeElem(b, "VehicleMode", mvj.VehicleMode)
	writeElem(b, "PublishedLineName", mvj.PublishedLineName)
	writeElem(b, "OriginName", mvj.OriginName)
	writeElem(b, "DestinationName", mvj.DestinationName)
	writeElem(b, "Monitored", strconv.FormatBool(mvj.Monitored))
	writeElem(b, "DataSource", mvj.DataSource)
	if loc := mvj.VehicleLocation; loc != nil {
		b.WriteString("<VehicleLocation>")
		writeElem(b, "Longitude", formatFloat(loc.Longitude))
		writeElem(b, "Latitude", formatFloat(loc.Latitude))
		b.WriteString("</VehicleLocation>")
	}
	if mvj.Velocity != nil {
		writeElem(b, "Velocity", strconv.Itoa(*mvj.Velocity))
	}
	writeElem(b, "VehicleStatus", mvj.VehicleStatus)
	writeElem(b, "ProgressRate", mvj.ProgressRate)
	writeElem(b, "VehicleRef", mvj.VehicleRef)
	if mc := mvj.MonitoredCall; mc != nil {
		b.WriteString("<MonitoredCall>")
		writeElem(b, "StopPointName", mc.StopPointName)
		writeElem(b, "Order", strconv.Itoa(mc.Order))
		writeElem(b, "VehicleAtStop", strconv.FormatBool(mc.VehicleAtStop))
		if d := mc.Extensions; d != nil {
			b.WriteString("<Extensions><Distances>")
			writeElem(b, "PresentableDistance", d.PresentableDistance)
			writeElem(b, "DistanceFromCall", formatFloat(d.DistanceFromCall))
			b.WriteString("</Distances></Extensions>")
		}
		b.WriteString("</MonitoredCall>")
	}
	writeElem(b, "IsCompleteStopSequence", strconv.FormatBool(mvj.IsCompleteStopSequence))
	b.WriteString("</MonitoredVehicleJourney>")
}

// writeElem writes <name>value</name>, skipping empty values
func writeElem(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString("<")
	b.WriteString(name)
	b.WriteString(">")
	b.WriteString(xmlEscape(value))
	b.WriteString("</")
	b.WriteString(name)
	b.WriteString(">")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}
