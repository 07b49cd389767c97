package gtfs

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var wantedFiles = map[string]bool{
	"routes.txt":     true,
	"trips.txt":      true,
	"stops.txt":      true,
	"stop_times.txt": true,
}

// NewIndexFromBytes builds an index from the raw bytes of a GTFS zip.
func NewIndexFromBytes(data []byte) (*Index, error) {
	return NewIndexFromReader(bytes.NewReader(data), int64(len(data)))
}

// NewIndexFromReader builds an index from a GTFS zip.
func NewIndexFromReader(r io.ReaderAt, size int64) (*Index, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open gtfs zip: %w", err)
	}
	return indexFromZip(zr)
}

// NewIndexFromFile opens a local GTFS zip file.
func NewIndexFromFile(path string) (*Index, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	g, err := indexFromZip(&zr.Reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func indexFromZip(zr *zip.Reader) (*Index, error) {
	g := NewIndex()
	for _, f := range zr.File {
		if !wantedFiles[strings.ToLower(f.Name)] {
			continue
		}
		if err := g.consumeCSV(f); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
	}
	if len(g.Stops) == 0 {
		return nil, fmt.Errorf("gtfs zip has no stops")
	}
	return g, nil
}

func (g *Index) consumeCSV(f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	head := rec[0]
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	switch strings.ToLower(f.Name) {
	case "routes.txt":
		rID := idx("route_id")
		rSN := idx("route_short_name")
		rLN := idx("route_long_name")
		for _, row := range rec[1:] {
			name := cell(row, rSN)
			if name == "" {
				name = cell(row, rLN)
			}
			if id := cell(row, rID); id != "" && name != "" {
				g.RouteShortNames[id] = name
			}
		}
	case "trips.txt":
		rID := idx("route_id")
		tID := idx("trip_id")
		hs := idx("trip_headsign")
		for _, row := range rec[1:] {
			trip := cell(row, tID)
			if trip == "" {
				continue
			}
			if r := cell(row, rID); r != "" {
				g.TripToRoute[trip] = r
			}
			if h := cell(row, hs); h != "" {
				g.TripHeadsign[trip] = h
			}
		}
	case "stops.txt":
		sID := idx("stop_id")
		sN := idx("stop_name")
		sDesc := idx("stop_desc")
		sLat := idx("stop_lat")
		sLon := idx("stop_lon")
		if sID < 0 || sLat < 0 || sLon < 0 {
			return fmt.Errorf("missing stop_id, stop_lat or stop_lon column")
		}
		for _, row := range rec[1:] {
			lat, errLat := strconv.ParseFloat(cell(row, sLat), 64)
			lon, errLon := strconv.ParseFloat(cell(row, sLon), 64)
			if errLat != nil || errLon != nil {
				continue
			}
			g.Stops[cell(row, sID)] = Stop{
				Name:      cell(row, sN),
				Desc:      cell(row, sDesc),
				Latitude:  lat,
				Longitude: lon,
			}
		}
	case "stop_times.txt":
		tID := idx("trip_id")
		sID := idx("stop_id")
		sq := idx("stop_sequence")
		if tID < 0 || sID < 0 || sq < 0 {
			return nil
		}
		type stopAt struct {
			stop string
			seq  int
		}
		tmp := map[string][]stopAt{}
		for _, row := range rec[1:] {
			seq, err := strconv.Atoi(cell(row, sq))
			if err != nil {
				continue
			}
			trip := cell(row, tID)
			tmp[trip] = append(tmp[trip], stopAt{cell(row, sID), seq})
		}
		for trip, arr := range tmp {
			sort.SliceStable(arr, func(i, j int) bool { return arr[i].seq < arr[j].seq })
			stops := make([]string, len(arr))
			for i, v := range arr {
				stops[i] = v.stop
			}
			g.TripStopSeq[trip] = stops
		}
	}
	return nil
}
