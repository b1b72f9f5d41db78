package algorithms

import (
	"math"
	"time"

	"github.com/kbukum/compgraph/graph"
	"github.com/kbukum/compgraph/operations"
	"github.com/kbukum/compgraph/row"
)

// timestampLayout matches "20171020T112238.723000". Fractional seconds are
// accepted by time.Parse without being spelled out.
const timestampLayout = "20060102T150405"

const earthRadiusMetres = 6371000.0

// Columns read and written by RoadSpeed.
const (
	ColEnterTime = "enter_time"
	ColLeaveTime = "leave_time"
	ColEdgeID    = "edge_id"
	ColStart     = "start"
	ColEnd       = "end"
	ColLength    = "length"
	ColWeekday   = "weekday"
	ColHour      = "hour"
	ColSpeed     = "speed"
)

// RoadSpeed computes the average speed in km/h per weekday and hour from
// edge traversal times and edge geometry.
//
// times rows carry edge_id, enter_time and leave_time. lengths rows carry
// edge_id and either a length (in metres when above 100, otherwise in km)
// or start and end [lon, lat] points, from which the great-circle distance
// is used. Result column default "speed".
func RoadSpeed(times, lengths string, opts ...Option) *graph.Graph {
	c := newConfig(ColSpeed, opts)

	travel := graph.FromIter(times).
		Map(operations.ComputeColumn(ColWeekday, func(r row.Row) (any, error) {
			if t, ok := parseTimestamp(r[ColEnterTime]); ok {
				return t.Weekday().String()[:3], nil
			}
			return nil, nil
		})).
		Map(operations.ComputeColumn(ColHour, func(r row.Row) (any, error) {
			if t, ok := parseTimestamp(r[ColEnterTime]); ok {
				return t.Hour(), nil
			}
			return nil, nil
		})).
		Map(operations.ComputeColumn("duration", func(r row.Row) (any, error) {
			return durationHours(r[ColEnterTime], r[ColLeaveTime]), nil
		})).
		Map(operations.Project([]string{ColWeekday, ColHour, ColEdgeID, "duration"})).
		Map(operations.Filter(func(r row.Row) bool {
			d, _ := r["duration"].(float64)
			return d > 0
		})).
		Sort([]string{ColEdgeID}, c.sort...)

	edges := graph.FromIter(lengths).
		Map(operations.ComputeColumn("length_km", func(r row.Row) (any, error) {
			return edgeLengthKm(r), nil
		})).
		Map(operations.Filter(func(r row.Row) bool {
			l, _ := r["length_km"].(float64)
			return l > 0
		})).
		Map(operations.Project([]string{ColEdgeID, "length_km"})).
		Sort([]string{ColEdgeID}, c.sort...)

	return travel.
		Join(operations.InnerJoiner(), edges, []string{ColEdgeID}).
		Map(operations.ComputeColumn("speed_kmh", func(r row.Row) (any, error) {
			return quotient(r, "length_km", "duration")
		})).
		Map(operations.Filter(func(r row.Row) bool {
			s, _ := r["speed_kmh"].(float64)
			return s > 0
		})).
		Sort([]string{ColWeekday, ColHour}, c.sort...).
		Reduce(operations.Average("speed_kmh", c.resultColumn), []string{ColWeekday, ColHour})
}

func parseTimestamp(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(timestampLayout, s)
	return t, err == nil
}

// durationHours is zero unless both timestamps parse and leave is after enter.
func durationHours(enter, leave any) float64 {
	in, ok := parseTimestamp(enter)
	if !ok {
		return 0
	}
	out, ok := parseTimestamp(leave)
	if !ok || !out.After(in) {
		return 0
	}
	return out.Sub(in).Hours()
}

func edgeLengthKm(r row.Row) float64 {
	if v, ok := r[ColLength]; ok && v != nil {
		if f, ok := row.ParseFloat(v); ok {
			if f > 100 {
				return f / 1000
			}
			return f
		}
	}
	return haversineKm(r[ColStart], r[ColEnd])
}

// haversineKm is the great-circle distance between two [lon, lat] points in
// degrees. Anything that is not such a point gives 0.
func haversineKm(a, b any) float64 {
	lon1, lat1, ok := point(a)
	if !ok {
		return 0
	}
	lon2, lat2, ok := point(b)
	if !ok {
		return 0
	}
	lat1, lat2 = radians(lat1), radians(lat2)
	dLat := lat2 - lat1
	dLon := radians(lon2) - radians(lon1)
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * earthRadiusMetres * math.Asin(math.Sqrt(h)) / 1000
}

func point(v any) (lon, lat float64, ok bool) {
	p, isList := v.([]any)
	if !isList || len(p) != 2 {
		return 0, 0, false
	}
	lon, ok1 := row.ToFloat(p[0])
	lat, ok2 := row.ToFloat(p[1])
	return lon, lat, ok1 && ok2
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
