package graph

import (
	"log"
	"math"
	"strconv"
	"strings"

	"ride-routing-service/internal/domain"
	"ride-routing-service/internal/geo"
	"ride-routing-service/internal/ports"
)

// SpeedTable maps a highway class to its assumed speed in km/h.
type SpeedTable map[string]float64

// DefaultSpeeds returns the per-class speed assumptions used when a
// segment carries no parseable maxspeed tag.
func DefaultSpeeds() SpeedTable {
	return SpeedTable{
		"motorway":       90,
		"motorway_link":  60,
		"trunk":          80,
		"trunk_link":     50,
		"primary":        60,
		"primary_link":   40,
		"secondary":      50,
		"secondary_link": 35,
		"tertiary":       40,
		"tertiary_link":  30,
		"residential":    30,
		"service":        20,
		"unclassified":   25,
	}
}

// CityAverageKmh is the fallback speed for recognized road classes
// without a table entry, and for straight-line degraded estimates.
const CityAverageKmh = 30.0

// Highway classes that are not drivable roads; ways tagged with these
// are discarded before graph construction.
var nonDrivable = map[string]bool{
	"footway":      true,
	"path":         true,
	"cycleway":     true,
	"steps":        true,
	"pedestrian":   true,
	"bridleway":    true,
	"corridor":     true,
	"construction": true,
	"proposed":     true,
	"platform":     true,
}

const (
	sparseDegreeThreshold = 1.2
	sparseMinNodes        = 50
)

// Build converts a raw provider payload into a pruned weighted graph.
// The resulting graph fully replaces any prior network; Build never
// merges into existing state.
//
// Way nodes shared between (or repeated within) segments become graph
// junctions; interior nodes are folded into per-edge shape geometry so
// expanded routes follow the road centerline.
func Build(data *ports.RoadData, speeds SpeedTable) *Graph {
	g := New()
	if data == nil {
		return g
	}
	if speeds == nil {
		speeds = DefaultSpeeds()
	}

	points := make(map[int64]domain.Point, len(data.Nodes))
	for _, n := range data.Nodes {
		points[n.ID] = domain.Point{Lat: n.Lat, Lon: n.Lon}
	}

	ways := usableWays(data.Ways, points)

	// Nodes referenced more than once across the usable ways are
	// junctions. Way endpoints are counted twice so they always qualify.
	usage := make(map[int64]int)
	for _, w := range ways {
		for i, id := range w.NodeIDs {
			usage[id]++
			if i == 0 || i == len(w.NodeIDs)-1 {
				usage[id]++
			}
		}
	}

	for _, w := range ways {
		addWay(g, w, points, usage, speeds)
	}

	if removed := g.Prune(); removed > 0 {
		log.Printf("graph: pruned %d unreachable nodes, %d remain", removed, g.NodeCount())
	}

	if avg := g.AvgOutDegree(); g.NodeCount() > sparseMinNodes && avg < sparseDegreeThreshold {
		log.Printf("graph: sparse network quality signal: nodes=%d avg_out_degree=%.2f", g.NodeCount(), avg)
	}

	return g
}

// usableWays drops segments that are not usable roads: fewer than two
// resolvable nodes, or no recognized road-class tag.
func usableWays(ways []ports.WayRecord, points map[int64]domain.Point) []ports.WayRecord {
	out := make([]ports.WayRecord, 0, len(ways))
	for _, w := range ways {
		class := w.Tags["highway"]
		if class == "" || nonDrivable[class] {
			continue
		}

		ids := make([]int64, 0, len(w.NodeIDs))
		for _, id := range w.NodeIDs {
			if _, ok := points[id]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) < 2 {
			continue
		}

		w.NodeIDs = ids
		out = append(out, w)
	}
	return out
}

// addWay splits a segment at junction nodes and emits one directed edge
// (or two, for two-way roads) per run, with the interior nodes kept as
// edge shape geometry.
func addWay(g *Graph, w ports.WayRecord, points map[int64]domain.Point, usage map[int64]int, speeds SpeedTable) {
	speedMps := effectiveSpeed(w.Tags, speeds) / 3.6
	forward, backward := directions(w.Tags)

	start := 0
	for i := 1; i < len(w.NodeIDs); i++ {
		if usage[w.NodeIDs[i]] < 2 && i != len(w.NodeIDs)-1 {
			continue
		}

		shape := make([]domain.Point, 0, i-start+1)
		length := 0.0
		for j := start; j <= i; j++ {
			pt := points[w.NodeIDs[j]]
			if j > start {
				length += geo.Distance(shape[len(shape)-1], pt)
			}
			shape = append(shape, pt)
		}

		weight := math.Inf(1)
		if speedMps > 0 {
			weight = length / speedMps
		}

		from := domain.ProviderRef(w.NodeIDs[start])
		to := domain.ProviderRef(w.NodeIDs[i])
		g.AddNode(from, shape[0])
		g.AddNode(to, shape[len(shape)-1])

		if forward {
			g.AddEdge(from, to, weight, shape)
		}
		if backward {
			reversed := make([]domain.Point, len(shape))
			for k, pt := range shape {
				reversed[len(shape)-1-k] = pt
			}
			g.AddEdge(to, from, weight, reversed)
		}

		start = i
	}
}

// effectiveSpeed resolves the speed (km/h) used to convert segment
// length into traversal time: explicit maxspeed tag when parseable,
// else the class table, else the city average.
func effectiveSpeed(tags map[string]string, speeds SpeedTable) float64 {
	if kmh, ok := parseMaxSpeed(tags["maxspeed"]); ok {
		return kmh
	}
	if kmh, ok := speeds[tags["highway"]]; ok {
		return kmh
	}
	return CityAverageKmh
}

// parseMaxSpeed handles the common maxspeed encodings: a bare number
// (km/h), "NN km/h", and "NN mph".
func parseMaxSpeed(tag string) (float64, bool) {
	tag = strings.TrimSpace(strings.ToLower(tag))
	if tag == "" {
		return 0, false
	}

	mph := false
	switch {
	case strings.HasSuffix(tag, "mph"):
		mph = true
		tag = strings.TrimSpace(strings.TrimSuffix(tag, "mph"))
	case strings.HasSuffix(tag, "km/h"):
		tag = strings.TrimSpace(strings.TrimSuffix(tag, "km/h"))
	case strings.HasSuffix(tag, "kmh"):
		tag = strings.TrimSpace(strings.TrimSuffix(tag, "kmh"))
	}

	kmh, err := strconv.ParseFloat(tag, 64)
	if err != nil {
		return 0, false
	}
	if mph {
		kmh *= 1.609344
	}
	return kmh, true
}

// directions infers edge directionality from tags. A segment is one-way
// when explicitly tagged, when its class is motorway-like, or when it is
// a circular junction element.
func directions(tags map[string]string) (forward, backward bool) {
	switch tags["oneway"] {
	case "yes", "1", "true":
		return true, false
	case "-1", "reverse":
		return false, true
	case "no":
		return true, true
	}

	switch tags["highway"] {
	case "motorway", "motorway_link":
		return true, false
	}

	switch tags["junction"] {
	case "roundabout", "circular":
		return true, false
	}

	return true, true
}
