package hnsw

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"

	"github.com/custodia-labs/docqa/internal/vectormath"
)

// maxLevel caps the layer a node can be assigned to.
const maxLevel = 16

// Config holds the HNSW graph parameters.
type Config struct {
	// M is the maximum number of connections per node on layers above 0.
	M int

	// MMax0 is the maximum number of connections on layer 0, usually 2*M.
	MMax0 int

	// EfConstruction is the beam width while inserting.
	EfConstruction int

	// EfSearch is the beam width while searching. It is raised to k when smaller.
	EfSearch int

	// ML is the level generation factor, typically 1/ln(M).
	ML float64

	// Seed makes level assignment reproducible.
	Seed int64
}

// DefaultConfig returns the usual HNSW parameters.
func DefaultConfig() Config {
	return NewConfig(16, 200, 100)
}

// NewConfig derives a full configuration from the three tunables.
func NewConfig(m, efConstruction, efSearch int) Config {
	if m < 2 {
		m = 2
	}
	return Config{
		M:              m,
		MMax0:          m * 2,
		EfConstruction: max(efConstruction, 1),
		EfSearch:       max(efSearch, 1),
		ML:             1.0 / math.Log(float64(m)),
		Seed:           42,
	}
}

type node struct {
	vector    []float32
	neighbors [][]int // neighbors[layer]
}

// graph is built once by a single goroutine and read-only afterwards.
type graph struct {
	cfg        Config
	nodes      []node
	entryPoint int
	topLevel   int
	rng        *rand.Rand
}

func newGraph(cfg Config, capacity int) *graph {
	return &graph{
		cfg:        cfg,
		nodes:      make([]node, 0, capacity),
		entryPoint: -1,
		topLevel:   -1,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}
}

func (g *graph) dist(q []float32, id int) float64 {
	return vectormath.L2Squared(q, g.nodes[id].vector)
}

func (g *graph) randomLevel() int {
	// P(level >= l) = exp(-l/ML) with ML = 1/ln(M) gives the (1/M)^l decay.
	level := int(math.Floor(-math.Log(1-g.rng.Float64()) * g.cfg.ML))
	return min(level, maxLevel)
}

func (g *graph) insert(vec []float32) {
	id := len(g.nodes)
	level := g.randomLevel()
	g.nodes = append(g.nodes, node{vector: vec, neighbors: make([][]int, level+1)})

	if g.entryPoint < 0 {
		g.entryPoint, g.topLevel = id, level
		return
	}

	entry := g.greedy(vec, g.entryPoint, g.topLevel, level)
	for l := min(level, g.topLevel); l >= 0; l-- {
		candidates := g.searchLayer(vec, entry, g.cfg.EfConstruction, l)
		limit := g.cfg.M
		if l == 0 {
			limit = g.cfg.MMax0
		}
		selected := candidates
		if len(selected) > limit {
			selected = selected[:limit]
		}

		g.nodes[id].neighbors[l] = make([]int, 0, len(selected))
		for _, c := range selected {
			g.nodes[id].neighbors[l] = append(g.nodes[id].neighbors[l], c.id)
			peer := &g.nodes[c.id]
			peer.neighbors[l] = append(peer.neighbors[l], id)
			if len(peer.neighbors[l]) > limit {
				peer.neighbors[l] = g.prune(peer.vector, peer.neighbors[l], limit)
			}
		}
		if len(candidates) > 0 {
			entry = candidates[0].id
		}
	}

	if level > g.topLevel {
		g.entryPoint, g.topLevel = id, level
	}
}

// greedy walks from the top layer down to stopLevel+1 moving to the closest
// neighbour until no neighbour is closer.
func (g *graph) greedy(q []float32, entry, from, stopLevel int) int {
	cur := entry
	curDist := g.dist(q, cur)
	for l := from; l > stopLevel; l-- {
		for changed := true; changed; {
			changed = false
			if l >= len(g.nodes[cur].neighbors) {
				break
			}
			for _, n := range g.nodes[cur].neighbors[l] {
				if d := g.dist(q, n); d < curDist {
					cur, curDist = n, d
					changed = true
				}
			}
		}
	}
	return cur
}

// searchLayer is the beam search of the HNSW paper, returning up to ef
// candidates closest first.
func (g *graph) searchLayer(q []float32, entry, ef, layer int) []candidate {
	visited := map[int]struct{}{entry: {}}
	d := g.dist(q, entry)
	frontier := &minHeap{{id: entry, dist: d}}
	best := &maxHeap{{id: entry, dist: d}}

	for frontier.Len() > 0 {
		closest := heap.Pop(frontier).(candidate)
		if closest.dist > (*best)[0].dist {
			break
		}
		if layer >= len(g.nodes[closest.id].neighbors) {
			continue
		}
		for _, n := range g.nodes[closest.id].neighbors[layer] {
			if _, seen := visited[n]; seen {
				continue
			}
			visited[n] = struct{}{}
			nd := g.dist(q, n)
			if best.Len() < ef || nd < (*best)[0].dist {
				heap.Push(frontier, candidate{id: n, dist: nd})
				heap.Push(best, candidate{id: n, dist: nd})
				if best.Len() > ef {
					heap.Pop(best)
				}
			}
		}
	}

	out := make([]candidate, best.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(best).(candidate)
	}
	return out
}

func (g *graph) prune(vec []float32, ids []int, limit int) []int {
	cs := make([]candidate, len(ids))
	for i, id := range ids {
		cs[i] = candidate{id: id, dist: g.dist(vec, id)}
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].dist < cs[j].dist })
	out := make([]int, 0, limit)
	for _, c := range cs[:limit] {
		out = append(out, c.id)
	}
	return out
}

func (g *graph) search(q []float32, k int) []candidate {
	if g.entryPoint < 0 {
		return nil
	}
	entry := g.greedy(q, g.entryPoint, g.topLevel, 0)
	return g.searchLayer(q, entry, max(g.cfg.EfSearch, k), 0)
}

type candidate struct {
	id   int
	dist float64
}

type minHeap []candidate

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

type maxHeap []candidate

func (h maxHeap) Len() int           { return len(h) }
func (h maxHeap) Less(i, j int) bool { return h[i].dist > h[j].dist }
func (h maxHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
