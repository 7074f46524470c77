package mesh

import "sort"

type unionFind []int

func newUnionFind(n int) unionFind {
	u := make(unionFind, n)
	for i := range u {
		u[i] = i
	}
	return u
}

func (u unionFind) find(i int) int {
	for u[i] != i {
		u[i] = u[u[i]]
		i = u[i]
	}
	return i
}

func (u unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u[rb] = ra
}

// ConnectedComponents groups the vertices joined by edges. Each component
// is sorted; components are ordered by their smallest vertex. Vertices
// without edges are left out.
func ConnectedComponents(m *Mesh) [][]int {
	u := newUnionFind(len(m.Vertices))
	used := make([]bool, len(m.Vertices))
	for _, e := range m.Edges {
		u.union(e[0], e[1])
		used[e[0]], used[e[1]] = true, true
	}
	byRoot := map[int][]int{}
	var roots []int
	for i := range m.Vertices {
		if !used[i] {
			continue
		}
		r := u.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}
	sort.Ints(roots)
	comps := make([][]int, 0, len(roots))
	for _, r := range roots {
		comps = append(comps, byRoot[r])
	}
	return comps
}

// Chains splits a line mesh into ordered vertex chains that follow its
// edges. A closed loop repeats its first vertex at the end. Branching
// components give several chains. Each edge is used once.
func Chains(m *Mesh) [][]int {
	type half struct{ to, edge int }
	adj := make([][]half, len(m.Vertices))
	for k, e := range m.Edges {
		if e[0] == e[1] {
			continue
		}
		adj[e[0]] = append(adj[e[0]], half{e[1], k})
		adj[e[1]] = append(adj[e[1]], half{e[0], k})
	}
	usedEdge := make([]bool, len(m.Edges))
	remaining := func(v int) int {
		n := 0
		for _, h := range adj[v] {
			if !usedEdge[h.edge] {
				n++
			}
		}
		return n
	}
	walk := func(start int) []int {
		chain := []int{start}
		v := start
		for {
			next := -1
			for _, h := range adj[v] {
				if !usedEdge[h.edge] {
					usedEdge[h.edge] = true
					next = h.to
					break
				}
			}
			if next < 0 {
				return chain
			}
			chain = append(chain, next)
			v = next
		}
	}

	var chains [][]int
	for _, comp := range ConnectedComponents(m) {
		// open ends first, so that polylines are walked end to end
		for _, v := range comp {
			if len(adj[v])%2 == 1 && remaining(v) > 0 {
				chains = append(chains, walk(v))
			}
		}
		for _, v := range comp {
			for remaining(v) > 0 {
				chains = append(chains, walk(v))
			}
		}
	}
	return chains
}
