package repo

import (
	"github.com/google/uuid"

	"github.com/c360/edqs/entity"
)

// relationGraph holds the directed edges of one relation type group,
// indexed from both endpoints. Not self-synchronized; the owning
// TenantRepo serializes access.
type relationGraph struct {
	outbound map[uuid.UUID][]entity.Relation
	inbound  map[uuid.UUID][]entity.Relation
}

func newRelationGraph() *relationGraph {
	return &relationGraph{
		outbound: make(map[uuid.UUID][]entity.Relation),
		inbound:  make(map[uuid.UUID][]entity.Relation),
	}
}

func sameEdge(a, b entity.Relation) bool {
	return a.From == b.From && a.To == b.To && a.Type == b.Type
}

// add inserts the edge, replacing an existing edge with the same
// endpoints and type. It reports whether the edge is new.
func (g *relationGraph) add(rel entity.Relation) bool {
	out := g.outbound[rel.From.UUID]
	for i, existing := range out {
		if sameEdge(existing, rel) {
			out[i] = rel
			in := g.inbound[rel.To.UUID]
			for j, e := range in {
				if sameEdge(e, rel) {
					in[j] = rel
					break
				}
			}
			return false
		}
	}
	g.outbound[rel.From.UUID] = append(out, rel)
	g.inbound[rel.To.UUID] = append(g.inbound[rel.To.UUID], rel)
	return true
}

// remove drops the edge matching the endpoints and type.
func (g *relationGraph) remove(rel entity.Relation) bool {
	out := g.outbound[rel.From.UUID]
	found := false
	for i, existing := range out {
		if sameEdge(existing, rel) {
			g.outbound[rel.From.UUID] = append(out[:i], out[i+1:]...)
			if len(g.outbound[rel.From.UUID]) == 0 {
				delete(g.outbound, rel.From.UUID)
			}
			found = true
			break
		}
	}
	if !found {
		return false
	}
	in := g.inbound[rel.To.UUID]
	for i, existing := range in {
		if sameEdge(existing, rel) {
			g.inbound[rel.To.UUID] = append(in[:i], in[i+1:]...)
			if len(g.inbound[rel.To.UUID]) == 0 {
				delete(g.inbound, rel.To.UUID)
			}
			break
		}
	}
	return true
}

// from returns the edges leaving the entity.
func (g *relationGraph) from(id uuid.UUID) []entity.Relation {
	return g.outbound[id]
}

// to returns the edges arriving at the entity.
func (g *relationGraph) to(id uuid.UUID) []entity.Relation {
	return g.inbound[id]
}

// removeEntity drops every edge touching the entity.
func (g *relationGraph) removeEntity(id uuid.UUID) {
	for _, rel := range g.outbound[id] {
		in := g.inbound[rel.To.UUID]
		for i, existing := range in {
			if sameEdge(existing, rel) {
				g.inbound[rel.To.UUID] = append(in[:i], in[i+1:]...)
				break
			}
		}
		if len(g.inbound[rel.To.UUID]) == 0 {
			delete(g.inbound, rel.To.UUID)
		}
	}
	delete(g.outbound, id)
	for _, rel := range g.inbound[id] {
		out := g.outbound[rel.From.UUID]
		for i, existing := range out {
			if sameEdge(existing, rel) {
				g.outbound[rel.From.UUID] = append(out[:i], out[i+1:]...)
				break
			}
		}
		if len(g.outbound[rel.From.UUID]) == 0 {
			delete(g.outbound, rel.From.UUID)
		}
	}
	delete(g.inbound, id)
}
