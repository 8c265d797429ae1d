package repo

import (
	"github.com/google/uuid"

	"github.com/c360/edqs/entity"
	"github.com/c360/edqs/query"
)

// relationConstraint governs one step of a traversal: the relation type
// that edges must carry and the entity types the step may yield. An empty
// relation type matches any edge; an empty type set yields any entity.
type relationConstraint struct {
	relationType string
	entityTypes  map[entity.Type]struct{}
}

func newConstraint(relationType string, types []entity.Type) relationConstraint {
	c := relationConstraint{relationType: relationType}
	if len(types) > 0 {
		c.entityTypes = make(map[entity.Type]struct{}, len(types))
		for _, t := range types {
			c.entityTypes[t] = struct{}{}
		}
	}
	return c
}

func (c relationConstraint) matchesRelation(relType string) bool {
	return c.relationType == "" || c.relationType == relType
}

func (c relationConstraint) allowsType(t entity.Type) bool {
	if c.entityTypes == nil {
		return true
	}
	_, ok := c.entityTypes[t]
	return ok
}

// traverse walks the relation graph breadth-first from root, following
// edges in the given direction whose relation type matches a constraint.
// A discovered entity is yielded only if the matching constraint allows
// its type; traversal itself is governed by relation type alone, so a
// node of a disallowed type is still expanded. The visited set spans the
// whole walk, which bounds cyclic graphs and deduplicates yields.
//
// With lastLevelOnly the result is the deepest non-empty level actually
// reached, which may be shallower than maxLevel.
func (g *relationGraph) traverse(root entity.ID, direction query.EntitySearchDirection,
	constraints []relationConstraint, maxLevel int, lastLevelOnly bool) []entity.ID {

	if maxLevel < 1 {
		maxLevel = 1
	}

	visited := map[uuid.UUID]struct{}{root.UUID: {}}
	frontier := []entity.ID{root}

	var all []entity.ID
	var lastLevel []entity.ID

	for level := 1; level <= maxLevel && len(frontier) > 0; level++ {
		var next []entity.ID
		var yielded []entity.ID
		for _, id := range frontier {
			var edges []entity.Relation
			if direction == query.DirectionTo {
				edges = g.to(id.UUID)
			} else {
				edges = g.from(id.UUID)
			}
			for _, rel := range edges {
				var target entity.ID
				if direction == query.DirectionTo {
					target = rel.From
				} else {
					target = rel.To
				}
				matched := false
				allowed := false
				for _, c := range constraints {
					if !c.matchesRelation(rel.Type) {
						continue
					}
					matched = true
					if c.allowsType(target.Type) {
						allowed = true
						break
					}
				}
				if !matched {
					continue
				}
				if _, seen := visited[target.UUID]; seen {
					continue
				}
				visited[target.UUID] = struct{}{}
				next = append(next, target)
				if allowed {
					yielded = append(yielded, target)
				}
			}
		}
		if len(yielded) > 0 {
			all = append(all, yielded...)
			lastLevel = yielded
		}
		frontier = next
	}

	if lastLevelOnly {
		return lastLevel
	}
	return all
}
