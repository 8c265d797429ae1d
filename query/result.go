package query

import "github.com/c360/edqs/entity"

// TsValue is a projected value with its timestamp.
type TsValue struct {
	TS    int64  `json:"ts"`
	Value string `json:"value"`
}

// Result is one row of a result page: the entity id plus the projected
// values grouped by key type and key name.
type Result struct {
	EntityID entity.ID                             `json:"entityId"`
	Latest   map[entity.KeyType]map[string]TsValue `json:"latest"`
}

// Page is one page of query results with the totals of the whole matched
// set.
type Page struct {
	Data          []Result `json:"data"`
	TotalPages    int      `json:"totalPages"`
	TotalElements int      `json:"totalElements"`
	HasNext       bool     `json:"hasNext"`
}
