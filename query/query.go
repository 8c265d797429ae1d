package query

import "encoding/json"

// SortDirection orders a result page.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// SortOrder names the key a result page is ordered by.
type SortOrder struct {
	Key       Key           `json:"key"`
	Direction SortDirection `json:"direction"`
}

// PageLink addresses one page of a result set.
type PageLink struct {
	PageSize   int        `json:"pageSize"`
	Page       int        `json:"page"`
	TextSearch string     `json:"textSearch,omitempty"`
	SortOrder  *SortOrder `json:"sortOrder,omitempty"`
}

// DataQuery is the full query contract: a structural filter, optional key
// filters, the projected keys and a page link.
type DataQuery struct {
	Filter       Filter      `json:"-"`
	KeyFilters   []KeyFilter `json:"keyFilters,omitempty"`
	EntityFields []Key       `json:"entityFields,omitempty"`
	LatestValues []Key       `json:"latestValues,omitempty"`
	PageLink     PageLink    `json:"pageLink"`
}

// CountQuery counts entities matching a filter and optional key filters.
type CountQuery struct {
	Filter     Filter      `json:"-"`
	KeyFilters []KeyFilter `json:"keyFilters,omitempty"`
}

// UnmarshalJSON decodes a data query, resolving the filter union.
func (q *DataQuery) UnmarshalJSON(data []byte) error {
	type plain DataQuery
	var raw struct {
		plain
		Filter json.RawMessage `json:"entityFilter"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = DataQuery(raw.plain)
	if len(raw.Filter) > 0 {
		f, err := UnmarshalFilter(raw.Filter)
		if err != nil {
			return err
		}
		q.Filter = f
	}
	return nil
}

// MarshalJSON encodes a data query with its filter envelope.
func (q DataQuery) MarshalJSON() ([]byte, error) {
	type plain DataQuery
	var filter json.RawMessage
	if q.Filter != nil {
		b, err := MarshalFilter(q.Filter)
		if err != nil {
			return nil, err
		}
		filter = b
	}
	return json.Marshal(struct {
		plain
		Filter json.RawMessage `json:"entityFilter,omitempty"`
	}{plain(q), filter})
}

// UnmarshalJSON decodes a count query, resolving the filter union.
func (q *CountQuery) UnmarshalJSON(data []byte) error {
	type plain CountQuery
	var raw struct {
		plain
		Filter json.RawMessage `json:"entityFilter"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = CountQuery(raw.plain)
	if len(raw.Filter) > 0 {
		f, err := UnmarshalFilter(raw.Filter)
		if err != nil {
			return err
		}
		q.Filter = f
	}
	return nil
}

// MarshalJSON encodes a count query with its filter envelope.
func (q CountQuery) MarshalJSON() ([]byte, error) {
	type plain CountQuery
	var filter json.RawMessage
	if q.Filter != nil {
		b, err := MarshalFilter(q.Filter)
		if err != nil {
			return nil, err
		}
		filter = b
	}
	return json.Marshal(struct {
		plain
		Filter json.RawMessage `json:"entityFilter,omitempty"`
	}{plain(q), filter})
}
