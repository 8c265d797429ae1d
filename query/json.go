package query

import (
	"encoding/json"
	"fmt"
)

// filterEnvelope wraps a filter with its kind discriminator on the wire.
type filterEnvelope struct {
	Type string `json:"type"`
}

// UnmarshalFilter decodes a filter from its wire envelope.
func UnmarshalFilter(data []byte) (Filter, error) {
	var env filterEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding filter envelope: %w", err)
	}
	decode := func(into Filter, out func() Filter) (Filter, error) {
		if err := json.Unmarshal(data, into); err != nil {
			return nil, fmt.Errorf("decoding %s filter: %w", env.Type, err)
		}
		return out(), nil
	}
	switch env.Type {
	case FilterSingleEntity:
		var f SingleEntityFilter
		return decode(&f, func() Filter { return f })
	case FilterEntityList:
		var f EntityListFilter
		return decode(&f, func() Filter { return f })
	case FilterEntityName:
		var f EntityNameFilter
		return decode(&f, func() Filter { return f })
	case FilterEntityType:
		var f EntityTypeFilter
		return decode(&f, func() Filter { return f })
	case FilterDeviceType:
		var f DeviceTypeFilter
		return decode(&f, func() Filter { return f })
	case FilterAssetType:
		var f AssetTypeFilter
		return decode(&f, func() Filter { return f })
	case FilterEdgeType:
		var f EdgeTypeFilter
		return decode(&f, func() Filter { return f })
	case FilterEntityViewType:
		var f EntityViewTypeFilter
		return decode(&f, func() Filter { return f })
	case FilterRelationsQuery:
		var f RelationsQueryFilter
		return decode(&f, func() Filter { return f })
	case FilterDeviceSearchQuery:
		var f DeviceSearchQueryFilter
		return decode(&f, func() Filter { return f })
	case FilterAssetSearchQuery:
		var f AssetSearchQueryFilter
		return decode(&f, func() Filter { return f })
	case FilterEdgeSearchQuery:
		var f EdgeSearchQueryFilter
		return decode(&f, func() Filter { return f })
	case FilterEntityViewSearchQuery:
		var f EntityViewSearchQueryFilter
		return decode(&f, func() Filter { return f })
	case FilterEntityGroup:
		var f EntityGroupFilter
		return decode(&f, func() Filter { return f })
	case FilterEntitiesByGroupName:
		var f EntitiesByGroupNameFilter
		return decode(&f, func() Filter { return f })
	case FilterEntityGroupName:
		var f EntityGroupNameFilter
		return decode(&f, func() Filter { return f })
	case FilterEntityGroupList:
		var f EntityGroupListFilter
		return decode(&f, func() Filter { return f })
	case FilterAPIUsageState:
		var f APIUsageStateFilter
		return decode(&f, func() Filter { return f })
	case FilterSchedulerEvent:
		var f SchedulerEventFilter
		return decode(&f, func() Filter { return f })
	case FilterStateEntityOwner:
		var f StateEntityOwnerFilter
		return decode(&f, func() Filter { return f })
	default:
		return nil, fmt.Errorf("unknown filter type %q", env.Type)
	}
}

// MarshalFilter encodes a filter with its kind discriminator.
func MarshalFilter(f Filter) ([]byte, error) {
	body, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(fmt.Sprintf("%q", f.filterKind()))
	return json.Marshal(fields)
}

// UnmarshalPredicate decodes a predicate from its wire envelope.
func UnmarshalPredicate(data []byte) (Predicate, error) {
	var env filterEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding predicate envelope: %w", err)
	}
	switch env.Type {
	case PredicateString:
		var p StringPredicate
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case PredicateNumeric:
		var p NumericPredicate
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case PredicateBoolean:
		var p BooleanPredicate
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case PredicateComplex:
		var raw struct {
			Operation  ComplexOperation  `json:"operation"`
			Predicates []json.RawMessage `json:"predicates"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		cp := ComplexPredicate{Operation: raw.Operation}
		for _, child := range raw.Predicates {
			p, err := UnmarshalPredicate(child)
			if err != nil {
				return nil, err
			}
			cp.Predicates = append(cp.Predicates, p)
		}
		return cp, nil
	default:
		return nil, fmt.Errorf("unknown predicate type %q", env.Type)
	}
}

// MarshalPredicate encodes a predicate with its kind discriminator.
func MarshalPredicate(p Predicate) ([]byte, error) {
	if cp, ok := p.(ComplexPredicate); ok {
		children := make([]json.RawMessage, 0, len(cp.Predicates))
		for _, child := range cp.Predicates {
			b, err := MarshalPredicate(child)
			if err != nil {
				return nil, err
			}
			children = append(children, b)
		}
		return json.Marshal(map[string]any{
			"type":       PredicateComplex,
			"operation":  cp.Operation,
			"predicates": children,
		})
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(fmt.Sprintf("%q", p.predicateKind()))
	return json.Marshal(fields)
}

// UnmarshalJSON decodes a key filter, resolving the predicate union.
func (kf *KeyFilter) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key       Key             `json:"key"`
		ValueType ValueType       `json:"valueType"`
		Predicate json.RawMessage `json:"predicate"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kf.Key = raw.Key
	kf.ValueType = raw.ValueType
	if len(raw.Predicate) > 0 {
		p, err := UnmarshalPredicate(raw.Predicate)
		if err != nil {
			return err
		}
		kf.Predicate = p
	}
	return nil
}

// MarshalJSON encodes a key filter with its predicate envelope.
func (kf KeyFilter) MarshalJSON() ([]byte, error) {
	var pred json.RawMessage
	if kf.Predicate != nil {
		b, err := MarshalPredicate(kf.Predicate)
		if err != nil {
			return nil, err
		}
		pred = b
	}
	return json.Marshal(struct {
		Key       Key             `json:"key"`
		ValueType ValueType       `json:"valueType,omitempty"`
		Predicate json.RawMessage `json:"predicate,omitempty"`
	}{kf.Key, kf.ValueType, pred})
}
