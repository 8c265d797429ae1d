package repo

import (
	"regexp"
	"strings"

	"github.com/c360/edqs/entity"
	"github.com/c360/edqs/pkg/cache"
	"github.com/c360/edqs/query"
)

// patternCache memoizes compiled match patterns across queries. Predicate
// values repeat heavily across entities within a single query pass, so the
// hit rate is high. Failed compilations are cached as nil.
var patternCache = cache.NewLRU[*regexp.Regexp](1024)

func compilePattern(expr string) *regexp.Regexp {
	if re, ok := patternCache.Get(expr); ok {
		return re
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		re = nil
	}
	_, _ = patternCache.Set(expr, re)
	return re
}

// keyFilter is a query key filter with its data key resolved against the
// key dictionary.
type keyFilter struct {
	key       entity.DataKey
	valueType query.ValueType
	predicate query.Predicate
}

// checkKeyFilters applies AND across the filter list. A key with no value
// on the record satisfies its filter vacuously; this pass-through applies
// to every predicate kind and is part of the query contract.
func checkKeyFilters(rec *entity.Record, filters []keyFilter) bool {
	for _, f := range filters {
		if !checkKeyFilter(rec, f) {
			return false
		}
	}
	return true
}

func checkKeyFilter(rec *entity.Record, f keyFilter) bool {
	dp, ok := rec.DataPoint(f.key)
	if !ok {
		return true
	}
	valueType := f.valueType
	if valueType == "" {
		valueType = inferValueType(f.predicate)
	}
	switch valueType {
	case query.ValueString:
		return checkStringPredicate(dp.String(), f.predicate)
	case query.ValueNumeric, query.ValueDateTime:
		d, ok := dp.Double()
		return ok && checkNumericPredicate(d, f.predicate)
	case query.ValueBoolean:
		b, ok := dp.Bool()
		return ok && checkBooleanPredicate(b, f.predicate)
	default:
		return false
	}
}

func inferValueType(p query.Predicate) query.ValueType {
	switch p.(type) {
	case query.StringPredicate:
		return query.ValueString
	case query.NumericPredicate:
		return query.ValueNumeric
	case query.BooleanPredicate:
		return query.ValueBoolean
	default:
		return ""
	}
}

// checkComplexPredicate applies the children to the same value. The OR
// branch skips string children with an empty constant, mirroring the
// SQL behavior where an empty search term contributes no matches.
func checkComplexPredicate(cp query.ComplexPredicate, check func(query.Predicate) bool) bool {
	switch cp.Operation {
	case query.ComplexAnd:
		for _, child := range cp.Predicates {
			if !check(child) {
				return false
			}
		}
		return true
	case query.ComplexOr:
		for _, child := range cp.Predicates {
			if sp, ok := child.(query.StringPredicate); ok && sp.Value == "" {
				continue
			}
			if check(child) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func checkStringPredicate(value string, p query.Predicate) bool {
	if cp, ok := p.(query.ComplexPredicate); ok {
		return checkComplexPredicate(cp, func(child query.Predicate) bool {
			return checkStringPredicate(value, child)
		})
	}
	sp, ok := p.(query.StringPredicate)
	if !ok {
		return false
	}
	predicateValue := sp.Value
	if predicateValue == "" {
		return true
	}
	if sp.IgnoreCase {
		predicateValue = strings.ToLower(predicateValue)
		value = strings.ToLower(value)
	}
	switch sp.Operation {
	case query.StringEqual:
		return value == predicateValue
	case query.StringNotEqual:
		return value != predicateValue
	case query.StringStartsWith:
		return sqlLikeMatch(value, predicateValue, "^", ".*")
	case query.StringEndsWith:
		return sqlLikeMatch(value, predicateValue, ".*", "$")
	case query.StringContains:
		return sqlLikeMatch(value, predicateValue, ".*", ".*")
	case query.StringNotContains:
		return !sqlLikeMatch(value, predicateValue, ".*", ".*")
	case query.StringIn:
		return containsValue(splitByCommaWithoutQuotes(predicateValue), value)
	case query.StringNotIn:
		return !containsValue(splitByCommaWithoutQuotes(predicateValue), value)
	default:
		return false
	}
}

func checkNumericPredicate(value float64, p query.Predicate) bool {
	if cp, ok := p.(query.ComplexPredicate); ok {
		return checkComplexPredicate(cp, func(child query.Predicate) bool {
			return checkNumericPredicate(value, child)
		})
	}
	np, ok := p.(query.NumericPredicate)
	if !ok {
		return false
	}
	switch np.Operation {
	case query.NumericEqual:
		return value == np.Value
	case query.NumericNotEqual:
		return value != np.Value
	case query.NumericGreater:
		return value > np.Value
	case query.NumericLess:
		return value < np.Value
	case query.NumericGreaterOrEqual:
		return value >= np.Value
	case query.NumericLessOrEqual:
		return value <= np.Value
	default:
		return false
	}
}

func checkBooleanPredicate(value bool, p query.Predicate) bool {
	if cp, ok := p.(query.ComplexPredicate); ok {
		return checkComplexPredicate(cp, func(child query.Predicate) bool {
			return checkBooleanPredicate(value, child)
		})
	}
	bp, ok := p.(query.BooleanPredicate)
	if !ok {
		return false
	}
	switch bp.Operation {
	case query.BooleanEqual:
		return value == bp.Value
	case query.BooleanNotEqual:
		return value != bp.Value
	default:
		return false
	}
}

// sqlLikeMatch compiles the predicate value into a full-string pattern and
// matches it against the value. Predicate values carrying SQL wildcards
// (% for any run, _ for one character) are compiled as wildcard patterns;
// plain values get the caller's prefix and suffix around a quoted literal.
func sqlLikeMatch(value, predicateValue, prefix, suffix string) bool {
	re := toSQLLikePattern(predicateValue, prefix, suffix, false)
	if re == nil {
		return false
	}
	return re.MatchString(value)
}

func toSQLLikePattern(value, prefix, suffix string, ignoreCase bool) *regexp.Regexp {
	var body string
	if strings.ContainsAny(value, "%_") {
		body = strings.ReplaceAll(value, "_", ".")
		body = strings.ReplaceAll(body, "%", ".*")
		switch {
		case prefix == "^":
			if !strings.HasSuffix(body, ".*") {
				body += ".*"
			}
		case suffix == "$":
			if !strings.HasPrefix(body, ".*") {
				body = ".*" + body
			}
		}
	} else {
		body = prefix + regexp.QuoteMeta(value) + suffix
	}
	expr := "^(?:" + body + ")$"
	if ignoreCase {
		expr = "(?i)" + expr
	}
	return compilePattern(expr)
}

// toEntityNamePattern compiles a name filter into a case-insensitive
// starts-with pattern, nil when the filter is blank.
func toEntityNamePattern(filter string) *regexp.Regexp {
	if strings.TrimSpace(filter) == "" {
		return nil
	}
	return toSQLLikePattern(filter, "", ".*", true)
}

func splitByCommaWithoutQuotes(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		part = strings.Trim(part, `'"`)
		result = append(result, part)
	}
	return result
}

func containsValue(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
