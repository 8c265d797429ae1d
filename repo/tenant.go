package repo

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360/edqs/entity"
	errs "github.com/c360/edqs/errors"
	"github.com/c360/edqs/permission"
	"github.com/c360/edqs/pkg/timestamp"
	"github.com/c360/edqs/query"
)

const defaultPageSize = 10

// TenantRepo is the in-memory repository of one tenant: the entity store
// plus one relation graph per relation type group. A single RWMutex gives
// the single-writer many-reader discipline: ingest takes the write lock,
// queries hold the read lock end to end, so a query never observes a torn
// edge or a half-applied record.
type TenantRepo struct {
	mu        sync.RWMutex
	tenantID  uuid.UUID
	dict      *entity.Dictionary
	store     *entityStore
	relations map[entity.RelationTypeGroup]*relationGraph
	stats     Stats
	logger    *slog.Logger

	lastActivity atomic.Int64
}

func newTenantRepo(tenantID uuid.UUID, dict *entity.Dictionary, stats Stats, logger *slog.Logger) *TenantRepo {
	r := &TenantRepo{
		tenantID:  tenantID,
		dict:      dict,
		store:     newEntityStore(),
		relations: make(map[entity.RelationTypeGroup]*relationGraph, 2),
		stats:     stats,
		logger:    logger.With("tenant", tenantID),
	}
	r.touch()
	return r
}

// TenantID returns the tenant this repository belongs to.
func (r *TenantRepo) TenantID() uuid.UUID { return r.tenantID }

func (r *TenantRepo) graph(group entity.RelationTypeGroup) *relationGraph {
	g, ok := r.relations[group]
	if !ok {
		g = newRelationGraph()
		r.relations[group] = g
	}
	return g
}

func (r *TenantRepo) commonRelations() *relationGraph {
	return r.graph(entity.RelationGroupCommon)
}

func (r *TenantRepo) groupRelations() *relationGraph {
	return r.graph(entity.RelationGroupFromEntity)
}

func (r *TenantRepo) touch() {
	r.lastActivity.Store(time.Now().UnixNano())
}

// LastActivity returns the time of the last mutation or query.
func (r *TenantRepo) LastActivity() time.Time {
	return time.Unix(0, r.lastActivity.Load())
}

// AddOrUpdateEntity upserts an entity snapshot: the field map is replaced
// wholesale, accumulated time-series and attribute points are kept.
// Re-applying the same snapshot is idempotent.
func (r *TenantRepo) AddOrUpdateEntity(e entity.Entity) error {
	fields := make(map[string]entity.DataPoint, len(e.Fields))
	for name, raw := range e.Fields {
		dp, err := entity.PointFromJSON(0, raw)
		if err != nil {
			return errs.WrapInvalid(err, "TenantRepo", "AddOrUpdateEntity", "decoding field "+name)
		}
		fields[name] = dp
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	rec, existed := r.store.get(e.ID)
	if !existed {
		rec = r.store.getOrCreate(e.ID)
	}
	isNew := !rec.HasFields()
	rec.SetFields(fields)
	rec.SetCustomerID(e.CustomerID)
	if isNew {
		r.stats.ReportAdded(string(e.ID.Type))
	}
	return nil
}

// RemoveEntity drops the entity and every relation touching it.
func (r *TenantRepo) RemoveEntity(id entity.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	rec, ok := r.store.remove(id)
	for _, g := range r.relations {
		g.removeEntity(id.UUID)
	}
	if ok && rec.HasFields() {
		r.stats.ReportRemoved(string(id.Type))
		return true
	}
	return false
}

// AddOrUpdateAttribute stores the latest attribute point, keeping the
// newer timestamp on replay.
func (r *TenantRepo) AddOrUpdateAttribute(kv entity.AttributeKv) error {
	dp, err := entity.PointFromJSON(kv.TS, kv.Value)
	if err != nil {
		return errs.WrapInvalid(err, "TenantRepo", "AddOrUpdateAttribute", "decoding value of "+kv.Key)
	}
	keyID := r.dict.Intern(kv.Key)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	rec := r.store.getOrCreate(kv.EntityID)
	if rec.PutAttribute(kv.Scope, keyID, dp) {
		r.stats.ReportAdded(objectAttribute)
	}
	return nil
}

// RemoveAttribute drops one attribute point.
func (r *TenantRepo) RemoveAttribute(id entity.ID, scope entity.AttributeScope, key string) bool {
	keyID, ok := r.dict.Lookup(key)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	rec, ok := r.store.get(id)
	if !ok {
		return false
	}
	if rec.RemoveAttribute(scope, keyID) {
		r.stats.ReportRemoved(objectAttribute)
		return true
	}
	return false
}

// AddOrUpdateLatest stores the latest time-series point, keeping the newer
// timestamp on replay.
func (r *TenantRepo) AddOrUpdateLatest(kv entity.LatestTsKv) error {
	dp, err := entity.PointFromJSON(kv.TS, kv.Value)
	if err != nil {
		return errs.WrapInvalid(err, "TenantRepo", "AddOrUpdateLatest", "decoding value of "+kv.Key)
	}
	keyID := r.dict.Intern(kv.Key)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	rec := r.store.getOrCreate(kv.EntityID)
	if rec.PutTimeseries(keyID, dp) {
		r.stats.ReportAdded(objectLatest)
	}
	return nil
}

// RemoveLatest drops one latest time-series point.
func (r *TenantRepo) RemoveLatest(id entity.ID, key string) bool {
	keyID, ok := r.dict.Lookup(key)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	rec, ok := r.store.get(id)
	if !ok {
		return false
	}
	if rec.RemoveTimeseries(keyID) {
		r.stats.ReportRemoved(objectLatest)
		return true
	}
	return false
}

// AddRelation inserts a relation edge into the graph of its type group.
func (r *TenantRepo) AddRelation(rel entity.Relation) {
	if rel.Group == "" {
		rel.Group = entity.RelationGroupCommon
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	if r.graph(rel.Group).add(rel) {
		r.stats.ReportAdded(objectRelation)
	}
}

// RemoveRelation drops a relation edge.
func (r *TenantRepo) RemoveRelation(rel entity.Relation) bool {
	if rel.Group == "" {
		rel.Group = entity.RelationGroupCommon
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	if r.graph(rel.Group).remove(rel) {
		r.stats.ReportRemoved(objectRelation)
		return true
	}
	return false
}

// Clear drops all records and relations of the tenant.
func (r *TenantRepo) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch()
	r.store.clear()
	r.relations = make(map[entity.RelationTypeGroup]*relationGraph, 2)
}

// resolvedKey is a projection key with its data key resolved against the
// dictionary.
type resolvedKey struct {
	keyType entity.KeyType
	name    string
	key     entity.DataKey
}

func (r *TenantRepo) resolveKey(k query.Key) (entity.DataKey, bool) {
	if k.Type == "" || k.Type == entity.KeyEntityField {
		return entity.DataKey{Type: entity.KeyEntityField, Name: k.Key}, true
	}
	id, ok := r.dict.Lookup(k.Key)
	if !ok {
		return entity.DataKey{}, false
	}
	return entity.DataKey{Type: k.Type, Name: k.Key, KeyID: id}, true
}

// resolveKeys drops keys unknown to the dictionary; a key never ingested
// cannot have a value on any entity.
func (r *TenantRepo) resolveKeys(keys []query.Key, keyType entity.KeyType) []resolvedKey {
	result := make([]resolvedKey, 0, len(keys))
	for _, k := range keys {
		if keyType == entity.KeyEntityField {
			k.Type = entity.KeyEntityField
		}
		dk, ok := r.resolveKey(k)
		if !ok {
			r.logger.Warn("dropping unknown query key", "key", k.Key, "type", k.Type)
			continue
		}
		result = append(result, resolvedKey{keyType: dk.Type, name: k.Key, key: dk})
	}
	return result
}

func (r *TenantRepo) resolveKeyFilters(filters []query.KeyFilter) []keyFilter {
	result := make([]keyFilter, 0, len(filters))
	for _, f := range filters {
		if f.Predicate == nil {
			continue
		}
		dk, ok := r.resolveKey(f.Key)
		if !ok {
			r.logger.Warn("dropping key filter with unknown key", "key", f.Key.Key, "type", f.Key.Type)
			continue
		}
		result = append(result, keyFilter{key: dk, valueType: f.ValueType, predicate: f.Predicate})
	}
	return result
}

// sortableRecord pairs a candidate with its extracted sort value. The sort
// value is extracted under the lock so sorting can run on a stable copy.
type sortableRecord struct {
	rec       *entity.Record
	sortValue *entity.DataPoint
}

// FindEntityDataByQuery runs the full query pipeline: resolve the filter
// to candidates, scope by customer and permissions, apply key filters and
// text search, sort, paginate and project the requested keys.
func (r *TenantRepo) FindEntityDataByQuery(customerID uuid.UUID, perms *permission.MergedUserPermissions,
	q query.DataQuery, ignorePermissionCheck bool) (query.Page, error) {

	if q.Filter == nil {
		return query.Page{}, errs.WrapInvalid(errs.ErrNilFilter, "TenantRepo", "FindEntityDataByQuery", "validating query")
	}
	start := time.Now()
	r.touch()

	r.mu.RLock()
	defer r.mu.RUnlock()

	ctx := queryContext{customerID: customerID, perms: perms, ignorePermCheck: ignorePermissionCheck}
	entityFields := r.resolveKeys(q.EntityFields, entity.KeyEntityField)
	latestValues := r.resolveKeys(q.LatestValues, "")
	filters := r.resolveKeyFilters(q.KeyFilters)

	textSearch := strings.ToLower(strings.TrimSpace(q.PageLink.TextSearch))

	var matched []sortableRecord
	sortKey, descending := r.resolveSortOrder(q.PageLink.SortOrder)
	for _, rec := range r.resolveFilter(q.Filter) {
		if !r.visible(ctx, rec) {
			continue
		}
		if !checkKeyFilters(rec, filters) {
			continue
		}
		if textSearch != "" && !matchesTextSearch(rec, entityFields, latestValues, textSearch) {
			continue
		}
		sr := sortableRecord{rec: rec}
		if sortKey != nil {
			if dp, ok := rec.DataPoint(*sortKey); ok {
				v := dp
				sr.sortValue = &v
			}
		}
		matched = append(matched, sr)
	}

	page := sortAndPage(matched, q.PageLink, descending, entityFields, latestValues)
	r.stats.ReportQuery("data", time.Since(start))
	return page, nil
}

// CountEntitiesByQuery counts the entities a data query with the same
// filter and scope would match, before pagination.
func (r *TenantRepo) CountEntitiesByQuery(customerID uuid.UUID, perms *permission.MergedUserPermissions,
	q query.CountQuery, ignorePermissionCheck bool) (int, error) {

	if q.Filter == nil {
		return 0, errs.WrapInvalid(errs.ErrNilFilter, "TenantRepo", "CountEntitiesByQuery", "validating query")
	}
	start := time.Now()
	r.touch()

	r.mu.RLock()
	defer r.mu.RUnlock()

	ctx := queryContext{customerID: customerID, perms: perms, ignorePermCheck: ignorePermissionCheck}
	filters := r.resolveKeyFilters(q.KeyFilters)

	count := 0
	for _, rec := range r.resolveFilter(q.Filter) {
		if r.visible(ctx, rec) && checkKeyFilters(rec, filters) {
			count++
		}
	}
	r.stats.ReportQuery("count", time.Since(start))
	return count, nil
}

// resolveSortOrder resolves the requested sort key, falling back to
// createdTime descending when the order is missing or its key unknown.
func (r *TenantRepo) resolveSortOrder(order *query.SortOrder) (*entity.DataKey, bool) {
	if order == nil {
		return &entity.DataKey{Type: entity.KeyEntityField, Name: entity.FieldCreatedTime}, true
	}
	dk, ok := r.resolveKey(order.Key)
	if !ok {
		r.logger.Warn("unknown sort key, sorting by created time", "key", order.Key.Key)
		return &entity.DataKey{Type: entity.KeyEntityField, Name: entity.FieldCreatedTime}, true
	}
	return &dk, order.Direction == query.SortDesc
}

// sortAndPage orders the matched set and slices the requested page. The
// ascending order is sort value first with absent values sorting lowest,
// then entity id as the stable tie-break; descending reverses the whole
// order.
func sortAndPage(matched []sortableRecord, link query.PageLink, descending bool,
	entityFields, latestValues []resolvedKey) query.Page {

	pageSize := link.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	less := func(a, b sortableRecord) bool {
		av, bv := a.sortValue, b.sortValue
		switch {
		case av == nil && bv != nil:
			return true
		case av != nil && bv == nil:
			return false
		case av != nil && bv != nil:
			if c := av.Compare(*bv); c != 0 {
				return c < 0
			}
		}
		return a.rec.UUID().String() < b.rec.UUID().String()
	}
	sort.Slice(matched, func(i, j int) bool {
		if descending {
			return less(matched[j], matched[i])
		}
		return less(matched[i], matched[j])
	})

	page := link.Page
	if page < 0 {
		page = 0
	}

	totalSize := len(matched)
	totalPages := (totalSize + pageSize - 1) / pageSize
	offset := page * pageSize
	if offset > totalSize {
		return query.Page{TotalPages: totalPages, TotalElements: totalSize}
	}
	end := offset + pageSize
	if end > totalSize {
		end = totalSize
	}
	return query.Page{
		Data:          project(matched[offset:end], entityFields, latestValues),
		TotalPages:    totalPages,
		TotalElements: totalSize,
		HasNext:       totalSize > end,
	}
}

// project builds the result rows: requested entity fields under the
// ENTITY_FIELD key type, latest values under their own key types. Points
// without a timestamp get the projection time.
func project(matched []sortableRecord, entityFields, latestValues []resolvedKey) []query.Result {
	now := timestamp.Now()
	results := make([]query.Result, 0, len(matched))
	for _, sr := range matched {
		latest := make(map[entity.KeyType]map[string]query.TsValue)
		put := func(keyType entity.KeyType, name string, v query.TsValue) {
			byName, ok := latest[keyType]
			if !ok {
				byName = make(map[string]query.TsValue)
				latest[keyType] = byName
			}
			byName[name] = v
		}
		for _, k := range entityFields {
			put(entity.KeyEntityField, k.name, toTsValue(now, sr.rec, k.key))
		}
		for _, k := range latestValues {
			put(k.keyType, k.name, toTsValue(now, sr.rec, k.key))
		}
		results = append(results, query.Result{EntityID: sr.rec.ID(), Latest: latest})
	}
	return results
}

func toTsValue(now int64, rec *entity.Record, key entity.DataKey) query.TsValue {
	dp, ok := rec.DataPoint(key)
	if !ok {
		return query.TsValue{}
	}
	ts := dp.TS()
	if ts <= 0 {
		ts = now
	}
	return query.TsValue{TS: ts, Value: dp.String()}
}

// matchesTextSearch reports whether any requested key's value contains the
// search term, case-insensitive.
func matchesTextSearch(rec *entity.Record, entityFields, latestValues []resolvedKey, term string) bool {
	check := func(keys []resolvedKey) bool {
		for _, k := range keys {
			if dp, ok := rec.DataPoint(k.key); ok {
				if strings.Contains(strings.ToLower(dp.String()), term) {
					return true
				}
			}
		}
		return false
	}
	return check(entityFields) || check(latestValues)
}
