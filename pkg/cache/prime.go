package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/log"
)

// DynamicFieldInfo is one entry returned by a dynamic-field listing call.
type DynamicFieldInfo struct {
	Name     string
	ObjectID ObjectId
}

// DynamicFieldService extends RemoteObjectService with the two calls the
// priming walk needs beyond plain object fetches: resolving a named child
// field's own object id, and listing a parent's dynamic fields. Grounded on
// the remote chain's read API (spec §1 external collaborator); satisfied in
// production by the --sui-rpc-url-backed client, and by a fake in tests.
type DynamicFieldService interface {
	RemoteObjectService
	FieldID(ctx context.Context, parent ObjectId, fieldName string) (ObjectId, error)
	ListDynamicFields(ctx context.Context, parent ObjectId, limit int) ([]DynamicFieldInfo, error)
}

const dynamicFieldPageSize = 50

// dappKeyStr mirrors the on-chain DappKey type-tag string for packageID
// (e.g. "abc123...::dapp_key::DappKey", no "0x" prefix), used only to match
// dapp_stores dynamic-field names against the origin and framework package
// ids during priming.
func dappKeyStr(packageID string) string {
	return strings.TrimPrefix(packageID, "0x") + "::dapp_key::DappKey"
}

// InitializeCache walks the known object graph — hub -> dapp_stores
// dynamic fields -> per-app store -> tables -> per-table value -> per-record
// — and bulk-inserts every object touched (spec §4.2 "Priming"). This is
// what lets the VM simulate a call without talking to the remote service on
// the hot path.
func InitializeCache(ctx context.Context, c *Cache, svc DynamicFieldService, hubID, dubhePackageID, appPackageID ObjectId) error {
	l := log.WithComponent("cache-prime")

	hub, err := svc.FetchObject(ctx, hubID)
	if err != nil {
		return fmt.Errorf("cache: fetch hub object: %w", err)
	}
	if hub == nil {
		return fmt.Errorf("cache: hub object %s not found", hubID)
	}
	c.InsertObject(hub)

	dappStoresFieldID, err := svc.FieldID(ctx, hubID, "dapp_stores")
	if err != nil {
		return fmt.Errorf("cache: resolve dapp_stores field: %w", err)
	}

	storeFields, err := svc.ListDynamicFields(ctx, dappStoresFieldID, dynamicFieldPageSize)
	if err != nil {
		return fmt.Errorf("cache: list dapp_stores fields: %w", err)
	}

	originKey, dubheKey := dappKeyStr(appPackageID.String()), dappKeyStr(dubhePackageID.String())
	var originStoreID, dubheStoreID ObjectId
	var foundOrigin, foundDubhe bool
	for _, f := range storeFields {
		if strings.Contains(f.Name, originKey) {
			originStoreID, foundOrigin = f.ObjectID, true
		}
		if strings.Contains(f.Name, dubheKey) {
			dubheStoreID, foundDubhe = f.ObjectID, true
		}
	}
	if !foundOrigin || !foundDubhe {
		return fmt.Errorf("cache: could not locate origin and framework dapp stores among %d dynamic fields", len(storeFields))
	}
	l.Debug().Str("origin_store", originStoreID.String()).Str("dubhe_store", dubheStoreID.String()).Msg("located dapp stores")

	if _, err := bulkFetchInsert(ctx, c, svc, []ObjectId{originStoreID, dubheStoreID}); err != nil {
		return fmt.Errorf("cache: fetch dapp stores: %w", err)
	}

	originTablesFieldID, err := svc.FieldID(ctx, originStoreID, "tables")
	if err != nil {
		return fmt.Errorf("cache: resolve origin tables field: %w", err)
	}
	dubheTablesFieldID, err := svc.FieldID(ctx, dubheStoreID, "tables")
	if err != nil {
		return fmt.Errorf("cache: resolve framework tables field: %w", err)
	}

	originTables, err := svc.ListDynamicFields(ctx, originTablesFieldID, dynamicFieldPageSize)
	if err != nil {
		return fmt.Errorf("cache: list origin tables: %w", err)
	}
	dubheTables, err := svc.ListDynamicFields(ctx, dubheTablesFieldID, dynamicFieldPageSize)
	if err != nil {
		return fmt.Errorf("cache: list framework tables: %w", err)
	}

	var tableIDs []ObjectId
	for _, t := range originTables {
		tableIDs = append(tableIDs, t.ObjectID)
	}
	for _, t := range dubheTables {
		// Only the fee-state exception table from the framework's own
		// tables is relevant to an app instance (spec's literal
		// "dapp_fee_state" exception, see pkg/schema.FeeStateExceptionTable).
		if t.Name == `"dapp_fee_state"` {
			tableIDs = append(tableIDs, t.ObjectID)
		}
	}

	if _, err := bulkFetchInsert(ctx, c, svc, tableIDs); err != nil {
		return fmt.Errorf("cache: fetch table objects: %w", err)
	}

	var tableValueIDs []ObjectId
	for _, tableID := range tableIDs {
		valueID, err := svc.FieldID(ctx, tableID, "value")
		if err != nil {
			l.Debug().Str("table", tableID.String()).Err(err).Msg("table has no value field, skipping")
			continue
		}
		tableValueIDs = append(tableValueIDs, valueID)
	}

	recordIDSet := make(map[ObjectId]struct{})
	for _, valueID := range tableValueIDs {
		records, err := svc.ListDynamicFields(ctx, valueID, dynamicFieldPageSize)
		if err != nil {
			return fmt.Errorf("cache: list table records: %w", err)
		}
		for _, r := range records {
			recordIDSet[r.ObjectID] = struct{}{}
		}
	}
	recordIDs := make([]ObjectId, 0, len(recordIDSet))
	for id := range recordIDSet {
		recordIDs = append(recordIDs, id)
	}

	total, err := bulkFetchInsert(ctx, c, svc, recordIDs)
	if err != nil {
		return fmt.Errorf("cache: fetch record objects: %w", err)
	}

	l.Info().
		Int("tables", len(tableIDs)).
		Int("records", total).
		Msg("cache primed")
	return nil
}

// bulkFetchInsert fetches ids in batches of 50 and inserts every non-nil
// result into c, returning the count of objects inserted.
func bulkFetchInsert(ctx context.Context, c *Cache, svc RemoteObjectService, ids []ObjectId) (int, error) {
	total := 0
	for start := 0; start < len(ids); start += dynamicFieldPageSize {
		end := start + dynamicFieldPageSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		objs, err := svc.FetchObjects(ctx, chunk)
		if err != nil {
			return total, err
		}
		for _, obj := range objs {
			if obj == nil {
				continue
			}
			c.InsertObject(obj)
			total++
		}
	}
	return total, nil
}
