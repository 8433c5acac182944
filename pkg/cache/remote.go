package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// JSONRPCRemote is the production RemoteObjectService/DynamicFieldService
// implementation: a thin wrapper around the chain's JSON-RPC read API at
// --sui-rpc-url (spec §6), the same "struct owning a connection, exposing
// typed methods with a timeout" shape as
// cuemby-warren/pkg/client/client.go's Client, adapted from a gRPC
// connection to a plain net/http client since no chain-RPC SDK appears
// anywhere in the retrieved pack — the remote chain's JSON-RPC surface is
// an explicit external collaborator (spec §1) with no library to ground a
// typed client on, so a minimal hand-rolled JSON-RPC envelope is the
// documented stdlib exception here.
type JSONRPCRemote struct {
	url     string
	client  *http.Client
	nextID  int
}

// NewJSONRPCRemote builds a JSONRPCRemote against url.
func NewJSONRPCRemote(url string) *JSONRPCRemote {
	return &JSONRPCRemote{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (r *JSONRPCRemote) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	r.nextID++
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: r.nextID, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("%w: encode request: %s", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %s", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrTransport, err)
	}
	defer resp.Body.Close()

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: decode response: %s", ErrTransport, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%w: rpc error %d: %s", ErrTransport, rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("%w: decode result: %s", ErrTransport, err)
	}
	return nil
}

// wireObject is the JSON-RPC wire shape for a single object, with full
// data options requested (spec §4.2 "fetches the object with full data
// options").
type wireObject struct {
	ObjectID string `json:"objectId"`
	Version  string `json:"version"`
	Digest   string `json:"digest"`
	Owner    struct {
		Immutable            bool   `json:"Immutable,omitempty"`
		AddressOwner         string `json:"AddressOwner,omitempty"`
		ObjectOwner          string `json:"ObjectOwner,omitempty"`
		Shared               *struct {
			InitialSharedVersion uint64 `json:"initial_shared_version"`
		} `json:"Shared,omitempty"`
	} `json:"owner"`
	Content      string          `json:"bcsBytes"`
	Package      *wirePackage    `json:"packageData,omitempty"`
}

type wirePackage struct {
	Modules      map[string]string `json:"moduleMap"`
	Dependencies []string          `json:"dependencies"`
}

func (w *wireObject) toObject() (*Object, error) {
	id, err := ParseObjectId(w.ObjectID)
	if err != nil {
		return nil, err
	}

	var version uint64
	if _, err := fmt.Sscanf(w.Version, "%d", &version); err != nil {
		return nil, fmt.Errorf("cache: invalid object version %q: %w", w.Version, err)
	}

	owner := Owner{Kind: OwnerImmutable}
	switch {
	case w.Owner.AddressOwner != "":
		owner = Owner{Kind: OwnerAddress, Address: w.Owner.AddressOwner}
	case w.Owner.ObjectOwner != "":
		parent, err := ParseObjectId(w.Owner.ObjectOwner)
		if err != nil {
			return nil, err
		}
		owner = Owner{Kind: OwnerObject, Parent: parent}
	case w.Owner.Shared != nil:
		owner = Owner{Kind: OwnerShared, InitialSharedVersion: w.Owner.Shared.InitialSharedVersion}
	}

	obj := &Object{ID: id, Version: version, Digest: w.Digest, Owner: owner, Contents: []byte(w.Content)}
	if w.Package != nil {
		pkg := &PackageContents{Modules: make(map[string][]byte, len(w.Package.Modules))}
		for name, code := range w.Package.Modules {
			pkg.Modules[name] = []byte(code)
		}
		for _, dep := range w.Package.Dependencies {
			depID, err := ParseObjectId(dep)
			if err != nil {
				return nil, err
			}
			pkg.Dependencies = append(pkg.Dependencies, depID)
		}
		obj.Package = pkg
	}
	return obj, nil
}

// FetchObject implements RemoteObjectService.
func (r *JSONRPCRemote) FetchObject(ctx context.Context, id ObjectId) (*Object, error) {
	var w *wireObject
	if err := r.call(ctx, "sui_getObject", []interface{}{id.String(), map[string]bool{"showContent": true, "showOwner": true, "showBcs": true}}, &w); err != nil {
		return nil, err
	}
	if w == nil || w.ObjectID == "" {
		return nil, nil
	}
	return w.toObject()
}

// FetchObjects implements RemoteObjectService, used by the priming walk's
// batched-by-50 bulk reads (spec §4.2 "Priming").
func (r *JSONRPCRemote) FetchObjects(ctx context.Context, ids []ObjectId) ([]*Object, error) {
	idStrs := make([]interface{}, len(ids))
	for i, id := range ids {
		idStrs[i] = id.String()
	}
	var wireObjs []*wireObject
	if err := r.call(ctx, "sui_multiGetObjects", []interface{}{idStrs, map[string]bool{"showContent": true, "showOwner": true, "showBcs": true}}, &wireObjs); err != nil {
		return nil, err
	}
	objs := make([]*Object, 0, len(wireObjs))
	for _, w := range wireObjs {
		if w == nil || w.ObjectID == "" {
			continue
		}
		obj, err := w.toObject()
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// FieldID implements DynamicFieldService: resolves a named dynamic field's
// own object id under parent.
func (r *JSONRPCRemote) FieldID(ctx context.Context, parent ObjectId, fieldName string) (ObjectId, error) {
	var w *wireObject
	if err := r.call(ctx, "sui_getDynamicFieldObject", []interface{}{parent.String(), fieldName}, &w); err != nil {
		return ObjectId{}, err
	}
	if w == nil || w.ObjectID == "" {
		return ObjectId{}, fmt.Errorf("%w: dynamic field %q not found under %s", ErrTransport, fieldName, parent)
	}
	return ParseObjectId(w.ObjectID)
}

// ListDynamicFields implements DynamicFieldService.
func (r *JSONRPCRemote) ListDynamicFields(ctx context.Context, parent ObjectId, limit int) ([]DynamicFieldInfo, error) {
	var page struct {
		Data []struct {
			Name struct {
				Value string `json:"value"`
			} `json:"name"`
			ObjectID string `json:"objectId"`
		} `json:"data"`
	}
	if err := r.call(ctx, "sui_getDynamicFields", []interface{}{parent.String(), nil, limit}, &page); err != nil {
		return nil, err
	}
	out := make([]DynamicFieldInfo, 0, len(page.Data))
	for _, d := range page.Data {
		id, err := ParseObjectId(d.ObjectID)
		if err != nil {
			return nil, err
		}
		out = append(out, DynamicFieldInfo{Name: d.Name.Value, ObjectID: id})
	}
	return out, nil
}
