// Package cache implements the two-level object cache the VM Driver reads
// and writes through (spec §4.2): an in-memory L0 map guarded by a
// reader-writer lock, backed by an asynchronous remote object service (L1)
// whose calls are bridged to the VM's synchronous view.
package cache

import (
	"encoding/hex"
	"fmt"
)

// ObjectId is the 32-byte identity of a cached object.
type ObjectId [32]byte

// String renders the id as a "0x"-prefixed hex string.
func (id ObjectId) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// ParseObjectId decodes a "0x"-prefixed or bare hex string into an ObjectId.
func ParseObjectId(s string) (ObjectId, error) {
	var id ObjectId
	if len(s) >= 2 && s[0:2] == "0x" {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("cache: invalid object id %q: %w", s, err)
	}
	if len(b) != 32 {
		return id, fmt.Errorf("cache: object id %q is %d bytes, want 32", s, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// OwnerKind discriminates the four object-ownership shapes (spec §3).
type OwnerKind int

const (
	OwnerImmutable OwnerKind = iota
	OwnerAddress
	OwnerObject
	OwnerShared
)

// Owner records who/what owns an Object.
type Owner struct {
	Kind OwnerKind

	// Address is set when Kind == OwnerAddress.
	Address string
	// Parent is set when Kind == OwnerObject.
	Parent ObjectId
	// InitialSharedVersion is set when Kind == OwnerShared.
	InitialSharedVersion uint64
}

// Object is the cached entity the VM reads and writes (spec §3 "Object").
// Contents is opaque to the cache — it is whatever type-tagged payload the
// VM or the remote object service produced; the cache only ever replaces it
// wholesale on a new version.
type Object struct {
	ID      ObjectId
	Version uint64
	Digest  string
	Owner   Owner
	Package *PackageContents
	Contents []byte
}

// PackageContents distinguishes a package object (Move bytecode plus a
// dependency manifest) from a regular data object. Non-nil iff the object
// is a package.
type PackageContents struct {
	Modules      map[string][]byte
	Dependencies []ObjectId
}

// IsPackage reports whether o is a package object.
func (o *Object) IsPackage() bool {
	return o.Package != nil
}

// Clone returns a deep copy of o. The cache never hands out mutable
// aliases (spec §4.2 "Ownership"): every read returns a Clone.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	cp := *o
	if o.Contents != nil {
		cp.Contents = make([]byte, len(o.Contents))
		copy(cp.Contents, o.Contents)
	}
	if o.Package != nil {
		pkg := &PackageContents{
			Modules:      make(map[string][]byte, len(o.Package.Modules)),
			Dependencies: append([]ObjectId(nil), o.Package.Dependencies...),
		}
		for name, bytecode := range o.Package.Modules {
			b := make([]byte, len(bytecode))
			copy(b, bytecode)
			pkg.Modules[name] = b
		}
		cp.Package = pkg
	}
	return &cp
}

// ObjectRef identifies one version of an object, as returned by
// ParentSync.LatestParentRef and consumed by the VM for shared/owned input
// resolution.
type ObjectRef struct {
	ID      ObjectId
	Version uint64
	Digest  string
}
