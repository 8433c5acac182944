// Package vm drives Move VM execution in dev-inspect mode over the object
// cache (spec §4.3). The Move VM itself is an external collaborator (spec
// §1); this package defines the narrow MoveVM interface it is consumed
// through, plus a deterministic fake used in tests.
package vm

import "github.com/0xobelisk/dubhe-indexer-go/pkg/cache"

// InputKind discriminates the two shapes a transaction input can take.
type InputKind int

const (
	InputObject InputKind = iota
	InputPure
)

// Input is one resolved transaction-block input: either a reference to a
// cached object (by id/version/digest) or raw pure bytes (spec §3
// "Transaction description").
type Input struct {
	Kind InputKind

	// Object is set when Kind == InputObject. Shared/InitialSharedVersion
	// are only meaningful when Object refers to a shared object (spec
	// §4.7: "if the object is shared, the call argument becomes
	// SharedObject{id, initial_shared_version, mutable:true}; otherwise
	// ImmOrOwnedObject(object_ref)").
	Object               cache.ObjectRef
	Shared               bool
	InitialSharedVersion uint64

	// Pure is set when Kind == InputPure.
	Pure []byte
}

// MoveCall is a single command in a programmable transaction block.
// Arguments reference Inputs by ordinal (spec §3).
type MoveCall struct {
	Package  string
	Module   string
	Function string
	// TypeArguments is preserved verbatim but not parsed (spec §9 open
	// question Q2: "implement parsing as a follow-up once a concrete
	// type-tag grammar is adopted").
	TypeArguments []string
	Args          []int
}

// ProgrammableTransaction is a resolved programmable transaction block: all
// inputs already carry ObjectRef/pure bytes rather than bare ids (spec §4.3
// "tx is a programmable transaction block with inputs resolved").
type ProgrammableTransaction struct {
	Inputs   []Input
	Commands []MoveCall
}

// Chain identifies which chain a submission targets (spec §3
// "Transaction description").
type Chain string

const (
	ChainNative   Chain = "native"
	ChainForeignA Chain = "foreignA"
	ChainForeignB Chain = "foreignB"
)
