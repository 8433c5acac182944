// Package submit implements the submission endpoint (spec §4.7): it
// accepts a transaction description over HTTP, normalizes the sender
// address per chain, resolves the programmable transaction's inputs
// against the object cache, runs it through the VM Driver, and feeds any
// emitted events through the checkpoint processor and committer.
package submit

import "github.com/0xobelisk/dubhe-indexer-go/pkg/vm"

// Request is the JSON body accepted by POST /submit (spec §4.7).
type Request struct {
	Chain     vm.Chain `json:"chain"`
	Sender    string   `json:"sender"`
	Nonce     *uint64  `json:"nonce,omitempty"`
	PTB       PTB      `json:"ptb"`
	Signature string   `json:"signature,omitempty"`
}

// PTB is the wire shape of a resolved-by-ordinal programmable transaction
// block (spec §3 "Transaction description").
type PTB struct {
	Inputs   []RawInput   `json:"inputs"`
	Commands []RawCommand `json:"commands"`
}

// RawInput is one input before resolution. Kind is either
// "UnresolvedObject" or "Pure" (spec §4.7 "Transaction build").
type RawInput struct {
	Kind     string `json:"$kind"`
	ObjectID string `json:"object_id,omitempty"`
	Bytes    string `json:"bytes,omitempty"` // base64, set when Kind == "Pure"
}

// RawCommand is the only command shape the current surface accepts: a
// MoveCall referencing inputs by ordinal (spec §4.7 "Commands").
type RawCommand struct {
	Package       string   `json:"package"`
	Module        string   `json:"module"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []int    `json:"arguments"`
}

// Response summarizes a successful submission (spec §4.7 "Execution").
type Response struct {
	Chain     vm.Chain `json:"chain"`
	Sender    string   `json:"sender"`
	Nonce     *uint64  `json:"nonce,omitempty"`
	TxDigest  string   `json:"tx_digest"`
	SQLCount  int      `json:"sql_count"`
}

// envelope wraps Response in the {success, data} shape §6 specifies for
// POST /submit's 200 response.
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
