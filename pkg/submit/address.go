package submit

import (
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/0xobelisk/dubhe-indexer-go/pkg/vm"
)

// zeroPrefix is the 12-byte (24 hex character) left-pad foreign-A
// addresses receive to reach the native 32-byte width (spec §4.7).
const zeroPrefix = "000000000000000000000000" // 24 zero digits

// NormalizeSender parses sender per chain (spec §4.7 "Address
// normalization"), returning the 32-byte native-form address. foreign-A
// normalization preserves the caller's original hex casing verbatim by
// string concatenation rather than a decode/re-encode round trip — spec
// §8 scenario S5's expected output keeps the input's mixed-case digits.
func NormalizeSender(chain vm.Chain, sender string) (string, error) {
	switch chain {
	case vm.ChainNative:
		return normalizeNative(sender)
	case vm.ChainForeignA:
		return normalizeForeignA(sender)
	case vm.ChainForeignB:
		return normalizeForeignB(sender)
	default:
		return "", &InvalidSenderError{Chain: string(chain), Sender: sender, Reason: "unknown chain"}
	}
}

func normalizeNative(sender string) (string, error) {
	hexDigits := strings.TrimPrefix(sender, "0x")
	b, err := hex.DecodeString(hexDigits)
	if err != nil {
		return "", &InvalidSenderError{Chain: string(vm.ChainNative), Sender: sender, Reason: "not valid hex"}
	}
	if len(b) != 32 {
		return "", &InvalidSenderError{Chain: string(vm.ChainNative), Sender: sender, Reason: "not 32 bytes"}
	}
	return sender, nil
}

func normalizeForeignA(sender string) (string, error) {
	hexDigits := strings.TrimPrefix(sender, "0x")
	b, err := hex.DecodeString(hexDigits)
	if err != nil {
		return "", &InvalidSenderError{Chain: string(vm.ChainForeignA), Sender: sender, Reason: "not valid hex"}
	}
	if len(b) != 20 {
		return "", &InvalidSenderError{Chain: string(vm.ChainForeignA), Sender: sender, Reason: "not 20 bytes"}
	}
	return "0x" + zeroPrefix + hexDigits, nil
}

func normalizeForeignB(sender string) (string, error) {
	b, err := base58.Decode(sender)
	if err != nil {
		return "", &InvalidSenderError{Chain: string(vm.ChainForeignB), Sender: sender, Reason: "not valid base58"}
	}
	if len(b) != 32 {
		return "", &InvalidSenderError{Chain: string(vm.ChainForeignB), Sender: sender, Reason: "not 32 bytes"}
	}
	return "0x" + hex.EncodeToString(b), nil
}
