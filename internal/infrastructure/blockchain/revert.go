package blockchain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	revertHexPattern = regexp.MustCompile(`0x[0-9a-fA-F]{8,}`)

	errorSelector = [4]byte{0x08, 0xc3, 0x79, 0xa0} // Error(string)
	panicSelector = [4]byte{0x4e, 0x48, 0x7b, 0x71} // Panic(uint256)
)

// RevertError is a failed view call whose revert payload could be decoded
type RevertError struct {
	Method   string
	Selector string
	Name     string
	Reason   string
	Data     []byte
	Err      error
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s reverted: %s", e.Method, e.Reason)
}

func (e *RevertError) Unwrap() error {
	return e.Err
}

// withRevertReason wraps err in a RevertError when it carries revert data. Custom
// errors are looked up in parsed.
func withRevertReason(parsed abi.ABI, method string, err error) error {
	data, ok := revertData(err)
	if !ok {
		return err
	}
	out := &RevertError{Method: method, Data: data, Err: err}
	decodeRevertPayload(parsed, data, out)
	return out
}

func revertData(err error) ([]byte, bool) {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if data, ok := revertBytes(dataErr.ErrorData()); ok {
			return data, true
		}
	}
	for _, candidate := range revertHexPattern.FindAllString(err.Error(), -1) {
		if data, ok := parseHexBytes(candidate); ok {
			return data, true
		}
	}
	return nil, false
}

func revertBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case string:
		return parseHexBytes(v)
	case []byte:
		if len(v) == 0 {
			return nil, false
		}
		return append([]byte(nil), v...), true
	case map[string]interface{}:
		if raw, ok := v["data"]; ok {
			return revertBytes(raw)
		}
	}
	return nil, false
}

func parseHexBytes(raw string) ([]byte, bool) {
	value := strings.TrimSpace(strings.TrimPrefix(raw, "0x"))
	if len(value) < 8 || len(value)%2 != 0 {
		return nil, false
	}
	data, err := hex.DecodeString(value)
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func decodeRevertPayload(parsed abi.ABI, data []byte, out *RevertError) {
	if len(data) < 4 {
		return
	}
	var selector [4]byte
	copy(selector[:], data[:4])
	out.Selector = "0x" + hex.EncodeToString(selector[:])

	switch selector {
	case errorSelector:
		if reason, err := abi.UnpackRevert(data); err == nil {
			out.Name = "Error"
			out.Reason = reason
		}
		return
	case panicSelector:
		if len(data) >= 36 {
			out.Name = "Panic"
			out.Reason = fmt.Sprintf("panic code: %s", new(big.Int).SetBytes(data[4:36]))
		}
		return
	}

	custom, err := parsed.ErrorByID(selector)
	if err != nil {
		return
	}
	out.Name = custom.Name
	out.Reason = custom.Name
	if values, err := custom.Inputs.Unpack(data[4:]); err == nil && len(values) > 0 {
		out.Reason = fmt.Sprintf("%s%v", custom.Name, values)
	}
}
