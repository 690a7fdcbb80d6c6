package errors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/status"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	RPCCode    string `json:"rpc_code,omitempty"`
	RPCMessage string `json:"rpc_message,omitempty"`
}

// Dump flattens err for structured logs. Firestore surfaces transport
// failures as gRPC statuses, so those are unpacked when present.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
		Code:       CodeOf(err),
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	if st, ok := status.FromError(err); ok && st != nil {
		d.RPCCode = st.Code().String()
		d.RPCMessage = st.Message()
	}

	return d
}
