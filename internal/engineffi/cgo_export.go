//go:build cgo && (linux || darwin)

package engineffi

/*
#include <stdlib.h>
*/
import "C"

import (
	"runtime/cgo"
	"unsafe"
)

// goCallbackDispatch is called by callbackTrampoline (cgo_unix.go) on
// whatever thread the Engine chooses. It must never let a Go panic
// unwind back across the C frame, and it must not block: it only
// recovers the registered Go callback and forwards the event, matching
// the panic-safe, non-blocking thunk contract.
//
//export goCallbackDispatch
func goCallbackDispatch(code C.int, payload *C.char, user unsafe.Pointer) {
	defer func() {
		recover() // the Engine must never observe a Go panic
	}()

	h := cgo.Handle(uintptr(user))
	cb, ok := h.Value().(Callback)
	if !ok || cb == nil {
		return
	}
	cb(int32(code), C.GoString(payload))
}
