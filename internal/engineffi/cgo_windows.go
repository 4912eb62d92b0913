//go:build cgo && windows

package engineffi

import (
	"context"
	"fmt"
	"runtime/cgo"
	"sync"
	"syscall"
	"unsafe"
)

// winLibrary loads the Engine shared object with LoadLibrary and resolves
// each required symbol once via GetProcAddress, the Windows counterpart
// to cgo_unix.go's dlopen/dlsym binding. The Engine's exported functions
// take plain `const char*` (not wide strings) on every platform, so
// marshaling here matches cgo_unix.go's CString/GoString convention
// rather than the usual Windows W-suffixed wide-string APIs.
type winLibrary struct {
	mu  sync.Mutex
	dll *syscall.LazyDLL

	procLoadResource        *syscall.LazyProc
	procCreate              *syscall.LazyProc
	procDestroy             *syscall.LazyProc
	procSetConnectionExtras *syscall.LazyProc
	procAsyncConnect        *syscall.LazyProc
	procAppendTask          *syscall.LazyProc
	procStart               *syscall.LazyProc
	procStop                *syscall.LazyProc
	procRunning             *syscall.LazyProc
}

// NewLibrary returns the production Engine binding for this platform.
func NewLibrary() Library {
	return &winLibrary{}
}

func (l *winLibrary) Load(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	dll := syscall.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return fmt.Errorf("engineffi: LoadLibrary %s failed: %w", path, err)
	}
	l.dll = dll

	proc := func(name string) (*syscall.LazyProc, error) {
		p := dll.NewProc(name)
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("engineffi: missing symbol %s: %w", name, err)
		}
		return p, nil
	}

	symbols := []struct {
		name string
		dst  **syscall.LazyProc
	}{
		{"AsstLoadResource", &l.procLoadResource},
		{"AsstCreateEx", &l.procCreate},
		{"AsstDestroy", &l.procDestroy},
		{"AsstSetConnectionExtras", &l.procSetConnectionExtras},
		{"AsstAsyncConnect", &l.procAsyncConnect},
		{"AsstAppendTask", &l.procAppendTask},
		{"AsstStart", &l.procStart},
		{"AsstStop", &l.procStop},
		{"AsstRunning", &l.procRunning},
	}
	for _, s := range symbols {
		p, err := proc(s.name)
		if err != nil {
			return err
		}
		*s.dst = p
	}
	return nil
}

// Unload is a no-op: syscall's LazyDLL has no FreeLibrary counterpart
// exposed at this layer, matching the package's documented "safe to call
// even if never loaded" contract — callers that need to reload call Load
// again, which re-resolves a fresh LazyDLL.
func (l *winLibrary) Unload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.dll = nil
	return nil
}

func (l *winLibrary) LoadResource(dir string) error {
	cdir := cString(dir)
	r, _, _ := l.procLoadResource.Call(uintptr(unsafe.Pointer(cdir)))
	if r == 0 {
		return fmt.Errorf("engineffi: load_resource(%s) failed", dir)
	}
	return nil
}

func (l *winLibrary) NewInstance(ctx context.Context, cb Callback) (Instance, error) {
	h := cgo.NewHandle(cb)
	trampoline := syscall.NewCallback(windowsCallbackTrampoline)
	handle, _, _ := l.procCreate.Call(trampoline, uintptr(h))
	if handle == 0 {
		h.Delete()
		return nil, fmt.Errorf("engineffi: create instance failed")
	}
	return &winInstance{lib: l, handle: handle, callbackHandle: h}, nil
}

type winInstance struct {
	lib            *winLibrary
	handle         uintptr
	callbackHandle cgo.Handle
}

func (i *winInstance) SetConnectionExtras(tag, jsonPayload string) error {
	ctag := cString(tag)
	cjson := cString(jsonPayload)
	r, _, _ := i.lib.procSetConnectionExtras.Call(i.handle, uintptr(unsafe.Pointer(ctag)), uintptr(unsafe.Pointer(cjson)))
	if r == 0 {
		return fmt.Errorf("engineffi: set_connection_extras(%s) failed", tag)
	}
	return nil
}

func (i *winInstance) AsyncConnect(adbPath, address, extrasTag string, block bool) error {
	cpath := cString(adbPath)
	caddr := cString(address)
	ctag := cString(extrasTag)
	blockInt := uintptr(0)
	if block {
		blockInt = 1
	}
	r, _, _ := i.lib.procAsyncConnect.Call(i.handle, uintptr(unsafe.Pointer(cpath)), uintptr(unsafe.Pointer(caddr)), uintptr(unsafe.Pointer(ctag)), blockInt)
	if r == 0 {
		return fmt.Errorf("engineffi: async_connect failed")
	}
	return nil
}

func (i *winInstance) AppendTask(name, paramsJSON string) (int64, error) {
	cname := cString(name)
	cparams := cString(paramsJSON)
	id, _, _ := i.lib.procAppendTask.Call(i.handle, uintptr(unsafe.Pointer(cname)), uintptr(unsafe.Pointer(cparams)))
	if id == 0 {
		return 0, fmt.Errorf("engineffi: append_task(%s) failed", name)
	}
	return int64(id), nil
}

func (i *winInstance) Start() error {
	r, _, _ := i.lib.procStart.Call(i.handle)
	if r == 0 {
		return fmt.Errorf("engineffi: start failed")
	}
	return nil
}

func (i *winInstance) Stop() error {
	r, _, _ := i.lib.procStop.Call(i.handle)
	if r == 0 {
		return fmt.Errorf("engineffi: stop failed")
	}
	return nil
}

func (i *winInstance) Running() bool {
	r, _, _ := i.lib.procRunning.Call(i.handle)
	return r != 0
}

func (i *winInstance) Destroy() {
	i.lib.procDestroy.Call(i.handle)
	i.callbackHandle.Delete()
}

// windowsCallbackTrampoline is the function handed to the Engine via
// syscall.NewCallback. It must never let a Go panic unwind back into the
// Engine's calling thread, matching goCallbackDispatch's (cgo_export.go)
// panic-safety contract.
func windowsCallbackTrampoline(code, payload, user uintptr) uintptr {
	defer func() {
		recover()
	}()

	h := cgo.Handle(user)
	cb, ok := h.Value().(Callback)
	if !ok || cb == nil {
		return 0
	}
	cb(int32(code), goStringFromCString(payload))
	return 0
}

// cString returns a NUL-terminated UTF-8 byte slice pointer suitable for
// passing as a `const char*` argument, mirroring cgo_unix.go's C.CString.
func cString(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

// goStringFromCString reads a NUL-terminated UTF-8 string from a raw
// `const char*` pointer, mirroring cgo_unix.go's C.GoString.
func goStringFromCString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var buf []byte
	for p := ptr; ; p++ {
		b := *(*byte)(unsafe.Pointer(p))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}
