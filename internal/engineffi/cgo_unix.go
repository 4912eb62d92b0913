//go:build cgo && (linux || darwin)

package engineffi

/*
#cgo linux LDFLAGS: -ldl
#include <stdlib.h>
#include <dlfcn.h>

typedef void (*asst_callback)(int code, const char *payload, void *user);
typedef void* (*fn_create)(asst_callback cb, void *user);
typedef void  (*fn_destroy)(void *inst);
typedef int   (*fn_load_resource)(const char *dir);
typedef int   (*fn_set_connection_extras)(void *inst, const char *tag, const char *json);
typedef int   (*fn_async_connect)(void *inst, const char *adb_path, const char *address, const char *extras_tag, int block);
typedef long long (*fn_append_task)(void *inst, const char *name, const char *params_json);
typedef int   (*fn_start)(void *inst);
typedef int   (*fn_stop)(void *inst);
typedef int   (*fn_running)(void *inst);

// callbackTrampoline is the single C-visible entry point the Engine
// invokes from whatever thread it chooses. It never unwinds into Go
// panics across the boundary: goCallbackDispatch recovers internally.
extern void goCallbackDispatch(int code, char *payload, void *user);

static void callbackTrampoline(int code, const char *payload, void *user) {
    goCallbackDispatch(code, (char*)payload, user);
}

static asst_callback trampolinePtr() {
    return &callbackTrampoline;
}
*/
import "C"

import (
	"context"
	"fmt"
	"runtime/cgo"
	"sync"
	"unsafe"
)

// dlLibrary loads the Engine shared object with dlopen and resolves each
// required symbol once, per the Engine FFI contract.
type dlLibrary struct {
	mu     sync.Mutex
	handle unsafe.Pointer

	loadResource          C.fn_load_resource
	create                C.fn_create
	destroy               C.fn_destroy
	setConnectionExtras   C.fn_set_connection_extras
	asyncConnect          C.fn_async_connect
	appendTask            C.fn_append_task
	start                 C.fn_start
	stop                  C.fn_stop
	running               C.fn_running
}

// NewLibrary returns the production Engine binding for this platform.
func NewLibrary() Library {
	return &dlLibrary{}
}

func (l *dlLibrary) Load(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	handle := C.dlopen(cpath, C.RTLD_NOW|C.RTLD_GLOBAL)
	if handle == nil {
		return fmt.Errorf("engineffi: dlopen %s failed: %s", path, C.GoString(C.dlerror()))
	}
	l.handle = handle

	sym := func(name string) (unsafe.Pointer, error) {
		cname := C.CString(name)
		defer C.free(unsafe.Pointer(cname))
		p := C.dlsym(handle, cname)
		if p == nil {
			return nil, fmt.Errorf("engineffi: missing symbol %s", name)
		}
		return p, nil
	}

	symbols := []struct {
		name string
		dst  *unsafe.Pointer
	}{
		{"AsstLoadResource", (*unsafe.Pointer)(unsafe.Pointer(&l.loadResource))},
		{"AsstCreateEx", (*unsafe.Pointer)(unsafe.Pointer(&l.create))},
		{"AsstDestroy", (*unsafe.Pointer)(unsafe.Pointer(&l.destroy))},
		{"AsstSetConnectionExtras", (*unsafe.Pointer)(unsafe.Pointer(&l.setConnectionExtras))},
		{"AsstAsyncConnect", (*unsafe.Pointer)(unsafe.Pointer(&l.asyncConnect))},
		{"AsstAppendTask", (*unsafe.Pointer)(unsafe.Pointer(&l.appendTask))},
		{"AsstStart", (*unsafe.Pointer)(unsafe.Pointer(&l.start))},
		{"AsstStop", (*unsafe.Pointer)(unsafe.Pointer(&l.stop))},
		{"AsstRunning", (*unsafe.Pointer)(unsafe.Pointer(&l.running))},
	}
	for _, s := range symbols {
		p, err := sym(s.name)
		if err != nil {
			return err
		}
		*s.dst = p
	}
	return nil
}

func (l *dlLibrary) Unload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		return nil
	}
	if C.dlclose(l.handle) != 0 {
		return fmt.Errorf("engineffi: dlclose failed: %s", C.GoString(C.dlerror()))
	}
	l.handle = nil
	return nil
}

func (l *dlLibrary) LoadResource(dir string) error {
	cdir := C.CString(dir)
	defer C.free(unsafe.Pointer(cdir))
	if l.loadResource(cdir) == 0 {
		return fmt.Errorf("engineffi: load_resource(%s) failed", dir)
	}
	return nil
}

func (l *dlLibrary) NewInstance(ctx context.Context, cb Callback) (Instance, error) {
	h := cgo.NewHandle(cb)
	handle := l.create(C.trampolinePtr(), unsafe.Pointer(uintptr(h)))
	if handle == nil {
		h.Delete()
		return nil, fmt.Errorf("engineffi: create instance failed")
	}
	return &dlInstance{lib: l, handle: handle, callbackHandle: h}, nil
}

type dlInstance struct {
	lib            *dlLibrary
	handle         unsafe.Pointer
	callbackHandle cgo.Handle
}

func (i *dlInstance) SetConnectionExtras(tag, json string) error {
	ctag := C.CString(tag)
	defer C.free(unsafe.Pointer(ctag))
	cjson := C.CString(json)
	defer C.free(unsafe.Pointer(cjson))
	if i.lib.setConnectionExtras(i.handle, ctag, cjson) == 0 {
		return fmt.Errorf("engineffi: set_connection_extras(%s) failed", tag)
	}
	return nil
}

func (i *dlInstance) AsyncConnect(adbPath, address, extrasTag string, block bool) error {
	cpath := C.CString(adbPath)
	defer C.free(unsafe.Pointer(cpath))
	caddr := C.CString(address)
	defer C.free(unsafe.Pointer(caddr))
	ctag := C.CString(extrasTag)
	defer C.free(unsafe.Pointer(ctag))

	blockInt := C.int(0)
	if block {
		blockInt = 1
	}
	if i.lib.asyncConnect(i.handle, cpath, caddr, ctag, blockInt) == 0 {
		return fmt.Errorf("engineffi: async_connect failed")
	}
	return nil
}

func (i *dlInstance) AppendTask(name, paramsJSON string) (int64, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	cparams := C.CString(paramsJSON)
	defer C.free(unsafe.Pointer(cparams))

	id := i.lib.appendTask(i.handle, cname, cparams)
	if id == 0 {
		return 0, fmt.Errorf("engineffi: append_task(%s) failed", name)
	}
	return int64(id), nil
}

func (i *dlInstance) Start() error {
	if i.lib.start(i.handle) == 0 {
		return fmt.Errorf("engineffi: start failed")
	}
	return nil
}

func (i *dlInstance) Stop() error {
	if i.lib.stop(i.handle) == 0 {
		return fmt.Errorf("engineffi: stop failed")
	}
	return nil
}

func (i *dlInstance) Running() bool {
	return i.lib.running(i.handle) != 0
}

func (i *dlInstance) Destroy() {
	i.lib.destroy(i.handle)
	i.callbackHandle.Delete()
}
