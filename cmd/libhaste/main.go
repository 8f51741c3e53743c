// Command libhaste builds the C shared library a host application links
// against:
//
//	go build -buildmode=c-shared -o libhaste.dylib ./cmd/libhaste
//
// Handles are runtime/cgo handles. Every pointer returned to C is allocated
// with malloc and released only by haste_free_item or haste_free_item_array.
package main

/*
#define HASTE_NO_PROTOTYPES
#include <stdlib.h>
#include "haste.h"
*/
import "C"

import (
	"os"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/yiblet/haste/internal/bridge"
	"github.com/yiblet/haste/internal/logger"
)

// live holds every open handle. Unknown handles fail with NULL or -1.
var live sync.Map

var (
	logOnce sync.Once
	log     logger.Logger
)

// boundaryLogger logs to stderr at the level named by HASTE_LOG_LEVEL,
// or discards everything when it is unset.
func boundaryLogger() logger.Logger {
	logOnce.Do(func() {
		log = logger.Nop()
		if level := os.Getenv("HASTE_LOG_LEVEL"); logger.ValidLevel(level) {
			if l, err := logger.New(level, false); err == nil {
				log = l
			}
		}
	})
	return log
}

func adapterFor(h C.uintptr_t) *bridge.Adapter {
	v, ok := live.Load(cgo.Handle(h))
	if !ok {
		return nil
	}
	return v.(*bridge.Adapter)
}

func optionalString(s *C.char) *string {
	if s == nil {
		return nil
	}
	v := C.GoString(s)
	return &v
}

//export haste_open
func haste_open(dbPath, blobsDir *C.char) C.uintptr_t {
	if dbPath == nil || blobsDir == nil {
		return 0
	}

	a := bridge.Open(C.GoString(dbPath), C.GoString(blobsDir), boundaryLogger())
	if a == nil {
		return 0
	}

	h := cgo.NewHandle(a)
	live.Store(h, a)
	return C.uintptr_t(h)
}

//export haste_close
func haste_close(h C.uintptr_t) {
	v, ok := live.LoadAndDelete(cgo.Handle(h))
	if !ok {
		return
	}
	v.(*bridge.Adapter).Close()
	cgo.Handle(h).Delete()
}

//export haste_add
func haste_add(h C.uintptr_t, kind C.int32_t, content, sourceApp *C.char, createdAt C.int64_t) C.int64_t {
	a := adapterFor(h)
	if a == nil || content == nil {
		return C.int64_t(bridge.FailedID)
	}
	return C.int64_t(a.Add(int32(kind), C.GoString(content), optionalString(sourceApp), int64(createdAt)))
}

//export haste_add_with_dedup
func haste_add_with_dedup(h C.uintptr_t, kind C.int32_t, content, sourceApp *C.char, createdAt C.int64_t, outBumped *C.int32_t) C.int64_t {
	a := adapterFor(h)
	if a == nil || content == nil {
		return C.int64_t(bridge.FailedID)
	}

	id, bumped := a.AddWithDedup(int32(kind), C.GoString(content), optionalString(sourceApp), int64(createdAt))
	if outBumped != nil {
		*outBumped = 0
		if bumped {
			*outBumped = 1
		}
	}
	return C.int64_t(id)
}

//export haste_search
func haste_search(h C.uintptr_t, query *C.char, limit C.int32_t) *C.HasteItemArray {
	a := adapterFor(h)
	if a == nil || query == nil {
		return nil
	}

	items, ok := a.Search(C.GoString(query), int32(limit))
	if !ok {
		return nil
	}

	arr := (*C.HasteItemArray)(C.calloc(1, C.size_t(unsafe.Sizeof(C.HasteItemArray{}))))
	if arr == nil {
		return nil
	}
	if len(items) == 0 {
		return arr
	}

	arr.items = (*C.HasteItem)(C.calloc(C.size_t(len(items)), C.size_t(unsafe.Sizeof(C.HasteItem{}))))
	if arr.items == nil {
		C.free(unsafe.Pointer(arr))
		return nil
	}
	arr.count = C.size_t(len(items))

	out := unsafe.Slice(arr.items, len(items))
	for i := range items {
		fillItem(&out[i], &items[i])
	}
	return arr
}

//export haste_get
func haste_get(h C.uintptr_t, id C.int64_t) *C.HasteItem {
	a := adapterFor(h)
	if a == nil {
		return nil
	}

	flat, ok := a.Get(int64(id))
	if !ok {
		return nil
	}

	item := (*C.HasteItem)(C.calloc(1, C.size_t(unsafe.Sizeof(C.HasteItem{}))))
	if item == nil {
		return nil
	}
	fillItem(item, &flat)
	return item
}

//export haste_delete
func haste_delete(h C.uintptr_t, id C.int64_t) C.int32_t {
	a := adapterFor(h)
	if a == nil {
		return C.int32_t(bridge.StatusError)
	}
	return C.int32_t(a.Delete(int64(id)))
}

//export haste_set_pinned
func haste_set_pinned(h C.uintptr_t, id C.int64_t, pinned C.int32_t) C.int32_t {
	a := adapterFor(h)
	if a == nil {
		return C.int32_t(bridge.StatusError)
	}
	return C.int32_t(a.SetPinned(int64(id), int32(pinned)))
}

//export haste_free_item
func haste_free_item(item *C.HasteItem) {
	if item == nil {
		return
	}
	freeFields(item)
	C.free(unsafe.Pointer(item))
}

//export haste_free_item_array
func haste_free_item_array(arr *C.HasteItemArray) {
	if arr == nil {
		return
	}
	if arr.items != nil {
		items := unsafe.Slice(arr.items, int(arr.count))
		for i := range items {
			freeFields(&items[i])
		}
		C.free(unsafe.Pointer(arr.items))
	}
	C.free(unsafe.Pointer(arr))
}

func fillItem(dst *C.HasteItem, src *bridge.FlatItem) {
	dst.id = C.int64_t(src.ID)
	dst.kind = C.int32_t(src.Kind)
	dst.content_ref = C.CString(src.ContentRef)
	if src.SourceApp != nil {
		dst.source_app = C.CString(*src.SourceApp)
	}
	dst.created_at = C.int64_t(src.CreatedAt)
	dst.pinned = C.int32_t(src.Pinned)
	dst.tags_json = C.CString(src.TagsJSON)
}

func freeFields(item *C.HasteItem) {
	C.free(unsafe.Pointer(item.content_ref))
	C.free(unsafe.Pointer(item.source_app))
	C.free(unsafe.Pointer(item.tags_json))
}

func main() {}
