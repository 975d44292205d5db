//go:build linux && cgo

package headless

/*
#cgo LDFLAGS: -lEGL -ldl
#include <EGL/egl.h>
#include <EGL/eglext.h>
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

// Go can't call C function pointers directly, so the entry points resolved at
// runtime are wrapped in small helpers. Handles cross the boundary as uintptr_t.
static PFNEGLGETPLATFORMDISPLAYPROC egl_get_platform_display_ptr = NULL;
static PFNEGLCREATEIMAGEPROC egl_create_image_ptr = NULL;
static PFNEGLDESTROYIMAGEPROC egl_destroy_image_ptr = NULL;

static int initialize_egl_entry_points() {
    egl_get_platform_display_ptr = (PFNEGLGETPLATFORMDISPLAYPROC) eglGetProcAddress("eglGetPlatformDisplay");
    egl_create_image_ptr = (PFNEGLCREATEIMAGEPROC) eglGetProcAddress("eglCreateImage");
    egl_destroy_image_ptr = (PFNEGLDESTROYIMAGEPROC) eglGetProcAddress("eglDestroyImage");
    return egl_get_platform_display_ptr && egl_create_image_ptr && egl_destroy_image_ptr;
}

static uintptr_t get_platform_display(EGLenum platform, uintptr_t native) {
    return (uintptr_t) egl_get_platform_display_ptr(platform, (void *) native, NULL);
}

static EGLBoolean initialize(uintptr_t display, EGLint *major, EGLint *minor) {
    return eglInitialize((EGLDisplay) display, major, minor);
}

static const char *query_string(uintptr_t display, EGLint name) {
    return eglQueryString((EGLDisplay) display, name);
}

static uintptr_t choose_config(uintptr_t display, const EGLint *attribs, int *ok) {
    EGLConfig config = NULL;
    EGLint count = 0;
    *ok = eglChooseConfig((EGLDisplay) display, attribs, &config, 1, &count) && count > 0;
    return (uintptr_t) config;
}

static uintptr_t create_context(uintptr_t display, uintptr_t config, const EGLint *attribs) {
    return (uintptr_t) eglCreateContext((EGLDisplay) display, (EGLConfig) config, EGL_NO_CONTEXT, attribs);
}

static EGLBoolean make_current(uintptr_t display, uintptr_t context) {
    return eglMakeCurrent((EGLDisplay) display, EGL_NO_SURFACE, EGL_NO_SURFACE, (EGLContext) context);
}

static EGLBoolean destroy_context(uintptr_t display, uintptr_t context) {
    return eglDestroyContext((EGLDisplay) display, (EGLContext) context);
}

static EGLBoolean terminate(uintptr_t display) {
    return eglTerminate((EGLDisplay) display);
}

static uintptr_t create_image(uintptr_t display, EGLenum target, const EGLAttrib *attribs) {
    return (uintptr_t) egl_create_image_ptr((EGLDisplay) display, EGL_NO_CONTEXT, target, NULL, attribs);
}

static EGLBoolean destroy_image(uintptr_t display, uintptr_t image) {
    return egl_destroy_image_ptr((EGLDisplay) display, (EGLImage) image);
}

static void *get_proc_address(const char *name) {
    return (void *) eglGetProcAddress(name);
}

// libgbm is opened at runtime so the binary still starts on hosts without it.
struct gbm_device;
struct gbm_bo;

static void *gbm_handle = NULL;
static struct gbm_device *(*gbm_create_device_ptr)(int fd);
static void (*gbm_device_destroy_ptr)(struct gbm_device *device);
static struct gbm_bo *(*gbm_bo_create_ptr)(struct gbm_device *device, uint32_t width, uint32_t height, uint32_t format, uint32_t flags);
static int (*gbm_bo_get_fd_ptr)(struct gbm_bo *bo);
static uint32_t (*gbm_bo_get_stride_ptr)(struct gbm_bo *bo);
static void (*gbm_bo_destroy_ptr)(struct gbm_bo *bo);

static const char *load_gbm() {
    if (gbm_handle) {
        return NULL;
    }
    void *handle = dlopen("libgbm.so.1", RTLD_LAZY | RTLD_LOCAL);
    if (!handle) {
        handle = dlopen("libgbm.so", RTLD_LAZY | RTLD_LOCAL);
    }
    if (!handle) {
        return dlerror();
    }
    gbm_create_device_ptr = dlsym(handle, "gbm_create_device");
    gbm_device_destroy_ptr = dlsym(handle, "gbm_device_destroy");
    gbm_bo_create_ptr = dlsym(handle, "gbm_bo_create");
    gbm_bo_get_fd_ptr = dlsym(handle, "gbm_bo_get_fd");
    gbm_bo_get_stride_ptr = dlsym(handle, "gbm_bo_get_stride");
    gbm_bo_destroy_ptr = dlsym(handle, "gbm_bo_destroy");
    if (!gbm_create_device_ptr || !gbm_device_destroy_ptr || !gbm_bo_create_ptr ||
        !gbm_bo_get_fd_ptr || !gbm_bo_get_stride_ptr || !gbm_bo_destroy_ptr) {
        dlclose(handle);
        return "libgbm is missing required symbols";
    }
    gbm_handle = handle;
    return NULL;
}

static uintptr_t gbm_create(int fd) { return (uintptr_t) gbm_create_device_ptr(fd); }
static void gbm_destroy(uintptr_t device) { gbm_device_destroy_ptr((struct gbm_device *) device); }
static uintptr_t gbm_bo_create_linear(uintptr_t device, uint32_t width, uint32_t height, uint32_t format, uint32_t flags) {
    return (uintptr_t) gbm_bo_create_ptr((struct gbm_device *) device, width, height, format, flags);
}
static int gbm_bo_fd(uintptr_t bo) { return gbm_bo_get_fd_ptr((struct gbm_bo *) bo); }
static uint32_t gbm_bo_stride(uintptr_t bo) { return gbm_bo_get_stride_ptr((struct gbm_bo *) bo); }
static void gbm_bo_free(uintptr_t bo) { gbm_bo_destroy_ptr((struct gbm_bo *) bo); }
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/richinsley/gpunv12/graphics"
)

type eglLib struct{}

type gbmLib struct{}

// System returns the tables backed by the host's libEGL and libgbm.
func System() (Platform, error) {
	if C.initialize_egl_entry_points() == 0 {
		return Platform{}, errors.New("libEGL does not provide EGL 1.5 platform display and image entry points")
	}
	return Platform{EGL: eglLib{}, GBM: gbmLib{}}, nil
}

func (eglLib) GetPlatformDisplay(platform uint32, native uintptr) uintptr {
	return uintptr(C.get_platform_display(C.EGLenum(platform), C.uintptr_t(native)))
}

func (eglLib) Initialize(display uintptr) (int32, int32, bool) {
	var major, minor C.EGLint
	ok := C.initialize(C.uintptr_t(display), &major, &minor) == C.EGL_TRUE
	return int32(major), int32(minor), ok
}

func (eglLib) QueryString(display uintptr, name int32) string {
	return C.GoString(C.query_string(C.uintptr_t(display), C.EGLint(name)))
}

func (eglLib) ChooseConfig(display uintptr, attribs []int32) (uintptr, bool) {
	var ok C.int
	config := C.choose_config(C.uintptr_t(display), (*C.EGLint)(unsafe.Pointer(&attribs[0])), &ok)
	return uintptr(config), ok != 0
}

func (eglLib) BindAPI(api uint32) bool {
	return C.eglBindAPI(C.EGLenum(api)) == C.EGL_TRUE
}

func (eglLib) CreateContext(display, config uintptr, attribs []int32) uintptr {
	return uintptr(C.create_context(C.uintptr_t(display), C.uintptr_t(config), (*C.EGLint)(unsafe.Pointer(&attribs[0]))))
}

func (eglLib) MakeCurrent(display, context uintptr) bool {
	return C.make_current(C.uintptr_t(display), C.uintptr_t(context)) == C.EGL_TRUE
}

func (eglLib) DestroyContext(display, context uintptr) bool {
	return C.destroy_context(C.uintptr_t(display), C.uintptr_t(context)) == C.EGL_TRUE
}

func (eglLib) Terminate(display uintptr) bool {
	return C.terminate(C.uintptr_t(display)) == C.EGL_TRUE
}

func (eglLib) CreateImage(display uintptr, target uint32, attribs []int) uintptr {
	return uintptr(C.create_image(C.uintptr_t(display), C.EGLenum(target), (*C.EGLAttrib)(unsafe.Pointer(&attribs[0]))))
}

func (eglLib) DestroyImage(display, image uintptr) bool {
	return C.destroy_image(C.uintptr_t(display), C.uintptr_t(image)) == C.EGL_TRUE
}

func (eglLib) GetError() int32 { return int32(C.eglGetError()) }

func (eglLib) LoadGL() (graphics.GL, error) {
	return graphics.Load(func(name string) unsafe.Pointer {
		cname := C.CString(name)
		defer C.free(unsafe.Pointer(cname))
		return C.get_proc_address(cname)
	})
}

func (gbmLib) Available() error {
	if msg := C.load_gbm(); msg != nil {
		return fmt.Errorf("couldn't load libgbm: %s", C.GoString(msg))
	}
	return nil
}

func (gbmLib) CreateDevice(fd int) uintptr { return uintptr(C.gbm_create(C.int(fd))) }

func (gbmLib) DestroyDevice(device uintptr) { C.gbm_destroy(C.uintptr_t(device)) }

func (gbmLib) CreateBuffer(device uintptr, width, height int, format, flags uint32) uintptr {
	return uintptr(C.gbm_bo_create_linear(C.uintptr_t(device), C.uint32_t(width), C.uint32_t(height), C.uint32_t(format), C.uint32_t(flags)))
}

func (gbmLib) BufferFD(bo uintptr) int { return int(C.gbm_bo_fd(C.uintptr_t(bo))) }

func (gbmLib) BufferStride(bo uintptr) int { return int(C.gbm_bo_stride(C.uintptr_t(bo))) }

func (gbmLib) DestroyBuffer(bo uintptr) { C.gbm_bo_free(C.uintptr_t(bo)) }
