//go:build windows

package overlay

import (
	"context"
	"fmt"
	"image"
	"log"
	"runtime"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"

	"circle-search/src/capture"
)

// windowsSelector shows a full-screen topmost window over the virtual
// screen with the frozen desktop as background, tracks the drag with a
// Tracker and rubber-bands the live rectangle in GDI.
type windowsSelector struct{}

func newPlatformSelector() Selector { return &windowsSelector{} }

type selectOutcome struct {
	region    capture.Region
	cancelled bool
}

// Package-level state for the window procedure. Only one overlay can exist
// at a time (enforced by acquireSurface), so this is safe.
var (
	ovTracker    Tracker
	ovResult     chan selectOutcome
	ovBackground *image.RGBA
	ovVirtualX   int32
	ovVirtualY   int32
	ovCursor     win.HCURSOR
)

func (w *windowsSelector) Select(ctx context.Context) (capture.Region, bool, error) {
	acquireSurface()
	defer releaseSurface()

	// The window and its message loop must live on one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	log.Printf("Overlay: virtual screen x=%d y=%d w=%d h=%d", vx, vy, vw, vh)
	ovVirtualX, ovVirtualY = vx, vy

	// Freeze the desktop under the overlay so the user selects against a
	// static image.
	bg, err := capture.FullScreen()
	if err != nil {
		return capture.Region{}, false, fmt.Errorf("failed to capture screen for overlay: %w", err)
	}
	ovBackground = bg
	defer func() { ovBackground = nil }()

	ovTracker.Reset()
	ovResult = make(chan selectOutcome, 1)
	ovCursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))

	classNameStr := fmt.Sprintf("CircleSearchOverlay_%d", time.Now().UnixNano())
	className := syscall.StringToUTF16Ptr(classNameStr)
	wndClass := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   syscall.NewCallback(overlayWndProc),
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       ovCursor,
		HbrBackground: 0,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wndClass) == 0 {
		return capture.Region{}, false, fmt.Errorf("failed to register overlay window class")
	}
	defer win.UnregisterClass(className)

	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST,
		className,
		syscall.StringToUTF16Ptr("Drag to select, ESC cancels"),
		win.WS_POPUP|win.WS_VISIBLE,
		vx, vy, vw, vh,
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		return capture.Region{}, false, fmt.Errorf("failed to create overlay window")
	}
	defer win.DestroyWindow(hwnd)

	win.ShowWindow(hwnd, win.SW_SHOW)
	win.SetForegroundWindow(hwnd)
	win.BringWindowToTop(hwnd)
	win.SetFocus(hwnd)
	win.UpdateWindow(hwnd)

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			log.Printf("Overlay: message loop ended (ret=%d)", ret)
			return capture.Region{}, true, nil
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)

		select {
		case out := <-ovResult:
			if out.cancelled {
				log.Printf("Overlay: selection cancelled")
				return capture.Region{}, true, nil
			}
			log.Printf("Overlay: selection completed: %s", out.region)
			return out.region, false, nil
		case <-ctx.Done():
			log.Printf("Overlay: context cancelled during selection")
			return capture.Region{}, true, nil
		default:
		}
	}
}

func postOutcome(out selectOutcome) {
	select {
	case ovResult <- out:
	default:
	}
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	switch msg {
	case win.WM_LBUTTONDOWN:
		x := int(int16(win.LOWORD(uint32(lParam))))
		y := int(int16(win.HIWORD(uint32(lParam))))
		win.SetCapture(hwnd)
		ovTracker.Down(x, y)
		win.InvalidateRect(hwnd, nil, false)
		return 0

	case win.WM_MOUSEMOVE:
		if ovTracker.Dragging() {
			x := int(int16(win.LOWORD(uint32(lParam))))
			y := int(int16(win.HIWORD(uint32(lParam))))
			ovTracker.Move(x, y)
			win.InvalidateRect(hwnd, nil, false)
			win.UpdateWindow(hwnd)
		}
		return 0

	case win.WM_LBUTTONUP:
		if ovTracker.Dragging() {
			win.ReleaseCapture()
			x := int(int16(win.LOWORD(uint32(lParam))))
			y := int(int16(win.HIWORD(uint32(lParam))))
			local, ok := ovTracker.Up(x, y)
			if !ok {
				// A click without a drag cancels the cycle.
				log.Printf("Overlay: degenerate selection, cancelling")
				postOutcome(selectOutcome{cancelled: true})
				return 0
			}
			region := capture.Region{
				X:      local.X + int(ovVirtualX),
				Y:      local.Y + int(ovVirtualY),
				Width:  local.Width,
				Height: local.Height,
			}
			postOutcome(selectOutcome{region: region})
		}
		return 0

	case win.WM_KEYDOWN:
		if wParam == win.VK_ESCAPE {
			log.Printf("Overlay: ESC pressed")
			ovTracker.Reset()
			postOutcome(selectOutcome{cancelled: true})
		}
		return 0

	case win.WM_KILLFOCUS:
		// Losing focus mid-selection leaves a stuck overlay otherwise.
		log.Printf("Overlay: focus lost, cancelling")
		ovTracker.Reset()
		postOutcome(selectOutcome{cancelled: true})
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		drawOverlayBackground(hdc)
		if ovTracker.Dragging() {
			drawSelectionRect(hdc, ovTracker.Rect())
		}
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_SETCURSOR:
		win.SetCursor(ovCursor)
		return 1

	case win.WM_NCHITTEST:
		// Treat every point as client area so the window sees all mouse input.
		return uintptr(win.HTCLIENT)

	case win.WM_DESTROY:
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

var (
	gdi32         = syscall.NewLazyDLL("gdi32.dll")
	procCreatePen = gdi32.NewProc("CreatePen")
	procRectangle = gdi32.NewProc("Rectangle")
)

// drawOverlayBackground blits the frozen desktop capture onto the overlay.
func drawOverlayBackground(hdc win.HDC) {
	if ovBackground == nil {
		return
	}
	b := ovBackground.Bounds()
	width, height := b.Dx(), b.Dy()

	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	bitmapInfo := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(width),
			BiHeight:      -int32(height), // top-down
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}

	var pBits unsafe.Pointer
	hBitmap := win.CreateDIBSection(memDC, &bitmapInfo.BmiHeader, win.DIB_RGB_COLORS, &pBits, 0, 0)
	if hBitmap == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hBitmap))

	oldBitmap := win.SelectObject(memDC, win.HGDIOBJ(hBitmap))
	defer win.SelectObject(memDC, oldBitmap)

	// Copy RGBA pixels into the BGRA DIB, rows DWORD-aligned.
	stride := (((int32(width)*32 + 31) &^ 31) / 8)
	for y := 0; y < height; y++ {
		rowPtr := (*[1 << 29]byte)(unsafe.Pointer(uintptr(pBits) + uintptr(y)*uintptr(stride)))
		srcRow := ovBackground.Pix[y*ovBackground.Stride:]
		for x := 0; x < width; x++ {
			si := x * 4
			di := x * 4
			rowPtr[di] = srcRow[si+2]   // B
			rowPtr[di+1] = srcRow[si+1] // G
			rowPtr[di+2] = srcRow[si]   // R
			rowPtr[di+3] = srcRow[si+3] // A
		}
	}

	win.BitBlt(hdc, 0, 0, int32(width), int32(height), memDC, 0, 0, win.SRCCOPY)
}

// drawSelectionRect rubber-bands the live rectangle.
func drawSelectionRect(hdc win.HDC, r capture.Region) {
	pen, _, _ := procCreatePen.Call(0, 2, 0x00D47800) // PS_SOLID, accent blue (BGR)
	oldPen := win.SelectObject(hdc, win.HGDIOBJ(pen))
	oldBrush := win.SelectObject(hdc, win.GetStockObject(win.NULL_BRUSH))

	procRectangle.Call(uintptr(hdc), uintptr(int32(r.X)), uintptr(int32(r.Y)),
		uintptr(int32(r.X+r.Width)), uintptr(int32(r.Y+r.Height)))

	win.SelectObject(hdc, oldPen)
	win.SelectObject(hdc, oldBrush)
	win.DeleteObject(win.HGDIOBJ(pen))
}
