//go:build windows

package panel

import (
	"log"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procCreateWindowEx    = user32.NewProc("CreateWindowExW")
	procDefWindowProc     = user32.NewProc("DefWindowProcW")
	procDestroyWindow     = user32.NewProc("DestroyWindow")
	procShowWindow        = user32.NewProc("ShowWindow")
	procSetWindowPos      = user32.NewProc("SetWindowPos")
	procGetSystemMetrics  = user32.NewProc("GetSystemMetrics")
	procSetTimer          = user32.NewProc("SetTimer")
	procKillTimer         = user32.NewProc("KillTimer")
	procRegisterClassEx   = user32.NewProc("RegisterClassExW")
	procUpdateWindow      = user32.NewProc("UpdateWindow")
	procGetMessage        = user32.NewProc("GetMessageW")
	procPeekMessage       = user32.NewProc("PeekMessageW")
	procDispatchMessage   = user32.NewProc("DispatchMessageW")
	procTranslateMessage  = user32.NewProc("TranslateMessage")
	procBeginPaint        = user32.NewProc("BeginPaint")
	procEndPaint          = user32.NewProc("EndPaint")
	procDrawText          = user32.NewProc("DrawTextW")
	procLoadCursor        = user32.NewProc("LoadCursorW")
	procPostThreadMessage = user32.NewProc("PostThreadMessageW")
)

const (
	wsPopup          = 0x80000000
	wsVisible        = 0x10000000
	wsExNoActivate   = 0x08000000
	wsExToolWindow   = 0x00000080
	wsExClientEdge   = 0x00000200
	wmDestroy        = 0x0002
	wmClose          = 0x0010
	wmPaint          = 0x000F
	wmTimer          = 0x0113
	wmLButtonDown    = 0x0201
	wmRButtonDown    = 0x0204
	wmNCLButtonDown  = 0x00A1
	wmNCRButtonDown  = 0x00A4
	wmUser           = 0x0400
	wmExitLoop       = wmUser + 2
	swShow           = 5
	swpNoActivate    = 0x0010
	swpNoMove        = 0x0002
	swpNoSize        = 0x0001
	hwndTopmost      = ^uintptr(0)
	smCYScreen       = 1
	dtWordBreak      = 0x00000010
	colorWindow      = 5
	idcArrow         = 32512
	closeTimerID     = 1
	closeTimerMillis = 4000
	pmRemove         = 1
)

type wndClassEx struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CbClsExtra    int32
	CbWndExtra    int32
	HInstance     windows.Handle
	HIcon         windows.Handle
	HCursor       windows.Handle
	HbrBackground windows.Handle
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       windows.Handle
}

type point struct {
	X, Y int32
}

type msg struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type rect struct {
	Left, Top, Right, Bottom int32
}

type paintStruct struct {
	Hdc         windows.Handle
	FErase      int32
	RcPaint     rect
	FRestore    int32
	FIncUpdate  int32
	RgbReserved [32]byte
}

const panelClassName = "CircleSearchPanel"

var (
	panelMu         sync.Mutex
	panelText       string
	currentHwnd     windows.Handle
	classRegistered bool
	queue           chan string
	queueOnce       sync.Once
)

type windowsPanel struct {
	fallback logPanel
}

func newPlatformPanel() Panel {
	return &windowsPanel{}
}

func (p *windowsPanel) ShowText(text string) {
	display := text
	if len(display) > 400 {
		display = display[:400] + "..."
	}
	p.fallback.ShowText(text)
	enqueue(display)
}

func (p *windowsPanel) ShowStatus(status string) {
	p.fallback.ShowStatus(status)
	enqueue(status)
}

func (p *windowsPanel) Close() {
	panelMu.Lock()
	hwnd := currentHwnd
	panelMu.Unlock()
	if hwnd != 0 {
		procDestroyWindow.Call(uintptr(hwnd))
	}
}

// enqueue hands the text to the single display thread. The queue is small
// and lossy; a dropped panel update is not worth blocking the pipeline.
func enqueue(text string) {
	queueOnce.Do(startPanelThread)
	select {
	case queue <- text:
	default:
		log.Printf("Panel: queue full, dropping update")
	}
}

func startPanelThread() {
	queue = make(chan string, 8)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panel thread panic: %v", r)
			}
		}()

		if err := registerPanelClass(); err != nil {
			log.Printf("Panel: window class registration failed: %v", err)
			return
		}
		for text := range queue {
			showPanelWindow(text)
		}
	}()
}

func registerPanelClass() error {
	panelMu.Lock()
	defer panelMu.Unlock()
	if classRegistered {
		return nil
	}

	className, _ := windows.UTF16PtrFromString(panelClassName)
	cursor, _, _ := procLoadCursor.Call(0, idcArrow)
	wc := wndClassEx{
		CbSize:        uint32(unsafe.Sizeof(wndClassEx{})),
		LpfnWndProc:   windows.NewCallback(panelWndProc),
		HCursor:       windows.Handle(cursor),
		HbrBackground: windows.Handle(colorWindow + 1),
		LpszClassName: className,
	}
	atom, _, err := procRegisterClassEx.Call(uintptr(unsafe.Pointer(&wc)))
	if atom == 0 {
		return err
	}
	classRegistered = true
	return nil
}

func panelWndProc(hwnd windows.Handle, message uint32, wParam, lParam uintptr) uintptr {
	switch message {
	case wmPaint:
		var ps paintStruct
		hdc, _, _ := procBeginPaint.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&ps)))
		panelMu.Lock()
		text := panelText
		panelMu.Unlock()
		r := rect{Left: 10, Top: 10, Right: 390, Bottom: 110}
		textPtr, _ := windows.UTF16PtrFromString(text)
		procDrawText.Call(hdc, uintptr(unsafe.Pointer(textPtr)), uintptr(^uint32(0)), uintptr(unsafe.Pointer(&r)), dtWordBreak)
		procEndPaint.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&ps)))
		return 0

	case wmTimer:
		if wParam == closeTimerID {
			procKillTimer.Call(uintptr(hwnd), closeTimerID)
			procDestroyWindow.Call(uintptr(hwnd))
		}
		return 0

	case wmLButtonDown, wmRButtonDown, wmNCLButtonDown, wmNCRButtonDown:
		// Any click dismisses the panel.
		procKillTimer.Call(uintptr(hwnd), closeTimerID)
		procDestroyWindow.Call(uintptr(hwnd))
		return 0

	case wmClose:
		procKillTimer.Call(uintptr(hwnd), closeTimerID)
		procDestroyWindow.Call(uintptr(hwnd))
		return 0

	case wmDestroy:
		panelMu.Lock()
		currentHwnd = 0
		panelMu.Unlock()
		threadID := windows.GetCurrentThreadId()
		procPostThreadMessage.Call(uintptr(threadID), wmExitLoop, 0, 0)
		return 0
	}
	ret, _, _ := procDefWindowProc.Call(uintptr(hwnd), uintptr(message), wParam, lParam)
	return ret
}

// showPanelWindow creates the popup in the lower-left corner and runs its
// message loop until dismissed.
func showPanelWindow(text string) {
	panelMu.Lock()
	panelText = text
	if currentHwnd != 0 {
		procDestroyWindow.Call(uintptr(currentHwnd))
		currentHwnd = 0
	}
	panelMu.Unlock()

	className, _ := windows.UTF16PtrFromString(panelClassName)
	windowName, _ := windows.UTF16PtrFromString("Circle Search")

	screenHeight, _, _ := procGetSystemMetrics.Call(smCYScreen)
	x := int32(20)
	y := int32(screenHeight) - 140
	width := int32(400)
	height := int32(120)

	// No-activate toolwindow so the panel never steals focus.
	hwnd, _, _ := procCreateWindowEx.Call(
		wsExNoActivate|wsExToolWindow|wsExClientEdge,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(windowName)),
		wsPopup|wsVisible,
		uintptr(x), uintptr(y), uintptr(width), uintptr(height),
		0, 0, 0, 0,
	)
	if hwnd == 0 {
		log.Printf("Panel: window creation failed")
		return
	}

	panelMu.Lock()
	currentHwnd = windows.Handle(hwnd)
	panelMu.Unlock()

	procSetWindowPos.Call(hwnd, hwndTopmost, 0, 0, 0, 0, swpNoActivate|swpNoMove|swpNoSize)
	procShowWindow.Call(hwnd, swShow)
	procUpdateWindow.Call(hwnd)
	procSetTimer.Call(hwnd, closeTimerID, closeTimerMillis, 0)

	var m msg
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if ret == 0 || m.Message == wmExitLoop {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}

	// Drain leftovers so they cannot leak into the next window's loop.
	var flush msg
	for {
		ret, _, _ := procPeekMessage.Call(uintptr(unsafe.Pointer(&flush)), 0, 0, 0, pmRemove)
		if ret == 0 {
			break
		}
	}
}
