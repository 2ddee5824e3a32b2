// Package display renders preview windows on the X server.
//
// Each preview session gets its own small X11 window at the position the
// profile assigns it. Frames arrive from the refresh scheduler through the
// Sink interface and are letterboxed into the preview rectangle. Clicking
// a preview activates the source window it mirrors, unless the profile
// marks previews click-through.
package display

import (
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"

	"github.com/AreteDriver/EVE-Overview/internal/logger"
	"github.com/AreteDriver/EVE-Overview/internal/window"
)

// PreviewOptions describe one preview window to create.
type PreviewOptions struct {
	Title        string
	Geometry     window.Geometry
	AlwaysOnTop  bool
	ClickThrough bool
}

type preview struct {
	sessionID string
	win       xproto.Window
	gc        xproto.Gcontext
	width     int
	height    int

	mu    sync.Mutex
	frame *image.RGBA // last composited frame, for Expose redraws
}

// Manager owns the X connection and all preview windows.
type Manager struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	log    *zerolog.Logger

	onActivate func(sessionID string)

	mu       sync.RWMutex
	previews map[string]*preview
	byWindow map[xproto.Window]*preview
	running  bool
	stop     chan struct{}
}

// NewManager connects to the X server.
func NewManager() (*Manager, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)

	return &Manager{
		conn:     conn,
		screen:   screen,
		log:      logger.WithComponent("display"),
		previews: make(map[string]*preview),
		byWindow: make(map[xproto.Window]*preview),
		stop:     make(chan struct{}),
	}, nil
}

// SetActivateHandler installs the callback invoked when a preview window
// is clicked. Must be called before Start.
func (m *Manager) SetActivateHandler(fn func(sessionID string)) {
	m.onActivate = fn
}

// Start begins processing X events for all preview windows.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("display already running")
	}
	m.running = true
	go m.eventLoop()
	return nil
}

// Stop destroys all preview windows and closes the X connection.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stop)

	for _, p := range m.previews {
		m.destroyLocked(p)
	}
	m.previews = make(map[string]*preview)
	m.byWindow = make(map[xproto.Window]*preview)
	m.mu.Unlock()

	m.conn.Close()
	m.log.Info().Msg("Display closed")
}

// CreatePreview creates and maps one preview window for the session.
func (m *Manager) CreatePreview(sessionID string, opts PreviewOptions) error {
	w, h := opts.Geometry.Width, opts.Geometry.Height
	if w < 1 || h < 1 {
		return fmt.Errorf("preview %q has invalid size %dx%d", sessionID, w, h)
	}

	winID, err := xproto.NewWindowId(m.conn)
	if err != nil {
		return fmt.Errorf("allocate window id: %w", err)
	}

	// Click-through previews never select ButtonPress, so clicks pass to
	// whatever the window manager decides is underneath.
	events := uint32(xproto.EventMaskExposure | xproto.EventMaskStructureNotify)
	if !opts.ClickThrough {
		events |= xproto.EventMaskButtonPress
	}
	mask := uint32(xproto.CwBackPixel | xproto.CwEventMask)
	values := []uint32{0x000000, events}

	err = xproto.CreateWindowChecked(
		m.conn,
		m.screen.RootDepth,
		winID,
		m.screen.Root,
		int16(opts.Geometry.X), int16(opts.Geometry.Y),
		uint16(w), uint16(h),
		0,
		xproto.WindowClassInputOutput,
		m.screen.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		return fmt.Errorf("create preview window: %w", err)
	}

	if err := m.setWindowTitle(winID, opts.Title); err != nil {
		m.log.Warn().Err(err).Str("session", sessionID).Msg("Failed to set preview title")
	}
	if err := m.setWindowClass(winID, "eve-overview", "EVE-Overview"); err != nil {
		m.log.Warn().Err(err).Str("session", sessionID).Msg("Failed to set preview class")
	}
	if opts.AlwaysOnTop {
		if err := m.setAlwaysOnTop(winID); err != nil {
			m.log.Warn().Err(err).Str("session", sessionID).Msg("Failed to set always-on-top")
		}
	}

	if err := xproto.MapWindowChecked(m.conn, winID).Check(); err != nil {
		return fmt.Errorf("map preview window: %w", err)
	}

	// The window manager may reposition on map; reassert the profile's
	// coordinates afterwards.
	xproto.ConfigureWindow(m.conn, winID,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{uint32(int32(opts.Geometry.X)), uint32(int32(opts.Geometry.Y))})

	gc, err := xproto.NewGcontextId(m.conn)
	if err != nil {
		return fmt.Errorf("allocate graphics context: %w", err)
	}
	if err := xproto.CreateGCChecked(m.conn, gc, xproto.Drawable(winID), 0, nil).Check(); err != nil {
		return fmt.Errorf("create graphics context: %w", err)
	}
	m.conn.Sync()

	p := &preview{
		sessionID: sessionID,
		win:       winID,
		gc:        gc,
		width:     w,
		height:    h,
	}

	m.mu.Lock()
	m.previews[sessionID] = p
	m.byWindow[winID] = p
	m.mu.Unlock()

	m.log.Info().
		Str("session", sessionID).
		Int("width", w).
		Int("height", h).
		Int("x", opts.Geometry.X).
		Int("y", opts.Geometry.Y).
		Msg("Preview window created")
	return nil
}

// RemovePreview destroys the session's preview window, if it exists.
func (m *Manager) RemovePreview(sessionID string) {
	m.mu.Lock()
	p, ok := m.previews[sessionID]
	if ok {
		delete(m.previews, sessionID)
		delete(m.byWindow, p.win)
		m.destroyLocked(p)
	}
	m.mu.Unlock()
}

// PublishFrame composites a captured frame into the preview window.
// Implements the scheduler's sink.
func (m *Manager) PublishFrame(sessionID string, frame *image.RGBA) {
	p := m.lookup(sessionID)
	if p == nil {
		return
	}
	composite := letterbox(frame, p.width, p.height)

	p.mu.Lock()
	p.frame = composite
	p.mu.Unlock()

	if err := m.putImage(p, composite); err != nil {
		m.log.Debug().Err(err).Str("session", sessionID).Msg("Frame render failed")
	}
}

// PublishDegraded blanks the preview to show capture has stalled.
func (m *Manager) PublishDegraded(sessionID string) {
	p := m.lookup(sessionID)
	if p == nil {
		return
	}
	blank := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	draw.Draw(blank, blank.Bounds(), image.Black, image.Point{}, draw.Src)

	p.mu.Lock()
	p.frame = blank
	p.mu.Unlock()

	if err := m.putImage(p, blank); err != nil {
		m.log.Debug().Err(err).Str("session", sessionID).Msg("Blank render failed")
	}
}

func (m *Manager) lookup(sessionID string) *preview {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.previews[sessionID]
}

func (m *Manager) destroyLocked(p *preview) {
	if p.gc != 0 {
		xproto.FreeGC(m.conn, p.gc)
	}
	xproto.DestroyWindow(m.conn, p.win)
	m.conn.Sync()
}

func (m *Manager) eventLoop() {
	for {
		select {
		case <-m.stop:
			return
		default:
		}

		ev, err := m.conn.PollForEvent()
		if err != nil {
			m.log.Debug().Err(err).Msg("X event error")
		}
		if ev == nil && err == nil {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		switch e := ev.(type) {
		case xproto.ExposeEvent:
			m.redraw(xproto.Window(e.Window))
		case xproto.ButtonPressEvent:
			m.clicked(xproto.Window(e.Event))
		}
	}
}

func (m *Manager) redraw(win xproto.Window) {
	m.mu.RLock()
	p := m.byWindow[win]
	m.mu.RUnlock()
	if p == nil {
		return
	}

	p.mu.Lock()
	frame := p.frame
	p.mu.Unlock()
	if frame == nil {
		return
	}
	if err := m.putImage(p, frame); err != nil {
		m.log.Debug().Err(err).Str("session", p.sessionID).Msg("Expose redraw failed")
	}
}

func (m *Manager) clicked(win xproto.Window) {
	m.mu.RLock()
	p := m.byWindow[win]
	fn := m.onActivate
	m.mu.RUnlock()
	if p == nil || fn == nil {
		return
	}
	m.log.Debug().Str("session", p.sessionID).Msg("Preview clicked")
	fn(p.sessionID)
}

// letterbox fits frame into a w x h canvas, preserving aspect ratio and
// centering on black.
func letterbox(frame *image.RGBA, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.Black, image.Point{}, draw.Src)

	src := frame.Bounds()
	if src.Dx() < 1 || src.Dy() < 1 {
		return out
	}

	scaleX := float64(w) / float64(src.Dx())
	scaleY := float64(h) / float64(src.Dy())
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}
	dw := int(float64(src.Dx()) * scale)
	dh := int(float64(src.Dy()) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	ox := (w - dw) / 2
	oy := (h - dh) / 2

	dst := image.Rect(ox, oy, ox+dw, oy+dh)
	xdraw.ApproxBiLinear.Scale(out, dst, frame, src, xdraw.Src, nil)
	return out
}

// putImage converts the frame to the server's pixel layout and sends it.
func (m *Manager) putImage(p *preview, img *image.RGBA) error {
	bounds := img.Bounds()
	imgWidth := bounds.Dx()
	imgHeight := bounds.Dy()
	if imgWidth != p.width || imgHeight != p.height {
		return fmt.Errorf("frame size mismatch: got %dx%d, want %dx%d",
			imgWidth, imgHeight, p.width, p.height)
	}

	depth := m.screen.RootDepth
	setup := xproto.Setup(m.conn)

	var bitsPerPixel, scanlinePad uint8
	for _, format := range setup.PixmapFormats {
		if format.Depth == depth {
			bitsPerPixel = format.BitsPerPixel
			scanlinePad = format.ScanlinePad
			break
		}
	}
	if bitsPerPixel == 0 {
		return fmt.Errorf("no pixmap format for depth %d", depth)
	}

	bytesPerPixel := int(bitsPerPixel) / 8
	unpadded := imgWidth * bytesPerPixel
	padBytes := int(scanlinePad) / 8
	stride := ((unpadded + padBytes - 1) / padBytes) * padBytes

	data := make([]byte, stride*imgHeight)
	for y := 0; y < imgHeight; y++ {
		dstRowStart := y * stride
		for x := 0; x < imgWidth; x++ {
			srcIdx := (y*imgWidth + x) * 4
			dstIdx := dstRowStart + x*bytesPerPixel

			switch bytesPerPixel {
			case 4:
				// BGRx, matching the server's visual masks.
				data[dstIdx] = img.Pix[srcIdx+2]
				data[dstIdx+1] = img.Pix[srcIdx+1]
				data[dstIdx+2] = img.Pix[srcIdx]
				if depth == 32 {
					data[dstIdx+3] = img.Pix[srcIdx+3]
				}
			case 3:
				data[dstIdx] = img.Pix[srcIdx+2]
				data[dstIdx+1] = img.Pix[srcIdx+1]
				data[dstIdx+2] = img.Pix[srcIdx]
			default:
				return fmt.Errorf("unsupported bytes per pixel: %d", bytesPerPixel)
			}
		}
	}

	err := xproto.PutImageChecked(
		m.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(p.win),
		p.gc,
		uint16(imgWidth),
		uint16(imgHeight),
		0, 0,
		0,
		depth,
		data,
	).Check()
	if err != nil {
		return fmt.Errorf("put image: %w", err)
	}
	m.conn.Sync()
	return nil
}

func (m *Manager) setWindowTitle(win xproto.Window, title string) error {
	nameAtom, err := m.getAtom("_NET_WM_NAME")
	if err != nil {
		return err
	}
	utf8Atom, err := m.getAtom("UTF8_STRING")
	if err != nil {
		return err
	}
	return xproto.ChangePropertyChecked(
		m.conn,
		xproto.PropModeReplace,
		win,
		nameAtom,
		utf8Atom,
		8,
		uint32(len(title)),
		[]byte(title),
	).Check()
}

func (m *Manager) setWindowClass(win xproto.Window, instance, class string) error {
	classAtom, err := m.getAtom("WM_CLASS")
	if err != nil {
		return err
	}
	classStr := instance + "\x00" + class + "\x00"
	return xproto.ChangePropertyChecked(
		m.conn,
		xproto.PropModeReplace,
		win,
		classAtom,
		xproto.AtomString,
		8,
		uint32(len(classStr)),
		[]byte(classStr),
	).Check()
}

// setAlwaysOnTop asks the window manager to keep the preview above
// normal windows. Set before mapping so the hint applies immediately.
func (m *Manager) setAlwaysOnTop(win xproto.Window) error {
	stateAtom, err := m.getAtom("_NET_WM_STATE")
	if err != nil {
		return err
	}
	aboveAtom, err := m.getAtom("_NET_WM_STATE_ABOVE")
	if err != nil {
		return err
	}

	data := make([]byte, 4)
	xgb.Put32(data, uint32(aboveAtom))
	return xproto.ChangePropertyChecked(
		m.conn,
		xproto.PropModeReplace,
		win,
		stateAtom,
		xproto.AtomAtom,
		32,
		1,
		data,
	).Check()
}

func (m *Manager) getAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(m.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}
