package scanner

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

var (
	// ErrNoCamera means no video input device could be acquired.
	ErrNoCamera = errors.New("no camera device found")
	// ErrNotStreaming is returned when frames are pushed with no open stream.
	ErrNotStreaming = errors.New("camera is not streaming")
)

// Frame is one captured image.
type Frame struct {
	Image image.Image
	At    time.Time
}

// Device is a video input.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Stream delivers frames until closed. Frames is closed when the source ends.
type Stream interface {
	Frames() <-chan Frame
	Close() error
}

// Camera enumerates and opens video inputs.
type Camera interface {
	Devices(ctx context.Context) ([]Device, error)
	Open(ctx context.Context, deviceID string) (Stream, error)
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

func isImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// DirCamera treats each subdirectory of Root as a device and every image
// file dropped into it as a frame. Root itself is a device when it holds
// images directly.
type DirCamera struct {
	Root string
	Poll time.Duration
}

func (d DirCamera) Devices(ctx context.Context) ([]Device, error) {
	if d.Root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list camera dir: %w", err)
	}
	var devices []Device
	rootHasImages := false
	for _, e := range entries {
		if e.IsDir() {
			devices = append(devices, Device{ID: filepath.Join(d.Root, e.Name()), Label: e.Name()})
		} else if isImage(e.Name()) {
			rootHasImages = true
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	if rootHasImages {
		devices = append([]Device{{ID: d.Root, Label: filepath.Base(d.Root)}}, devices...)
	}
	return devices, nil
}

func (d DirCamera) Open(ctx context.Context, deviceID string) (Stream, error) {
	info, err := os.Stat(deviceID)
	if err != nil || !info.IsDir() {
		return nil, ErrNoCamera
	}
	poll := d.Poll
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	s := &dirStream{
		dir:    deviceID,
		poll:   poll,
		frames: make(chan Frame, 1),
		seen:   map[string]time.Time{},
		stop:   make(chan struct{}),
	}
	go s.run()
	return s, nil
}

type dirStream struct {
	dir    string
	poll   time.Duration
	frames chan Frame
	seen   map[string]time.Time
	stop   chan struct{}
	once   sync.Once
}

func (s *dirStream) Frames() <-chan Frame { return s.frames }

func (s *dirStream) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *dirStream) run() {
	defer close(s.frames)
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		for _, f := range s.scan() {
			select {
			case s.frames <- f:
			case <-s.stop:
				return
			}
		}
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// scan returns frames for files that are new or modified since the last pass.
func (s *dirStream) scan() []Frame {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		log.WithError(err).WithField("dir", s.dir).Warn("camera dir unreadable")
		return nil
	}
	var out []Frame
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if prev, ok := s.seen[e.Name()]; ok && !info.ModTime().After(prev) {
			continue
		}
		s.seen[e.Name()] = info.ModTime()
		img, err := loadImage(filepath.Join(s.dir, e.Name()))
		if err != nil {
			log.WithError(err).WithField("file", e.Name()).Debug("skipping unreadable frame")
			continue
		}
		out = append(out, Frame{Image: img, At: info.ModTime()})
	}
	return out
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

// PushCamera is a single device fed by callers, such as frames uploaded by a
// browser over HTTP.
type PushCamera struct {
	mu     sync.Mutex
	stream *pushStream
}

// NewPushCamera creates a push-fed camera.
func NewPushCamera() *PushCamera {
	return &PushCamera{}
}

func (p *PushCamera) Devices(ctx context.Context) ([]Device, error) {
	return []Device{{ID: "push", Label: "Uploaded frames"}}, nil
}

func (p *PushCamera) Open(ctx context.Context, deviceID string) (Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		p.stream.close()
	}
	p.stream = &pushStream{owner: p, frames: make(chan Frame, 1)}
	return p.stream, nil
}

// Push hands one frame to the open stream. A frame still waiting to be
// decoded is replaced so decoding always works on the newest image.
func (p *PushCamera) Push(img image.Image) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return ErrNotStreaming
	}
	f := Frame{Image: img, At: time.Now()}
	select {
	case p.stream.frames <- f:
	default:
		select {
		case <-p.stream.frames:
		default:
		}
		p.stream.frames <- f
	}
	return nil
}

type pushStream struct {
	owner  *PushCamera
	frames chan Frame
	closed bool
}

func (s *pushStream) Frames() <-chan Frame { return s.frames }

func (s *pushStream) Close() error {
	s.owner.mu.Lock()
	defer s.owner.mu.Unlock()
	s.close()
	return nil
}

// close requires owner.mu.
func (s *pushStream) close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.frames)
	if s.owner.stream == s {
		s.owner.stream = nil
	}
}
