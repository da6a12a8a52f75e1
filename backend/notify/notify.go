/*
 * backend/notify/notify.go
 *
 * Notification service shared by gateways and views.
 * - Inert until a display surface binds an Emitter.
 * - One surface at a time; a second Bind fails until Unbind.
 */

package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Variant is the visual style of a toast.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
	VariantError   Variant = "error"
)

// Toast is one transient notification.
type Toast struct {
	ID      string    `json:"id"`
	Variant Variant   `json:"variant"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Emitter is the display surface a Service forwards toasts to.
type Emitter interface {
	Emit(ctx context.Context, toast Toast)
}

// Logger mirrors every emitted toast into the application log.
type Logger interface {
	Info(message string, source ...string)
	Warn(message string, source ...string)
	Error(message string, source ...string)
}

// Observer is told about every emitted toast.
type Observer interface {
	ObserveNotification(variant string)
}

// ErrAlreadyBound is returned by Bind while another surface is bound.
var ErrAlreadyBound = errors.New("notification surface already bound")

// Service routes notifications to the bound display surface.
type Service struct {
	mu       sync.RWMutex
	emitter  Emitter
	logger   Logger
	observer Observer
	now      func() time.Time
}

// NewService returns an unbound Service. logger and observer may be nil.
func NewService(logger Logger, observer Observer) *Service {
	return &Service{logger: logger, observer: observer, now: time.Now}
}

// Bind attaches the display surface. It fails if one is already attached.
func (s *Service) Bind(emitter Emitter) error {
	if emitter == nil {
		return errors.New("notification surface must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emitter != nil {
		return ErrAlreadyBound
	}
	s.emitter = emitter
	return nil
}

// Unbind detaches emitter if it is the bound surface.
func (s *Service) Unbind(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emitter == emitter {
		s.emitter = nil
	}
}

// Bound reports whether a surface is attached.
func (s *Service) Bound() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emitter != nil
}

func (s *Service) Success(ctx context.Context, message string) {
	s.emit(ctx, VariantSuccess, message)
}

func (s *Service) Warning(ctx context.Context, message string) {
	s.emit(ctx, VariantWarning, message)
}

func (s *Service) Info(ctx context.Context, message string) {
	s.emit(ctx, VariantInfo, message)
}

func (s *Service) Error(ctx context.Context, message string) {
	s.emit(ctx, VariantError, message)
}

func (s *Service) emit(ctx context.Context, variant Variant, message string) {
	if s == nil {
		return
	}
	s.mu.RLock()
	emitter := s.emitter
	s.mu.RUnlock()
	if emitter == nil {
		return
	}

	if s.logger != nil {
		switch variant {
		case VariantError:
			s.logger.Error(message, "Notify")
		case VariantWarning:
			s.logger.Warn(message, "Notify")
		default:
			s.logger.Info(message, "Notify")
		}
	}
	if s.observer != nil {
		s.observer.ObserveNotification(string(variant))
	}

	emitter.Emit(ctx, Toast{
		ID:      uuid.NewString(),
		Variant: variant,
		Message: message,
		Time:    s.now(),
	})
}
