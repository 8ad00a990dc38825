// Package scanner reads codes from barcode and QR readers.
package scanner

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/logger"
)

// Scanner yields one decoded code per call. ok is false when the reader
// produced nothing, for example after the input closed.
type Scanner interface {
	Scan(ctx context.Context) (code string, ok bool, err error)
}

type Kind int

const (
	KindProduct Kind = iota
	KindPIX
)

// Classify tells product barcodes apart from PIX copy-and-paste payloads,
// which are EMV QR strings starting with the payload format indicator.
func Classify(code string) Kind {
	if strings.HasPrefix(strings.TrimSpace(code), "000201") {
		return KindPIX
	}
	return KindProduct
}

type line struct {
	text string
	err  error
}

// LineScanner reads keyboard-wedge scanners, which type the code followed
// by Enter. Blank lines are skipped.
type LineScanner struct {
	once    sync.Once
	closing sync.Once
	src     *bufio.Scanner
	lines   chan line
	done    chan struct{}
	stopped chan struct{}
}

func NewLineScanner(r io.Reader) *LineScanner {
	return &LineScanner{
		src:     bufio.NewScanner(r),
		lines:   make(chan line),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (s *LineScanner) start() {
	go func() {
		defer close(s.stopped)
		defer close(s.lines)
		for s.src.Scan() {
			if !s.send(line{text: s.src.Text()}) {
				return
			}
		}
		if err := s.src.Err(); err != nil {
			s.send(line{err: err})
		}
	}()
}

func (s *LineScanner) send(l line) bool {
	select {
	case s.lines <- l:
		return true
	case <-s.done:
		return false
	}
}

// Close stops delivering codes. A read already blocked on the underlying
// reader finishes on its own, after which the reading goroutine exits.
func (s *LineScanner) Close() error {
	s.closing.Do(func() { close(s.done) })
	return nil
}

func (s *LineScanner) Scan(ctx context.Context) (string, bool, error) {
	s.once.Do(s.start)
	for {
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-s.done:
			return "", false, nil
		case l, open := <-s.lines:
			if !open {
				return "", false, nil
			}
			if l.err != nil {
				return "", false, l.err
			}
			code := strings.TrimSpace(l.text)
			if code == "" {
				continue
			}
			return code, true, nil
		}
	}
}

// ErrNoScanner is returned by a Scanner that is not attached to a device.
var ErrNoScanner = errors.New("scanner: no device")

type Disabled struct{}

func (Disabled) Scan(context.Context) (string, bool, error) {
	return "", false, ErrNoScanner
}

// Till is the part of the service a scanner feeds.
type Till interface {
	ProductByCod(cod string) (domain.Product, error)
	AddToCart(productID string, qty decimal.Decimal) (domain.CartItem, error)
}

// Pump adds one unit to the cart for every product code read from s and
// hands PIX payloads to onPIX. Rejected codes are logged and skipped. It
// returns nil once s is exhausted.
func Pump(ctx context.Context, s Scanner, till Till, onPIX func(payload string), log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	for {
		code, ok, err := s.Scan(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		if Classify(code) == KindPIX {
			if onPIX != nil {
				onPIX(code)
			}
			continue
		}

		product, err := till.ProductByCod(code)
		if err != nil {
			log.Warnw("scanned code not in catalog", "cod", code)
			continue
		}
		item, err := till.AddToCart(product.ID, decimal.NewFromInt(1))
		if err != nil {
			log.Warnw("scanned item rejected", "cod", code, "error", err)
			continue
		}
		log.Debugw("scanned item added", "cod", code, "quantity", item.Quantity.String())
	}
}
