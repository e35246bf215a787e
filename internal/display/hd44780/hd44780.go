// Package hd44780 drives an HD44780-compatible character LCD wired in 4-bit
// parallel mode to six GPIO outputs.
package hd44780

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"periph.io/x/conn/v3/gpio"

	"github.com/seantiz/spotipi/internal/display"
)

// Instruction set.
const (
	cmdClear        = 0x01
	cmdEntryMode    = 0x04
	cmdDisplayCtrl  = 0x08
	cmdFunctionSet  = 0x20
	cmdSetDDRAMAddr = 0x80

	entryIncrement = 0x02
	displayOn      = 0x04
	twoLine        = 0x08
)

const (
	powerOnDelay = 50 * time.Millisecond
	initDelay    = 5 * time.Millisecond
	clearDelay   = 2 * time.Millisecond
	settleDelay  = 100 * time.Microsecond
	pulseWidth   = time.Microsecond
)

// Pin is a GPIO output line. Every periph gpio.PinOut satisfies it.
type Pin interface {
	Out(l gpio.Level) error
}

// Pins are the control and data lines of the panel. Data holds D4..D7.
type Pins struct {
	RS   Pin
	E    Pin
	Data [4]Pin
}

func (p Pins) validate() error {
	if p.RS == nil || p.E == nil {
		return errors.New("hd44780: RS and E pins are required")
	}
	for i, d := range p.Data {
		if d == nil {
			return fmt.Errorf("hd44780: data pin D%d is required", i+4)
		}
	}
	return nil
}

// Dev is an initialised panel. It is safe for concurrent use.
type Dev struct {
	mu    sync.Mutex
	pins  Pins
	cols  int
	rows  int
	sleep func(time.Duration)
}

var _ display.Display = (*Dev)(nil)

// New initialises the panel for 4-bit operation and clears it.
func New(pins Pins, cols, rows int) (*Dev, error) {
	return newDev(pins, cols, rows, time.Sleep)
}

// Panel limits. Each of the two DDRAM lines holds 40 cells; on four-row
// panels rows 2 and 3 share them with rows 0 and 1.
const (
	MaxRows           = 4
	MaxColumns        = 40
	MaxFourRowColumns = 20
)

// CheckGeometry reports whether a cols x rows panel can be addressed.
func CheckGeometry(cols, rows int) error {
	switch {
	case cols <= 0 || rows <= 0:
		return fmt.Errorf("hd44780: unsupported geometry %dx%d", cols, rows)
	case rows > MaxRows:
		return fmt.Errorf("hd44780: %d rows exceeds the %d an HD44780 can address", rows, MaxRows)
	case cols > MaxColumns:
		return fmt.Errorf("hd44780: %d columns exceeds the %d cells of a DDRAM line", cols, MaxColumns)
	case rows > 2 && cols > MaxFourRowColumns:
		return fmt.Errorf("hd44780: %dx%d panel needs at most %d columns", cols, rows, MaxFourRowColumns)
	}
	return nil
}

func newDev(pins Pins, cols, rows int, sleep func(time.Duration)) (*Dev, error) {
	if err := pins.validate(); err != nil {
		return nil, err
	}
	if err := CheckGeometry(cols, rows); err != nil {
		return nil, err
	}

	d := &Dev{pins: pins, cols: cols, rows: rows, sleep: sleep}
	if err := d.init(); err != nil {
		return nil, fmt.Errorf("hd44780: init: %w", err)
	}
	return d, nil
}

// init runs the reset-by-instruction sequence that forces 4-bit mode
// regardless of the state the controller powered up in.
func (d *Dev) init() error {
	d.sleep(powerOnDelay)
	if err := d.pins.RS.Out(gpio.Low); err != nil {
		return err
	}
	for _, delay := range []time.Duration{initDelay, initDelay, settleDelay} {
		if err := d.write4(0x03); err != nil {
			return err
		}
		d.sleep(delay)
	}
	if err := d.write4(0x02); err != nil {
		return err
	}

	function := byte(cmdFunctionSet)
	if d.rows > 1 {
		function |= twoLine
	}
	for _, c := range []byte{function, cmdDisplayCtrl | displayOn, cmdEntryMode | entryIncrement} {
		if err := d.command(c); err != nil {
			return err
		}
	}
	return d.clear()
}

// Size reports the panel geometry.
func (d *Dev) Size() (int, int) {
	return d.cols, d.rows
}

// Clear blanks the panel and homes the cursor.
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clear()
}

// Show writes lines row by row, padding each with spaces so stale
// characters are overwritten without a visible clear.
func (d *Dev) Show(lines []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for row := 0; row < d.rows; row++ {
		var line string
		if row < len(lines) {
			line = display.Fit(lines[row], d.cols)
		}
		if err := d.setCursor(row, 0); err != nil {
			return err
		}
		if err := d.write(display.Pad(line, d.cols)); err != nil {
			return err
		}
	}
	return nil
}

// Close clears the panel and switches it off.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var result *multierror.Error
	if err := d.clear(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := d.command(cmdDisplayCtrl); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// rowOffset returns the DDRAM address of the first column of row. Rows 2
// and 3 continue rows 0 and 1 past the visible width.
func (d *Dev) rowOffset(row int) byte {
	base := byte(0)
	if row%2 == 1 {
		base = 0x40
	}
	if row >= 2 {
		base += byte(d.cols)
	}
	return base
}

func (d *Dev) setCursor(row, col int) error {
	return d.command(cmdSetDDRAMAddr | (d.rowOffset(row) + byte(col)))
}

func (d *Dev) clear() error {
	if err := d.command(cmdClear); err != nil {
		return err
	}
	d.sleep(clearDelay)
	return nil
}

func (d *Dev) write(s string) error {
	for i := 0; i < len(s); i++ {
		if err := d.send(s[i], gpio.High); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) command(c byte) error {
	return d.send(c, gpio.Low)
}

func (d *Dev) send(b byte, rs gpio.Level) error {
	if err := d.pins.RS.Out(rs); err != nil {
		return err
	}
	if err := d.write4(b >> 4); err != nil {
		return err
	}
	return d.write4(b & 0x0f)
}

// write4 latches the low nibble of n on D4..D7 with a pulse on E.
func (d *Dev) write4(n byte) error {
	for i, p := range d.pins.Data {
		if err := p.Out(gpio.Level(n&(1<<i) != 0)); err != nil {
			return err
		}
	}
	if err := d.pins.E.Out(gpio.High); err != nil {
		return err
	}
	d.sleep(pulseWidth)
	if err := d.pins.E.Out(gpio.Low); err != nil {
		return err
	}
	d.sleep(settleDelay)
	return nil
}
